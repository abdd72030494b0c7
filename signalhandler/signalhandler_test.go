package signalhandler

import (
	"context"
	"testing"
)

func TestGetOptimalProcs(t *testing.T) {
	if n := GetOptimalProcs(); n < 1 {
		t.Errorf("GetOptimalProcs() = %d, want >= 1", n)
	}
}

func TestSetupHandler_CancelPropagates(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := SetupHandler(parent)
	defer cancel()

	cancelParent()
	<-ctx.Done()
	if ctx.Err() == nil {
		t.Error("expected context to be cancelled with its parent")
	}
}
