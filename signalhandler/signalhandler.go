package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"visdedupe/logging"
)

// SetupHandler returns a context that is cancelled on SIGINT or SIGTERM.
// Work already finished when the signal arrives is kept as a partial result.
func SetupHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logging.LogWarning("Received %s, finishing with partial results", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// GetOptimalProcs returns the default worker count for decode and hash work
func GetOptimalProcs() int {
	numCPU := runtime.NumCPU()

	// Leave headroom for the accumulator and the OS
	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}

	return maxProcs
}
