package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	logger  = newDefaultLogger()
	logFile *os.File
	mu      sync.Mutex
	isSetup bool
)

func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	return l
}

// Options configures the process logger
type Options struct {
	LogFile string // optional, appended to alongside stderr
	Debug   bool
	RunID   string // attached to every entry when set
}

var runID string

// SetupLogger configures the logger. Stderr always receives output; a log
// file, when given, receives a copy.
func SetupLogger(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	var out io.Writer = os.Stderr
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		out = io.MultiWriter(os.Stderr, f)
	}
	logger.SetOutput(out)

	if opts.Debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	runID = opts.RunID

	logger.WithFields(fields()).Debugf("--- visdedupe log started at %s ---", time.Now().Format(time.RFC3339))

	isSetup = true
	return nil
}

// CloseLogger closes the log file and restores stderr-only output
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logger.WithFields(fields()).Debugf("--- visdedupe log closed at %s ---", time.Now().Format(time.RFC3339))
		logger.SetOutput(os.Stderr)
		logFile.Close()
		logFile = nil
	}
	runID = ""
	isSetup = false
}

func fields() logrus.Fields {
	if runID == "" {
		return logrus.Fields{}
	}
	return logrus.Fields{"run": runID}
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	logger.WithFields(fields()).Infof(format, args...)
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	logger.WithFields(fields()).Debugf(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logger.WithFields(fields()).Errorf(format, args...)
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	logger.WithFields(fields()).Warnf(format, args...)
}

// LogImageProcessed logs when an image is processed
func LogImageProcessed(path string, success bool, errMsg string) {
	entry := logger.WithFields(fields()).WithField("path", path)
	if success {
		entry.Debug("processed")
	} else {
		entry.WithField("error", errMsg).Debug("failed")
	}
}

// LogSkip records why a file was excluded from deduplication. Skips are
// always emitted so the exclusion can be audited.
func LogSkip(path, reason, detail string) {
	entry := logger.WithFields(fields()).WithFields(logrus.Fields{"path": path, "reason": reason})
	if detail != "" {
		entry = entry.WithField("detail", detail)
	}
	entry.Warn("skip")
}
