package log

import "sync/atomic"

var global atomic.Pointer[Logger]

// SetDefaultLogger installs the process-wide logger. The cmd layer calls
// this once after flag parsing; everything downstream reads it through
// DefaultLogger.
func SetDefaultLogger(logger *Logger) {
	global.Store(logger)
}

// DefaultLogger returns the process-wide logger, building one with the
// default configuration on first use.
func DefaultLogger() *Logger {
	if logger := global.Load(); logger != nil {
		return logger
	}
	logger := Default()
	global.CompareAndSwap(nil, logger)
	return global.Load()
}
