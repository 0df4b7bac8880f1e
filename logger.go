package disposable

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	nopLogger = zap.NewNop()
	logger    atomic.Pointer[zap.Logger]
)

// Logger returns the package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}

	return nopLogger
}

// SetLogger configures the package's logger. Passing nil restores the no-op
// logger.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
