package decode

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package-wide logger, defaulting to a no-op so that
// embedders who never call SetLogger pay nothing for logging.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger installs l as the package-wide logger. Call it before Decode
// to observe skipped custom sections and deferred linker work at debug
// level.
func SetLogger(l *zap.Logger) {
	logger = l
}
