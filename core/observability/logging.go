package observability

import (
	"io"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// NewLogger builds a leveled logfmt console logger. Recognized levels
// are debug, info, warn, error and none; anything else means info.
func NewLogger(logLevel string) log.Logger {
	return NewLoggerTo(os.Stdout, logLevel)
}

// NewLoggerTo builds a leveled logfmt logger writing to w.
func NewLoggerTo(w io.Writer, logLevel string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "app", "quickserv")

	switch strings.ToLower(logLevel) {
	case "debug":
		logger = level.NewFilter(logger, level.AllowDebug())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	case "none":
		logger = level.NewFilter(logger, level.AllowNone())
	default:
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	return logger
}
