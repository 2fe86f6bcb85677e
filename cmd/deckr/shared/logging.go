package shared

import (
	"io"

	"github.com/charmbracelet/log"
)

// SetupLogger creates a logger writing to w at the named level. Unknown
// levels fall back to info.
func SetupLogger(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
	})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
