package logger

import (
	"io"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// NewPretty returns a colorized, human-friendly logger for CLI commands
// (replay, watch). Services use NewLogger instead.
func NewPretty(w io.Writer, debug bool) *charmlog.Logger {
	level := charmlog.InfoLevel
	if debug {
		level = charmlog.DebugLevel
	}

	return charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
}
