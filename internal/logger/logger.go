// Package logger builds the application's slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger initializes a slog logger with the given level and format.
// A nil output defaults to stdout; an unparsable level falls back to info.
func NewLogger(level, format string, output io.Writer) *slog.Logger {
	if output == nil {
		output = os.Stdout
	}

	lvl := new(slog.Level)
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = new(slog.Level)
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
