// Package logger builds the process-wide slog.Logger from the logging
// config section: a colorized console handler for interactive use, JSON
// for anything that scrapes the output.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Options selects the handler and verbosity.
type Options struct {
	Level  string // debug, info, warn, error (default info)
	Format string // "console" (default) or "json"
}

// New builds a logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	level := parseLevel(opts.Level)

	var handler slog.Handler
	switch opts.Format {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		})
	}
	return slog.New(handler)
}

// NewDefault returns a console logger at info level on stdout.
func NewDefault() *slog.Logger {
	return New(os.Stdout, Options{})
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
