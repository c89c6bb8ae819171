// Package logging builds the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

// New returns a slog logger writing to w. format is "text" (human readable,
// rendered by charmbracelet/log) or "json". level is debug, info, warn or error.
func New(w io.Writer, format, level string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           lvl,
		})), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel(lvl)})), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

// Setup installs the logger as the slog default.
func Setup(w io.Writer, format, level string) error {
	l, err := New(w, format, level)
	if err != nil {
		return err
	}
	slog.SetDefault(l)
	return nil
}

func slogLevel(l log.Level) slog.Level {
	switch {
	case l <= log.DebugLevel:
		return slog.LevelDebug
	case l <= log.InfoLevel:
		return slog.LevelInfo
	case l <= log.WarnLevel:
		return slog.LevelWarn
	}
	return slog.LevelError
}
