// Package logging initializes the module's structured logging.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds a slog logger from level ("debug", "info", "warn", "error")
// and format ("text" or "json") and installs it as the process default.
// Unknown values fall back to info-level text output.
func Setup(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ComponentLogger returns the default logger tagged with a component name, so
// every line a component emits carries its origin.
func ComponentLogger(name string) *slog.Logger {
	return slog.Default().With("component", name)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
