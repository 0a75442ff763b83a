// Package logging builds the process logger: structured slog output with
// a sanitizing layer that redacts credentials and token-shaped strings
// before any record is serialized.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls logger construction. The zero value yields JSON on
// stdout at info level.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// New builds a sanitizing slog logger. Format "pretty" selects the
// human-readable text handler, anything else single-line JSON.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var inner slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "pretty", "text":
		inner = slog.NewTextHandler(out, opts)
	default:
		inner = slog.NewJSONHandler(out, opts)
	}
	return slog.New(&sanitizingHandler{inner: inner})
}

// ParseLevel maps a level name to its slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// Fatal logs at error level and terminates the process. Reserved for
// startup faults where continuing would run with broken invariants.
func Fatal(l *slog.Logger, msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}
