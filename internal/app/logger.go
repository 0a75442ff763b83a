package app

import (
	"log/slog"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/logging"
)

// NewLogger builds the process logger from configuration. Every record
// passes the sanitizer in internal/logging before serialization.
func NewLogger(cfg *Config) *slog.Logger {
	return logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
}
