// Package logging provides the structured warning/error logger used by
// internal components (extraction, multipart assembly, config loading).
// User-facing CLI summaries use plain colored fmt output instead (see
// internal/report and internal/debugrun) — this logger is for ambient,
// non-interactive diagnostics, the only form of structured logging shown
// anywhere in the example corpus (log/slog, no third-party logging library
// appears in any example repo's go.mod).
package logging

import (
	"log/slog"
	"os"
	"sync"
)

var (
	once   sync.Once
	logger *slog.Logger
)

func get() *slog.Logger {
	once.Do(func() {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	})
	return logger
}

// Warn logs a one-off warning with optional key/value attributes.
func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}

// Error logs an error-level diagnostic.
func Error(msg string, args ...any) {
	get().Error(msg, args...)
}
