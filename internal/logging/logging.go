// ABOUTME: Builds the process slog logger from configuration.
// ABOUTME: JSON or text output to stderr at the configured level.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/harperreed/healthdb/internal/config"
)

// New creates a *slog.Logger based on cfg and sets it as the default logger.
//
// Format "json" produces structured JSON output. Format "text" produces
// human-readable output with source info. Level is one of debug, info, warn,
// error (case-insensitive) and defaults to info. Output is always os.Stderr.
func New(cfg config.LogConfig) *slog.Logger {
	logger := NewWithWriter(cfg, os.Stderr)
	slog.SetDefault(logger)
	return logger
}

// NewWithWriter is New without the global side effect, writing to w.
func NewWithWriter(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: strings.EqualFold(cfg.Format, "text") && ParseLevel(cfg.Level) == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
