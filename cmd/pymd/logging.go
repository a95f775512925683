package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/alnah/go-pymd/internal/config"
)

// newLogger builds the diagnostic logger written to w.
// --verbose lowers the level to debug and --quiet raises it to error;
// otherwise log.level from the config applies.
func newLogger(w io.Writer, cfg config.LogConfig, common commonFlags) *slog.Logger {
	level := parseLevel(cfg.Level)
	switch {
	case common.quiet:
		level = slog.LevelError
	case common.verbose:
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, config.LogFormatJSON) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// parseLevel maps a config level name to a slog level. Unknown names mean info.
func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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
