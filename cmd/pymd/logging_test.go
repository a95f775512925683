package main

// Notes:
// - newLogger: we test level selection (config, --quiet, --verbose) and the
//   handler format by writing records into a buffer.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/alnah/go-pymd/internal/config"
)

// ---------------------------------------------------------------------------
// TestNewLogger - Level and format selection
// ---------------------------------------------------------------------------

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       config.LogConfig
		common    commonFlags
		wantLevel slog.Level
	}{
		{"config default", config.LogConfig{}, commonFlags{}, slog.LevelInfo},
		{"config level", config.LogConfig{Level: "warn"}, commonFlags{}, slog.LevelWarn},
		{"verbose wins over config", config.LogConfig{Level: "error"}, commonFlags{verbose: true}, slog.LevelDebug},
		{"quiet wins over verbose", config.LogConfig{}, commonFlags{quiet: true, verbose: true}, slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger := newLogger(&bytes.Buffer{}, tt.cfg, tt.common)
			ctx := context.Background()

			if !logger.Enabled(ctx, tt.wantLevel) {
				t.Errorf("level %v should be enabled", tt.wantLevel)
			}
			if tt.wantLevel > slog.LevelDebug && logger.Enabled(ctx, tt.wantLevel-1) {
				t.Errorf("level below %v should be disabled", tt.wantLevel)
			}
		})
	}
}

func TestNewLogger_Format(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		newLogger(&buf, config.LogConfig{Format: "JSON"}, commonFlags{}).Info("compiled", "doc", "a.pymd")

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
		}
		if rec["msg"] != "compiled" || rec["doc"] != "a.pymd" {
			t.Errorf("record = %v", rec)
		}
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		newLogger(&buf, config.LogConfig{}, commonFlags{}).Info("compiled", "doc", "a.pymd")

		if !strings.Contains(buf.String(), "msg=compiled doc=a.pymd") {
			t.Errorf("output = %q", buf.String())
		}
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for name, want := range tests {
		if got := parseLevel(name); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", name, got, want)
		}
	}
}
