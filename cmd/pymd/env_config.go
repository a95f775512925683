package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-pymd/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // PYMD_CONFIG: config file name or path
	Python     string        // PYMD_PYTHON: interpreter executable
	PlotsDir   string        // PYMD_PLOTS_DIR: chart folder
	Style      string        // PYMD_STYLE: CSS style name or path
	Timeout    time.Duration // PYMD_TIMEOUT: PDF rendering timeout
	Workers    int           // PYMD_WORKERS: parallel workers
	LogFormat  string        // PYMD_LOG_FORMAT: text or json
}

// knownEnvVars lists valid PYMD_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"PYMD_CONFIG":     true,
	"PYMD_PYTHON":     true,
	"PYMD_PLOTS_DIR":  true,
	"PYMD_STYLE":      true,
	"PYMD_TIMEOUT":    true,
	"PYMD_WORKERS":    true,
	"PYMD_LOG_FORMAT": true,
	// Set by pymd for the interpreter it launches.
	"PYMD_ARTIFACTS": true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed durations and counts are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("PYMD_CONFIG"),
		Python:     getenv("PYMD_PYTHON"),
		PlotsDir:   getenv("PYMD_PLOTS_DIR"),
		Style:      getenv("PYMD_STYLE"),
		LogFormat:  strings.ToLower(getenv("PYMD_LOG_FORMAT")),
	}

	if timeout := getenv("PYMD_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := getenv("PYMD_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars writes warnings for unrecognized PYMD_* variables.
// Helps catch typos like PYMD_PYTON instead of PYMD_PYTHON.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, "PYMD_") {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Python != "" {
		cfg.Interpreter.Path = env.Python
	}
	if env.PlotsDir != "" {
		cfg.Artifacts.Dir = env.PlotsDir
	}
	if env.Style != "" {
		cfg.Output.Style = env.Style
	}
	if env.Timeout > 0 {
		cfg.Output.Timeout = env.Timeout
	}
	if env.LogFormat != "" {
		cfg.Log.Format = env.LogFormat
	}
}
