package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-pymd/internal/fileutil"
	"github.com/alnah/go-pymd/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// DefaultName is the config name loaded from the working directory when
// no --config flag is given.
const DefaultName = "pymd"

// AppDirName is the directory under the user config dir searched for
// named configs.
const AppDirName = "go-pymd"

// Field length limits.
const (
	MaxPathLength  = 4096
	MaxArgLength   = 1024
	MaxArgs        = 32
	MaxStyleLength = 4096
)

// Duration bounds.
const (
	MaxStartTimeout  = 10 * time.Minute
	MaxRenderTimeout = 10 * time.Minute
)

// Log formats and levels.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds all configuration for a pymd run.
type Config struct {
	Interpreter InterpreterConfig `yaml:"interpreter"`
	Artifacts   ArtifactsConfig   `yaml:"artifacts"`
	Output      OutputConfig      `yaml:"output"`
	Log         LogConfig         `yaml:"log"`
}

// InterpreterConfig defines how the Python interpreter is launched.
type InterpreterConfig struct {
	Path         string        `yaml:"path"`         // executable name or path (default: python3)
	Args         []string      `yaml:"args"`         // placed before the kernel script
	StartTimeout time.Duration `yaml:"startTimeout"` // handshake deadline
}

// ArtifactsConfig defines chart capture options.
type ArtifactsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"` // relative to the working directory
}

// OutputConfig defines optional rendered outputs next to the .md file.
type OutputConfig struct {
	HTML    bool          `yaml:"html"`
	PDF     bool          `yaml:"pdf"`
	Style   string        `yaml:"style"`   // embedded style name or path to a .css file
	Timeout time.Duration `yaml:"timeout"` // PDF rendering timeout
}

// LogConfig defines diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DefaultConfig returns the configuration used when no file is loaded.
func DefaultConfig() *Config {
	return &Config{
		Interpreter: InterpreterConfig{
			Path:         "python3",
			StartTimeout: 30 * time.Second,
		},
		Artifacts: ArtifactsConfig{
			Enabled: true,
			Dir:     "plots",
		},
		Output: OutputConfig{
			Style:   "default",
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatText,
		},
	}
}

// Validate checks field lengths, durations, and enumerations.
// Called automatically by LoadConfig, but available for callers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("interpreter.path", c.Interpreter.Path, MaxPathLength); err != nil {
		return err
	}
	if len(c.Interpreter.Args) > MaxArgs {
		return fmt.Errorf("%w: interpreter.args: %d entries (max %d)", ErrInvalidValue, len(c.Interpreter.Args), MaxArgs)
	}
	for i, arg := range c.Interpreter.Args {
		if err := validateFieldLength(fmt.Sprintf("interpreter.args[%d]", i), arg, MaxArgLength); err != nil {
			return err
		}
	}
	if err := validateDuration("interpreter.startTimeout", c.Interpreter.StartTimeout, MaxStartTimeout); err != nil {
		return err
	}

	if err := validateFieldLength("artifacts.dir", c.Artifacts.Dir, MaxPathLength); err != nil {
		return err
	}
	if c.Artifacts.Enabled && strings.TrimSpace(c.Artifacts.Dir) == "" {
		return fmt.Errorf("%w: artifacts.dir: required when artifacts are enabled", ErrInvalidValue)
	}

	if err := validateFieldLength("output.style", c.Output.Style, MaxStyleLength); err != nil {
		return err
	}
	if err := validateDuration("output.timeout", c.Output.Timeout, MaxRenderTimeout); err != nil {
		return err
	}

	if c.Log.Level != "" {
		switch strings.ToLower(c.Log.Level) {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("%w: log.level: %q (must be debug, info, warn, or error)", ErrInvalidValue, c.Log.Level)
		}
	}
	if c.Log.Format != "" {
		switch strings.ToLower(c.Log.Format) {
		case LogFormatText, LogFormatJSON:
		default:
			return fmt.Errorf("%w: log.format: %q (must be text or json)", ErrInvalidValue, c.Log.Format)
		}
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateDuration accepts zero (use the default) or a positive value up to limit.
func validateDuration(fieldName string, d, limit time.Duration) error {
	if d < 0 || d > limit {
		return fmt.Errorf("%w: %s: must be between 0 and %s, got %s", ErrInvalidValue, fieldName, limit, d)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Values absent from the file keep their DefaultConfig value.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, _, err = ResolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDefault loads DefaultName from the working directory if present.
// found is false when no such file exists; cfg is then DefaultConfig.
func LoadDefault() (cfg *Config, path string, found bool, err error) {
	for _, ext := range []string{".yaml", ".yml"} {
		candidate := DefaultName + ext
		if fileutil.FileExists(candidate) {
			cfg, err = LoadConfig("." + string(filepath.Separator) + candidate)
			return cfg, candidate, true, err
		}
	}
	return DefaultConfig(), "", false, nil
}

// ResolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/go-pymd/
// The returned slice lists every path tried, for hints.
func ResolveConfigPath(name string) (string, []string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, triedPaths, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, AppDirName, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, triedPaths, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", triedPaths, fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
