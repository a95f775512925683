package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	pymd "github.com/alnah/go-pymd"
	"github.com/alnah/go-pymd/internal/config"
	"github.com/alnah/go-pymd/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrReadSource         = errors.New("failed to read source file")
	ErrWriteOutput        = errors.New("failed to write output file")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// Compiler is the document compiler used by the CLI.
type Compiler interface {
	Compile(ctx context.Context, in pymd.Input) (*pymd.Result, error)
}

// Compile-time interface implementation check.
var _ Compiler = (*pymd.Compiler)(nil)

// runCompile compiles every document named by args and returns the exit code.
// Problems are reported on stderr; the exit code is non-zero only with --strict
// (and for invalid flags).
func runCompile(ctx context.Context, args []string, env *Environment) int {
	flags, positional, err := parseCompileFlags(args, env.Stderr)
	if err != nil {
		return ExitUsage
	}

	code, err := compileCommand(ctx, flags, positional, env)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		code = exitCodeFor(err)
	}
	if !flags.strict {
		return ExitSuccess
	}
	return code
}

// compileCommand runs a compile invocation. Setup errors are returned;
// per-document failures are reported and reflected in the exit code.
func compileCommand(ctx context.Context, flags *compileFlags, positional []string, env *Environment) (int, error) {
	if err := validateWorkers(flags.workers); err != nil {
		return ExitUsage, err
	}

	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	cfg, cfgPath, err := loadConfig(flags.common.config, envCfg)
	if err != nil {
		return ExitUsage, err
	}
	if err := mergeFlags(flags, cfg); err != nil {
		return ExitUsage, err
	}
	if err := cfg.Validate(); err != nil {
		return ExitUsage, err
	}

	logger := newLogger(env.Stderr, cfg.Log, flags.common)
	if cfgPath != "" {
		logger.Debug("config loaded", "path", cfgPath)
	}

	if len(positional) == 0 {
		return ExitUsage, fmt.Errorf("%w: usage: pymd <file.pymd|dir>...", ErrNoInput)
	}

	jobs, failed := discoverSources(positional)
	if len(jobs) == 0 && len(failed) == 0 {
		return ExitUsage, fmt.Errorf("%w: no .pymd files found in %s", ErrNoInput, strings.Join(positional, ", "))
	}

	workers := resolveWorkers(flags.workers, envCfg.Workers, len(jobs))
	logger.Debug("compiling", "documents", len(jobs), "workers", workers)

	compiler := pymd.NewCompiler(compilerOptions(cfg, logger, env)...)

	var pool RendererPool
	if cfg.Output.HTML || cfg.Output.PDF {
		rp := pymd.NewRendererPool(workers,
			pymd.WithStyle(cfg.Output.Style),
			pymd.WithRenderTimeout(cfg.Output.Timeout),
		)
		adapter := &poolAdapter{pool: rp}
		defer func() {
			if err := adapter.Close(); err != nil {
				logger.Debug("closing renderers", "error", err)
			}
		}()
		pool = adapter
	}

	opts := &compileOptions{
		html:    cfg.Output.HTML,
		pdf:     cfg.Output.PDF,
		workers: workers,
	}

	start := env.Now()
	results := mergeResults(compileBatch(ctx, compiler, pool, jobs, opts), failed)

	rep := newReporter(env, flags.common.quiet, flags.common.verbose)
	summary := rep.Results(results, cfg)
	if flags.common.verbose {
		logger.Debug("run finished", "elapsed", env.Now().Sub(start).Round(time.Millisecond))
	}

	return exitCodeFor(summary.Err()), nil
}

// compilerOptions translates configuration into Compiler options.
func compilerOptions(cfg *config.Config, logger *slog.Logger, env *Environment) []pymd.Option {
	opts := []pymd.Option{
		pymd.WithInterpreter(cfg.Interpreter.Path),
		pymd.WithInterpreterArgs(cfg.Interpreter.Args...),
		pymd.WithLogger(logger),
		pymd.WithKernelStderr(env.Stderr),
	}
	if cfg.Interpreter.StartTimeout > 0 {
		opts = append(opts, pymd.WithStartTimeout(cfg.Interpreter.StartTimeout))
	}
	if cfg.Artifacts.Enabled {
		opts = append(opts, pymd.WithPlotDir(cfg.Artifacts.Dir))
	} else {
		opts = append(opts, pymd.WithoutArtifacts())
	}
	return opts
}

// loadConfig loads the configuration file and applies environment overrides.
// Priority: --config > PYMD_CONFIG > ./pymd.yaml (when present) > defaults.
func loadConfig(flagConfig string, envCfg *envConfig) (*config.Config, string, error) {
	name := flagConfig
	if name == "" {
		name = envCfg.ConfigPath
	}

	var cfg *config.Config
	var path string
	if name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				_, tried, _ := config.ResolveConfigPath(name)
				return nil, "", fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(tried))
			}
			return nil, "", fmt.Errorf("loading config: %w", err)
		}
		path = name
	} else {
		var found bool
		var err error
		cfg, path, found, err = config.LoadDefault()
		if err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", path, err)
		}
		if !found {
			path = ""
		}
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, path, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *compileFlags, cfg *config.Config) error {
	if flags.interpreter.python != "" {
		cfg.Interpreter.Path = flags.interpreter.python
	}
	if flags.interpreter.startTimeout != "" {
		d, err := parsePositiveDuration("start-timeout", flags.interpreter.startTimeout)
		if err != nil {
			return err
		}
		cfg.Interpreter.StartTimeout = d
	}

	if flags.plots.dir != "" {
		cfg.Artifacts.Dir = flags.plots.dir
		cfg.Artifacts.Enabled = true
	}
	if flags.plots.disabled {
		cfg.Artifacts.Enabled = false
	}

	if flags.rendition.html {
		cfg.Output.HTML = true
	}
	if flags.rendition.pdf {
		cfg.Output.PDF = true
	}
	if flags.rendition.style != "" {
		cfg.Output.Style = flags.rendition.style
	}
	if flags.rendition.noStyle {
		cfg.Output.Style = ""
	}
	if flags.rendition.timeout != "" {
		d, err := parsePositiveDuration("timeout", flags.rendition.timeout)
		if err != nil {
			return err
		}
		cfg.Output.Timeout = d
	}

	if flags.common.logFormat != "" {
		cfg.Log.Format = strings.ToLower(flags.common.logFormat)
	}
	return nil
}

// parsePositiveDuration parses a duration flag value.
func parsePositiveDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: --%s: %q (expected a positive duration like 30s)", config.ErrInvalidValue, name, value)
	}
	return d, nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > pymd.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, pymd.MaxPoolSize)
	}
	return nil
}

// resolveWorkers picks the worker count: flag > PYMD_WORKERS > auto,
// never more than the number of documents.
func resolveWorkers(flagWorkers, envWorkers, documents int) int {
	n := flagWorkers
	if n == 0 {
		n = min(envWorkers, pymd.MaxPoolSize)
	}
	n = pymd.ResolvePoolSize(n)
	if documents > 0 && n > documents {
		n = documents
	}
	return n
}
