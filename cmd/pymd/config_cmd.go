package main

import (
	"fmt"

	"github.com/alnah/go-pymd/internal/yamlutil"
)

// runConfigCmd prints the effective configuration as YAML: defaults, then
// the config file, then PYMD_* environment variables.
func runConfigCmd(args []string, env *Environment) int {
	common, _, err := parseCommonFlags("config", args, env.Stderr, nil)
	if err != nil {
		return ExitUsage
	}

	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	cfg, path, err := loadConfig(common.config, envCfg)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}

	data, err := yamlutil.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitGeneral
	}

	if path == "" {
		path = "none, using defaults"
	}
	fmt.Fprintf(env.Stdout, "# config file: %s\n", path)
	_, _ = env.Stdout.Write(data)
	return ExitSuccess
}
