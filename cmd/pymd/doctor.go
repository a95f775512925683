package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-pymd/internal/config"
	"github.com/alnah/go-pymd/internal/fileutil"
	"github.com/alnah/go-pymd/internal/hints"
	"github.com/alnah/go-pymd/internal/kernel"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Python   pythonInfo `json:"python"`
	Plots    plotsInfo  `json:"plots"`
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// pythonInfo holds interpreter detection results.
type pythonInfo struct {
	Interpreter string `json:"interpreter"`
	Found       bool   `json:"found"`
	Version     string `json:"version,omitempty"`
	Matplotlib  bool   `json:"matplotlib"`
}

// plotsInfo holds chart folder checks.
type plotsInfo struct {
	Enabled  bool   `json:"enabled"`
	Dir      string `json:"dir"`
	Writable bool   `json:"writable"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// doctorProbe starts the interpreter for the python check (tests override it).
type doctorProbe func(ctx context.Context, cfg kernel.Config) (kernel.Info, error)

// probeKernel starts a kernel with charting on and reports what it found.
func probeKernel(ctx context.Context, cfg kernel.Config) (kernel.Info, error) {
	k, err := kernel.Start(ctx, cfg)
	if err != nil {
		return kernel.Info{}, err
	}
	info := k.Info()
	return info, k.Close()
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	var jsonOutput bool
	var python string
	common, _, err := parseCommonFlags("doctor", args, env.Stderr, func(fs *flag.FlagSet) {
		fs.BoolVar(&jsonOutput, "json", false, "print results as JSON")
		fs.StringVar(&python, "python", "", "python executable to check")
	})
	if err != nil {
		return ExitUsage
	}

	envCfg := loadEnvConfig(env.Getenv)
	cfg, _, err := loadConfig(common.config, envCfg)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}
	if python != "" {
		cfg.Interpreter.Path = python
	}

	result := runDoctor(ctx, cfg, env, probeKernel)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, cfg *config.Config, env *Environment, probe doctorProbe) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  env.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: env.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkPython(ctx, result, cfg, probe)
	checkPlots(result, cfg)
	checkChrome(result, cfg)
	checkEnvironment(result, env)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}

	return result
}

// checkPython starts the interpreter once and records its version and
// whether matplotlib could be loaded.
func checkPython(ctx context.Context, result *doctorResult, cfg *config.Config, probe doctorProbe) {
	result.Python.Interpreter = cfg.Interpreter.Path

	timeout := cfg.Interpreter.StartTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	info, err := probe(ctx, kernel.Config{
		Interpreter:  cfg.Interpreter.Path,
		Args:         cfg.Interpreter.Args,
		Charting:     true,
		StartTimeout: timeout,
	})
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Python could not be started (%s): %v", cfg.Interpreter.Path, err))
		return
	}

	result.Python.Found = true
	result.Python.Version = info.Python
	result.Python.Matplotlib = info.Charting
	if !info.Charting && cfg.Artifacts.Enabled {
		result.Warnings = append(result.Warnings,
			"matplotlib not installed, charts will not be captured"+
				strings.ReplaceAll(hints.ForCharting(cfg.Interpreter.Path), "\n  hint:", ";"))
	}
}

// checkPlots verifies the chart folder can be created and written.
func checkPlots(result *doctorResult, cfg *config.Config) {
	result.Plots.Enabled = cfg.Artifacts.Enabled
	result.Plots.Dir = cfg.Artifacts.Dir
	if !cfg.Artifacts.Enabled {
		return
	}

	dir := cfg.Artifacts.Dir
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		// The folder is created on the first chart; check its parent instead.
		dir = filepath.Dir(filepath.Clean(dir))
	}
	if fileutil.IsDirWritable(dir) {
		result.Plots.Writable = true
		return
	}
	result.Errors = append(result.Errors,
		fmt.Sprintf("Plots folder not writable: %s (use --plots-dir or --no-plots)", cfg.Artifacts.Dir))
}

// checkChrome detects Chrome/Chromium. Only PDF renditions need it, so a
// missing browser is an error only when output.pdf is set.
func checkChrome(result *doctorResult, cfg *config.Config) {
	report := func(msg string) {
		if cfg.Output.PDF {
			result.Errors = append(result.Errors, msg)
		} else {
			result.Warnings = append(result.Warnings, msg+" (needed only for --pdf)")
		}
	}

	chromePath := result.Env.BrowserBin
	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			report("Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		report(fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	out, err := exec.Command(chromePath, "--version").Output() // #nosec G204 -- browser path from launcher or user env
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, env *Environment) {
	result.Env.Container, result.Env.ContainerHint = isContainer(env.Getenv)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if env.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if result.Chrome.Found && (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv("PYMD_CONTAINER") == "1" {
		return true, "PYMD_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory used by PDF rendering is writable.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	if fileutil.IsDirWritable(tmpDir) {
		result.System.TempWritable = true
		return
	}
	result.Errors = append(result.Errors,
		fmt.Sprintf("Temp directory not writable: %s", tmpDir))
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "pymd doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Python")
	if r.Python.Found {
		fmt.Fprintf(w, "  [OK] Interpreter: %s\n", r.Python.Interpreter)
		fmt.Fprintf(w, "  [OK] Version: %s\n", r.Python.Version)
		if r.Python.Matplotlib {
			fmt.Fprintln(w, "  [OK] matplotlib: available")
		} else {
			fmt.Fprintln(w, "  [WARN] matplotlib: not installed")
		}
	} else {
		fmt.Fprintf(w, "  [ERROR] %s could not be started\n", r.Python.Interpreter)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Charts")
	switch {
	case !r.Plots.Enabled:
		fmt.Fprintln(w, "  [OK] Capture: disabled")
	case r.Plots.Writable:
		fmt.Fprintf(w, "  [OK] Folder: %s (writable)\n", r.Plots.Dir)
	default:
		fmt.Fprintf(w, "  [ERROR] Folder: %s (not writable)\n", r.Plots.Dir)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to compile")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
