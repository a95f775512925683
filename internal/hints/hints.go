// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"runtime"
	"strings"

	"github.com/alnah/go-pymd/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForInterpreterNotFound returns hints when the Python interpreter cannot
// be launched.
func ForInterpreterNotFound(interpreter string) string {
	hint := "install Python 3 or point pymd at one with --python, PYMD_PYTHON, or interpreter.path"
	if runtime.GOOS == "windows" && interpreter == "python3" {
		hint = "on Windows, try --python py or --python python"
	}
	return format(hint)
}

// ForCharting returns the hint shown when matplotlib is missing.
func ForCharting(interpreter string) string {
	if interpreter == "" {
		interpreter = "python3"
	}
	return format("install it with: " + interpreter + " -m pip install matplotlib")
}

// ForBrowserConnect returns hints for browser launch failures, based on
// the environment read through getenv.
func ForBrowserConnect(getenv func(string) string) string {
	var hints []string

	inCI := false
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"} {
		if getenv(v) != "" {
			inCI = true
			break
		}
	}
	if (inCI || IsInContainer()) && getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use an installed Chrome")
	}
	hints = append(hints, "PDF output is optional; drop --pdf to skip it")

	return formatHints(hints)
}

// ForTimeout returns a hint about raising the rendering timeout.
func ForTimeout() string {
	return format("for large documents, raise output.timeout in the config file")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(filepathSlash(p), "/go-pymd/") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForInvalidExtension returns the hint for inputs that are not .pymd files.
func ForInvalidExtension() string {
	return format("rename the document to <name>.pymd")
}

// ForPlotsDirectory returns hints when chart images cannot be written.
func ForPlotsDirectory(dir string) string {
	return format("check that " + dir + " is writable, or pass --plots-dir or --no-plots")
}

// ForStyleNotFound returns hints for style not found errors.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

func filepathSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
