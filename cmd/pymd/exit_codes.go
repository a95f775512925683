package main

import (
	"errors"
	"os"

	pymd "github.com/alnah/go-pymd"
	"github.com/alnah/go-pymd/internal/config"
)

// Exit codes for the pymd CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
// Without --strict, compile runs always exit 0 and report problems on stderr.
const (
	ExitSuccess     = 0 // Every document compiled
	ExitGeneral     = 1 // General/unexpected error
	ExitUsage       = 2 // Invalid flags, config, extension, or document without fragments
	ExitIO          = 3 // File not found, permission denied
	ExitInterpreter = 4 // Python could not be started or died
	ExitBrowser     = 5 // Browser/Chrome errors (--pdf)
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
// Joined errors resolve to the first matching class in the order below.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 5)
	if errors.Is(err, pymd.ErrBrowserConnect) ||
		errors.Is(err, pymd.ErrPageCreate) ||
		errors.Is(err, pymd.ErrPageLoad) ||
		errors.Is(err, pymd.ErrPDFGeneration) {
		return ExitBrowser
	}

	// Interpreter errors (exit 4)
	if errors.Is(err, pymd.ErrInterpreterStart) ||
		errors.Is(err, pymd.ErrInterpreterLost) {
		return ExitInterpreter
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadSource) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, pymd.ErrArtifactWrite) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, pymd.ErrInvalidExtension) ||
		errors.Is(err, pymd.ErrNoFragments) ||
		errors.Is(err, pymd.ErrStyleNotFound) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) {
		return ExitUsage
	}

	return ExitGeneral
}
