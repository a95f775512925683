package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ErrUnknownCommand is returned for a command name pymd does not know.
var ErrUnknownCommand = errors.New("unknown command")

// commands lists the subcommand names. Any other first argument is
// treated as a document path for compile.
var commands = []string{"compile", "doctor", "config", "completion", "version", "help"}

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches to a command and returns the process exit code.
func runMain(args []string, env *Environment) int {
	ctx, stop := notifyContext(context.Background())
	defer stop()

	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	switch cmd {
	case "compile":
		return runCompile(ctx, rest, env)
	case "doctor":
		return runDoctorCmd(ctx, rest, env)
	case "config":
		return runConfigCmd(rest, env)
	case "completion":
		if err := runCompletion(rest, env); err != nil {
			fmt.Fprintf(env.Stderr, "error: %v\n", err)
			return exitCodeFor(err)
		}
		return ExitSuccess
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "pymd %s (%s, %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	}

	if isCommandLike(cmd) {
		err := fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		printUsage(env.Stderr)
		return exitCodeFor(err)
	}

	return runCompile(ctx, args[1:], env)
}

// isCommandLike reports whether arg looks like a misspelled command rather
// than a document, flag, or directory: a bare word with no extension that
// does not exist on disk.
func isCommandLike(arg string) bool {
	if arg == "" || arg[0] == '-' || slices.Contains(commands, arg) {
		return false
	}
	for _, r := range arg {
		if r == '.' || r == '/' || r == os.PathSeparator {
			return false
		}
	}
	_, err := os.Stat(arg)
	return errors.Is(err, os.ErrNotExist)
}
