package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pymd [compile] <file.pymd|dir>... [flags]")
	fmt.Fprintln(w, "       pymd <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  compile     Run python fragments and write <name>.md (default)")
	fmt.Fprintln(w, "  doctor      Check the Python, matplotlib, and Chrome setup")
	fmt.Fprintln(w, "  config      Print the effective configuration")
	fmt.Fprintln(w, "  completion  Generate a shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'pymd help <command>' for details on a specific command.")
}

// printCompileUsage prints usage for the compile command.
func printCompileUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pymd [compile] <file.pymd|dir>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Execute every ```python fragment of each document in one shared")
	fmt.Fprintln(w, "interpreter and write the result next to it as <name>.md.")
	fmt.Fprintln(w, "Directories are searched recursively for *.pymd files.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Display modes (on the fragment's first line):")
	fmt.Fprintln(w, "  #silent*input             Keep the results, hide the code")
	fmt.Fprintln(w, "  #silent*output            Keep the code, hide the results")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Interpreter:")
	fmt.Fprintln(w, "      --python <path>       Python executable (default: python3)")
	fmt.Fprintln(w, "      --start-timeout <d>   Interpreter startup timeout (e.g., 30s)")
	fmt.Fprintln(w, "  -w, --workers <n>         Documents compiled in parallel (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Charts:")
	fmt.Fprintln(w, "      --plots-dir <dir>     Folder receiving chart images (default: plots)")
	fmt.Fprintln(w, "      --no-plots            Disable chart capture")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Renditions:")
	fmt.Fprintln(w, "      --html                Also write <name>.html")
	fmt.Fprintln(w, "      --pdf                 Also write <name>.pdf (requires Chrome)")
	fmt.Fprintln(w, "      --style <name|path>   CSS style name or .css file")
	fmt.Fprintln(w, "      --no-style            Disable CSS styling")
	fmt.Fprintln(w, "  -t, --timeout <d>         PDF rendering timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path (default: ./pymd.yaml)")
	fmt.Fprintln(w, "      --log-format <s>      Log format: text, json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
	fmt.Fprintln(w, "      --strict              Exit non-zero when a document fails")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  PYMD_CONFIG, PYMD_PYTHON, PYMD_PLOTS_DIR, PYMD_STYLE,")
	fmt.Fprintln(w, "  PYMD_TIMEOUT, PYMD_WORKERS, PYMD_LOG_FORMAT")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "compile":
		printCompileUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: pymd doctor [--json] [--python <path>]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check that Python starts, whether matplotlib is available,")
		fmt.Fprintln(env.Stdout, "that the plots folder is writable, and whether Chrome is found.")
	case "config":
		fmt.Fprintln(env.Stdout, "Usage: pymd config [-c <name>]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Print the configuration after applying the config file and")
		fmt.Fprintln(env.Stdout, "PYMD_* environment variables.")
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: pymd version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: pymd help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
