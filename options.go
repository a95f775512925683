package pymd

import (
	"io"
	"log/slog"
	"time"

	"github.com/alnah/go-pymd/internal/artifact"
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithInterpreter sets the Python executable (name or path).
// Default: python3.
func WithInterpreter(path string) Option {
	return func(c *Compiler) {
		if path != "" {
			c.interpreter = path
		}
	}
}

// WithInterpreterArgs sets arguments placed before the kernel script,
// e.g. "-X", "utf8".
func WithInterpreterArgs(args ...string) Option {
	return func(c *Compiler) {
		c.interpreterArgs = append([]string(nil), args...)
	}
}

// WithStartTimeout bounds the interpreter handshake.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithStartTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("pymd: WithStartTimeout duration must be positive")
	}
	return func(c *Compiler) {
		c.startTimeout = d
	}
}

// WithPlotDir sets the folder that receives chart images.
// Default: plots, relative to the working directory.
func WithPlotDir(dir string) Option {
	return func(c *Compiler) {
		if dir != "" {
			c.sink = artifact.NewFileSink(dir)
		}
	}
}

// WithoutArtifacts disables chart interception. plt.show() then behaves
// as the Agg backend does: it draws nothing.
func WithoutArtifacts() Option {
	return func(c *Compiler) {
		c.sink = artifact.Disabled{}
	}
}

// WithWorkDir sets the interpreter's working directory.
// Default: the current directory.
func WithWorkDir(dir string) Option {
	return func(c *Compiler) {
		c.workDir = dir
	}
}

// WithLogger sets the diagnostic logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithKernelStderr forwards the interpreter's stderr (fragment writes to
// sys.stderr, warnings) to w. Default: discarded.
func WithKernelStderr(w io.Writer) Option {
	return func(c *Compiler) {
		c.kernelStderr = w
	}
}

// withSessionStarter replaces the interpreter launcher (tests).
func withSessionStarter(start sessionStarter) Option {
	return func(c *Compiler) {
		c.start = start
	}
}
