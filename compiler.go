package pymd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/alnah/go-pymd/internal/artifact"
	"github.com/alnah/go-pymd/internal/kernel"
	"github.com/alnah/go-pymd/internal/pipeline"
)

// chartingUnavailable is logged once per compilation when the interpreter
// cannot intercept charts.
const chartingUnavailable = "matplotlib is not installed; plotting unavailable"

// session is one live evaluation context.
type session interface {
	Execute(ctx context.Context, req kernel.Request) (kernel.Reply, error)
	Charting() bool
	Info() kernel.Info
	Close() error
}

// sessionStarter launches a session.
type sessionStarter func(ctx context.Context, cfg kernel.Config) (session, error)

// Compile-time interface checks.
var (
	_ session                    = (*kernel.Kernel)(nil)
	_ pipeline.FragmentExtractor = (*pipeline.FenceExtractor)(nil)
	_ pipeline.DocumentRewriter  = (*pipeline.SpanRewriter)(nil)
)

func startKernel(ctx context.Context, cfg kernel.Config) (session, error) {
	k, err := kernel.Start(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return k, nil
}

// Compiler turns .pymd documents into Markdown by executing their
// fragments. A Compiler is safe for concurrent use: every Compile call runs
// its own interpreter.
type Compiler struct {
	interpreter     string
	interpreterArgs []string
	startTimeout    time.Duration
	workDir         string
	kernelStderr    io.Writer
	sink            artifact.Sink
	logger          *slog.Logger

	extractor pipeline.FragmentExtractor
	rewriter  pipeline.DocumentRewriter
	start     sessionStarter
}

// NewCompiler creates a Compiler. Charts are saved under plots/ unless
// configured otherwise.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		interpreter:  kernel.DefaultInterpreter,
		startTimeout: kernel.DefaultStartTimeout,
		sink:         artifact.NewFileSink(artifact.DefaultDir),
		logger:       slog.New(slog.DiscardHandler),
		extractor:    &pipeline.FenceExtractor{},
		rewriter:     &pipeline.SpanRewriter{},
		start:        startKernel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Interpreter returns the configured Python executable.
func (c *Compiler) Interpreter() string {
	return c.interpreter
}

// Compile executes every fragment of in.Source, in document order, in one
// fresh interpreter, and returns the rewritten document.
//
// Returns ErrNoFragments when the document holds no fragment; nothing is
// executed in that case. Exceptions raised by fragments are part of the
// result, not errors.
func (c *Compiler) Compile(ctx context.Context, in Input) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("compiler panic", "document", in.Name, "panic", r, "stack", string(debug.Stack()))
			res, err = nil, fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	if ctx == nil {
		return nil, fmt.Errorf("%w: nil context", ErrInternal)
	}

	content := pipeline.NormalizeLineEndings(in.Source)
	fragments := c.extractor.Extract(ctx, content)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(fragments) == 0 {
		return nil, ErrNoFragments
	}

	log := c.logger.With("document", in.Name)
	log.Debug("fragments found", "count", len(fragments))

	sink := c.sink
	sess, err := c.start(ctx, kernel.Config{
		Interpreter:  c.interpreter,
		Args:         c.interpreterArgs,
		Dir:          c.workDir,
		Charting:     sink.Enabled(),
		Stderr:       c.kernelStderr,
		StartTimeout: c.startTimeout,
	})
	if err != nil {
		return nil, c.sessionError(err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Debug("closing interpreter", "error", cerr)
		}
	}()

	info := sess.Info()
	log.Debug("interpreter ready", "python", info.Python, "pid", info.PID, "charting", sess.Charting())
	if sink.Enabled() && !sess.Charting() {
		log.Warn(chartingUnavailable)
		sink = artifact.Disabled{}
	}

	outcomes := make([]pipeline.Outcome, len(fragments))
	results := make([]FragmentResult, len(fragments))
	for i, f := range fragments {
		start := time.Now()
		reply, err := sess.Execute(ctx, kernel.Request{Name: f.Name(), Code: f.Source})
		if err != nil {
			return nil, c.sessionError(err)
		}

		outcome := pipeline.Outcome{Stdout: reply.Stdout, Error: reply.Error}
		result := FragmentResult{Index: f.Index, Mode: f.Mode, Stdout: reply.Stdout, Error: reply.Error}
		if sink.Enabled() {
			for _, chart := range reply.Charts {
				ref, err := sink.Persist(artifact.Artifact(chart))
				if err != nil {
					// Reported like an exception raised by the fragment.
					log.Warn("saving chart", "fragment", i+1, "title", chart.Title, "error", err)
					msg := chartError(chart.Title, err)
					outcome.Error += msg
					result.Error += msg
					continue
				}
				outcome.Tags = append(outcome.Tags, ref.Tag())
				result.Artifacts = append(result.Artifacts, ArtifactRef(ref))
			}
		}
		outcomes[i] = outcome
		results[i] = result

		log.Debug("fragment executed",
			"fragment", i+1,
			"mode", f.Mode.String(),
			"failed", reply.Failed(),
			"charts", len(result.Artifacts),
			"elapsed", time.Since(start))
	}

	markdown, err := c.rewriter.Rewrite(ctx, content, fragments, outcomes)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrRewrite, err)
	}

	return &Result{
		Markdown:  markdown,
		Fragments: results,
		Charting:  sink.Enabled(),
		Python:    info.Python,
	}, nil
}

// chartError formats a failed chart save as a line of fragment output.
func chartError(title string, err error) string {
	return fmt.Sprintf("%v %q: %v\n", ErrArtifactWrite, title, err)
}

// sessionError maps interpreter failures to package errors, leaving
// context errors untouched.
func (c *Compiler) sessionError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, kernel.ErrStart):
		return fmt.Errorf("%w: %w", ErrInterpreterStart, err)
	default:
		return fmt.Errorf("%w: %w", ErrInterpreterLost, err)
	}
}
