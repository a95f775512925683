package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	pymd "github.com/alnah/go-pymd"
	"github.com/alnah/go-pymd/internal/assets"
	"github.com/alnah/go-pymd/internal/config"
	"github.com/alnah/go-pymd/internal/hints"
)

// Status markers.
const (
	markOK   = "✔"
	markWarn = "⚠"
	markFail = "✖"
)

// reporter prints one status line per document: successes on stdout,
// warnings and failures on stderr. Colors are used only on terminals.
type reporter struct {
	stdout  io.Writer
	stderr  io.Writer
	getenv  func(string) string
	quiet   bool
	verbose bool

	ok   lipgloss.Style
	warn lipgloss.Style
	fail lipgloss.Style
	dim  lipgloss.Style
}

// newReporter creates a reporter styled for env's terminals.
func newReporter(env *Environment, quiet, verbose bool) *reporter {
	outR := newStyleRenderer(env, env.Stdout)
	errR := newStyleRenderer(env, env.Stderr)

	return &reporter{
		stdout:  env.Stdout,
		stderr:  env.Stderr,
		getenv:  env.Getenv,
		quiet:   quiet,
		verbose: verbose,
		ok:      outR.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		warn:    errR.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		fail:    errR.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		dim:     outR.NewStyle().Faint(true),
	}
}

// newStyleRenderer returns a lipgloss renderer that emits colors only
// when w is a terminal.
func newStyleRenderer(env *Environment, w io.Writer) *lipgloss.Renderer {
	profile := termenv.Ascii
	if env.IsTerminal != nil && env.IsTerminal(w) {
		profile = termenv.EnvColorProfile()
	}
	r := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	r.SetColorProfile(profile)
	return r
}

// runSummary tallies the outcome of a run.
type runSummary struct {
	Compiled int
	Skipped  int
	Failed   int
	errs     []error
}

// Err joins every failure (skipped documents included), or nil.
func (s runSummary) Err() error {
	return errors.Join(s.errs...)
}

// Results prints every document's status and the run summary.
func (p *reporter) Results(results []docResult, cfg *config.Config) runSummary {
	var summary runSummary
	chartingHint := false

	for _, r := range results {
		switch {
		case r.Err == nil:
			summary.Compiled++
			p.success(r)
			if cfg.Artifacts.Enabled && r.Result != nil && !r.Result.Charting {
				chartingHint = true
			}
		case r.Skipped():
			summary.Skipped++
			summary.errs = append(summary.errs, fmt.Errorf("%s: %w", r.InputPath, r.Err))
			p.warning(r)
		default:
			summary.Failed++
			summary.errs = append(summary.errs, fmt.Errorf("%s: %w", r.InputPath, r.Err))
			p.failure(r, cfg)
		}
	}

	if chartingHint && !p.quiet {
		fmt.Fprintf(p.stderr, "%s charts were not captured: matplotlib is not installed%s\n",
			p.warn.Render(markWarn), hints.ForCharting(cfg.Interpreter.Path))
	}

	if !p.quiet && len(results) > 1 {
		fmt.Fprintf(p.stdout, "\n%d compiled, %d skipped, %d failed\n", summary.Compiled, summary.Skipped, summary.Failed)
	}

	return summary
}

func (p *reporter) success(r docResult) {
	if p.quiet {
		return
	}

	var details []string
	if res := r.Result; res != nil {
		details = append(details, plural(len(res.Fragments), "fragment"))
		if n := res.Failures(); n > 0 {
			details = append(details, plural(n, "error"))
		}
		if n := res.Artifacts(); n > 0 {
			details = append(details, plural(n, "chart"))
		}
	}
	if p.verbose {
		details = append(details, r.Duration.Round(time.Millisecond).String())
	}

	line := fmt.Sprintf("%s %s compiled to %s", p.ok.Render(markOK), r.InputPath, r.OutputPath)
	if len(details) > 0 {
		line += " " + p.dim.Render("("+strings.Join(details, ", ")+")")
	}
	fmt.Fprintln(p.stdout, line)

	for _, path := range r.Renditions {
		fmt.Fprintf(p.stdout, "  %s %s\n", p.dim.Render("→"), path)
	}
}

func (p *reporter) warning(r docResult) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.stderr, "%s %s: no python fragments found; nothing written\n", p.warn.Render(markWarn), r.InputPath)
}

func (p *reporter) failure(r docResult, cfg *config.Config) {
	fmt.Fprintf(p.stderr, "%s %s: %v%s\n", p.fail.Render(markFail), r.InputPath, r.Err, hintFor(r.Err, cfg, p.getenv))
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error, cfg *config.Config, getenv func(string) string) string {
	switch {
	case errors.Is(err, pymd.ErrInterpreterStart):
		return hints.ForInterpreterNotFound(cfg.Interpreter.Path)
	case errors.Is(err, pymd.ErrInvalidExtension):
		return hints.ForInvalidExtension()
	case errors.Is(err, pymd.ErrArtifactWrite):
		return hints.ForPlotsDirectory(cfg.Artifacts.Dir)
	case errors.Is(err, pymd.ErrBrowserConnect):
		return hints.ForBrowserConnect(getenv)
	case errors.Is(err, pymd.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.Available())
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	default:
		return ""
	}
}

// plural formats a count with a noun, adding "s" when n != 1.
func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
