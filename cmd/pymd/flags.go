package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logFormat string
}

// interpreterFlags holds Python interpreter flags.
type interpreterFlags struct {
	python       string
	startTimeout string
}

// plotFlags holds chart capture flags.
type plotFlags struct {
	dir      string
	disabled bool
}

// renditionFlags holds optional HTML/PDF output flags.
type renditionFlags struct {
	html    bool
	pdf     bool
	style   string
	noStyle bool
	timeout string
}

// compileFlags holds all flags for the compile command.
type compileFlags struct {
	common      commonFlags
	interpreter interpreterFlags
	plots       plotFlags
	rendition   renditionFlags
	workers     int
	strict      bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
}

// addInterpreterFlags adds interpreter flags to a FlagSet.
func addInterpreterFlags(fs *flag.FlagSet, f *interpreterFlags) {
	fs.StringVar(&f.python, "python", "", "python executable (default: python3)")
	fs.StringVar(&f.startTimeout, "start-timeout", "", "interpreter startup timeout (e.g., 30s)")
}

// addPlotFlags adds chart flags to a FlagSet.
func addPlotFlags(fs *flag.FlagSet, f *plotFlags) {
	fs.StringVar(&f.dir, "plots-dir", "", "folder receiving chart images (default: plots)")
	fs.BoolVar(&f.disabled, "no-plots", false, "disable chart capture")
}

// addRenditionFlags adds HTML/PDF output flags to a FlagSet.
func addRenditionFlags(fs *flag.FlagSet, f *renditionFlags) {
	fs.BoolVar(&f.html, "html", false, "also write an HTML rendition")
	fs.BoolVar(&f.pdf, "pdf", false, "also write a PDF rendition (requires Chrome)")
	fs.StringVar(&f.style, "style", "", "CSS style name or file path")
	fs.BoolVar(&f.noStyle, "no-style", false, "disable CSS styling")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "PDF rendering timeout (e.g., 30s, 2m)")
}

// newCompileFlagSet registers every compile flag on a new FlagSet.
// Shared by parsing and shell completion.
func newCompileFlagSet(f *compileFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)

	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVar(&f.strict, "strict", false, "exit non-zero when a document fails")

	addCommonFlags(fs, &f.common)
	addInterpreterFlags(fs, &f.interpreter)
	addPlotFlags(fs, &f.plots)
	addRenditionFlags(fs, &f.rendition)

	return fs
}

// parseCompileFlags parses compile command flags and returns positional args.
func parseCompileFlags(args []string, stderr io.Writer) (*compileFlags, []string, error) {
	f := &compileFlags{}
	fs := newCompileFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printCompileUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}

// parseCommonFlags parses flags for commands that only take common flags.
func parseCommonFlags(name string, args []string, stderr io.Writer, extra func(*flag.FlagSet)) (*commonFlags, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &commonFlags{}
	addCommonFlags(fs, f)
	if extra != nil {
		extra(fs)
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
