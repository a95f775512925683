// Package pymd compiles executable Markdown documents.
//
// A .pymd document is Markdown with ```python fragments. Compiling it runs
// every fragment, in document order, in one Python interpreter whose
// namespace persists across fragments, and rewrites the document with the
// captured output inlined after each fragment.
//
// # Quick Start
//
//	c := pymd.NewCompiler()
//
//	res, err := c.Compile(ctx, pymd.Input{Source: src, Name: "report.pymd"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, _ := pymd.OutputPath("report.pymd") // report.md
//	os.WriteFile(out, []byte(res.Markdown), 0o644)
//
// # Display Modes
//
// A fragment's source may carry a sentinel anywhere in its text:
//
//   - no sentinel: the fragment is kept and its results block follows it
//   - #silent*input: the fragment is dropped, only its results remain
//   - #silent*output: the fragment is kept, its results are discarded
//
// When both appear, #silent*input wins. Every fragment runs regardless of
// its mode.
//
// # Errors
//
// An exception raised by a fragment is data, not a failure: its traceback
// is appended to the fragment's results and compilation continues. Compile
// only fails when the document holds no fragment (ErrNoFragments), when
// the interpreter cannot be started (ErrInterpreterStart) or dies
// (ErrInterpreterLost). A chart that cannot be saved is reported in the
// fragment's results, prefixed with ErrArtifactWrite's message, and the
// remaining fragments still run.
//
// # Charts
//
// When matplotlib is importable, plt.show() inside a fragment saves the
// current figure as <plot dir>/<title>.png and an image tag is inlined
// after the fragment's results. Without matplotlib, charting is disabled
// for the whole compilation and a warning is logged once.
//
//	c := pymd.NewCompiler(
//	    pymd.WithInterpreter("/usr/local/bin/python3.12"),
//	    pymd.WithPlotDir("figures"),
//	    pymd.WithLogger(slog.Default()),
//	)
//
// # Renditions
//
// Renderer turns compiled Markdown into styled HTML, or PDF through
// headless Chrome (go-rod). Use RendererPool to render in parallel:
//
//	pool := pymd.NewRendererPool(pymd.ResolvePoolSize(0), pymd.WithStyle("plain"))
//	defer pool.Close()
//
//	r, err := pool.Acquire()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Release(r)
//	pdf, err := r.ToPDF(ctx, res.Markdown, "report")
package pymd
