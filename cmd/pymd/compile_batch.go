package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pymd "github.com/alnah/go-pymd"
	"github.com/alnah/go-pymd/internal/fileutil"
)

// File permission constants.
const (
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Renderer produces HTML and PDF renditions of compiled Markdown.
type Renderer interface {
	ToHTML(ctx context.Context, markdown, title string) (string, error)
	ToPDF(ctx context.Context, markdown, title string) ([]byte, error)
}

// Compile-time interface implementation check.
var _ Renderer = (*pymd.Renderer)(nil)

// RendererPool abstracts renderer pool operations for testability.
type RendererPool interface {
	Acquire() (Renderer, error)
	Release(Renderer)
}

// poolAdapter adapts *pymd.RendererPool to RendererPool.
type poolAdapter struct {
	pool *pymd.RendererPool
}

// Compile-time check that poolAdapter implements RendererPool.
var _ RendererPool = (*poolAdapter)(nil)

func (a *poolAdapter) Acquire() (Renderer, error) {
	r, err := a.pool.Acquire()
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Release panics when given a Renderer the pool did not hand out.
func (a *poolAdapter) Release(r Renderer) {
	pr, ok := r.(*pymd.Renderer)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", r))
	}
	a.pool.Release(pr)
}

// Close releases the underlying browsers.
func (a *poolAdapter) Close() error {
	return a.pool.Close()
}

// compileOptions groups settings shared across the batch.
type compileOptions struct {
	html    bool
	pdf     bool
	workers int
}

// docResult holds the outcome of a single document.
type docResult struct {
	InputPath  string
	OutputPath string
	Renditions []string // HTML/PDF files written
	Result     *pymd.Result
	Err        error
	Duration   time.Duration
	seq        int
}

// Skipped reports whether the document held no fragments.
func (r docResult) Skipped() bool {
	return errors.Is(r.Err, pymd.ErrNoFragments)
}

// compileBatch compiles files concurrently, one interpreter per document.
// Results are returned in input order.
func compileBatch(ctx context.Context, compiler Compiler, pool RendererPool, files []sourceFile, opts *compileOptions) []docResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := max(min(opts.workers, len(files)), 1)

	results := make([]docResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx] = docResult{InputPath: files[idx].InputPath, Err: err, seq: files[idx].seq}
					continue
				}
				results[idx] = compileFile(ctx, compiler, pool, files[idx], opts)
				results[idx].seq = files[idx].seq
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// compileFile compiles a single document and writes its outputs.
// The .md file is written only when the document held at least one fragment.
func compileFile(ctx context.Context, compiler Compiler, pool RendererPool, f sourceFile, opts *compileOptions) docResult {
	start := time.Now()
	result := docResult{InputPath: f.InputPath, OutputPath: f.OutputPath}
	finish := func(err error) docResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	source, err := fileutil.ReadText(f.InputPath)
	if err != nil {
		return finish(fmt.Errorf("%w: %w", ErrReadSource, err))
	}

	res, err := compiler.Compile(ctx, pymd.Input{Source: source, Name: f.InputPath})
	if err != nil {
		return finish(err)
	}
	result.Result = res

	// #nosec G306 -- compiled documents are meant to be readable
	if err := fileutil.WriteFileAtomic(f.OutputPath, []byte(res.Markdown), filePermissions); err != nil {
		return finish(fmt.Errorf("%w: %w", ErrWriteOutput, err))
	}

	if pool != nil && (opts.html || opts.pdf) {
		if err := writeRenditions(ctx, pool, &result, res.Markdown, opts); err != nil {
			return finish(err)
		}
	}

	return finish(nil)
}

// writeRenditions writes the requested HTML and PDF files next to the source.
func writeRenditions(ctx context.Context, pool RendererPool, result *docResult, markdown string, opts *compileOptions) error {
	r, err := pool.Acquire()
	if err != nil {
		return err
	}
	defer pool.Release(r)

	title := pymd.DocumentTitle(result.InputPath)

	if opts.html {
		htmlPath, err := pymd.HTMLPath(result.InputPath)
		if err != nil {
			return err
		}
		html, err := r.ToHTML(ctx, markdown, title)
		if err != nil {
			return err
		}
		// #nosec G306 -- HTML files are meant to be readable
		if err := fileutil.WriteFileAtomic(htmlPath, []byte(html), filePermissions); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		result.Renditions = append(result.Renditions, htmlPath)
	}

	if opts.pdf {
		pdfPath, err := pymd.PDFPath(result.InputPath)
		if err != nil {
			return err
		}
		pdf, err := r.ToPDF(ctx, markdown, title)
		if err != nil {
			return err
		}
		// #nosec G306 -- PDFs are meant to be readable
		if err := fileutil.WriteFileAtomic(pdfPath, pdf, filePermissions); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		result.Renditions = append(result.Renditions, pdfPath)
	}

	return nil
}
