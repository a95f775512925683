package main

// Notes:
// - compileBatch/compileFile: we test with a mock Compiler and a mock
//   renderer pool, so no interpreter or browser is started. The real
//   interpreter path is covered in compile_test.go.
// - poolAdapter: we test the wrong-type panic and Acquire after Close.
// - We verify outputs on disk, result ordering, and error wrapping.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	pymd "github.com/alnah/go-pymd"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Mock compiler and renderer pool
// ---------------------------------------------------------------------------

// mockCompiler upper-cases the source, or fails for names listed in errs.
type mockCompiler struct {
	errs  map[string]error
	calls atomic.Int32
}

func (m *mockCompiler) Compile(ctx context.Context, in pymd.Input) (*pymd.Result, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.errs[filepath.Base(in.Name)]; ok {
		return nil, err
	}
	return &pymd.Result{
		Markdown:  strings.ToUpper(in.Source),
		Fragments: []pymd.FragmentResult{{Index: 0}},
		Charting:  true,
	}, nil
}

type mockRenderer struct {
	htmlErr error
	pdfErr  error
}

func (r *mockRenderer) ToHTML(_ context.Context, markdown, title string) (string, error) {
	if r.htmlErr != nil {
		return "", r.htmlErr
	}
	return "<title>" + title + "</title>" + markdown, nil
}

func (r *mockRenderer) ToPDF(_ context.Context, markdown, _ string) ([]byte, error) {
	if r.pdfErr != nil {
		return nil, r.pdfErr
	}
	return []byte("%PDF-1.4 " + markdown), nil
}

type mockPool struct {
	renderer   *mockRenderer
	acquireErr error

	mu       sync.Mutex
	acquired int
	released int
}

func (p *mockPool) Acquire() (Renderer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.acquired++
	return p.renderer, nil
}

func (p *mockPool) Release(Renderer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
}

// sources writes documents into a temp dir and returns them as sourceFiles.
func sources(t *testing.T, docs map[string]string) []sourceFile {
	t.Helper()
	dir := t.TempDir()
	writeTree(t, dir, docs)

	var files []sourceFile
	for name := range docs {
		in := filepath.Join(dir, name)
		out, err := pymd.OutputPath(in)
		if err != nil {
			t.Fatal(err)
		}
		files = append(files, sourceFile{InputPath: in, OutputPath: out, seq: len(files)})
	}
	return files
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

// ---------------------------------------------------------------------------
// TestCompileBatch - Concurrent compilation
// ---------------------------------------------------------------------------

func TestCompileBatch(t *testing.T) {
	t.Parallel()

	t.Run("writes every document in input order", func(t *testing.T) {
		t.Parallel()

		docs := map[string]string{"a.pymd": "alpha", "b.pymd": "beta", "c.pymd": "gamma"}
		files := sources(t, docs)
		compiler := &mockCompiler{}

		results := compileBatch(context.Background(), compiler, nil, files, &compileOptions{workers: 2})

		if len(results) != len(files) {
			t.Fatalf("got %d results, want %d", len(results), len(files))
		}
		for i, r := range results {
			if r.Err != nil {
				t.Errorf("%s: unexpected error %v", r.InputPath, r.Err)
			}
			if r.InputPath != files[i].InputPath {
				t.Errorf("results[%d] = %s, want %s", i, r.InputPath, files[i].InputPath)
			}
			if r.seq != files[i].seq {
				t.Errorf("results[%d].seq = %d, want %d", i, r.seq, files[i].seq)
			}
			want := strings.ToUpper(docs[filepath.Base(r.InputPath)])
			if got := readFile(t, r.OutputPath); got != want {
				t.Errorf("%s = %q, want %q", r.OutputPath, got, want)
			}
		}
		if compiler.calls.Load() != 3 {
			t.Errorf("Compile called %d times, want 3", compiler.calls.Load())
		}
	})

	t.Run("failure does not stop the batch", func(t *testing.T) {
		t.Parallel()

		files := sources(t, map[string]string{"ok.pymd": "fine", "empty.pymd": "no code"})
		compiler := &mockCompiler{errs: map[string]error{"empty.pymd": pymd.ErrNoFragments}}

		results := compileBatch(context.Background(), compiler, nil, files, &compileOptions{workers: 1})

		var ok, skipped int
		for _, r := range results {
			switch {
			case r.Err == nil:
				ok++
			case r.Skipped():
				skipped++
				if _, err := os.Stat(r.OutputPath); !os.IsNotExist(err) {
					t.Errorf("skipped document should not be written, stat err = %v", err)
				}
			default:
				t.Errorf("%s: unexpected error %v", r.InputPath, r.Err)
			}
		}
		if ok != 1 || skipped != 1 {
			t.Errorf("ok = %d, skipped = %d, want 1 and 1", ok, skipped)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		files := sources(t, map[string]string{"a.pymd": "x", "b.pymd": "y"})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		results := compileBatch(ctx, &mockCompiler{}, nil, files, &compileOptions{workers: 2})

		for _, r := range results {
			if !errors.Is(r.Err, context.Canceled) {
				t.Errorf("%s: error = %v, want context.Canceled", r.InputPath, r.Err)
			}
		}
	})

	t.Run("no files", func(t *testing.T) {
		t.Parallel()

		if results := compileBatch(context.Background(), &mockCompiler{}, nil, nil, &compileOptions{workers: 2}); results != nil {
			t.Errorf("compileBatch(nil) = %+v, want nil", results)
		}
	})
}

// ---------------------------------------------------------------------------
// TestCompileFile - Single document outputs and errors
// ---------------------------------------------------------------------------

func TestCompileFile(t *testing.T) {
	t.Parallel()

	t.Run("missing source", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		f := sourceFile{InputPath: filepath.Join(dir, "gone.pymd"), OutputPath: filepath.Join(dir, "gone.md")}

		r := compileFile(context.Background(), &mockCompiler{}, nil, f, &compileOptions{})

		if !errors.Is(r.Err, ErrReadSource) {
			t.Errorf("error = %v, want ErrReadSource", r.Err)
		}
	})

	t.Run("unwritable output", func(t *testing.T) {
		t.Parallel()

		files := sources(t, map[string]string{"a.pymd": "x"})
		f := files[0]
		f.OutputPath = filepath.Join(filepath.Dir(f.InputPath), "missing-dir", "a.md")

		r := compileFile(context.Background(), &mockCompiler{}, nil, f, &compileOptions{})

		if !errors.Is(r.Err, ErrWriteOutput) {
			t.Errorf("error = %v, want ErrWriteOutput", r.Err)
		}
	})

	t.Run("html and pdf renditions", func(t *testing.T) {
		t.Parallel()

		files := sources(t, map[string]string{"report.pymd": "body"})
		pool := &mockPool{renderer: &mockRenderer{}}

		r := compileFile(context.Background(), &mockCompiler{}, pool, files[0], &compileOptions{html: true, pdf: true})

		if r.Err != nil {
			t.Fatalf("unexpected error: %v", r.Err)
		}
		base := strings.TrimSuffix(files[0].InputPath, ".pymd")
		if len(r.Renditions) != 2 || r.Renditions[0] != base+".html" || r.Renditions[1] != base+".pdf" {
			t.Errorf("Renditions = %v", r.Renditions)
		}
		if got := readFile(t, base+".html"); !strings.Contains(got, "<title>report</title>BODY") {
			t.Errorf("html = %q", got)
		}
		if got := readFile(t, base+".pdf"); !strings.HasPrefix(got, "%PDF-1.4") {
			t.Errorf("pdf = %q", got)
		}
		if pool.acquired != 1 || pool.released != 1 {
			t.Errorf("acquired = %d, released = %d, want 1 and 1", pool.acquired, pool.released)
		}
	})

	t.Run("renditions skipped without flags", func(t *testing.T) {
		t.Parallel()

		files := sources(t, map[string]string{"a.pymd": "x"})
		pool := &mockPool{renderer: &mockRenderer{}}

		r := compileFile(context.Background(), &mockCompiler{}, pool, files[0], &compileOptions{})

		if r.Err != nil || len(r.Renditions) != 0 || pool.acquired != 0 {
			t.Errorf("err = %v, renditions = %v, acquired = %d", r.Err, r.Renditions, pool.acquired)
		}
	})

	t.Run("rendition errors", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name    string
			pool    *mockPool
			opts    *compileOptions
			wantErr error
		}{
			{"acquire fails", &mockPool{acquireErr: pymd.ErrBrowserConnect}, &compileOptions{pdf: true}, pymd.ErrBrowserConnect},
			{"html fails", &mockPool{renderer: &mockRenderer{htmlErr: pymd.ErrStyleNotFound}}, &compileOptions{html: true}, pymd.ErrStyleNotFound},
			{"pdf fails", &mockPool{renderer: &mockRenderer{pdfErr: pymd.ErrPDFGeneration}}, &compileOptions{pdf: true}, pymd.ErrPDFGeneration},
		}

		for _, tt := range tests {
			files := sources(t, map[string]string{"a.pymd": "x"})
			r := compileFile(context.Background(), &mockCompiler{}, tt.pool, files[0], tt.opts)

			if !errors.Is(r.Err, tt.wantErr) {
				t.Errorf("%s: error = %v, want %v", tt.name, r.Err, tt.wantErr)
			}
			// The compiled .md is written before renditions.
			if _, err := os.Stat(files[0].OutputPath); err != nil {
				t.Errorf("%s: compiled document missing: %v", tt.name, err)
			}
			if tt.pool.acquireErr == nil && tt.pool.released != 1 {
				t.Errorf("%s: released = %d, want 1", tt.name, tt.pool.released)
			}
		}
	})
}

// ---------------------------------------------------------------------------
// TestPoolAdapter - Adapter over *pymd.RendererPool
// ---------------------------------------------------------------------------

func TestPoolAdapter(t *testing.T) {
	t.Parallel()

	t.Run("release with wrong type panics", func(t *testing.T) {
		t.Parallel()

		adapter := &poolAdapter{pool: pymd.NewRendererPool(1)}
		defer adapter.Close()

		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("expected panic for wrong type, got none")
			}
			msg, ok := r.(string)
			if !ok || !strings.Contains(msg, "unexpected type") {
				t.Errorf("panic = %v, want message containing 'unexpected type'", r)
			}
		}()

		adapter.Release(&mockRenderer{})
	})

	t.Run("acquire after close", func(t *testing.T) {
		t.Parallel()

		adapter := &poolAdapter{pool: pymd.NewRendererPool(1)}
		if err := adapter.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		r, err := adapter.Acquire()
		if !errors.Is(err, pymd.ErrPoolClosed) {
			t.Errorf("Acquire() error = %v, want ErrPoolClosed", err)
		}
		if r != nil {
			t.Errorf("Acquire() renderer = %v, want nil interface", r)
		}
	})
}
