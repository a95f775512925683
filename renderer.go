package pymd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alnah/go-pymd/internal/assets"
	"github.com/alnah/go-pymd/internal/pipeline"
)

// defaultRenderTimeout bounds a PDF rendering when the context has no deadline.
const defaultRenderTimeout = 30 * time.Second

// Renderer produces HTML and PDF renditions of compiled Markdown.
// Chart references are resolved against BaseDir, the directory the
// compilation ran in. A Renderer holds at most one browser; it is not safe
// for concurrent use (pool Renderers for parallel work).
type Renderer struct {
	html    pipeline.HTMLConverter
	pdf     pdfConverter
	style   string // resolved CSS, appended after the highlight CSS
	baseDir string
	timeout time.Duration
}

// RenderOption configures a Renderer.
type RenderOption func(*Renderer) error

// WithStyle selects the stylesheet: an embedded style name, a path to a
// .css file, or "" for none. Default: the "default" style.
func WithStyle(nameOrPath string) RenderOption {
	return func(r *Renderer) error {
		css, err := assets.ResolveStyle(nameOrPath)
		if err != nil {
			if errors.Is(err, assets.ErrStyleNotFound) || errors.Is(err, assets.ErrInvalidAssetName) {
				return fmt.Errorf("%w: %w", ErrStyleNotFound, err)
			}
			return err
		}
		r.style = css
		return nil
	}
}

// WithBaseDir sets the directory chart paths are relative to.
// Default: the current working directory.
func WithBaseDir(dir string) RenderOption {
	return func(r *Renderer) error {
		r.baseDir = dir
		return nil
	}
}

// WithRenderTimeout bounds page loading and printing.
func WithRenderTimeout(d time.Duration) RenderOption {
	return func(r *Renderer) error {
		if d > 0 {
			r.timeout = d
		}
		return nil
	}
}

// withPDFConverter replaces the browser backend (tests).
func withPDFConverter(p pdfConverter) RenderOption {
	return func(r *Renderer) error {
		r.pdf = p
		return nil
	}
}

// NewRenderer creates a Renderer. The browser is launched lazily on the
// first ToPDF call.
func NewRenderer(opts ...RenderOption) (*Renderer, error) {
	r := &Renderer{
		html:    pipeline.NewGoldmarkConverter(),
		timeout: defaultRenderTimeout,
	}
	if err := WithStyle(assets.DefaultStyleName)(r); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		r.baseDir = wd
	}
	if r.pdf == nil {
		r.pdf = newBrowserPDF(r.timeout)
	}
	return r, nil
}

// ToHTML renders markdown as a standalone, styled HTML document.
func (r *Renderer) ToHTML(ctx context.Context, markdown, title string) (string, error) {
	doc, err := r.html.ToHTML(ctx, markdown, title)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrHTMLConversion, err)
	}

	highlight, err := pipeline.HighlightCSS(pipeline.DefaultHighlightStyle)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrHTMLConversion, err)
	}
	return pipeline.InjectStyles(doc, highlight, r.style), nil
}

// ToPDF renders markdown to PDF bytes through headless Chrome. Chart
// paths are resolved against the base directory, since the browser loads
// the page from a temp file.
func (r *Renderer) ToPDF(ctx context.Context, markdown, title string) ([]byte, error) {
	doc, err := r.ToHTML(ctx, markdown, title)
	if err != nil {
		return nil, err
	}
	doc, err = pipeline.RewriteImagePaths(doc, r.baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: rewriting image paths: %w", ErrHTMLConversion, err)
	}
	return r.pdf.ToPDF(ctx, doc)
}

// Close releases the browser, if one was launched.
func (r *Renderer) Close() error {
	if r.pdf != nil {
		return r.pdf.Close()
	}
	return nil
}

// DocumentTitle derives a rendition title from a document path.
func DocumentTitle(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
