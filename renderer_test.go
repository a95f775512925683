package pymd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// mockConverter implements pdfConverter for testing.
type mockConverter struct {
	Result     []byte
	Err        error
	CalledWith string
	Closed     bool
}

func (m *mockConverter) ToPDF(ctx context.Context, htmlContent string) ([]byte, error) {
	m.CalledWith = htmlContent
	return m.Result, m.Err
}

func (m *mockConverter) Close() error {
	m.Closed = true
	return nil
}

func newTestRenderer(t *testing.T, opts ...RenderOption) (*Renderer, *mockConverter) {
	t.Helper()

	mock := &mockConverter{Result: []byte("%PDF-1.4 fake")}
	r, err := NewRenderer(append([]RenderOption{withPDFConverter(mock), WithBaseDir(t.TempDir())}, opts...)...)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return r, mock
}

// ---------------------------------------------------------------------------
// TestRenderer_ToHTML
// ---------------------------------------------------------------------------

func TestRenderer_ToHTML(t *testing.T) {
	t.Parallel()

	r, _ := newTestRenderer(t)
	md := "# Sales\n\n```python\nprint('hi')\n```\n```\nhi\n```\n"

	doc, err := r.ToHTML(context.Background(), md, "Sales <Q3>")
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}

	checks := []string{
		"<title>Sales &lt;Q3&gt;</title>",
		"<h1 id=\"sales\">Sales</h1>",
		"pymd default style",
		"<style>",
	}
	for _, want := range checks {
		if !strings.Contains(doc, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestRenderer_ChartPaths(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	r, mock := newTestRenderer(t, WithBaseDir(base))
	md := "![Growth](plots/Growth.png)\n"
	abs := "file://" + filepath.ToSlash(filepath.Join(base, "plots", "Growth.png"))

	doc, err := r.ToHTML(context.Background(), md, "doc")
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	if !strings.Contains(doc, `src="plots/Growth.png"`) {
		t.Errorf("HTML should keep the relative chart path, got:\n%s", doc)
	}
	if strings.Contains(doc, "file://") {
		t.Errorf("HTML holds a machine-specific URL:\n%s", doc)
	}

	if _, err := r.ToPDF(context.Background(), md, "doc"); err != nil {
		t.Fatalf("ToPDF() error = %v", err)
	}
	if !strings.Contains(mock.CalledWith, abs) {
		t.Errorf("PDF page should reference %q, got:\n%s", abs, mock.CalledWith)
	}
}

func TestRenderer_ToHTML_EscapesFragmentHTML(t *testing.T) {
	t.Parallel()

	r, _ := newTestRenderer(t)
	doc, err := r.ToHTML(context.Background(), "<script>alert(1)</script>\n", "doc")
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	if strings.Contains(doc, "<script>alert(1)</script>") {
		t.Error("raw HTML passed through unescaped")
	}
}

func TestRenderer_ToHTML_CanceledContext(t *testing.T) {
	t.Parallel()

	r, _ := newTestRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.ToHTML(ctx, "# x", "x")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ToHTML() error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// TestRenderer_Styles
// ---------------------------------------------------------------------------

func TestRenderer_Styles(t *testing.T) {
	t.Parallel()

	cssDir := t.TempDir()
	cssPath := filepath.Join(cssDir, "brand.css")
	if err := os.WriteFile(cssPath, []byte("body { color: rebeccapurple; }"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		style   string
		want    string
		notWant string
		wantErr error
	}{
		{name: "embedded plain style", style: "plain", want: "pymd plain style", notWant: "pymd default style"},
		{name: "custom css file", style: cssPath, want: "rebeccapurple", notWant: "pymd default style"},
		{name: "no style", style: "", notWant: "pymd default style"},
		{name: "unknown style", style: "nope", wantErr: ErrStyleNotFound},
		{name: "missing css file", style: filepath.Join(cssDir, "missing.css"), wantErr: ErrStyleNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, err := NewRenderer(withPDFConverter(&mockConverter{}), WithStyle(tt.style))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewRenderer() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRenderer() error = %v", err)
			}

			doc, err := r.ToHTML(context.Background(), "text", "t")
			if err != nil {
				t.Fatalf("ToHTML() error = %v", err)
			}
			if tt.want != "" && !strings.Contains(doc, tt.want) {
				t.Errorf("HTML missing %q", tt.want)
			}
			if tt.notWant != "" && strings.Contains(doc, tt.notWant) {
				t.Errorf("HTML unexpectedly contains %q", tt.notWant)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRenderer_ToPDF
// ---------------------------------------------------------------------------

func TestRenderer_ToPDF(t *testing.T) {
	t.Parallel()

	r, mock := newTestRenderer(t)

	pdf, err := r.ToPDF(context.Background(), "# Title\n", "Title")
	if err != nil {
		t.Fatalf("ToPDF() error = %v", err)
	}
	if string(pdf) != "%PDF-1.4 fake" {
		t.Errorf("ToPDF() = %q", pdf)
	}
	if !strings.Contains(mock.CalledWith, "<h1 id=\"title\">Title</h1>") {
		t.Errorf("converter received unexpected HTML:\n%s", mock.CalledWith)
	}

	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !mock.Closed {
		t.Error("converter not closed")
	}
}

func TestRenderer_ToPDF_ConverterError(t *testing.T) {
	t.Parallel()

	mock := &mockConverter{Err: ErrBrowserConnect}
	r, err := NewRenderer(withPDFConverter(mock))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.ToPDF(context.Background(), "x", "x"); !errors.Is(err, ErrBrowserConnect) {
		t.Errorf("ToPDF() error = %v, want ErrBrowserConnect", err)
	}
}

// ---------------------------------------------------------------------------
// TestDocumentTitle
// ---------------------------------------------------------------------------

func TestDocumentTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"report.pymd", "report"},
		{"docs/q3.sales.pymd", "q3.sales"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := DocumentTitle(tt.path); got != tt.want {
			t.Errorf("DocumentTitle(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
