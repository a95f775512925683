package pymd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-pymd/internal/fileutil"
)

// pdfConverter turns a standalone HTML document into PDF bytes.
type pdfConverter interface {
	ToPDF(ctx context.Context, htmlContent string) ([]byte, error)
	Close() error
}

// filePrinter prints a local HTML file. Charts are referenced through
// file:// URLs, so the document must be loaded from disk, not from memory.
type filePrinter interface {
	PrintFile(ctx context.Context, path string) ([]byte, error)
	Close() error
}

var (
	_ pdfConverter = (*browserPDF)(nil)
	_ filePrinter  = (*chromePrinter)(nil)
)

// pageSetup is a paper size and uniform margin, in inches.
type pageSetup struct {
	Width, Height, Margin float64
}

// letterPage is US Letter with half-inch margins.
var letterPage = pageSetup{Width: 8.5, Height: 11, Margin: 0.5}

func (p pageSetup) printOptions() *proto.PagePrintToPDF {
	inches := func(v float64) *float64 { return &v }
	return &proto.PagePrintToPDF{
		PaperWidth:      inches(p.Width),
		PaperHeight:     inches(p.Height),
		MarginTop:       inches(p.Margin),
		MarginBottom:    inches(p.Margin),
		MarginLeft:      inches(p.Margin),
		MarginRight:     inches(p.Margin),
		PrintBackground: true,
	}
}

// newLauncher configures the rod launcher. ROD_BROWSER_BIN selects an
// installed browser; the sandbox is off in CI, with ROD_NO_SANDBOX=1, or
// with a custom binary (usually a container image).
func newLauncher(getenv func(string) string) *launcher.Launcher {
	l := launcher.New()
	bin := getenv("ROD_BROWSER_BIN")
	if bin != "" {
		l = l.Bin(bin)
	}
	if bin != "" || getenv("CI") == "true" || getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}
	return l
}

// chromePrinter drives one headless Chrome, launched on first use.
// Rod downloads Chromium when no browser is installed.
type chromePrinter struct {
	browser *rod.Browser
	page    pageSetup
	timeout time.Duration
}

func newChromePrinter(timeout time.Duration) *chromePrinter {
	return &chromePrinter{page: letterPage, timeout: timeout}
}

func (c *chromePrinter) connect() error {
	if c.browser != nil {
		return nil
	}
	u, err := newLauncher(os.Getenv).Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	c.browser = b
	return nil
}

// PrintFile loads path, waits for the load event (so chart images are in),
// and prints it. The context deadline, when set, replaces the timeout.
func (c *chromePrinter) PrintFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.connect(); err != nil {
		return nil, err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if timeout = time.Until(deadline); timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	page, err := c.browser.Page(proto.TargetCreateTarget{URL: fileURL(path)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()
	page = page.Context(ctx).Timeout(timeout)

	// Browser errors caused by cancellation are reported as the context error.
	fail := func(sentinel error, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", sentinel, err)
	}

	if err := page.WaitLoad(); err != nil {
		return nil, fail(ErrPageLoad, err)
	}
	stream, err := page.PDF(c.page.printOptions())
	if err != nil {
		return nil, fail(ErrPDFGeneration, err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return data, nil
}

// Close shuts the browser down, if it was launched.
func (c *chromePrinter) Close() error {
	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	c.browser = nil
	return err
}

// fileURL converts a local path to a file:// URL.
func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

// browserPDF stages the HTML in a temp file and hands it to a printer.
type browserPDF struct {
	printer filePrinter
}

func newBrowserPDF(timeout time.Duration) *browserPDF {
	return &browserPDF{printer: newChromePrinter(timeout)}
}

// ToPDF prints htmlContent. The temp file is removed before returning.
func (b *browserPDF) ToPDF(ctx context.Context, htmlContent string) ([]byte, error) {
	path, cleanup, err := fileutil.WriteTempFile(htmlContent, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return b.printer.PrintFile(ctx, path)
}

// Close releases the printer's browser.
func (b *browserPDF) Close() error {
	if b.printer == nil {
		return nil
	}
	return b.printer.Close()
}
