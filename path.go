package pymd

import (
	"fmt"
	"strings"
)

// File extensions.
const (
	SourceExt = ".pymd"
	OutputExt = ".md"
	HTMLExt   = ".html"
	PDFExt    = ".pdf"
)

// OutputPath returns the compiled document path for a .pymd input: the
// trailing .pymd is replaced with .md. The check is case-sensitive.
func OutputPath(input string) (string, error) {
	return siblingPath(input, OutputExt)
}

// HTMLPath returns the HTML rendition path for a .pymd input.
func HTMLPath(input string) (string, error) {
	return siblingPath(input, HTMLExt)
}

// PDFPath returns the PDF rendition path for a .pymd input.
func PDFPath(input string) (string, error) {
	return siblingPath(input, PDFExt)
}

// IsSource reports whether path names a .pymd document.
func IsSource(path string) bool {
	return strings.HasSuffix(path, SourceExt) && len(path) > len(SourceExt)
}

func siblingPath(input, ext string) (string, error) {
	if !IsSource(input) {
		return "", fmt.Errorf("%w: %q", ErrInvalidExtension, input)
	}
	return strings.TrimSuffix(input, SourceExt) + ext, nil
}
