package assets

import (
	"path/filepath"
	"strings"

	"github.com/alnah/go-pymd/internal/fileutil"
)

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads an embedded CSS style by name.
// The name should not include the .css extension or path components.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// Available lists the embedded style names.
func Available() []string {
	return defaultLoader.Styles()
}

// ResolveStyle returns the CSS for a configured style value.
// An empty value means no style. A value containing a path separator, or
// ending in .css, is read from disk; anything else names an embedded style.
func ResolveStyle(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}

	if !fileutil.IsFilePath(value) && !strings.EqualFold(filepath.Ext(value), ".css") {
		return defaultLoader.LoadStyle(value)
	}
	return LoadStyleFile(value)
}
