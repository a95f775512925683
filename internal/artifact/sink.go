// Package artifact persists charts intercepted during fragment execution
// and produces the display tags inlined into the compiled document.
//
// A Sink is either present (FileSink) or absent (Disabled). The compiler
// holds exactly one of them per compilation; nothing else in the pipeline
// checks whether charting is available.
package artifact

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/blake3"
)

// DefaultDir is the folder, relative to the working directory, that
// receives chart images.
const DefaultDir = "plots"

// File permission constants.
const (
	dirPermissions  = 0o750
	filePermissions = 0o644
)

// Sentinel errors for artifact operations.
var (
	ErrUnsupported = errors.New("artifacts are not supported")
	ErrWrite       = errors.New("failed to write artifact")
)

// Artifact is one rendered chart shipped back by the kernel.
type Artifact struct {
	Title string
	PNG   []byte
}

// Ref identifies a persisted artifact.
type Ref struct {
	Title string
	Path  string // forward-slash path, relative when Dir is relative
}

// Tag returns the Markdown image reference for r.
func (r Ref) Tag() string {
	return "![" + r.Title + "](" + r.Path + ")"
}

// Sink persists artifacts.
//
// Contract:
//   - Enabled reports whether charts should be intercepted at all.
//   - Persist stores one artifact and returns its reference.
type Sink interface {
	Enabled() bool
	Persist(a Artifact) (Ref, error)
}

// Compile-time interface checks.
var (
	_ Sink = (*FileSink)(nil)
	_ Sink = Disabled{}
)

// Disabled is the absent sink: charts are never intercepted.
type Disabled struct{}

// Enabled always returns false.
func (Disabled) Enabled() bool { return false }

// Persist always fails with ErrUnsupported.
func (Disabled) Persist(Artifact) (Ref, error) {
	return Ref{}, ErrUnsupported
}

// FileSink writes artifacts as <Dir>/<title>.png.
// Titles are used verbatim; two charts with the same title share a file
// and the last one written wins. Safe for concurrent use.
type FileSink struct {
	dir string
	mu  sync.Mutex
}

// NewFileSink creates a FileSink rooted at dir (DefaultDir when empty).
// The directory is created on first Persist, not here.
func NewFileSink(dir string) *FileSink {
	if dir == "" {
		dir = DefaultDir
	}
	return &FileSink{dir: dir}
}

// Dir returns the folder artifacts are written to.
func (s *FileSink) Dir() string {
	return s.dir
}

// Enabled always returns true.
func (s *FileSink) Enabled() bool { return true }

// Persist writes the PNG and returns its reference. An existing file with
// identical content is left untouched so repeated runs do not churn
// modification times.
func (s *FileSink) Persist(a Artifact) (Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, dirPermissions); err != nil {
		return Ref{}, fmt.Errorf("%w: creating %s: %v", ErrWrite, s.dir, err)
	}

	path := filepath.Join(s.dir, a.Title+".png")
	ref := Ref{Title: a.Title, Path: filepath.ToSlash(path)}

	if sameContent(path, a.PNG) {
		return ref, nil
	}

	if err := os.WriteFile(path, a.PNG, filePermissions); err != nil { // #nosec G306 -- images are meant to be shared
		return Ref{}, fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return ref, nil
}

// Digest returns the hex BLAKE3 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// sameContent reports whether path exists and holds exactly data.
func sameContent(path string, data []byte) bool {
	existing, err := os.ReadFile(path) // #nosec G304 -- path built from sink dir
	if err != nil || len(existing) != len(data) {
		return false
	}
	return Digest(existing) == Digest(data)
}
