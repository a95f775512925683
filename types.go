package pymd

import (
	"github.com/alnah/go-pymd/internal/pipeline"
)

// Mode is the display policy of a fragment.
type Mode = pipeline.Mode

// Display modes.
const (
	ModeNormal       = pipeline.ModeNormal
	ModeSilentInput  = pipeline.ModeSilentInput
	ModeSilentOutput = pipeline.ModeSilentOutput
)

// Input is one document to compile.
type Input struct {
	Source string // document text
	Name   string // label for logs, usually the file path (optional)
}

// ArtifactRef points at a saved chart.
type ArtifactRef struct {
	Title string
	Path  string // forward-slash path relative to the working directory
}

// Tag returns the Markdown image tag for the chart.
func (r ArtifactRef) Tag() string {
	return "![" + r.Title + "](" + r.Path + ")"
}

// FragmentResult is the outcome of one fragment.
type FragmentResult struct {
	Index     int // 0-based, document order
	Mode      Mode
	Stdout    string
	Error     string // formatted traceback, empty on success
	Artifacts []ArtifactRef
}

// Failed reports whether the fragment raised.
func (r FragmentResult) Failed() bool {
	return r.Error != ""
}

// Result is a compiled document.
type Result struct {
	Markdown  string
	Fragments []FragmentResult
	Charting  bool   // charts were intercepted during this compilation
	Python    string // interpreter version reported at startup
}

// Failures counts fragments that raised.
func (r *Result) Failures() int {
	n := 0
	for _, f := range r.Fragments {
		if f.Failed() {
			n++
		}
	}
	return n
}

// Artifacts counts saved charts.
func (r *Result) Artifacts() int {
	n := 0
	for _, f := range r.Fragments {
		n += len(f.Artifacts)
	}
	return n
}
