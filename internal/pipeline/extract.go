package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Fragment delimiters. The language tag is matched literally and
// case-sensitively: ```Python or ``` python are ordinary text.
const (
	FenceOpen  = "```python"
	FenceClose = "```"
)

// Display mode sentinels, matched as plain substrings of the fragment source.
const (
	SentinelSilentInput  = "#silent*input"
	SentinelSilentOutput = "#silent*output"
)

// fragmentPattern is non-greedy so that each fragment ends at the first
// closing fence after its opening one.
var fragmentPattern = regexp.MustCompile("(?s)" + regexp.QuoteMeta(FenceOpen) + "(.*?)" + regexp.QuoteMeta(FenceClose))

// Mode is the per-fragment display policy.
type Mode int

const (
	// ModeNormal keeps the code block and appends its results.
	ModeNormal Mode = iota
	// ModeSilentInput drops the code block and keeps only its results.
	ModeSilentInput
	// ModeSilentOutput keeps the code block and discards its results.
	ModeSilentOutput
)

// String returns the mode name used in logs and reports.
func (m Mode) String() string {
	switch m {
	case ModeSilentInput:
		return "silent-input"
	case ModeSilentOutput:
		return "silent-output"
	default:
		return "normal"
	}
}

// DetectMode derives the display mode from sentinels in the fragment source.
// When both sentinels are present, silent-input wins.
func DetectMode(source string) Mode {
	switch {
	case strings.Contains(source, SentinelSilentInput):
		return ModeSilentInput
	case strings.Contains(source, SentinelSilentOutput):
		return ModeSilentOutput
	default:
		return ModeNormal
	}
}

// Fragment is one executable block found in a document.
type Fragment struct {
	Index  int    // 0-based position in document order
	Source string // code between the fences, whitespace preserved
	Block  string // full delimited text, fences included
	Start  int    // byte offset of Block in the document
	End    int    // byte offset just past Block
	Mode   Mode
}

// Name is the pseudo file name reported in tracebacks for this fragment.
func (f Fragment) Name() string {
	return "<fragment " + strconv.Itoa(f.Index+1) + ">"
}

// FragmentExtractor defines the contract for locating executable fragments.
type FragmentExtractor interface {
	Extract(ctx context.Context, content string) []Fragment
}

// FenceExtractor finds ```python fenced fragments.
type FenceExtractor struct{}

// Extract returns the fragments of content in document order.
// Returns nil when content has no fragments or ctx is already canceled.
func (e *FenceExtractor) Extract(ctx context.Context, content string) []Fragment {
	if ctx.Err() != nil {
		return nil
	}

	matches := fragmentPattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}

	fragments := make([]Fragment, 0, len(matches))
	for i, m := range matches {
		source := content[m[2]:m[3]]
		fragments = append(fragments, Fragment{
			Index:  i,
			Source: source,
			Block:  content[m[0]:m[1]],
			Start:  m[0],
			End:    m[1],
			Mode:   DetectMode(source),
		})
	}
	return fragments
}
