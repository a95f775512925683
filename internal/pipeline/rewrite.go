package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for document rewriting.
var (
	ErrOutcomeMismatch = errors.New("outcome count does not match fragment count")
	ErrInvalidSpan     = errors.New("invalid fragment span")
)

// resultsFence delimits the captured output block.
const resultsFence = "```"

// Outcome is what executing one fragment produced.
type Outcome struct {
	Stdout string
	Error  string   // formatted traceback, empty when the fragment succeeded
	Tags   []string // display tags of persisted artifacts, in capture order
}

// ResultsBlock returns the fenced block holding stdout followed by the error
// text, or "" when neither holds a non-whitespace character.
func (o Outcome) ResultsBlock() string {
	text := o.Stdout + o.Error
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return resultsFence + "\n" + text + resultsFence
}

// ArtifactText returns the artifact tags, each on its own line.
func (o Outcome) ArtifactText() string {
	var b strings.Builder
	for _, tag := range o.Tags {
		b.WriteString("\n")
		b.WriteString(tag)
	}
	return b.String()
}

// Replacement returns the text that takes the place of fragment f.
func Replacement(f Fragment, o Outcome) string {
	switch f.Mode {
	case ModeSilentOutput:
		return f.Block
	case ModeSilentInput:
		return o.ResultsBlock() + o.ArtifactText()
	default:
		return f.Block + "\n" + o.ResultsBlock() + o.ArtifactText()
	}
}

// DocumentRewriter defines the contract for producing the final document.
type DocumentRewriter interface {
	Rewrite(ctx context.Context, content string, fragments []Fragment, outcomes []Outcome) (string, error)
}

// SpanRewriter replaces each fragment through the byte span recorded at
// extraction, so byte-identical fragments each keep their own results.
type SpanRewriter struct{}

// Rewrite splices the replacement of every fragment into content.
// fragments must come from extracting content and be in document order;
// outcomes[i] belongs to fragments[i].
func (r *SpanRewriter) Rewrite(ctx context.Context, content string, fragments []Fragment, outcomes []Outcome) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(fragments) != len(outcomes) {
		return "", fmt.Errorf("%w: %d fragments, %d outcomes", ErrOutcomeMismatch, len(fragments), len(outcomes))
	}

	var b strings.Builder
	b.Grow(len(content))

	cursor := 0
	for i, f := range fragments {
		if f.Start < cursor || f.End < f.Start || f.End > len(content) {
			return "", fmt.Errorf("%w: fragment %d [%d,%d) after offset %d", ErrInvalidSpan, i, f.Start, f.End, cursor)
		}
		if content[f.Start:f.End] != f.Block {
			return "", fmt.Errorf("%w: fragment %d does not match document text", ErrInvalidSpan, i)
		}
		b.WriteString(content[cursor:f.Start])
		b.WriteString(Replacement(f, outcomes[i]))
		cursor = f.End
	}
	b.WriteString(content[cursor:])

	return b.String(), nil
}
