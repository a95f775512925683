package pipeline

import "regexp"

var crlfOrCR = regexp.MustCompile(`\r\n?`)

// NormalizeLineEndings converts \r\n and \r to \n.
// Documents are compared and spliced byte-wise, so every stage downstream
// of the reader works on LF-only text.
func NormalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}
