// Package pipeline implements the document transformation stages of pymd.
//
// This package handles the text-level stages of a compilation:
//   - Line ending normalization of the source document
//   - Fragment extraction (```python ... ``` blocks, display modes, spans)
//   - Document rewriting (splicing results back in by span)
//   - Markdown to HTML conversion via Goldmark for the --html/--pdf renditions
//   - CSS injection and relative path rewriting for those renditions
//
// Fragment execution is handled by the kernel package and artifact
// persistence by the artifact package. The root pymd package wires the
// stages together; this package never starts processes or writes files.
package pipeline
