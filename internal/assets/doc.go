// Package assets provides the CSS styles applied to HTML and PDF
// renditions of compiled documents.
//
// Styles come from two places:
//
//	EmbeddedLoader  - styles compiled into the binary ("default", "plain")
//	LoadStyleFile   - a user .css file on disk
//
// ResolveStyle picks one from the configured value: a bare name selects an
// embedded style, a path or a .css name selects a file.
package assets
