package pipeline

import "strings"

// InjectStyles adds one <style> element per non-empty stylesheet, in
// order, just before </head>. Documents without a head get the styles
// prepended. A "</" inside a sheet is escaped so it cannot close the
// element early.
func InjectStyles(doc string, sheets ...string) string {
	var b strings.Builder
	for _, css := range sheets {
		if strings.TrimSpace(css) == "" {
			continue
		}
		b.WriteString("<style>")
		b.WriteString(strings.ReplaceAll(css, "</", `<\/`))
		b.WriteString("</style>\n")
	}
	if b.Len() == 0 {
		return doc
	}

	idx := strings.Index(strings.ToLower(doc), "</head>")
	if idx < 0 {
		return b.String() + doc
	}
	return doc[:idx] + b.String() + doc[idx:]
}
