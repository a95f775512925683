package pipeline

// Notes:
// - Tests RewriteImagePaths through its public API only.
// - Traversal tests verify the observable behavior (path not rewritten).

import (
	"runtime"
	"strings"
	"testing"
)

func TestRewriteImagePaths(t *testing.T) {
	t.Parallel()

	baseDir := "/work"
	if runtime.GOOS == "windows" {
		baseDir = `C:\work`
	}

	tests := []struct {
		name         string
		html         string
		baseDir      string
		wantContains []string
	}{
		{
			name:         "plot path rewritten",
			html:         `<img src="plots/Sales.png" alt="Sales">`,
			baseDir:      baseDir,
			wantContains: []string{`src="file://`, `Sales.png"`},
		},
		{
			name:         "escaped title decoded before joining",
			html:         `<img src="plots/My%20Plot.png">`,
			baseDir:      baseDir,
			wantContains: []string{`src="file://`, `My%20Plot.png"`},
		},
		{
			name:         "https unchanged",
			html:         `<img src="https://example.com/a.png">`,
			baseDir:      baseDir,
			wantContains: []string{`src="https://example.com/a.png"`},
		},
		{
			name:         "data URI unchanged",
			html:         `<img src="data:image/png;base64,AAA">`,
			baseDir:      baseDir,
			wantContains: []string{`src="data:image/png;base64,AAA"`},
		},
		{
			name:         "traversal not rewritten",
			html:         `<img src="../secret.png">`,
			baseDir:      baseDir,
			wantContains: []string{`src="../secret.png"`},
		},
		{
			name:         "links untouched",
			html:         `<a href="plots/x.png">x</a>`,
			baseDir:      baseDir,
			wantContains: []string{`href="plots/x.png"`},
		},
		{
			name:         "empty base dir returns input",
			html:         `<img src="plots/a.png">`,
			baseDir:      "",
			wantContains: []string{`<img src="plots/a.png">`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := RewriteImagePaths(tt.html, tt.baseDir)
			if err != nil {
				t.Fatalf("RewriteImagePaths() error = %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("RewriteImagePaths() = %q, missing %q", got, want)
				}
			}
		})
	}
}
