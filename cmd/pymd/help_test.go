package main

// Notes:
// - runHelp: we test each topic routes to its usage text and that an
//   unknown topic prints to stderr with a usage exit code.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRunHelp - Help topics
// ---------------------------------------------------------------------------

func TestRunHelp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no topic", nil, ExitSuccess, "Run 'pymd help <command>'", ""},
		{"compile", []string{"compile"}, ExitSuccess, "#silent*input", ""},
		{"doctor", []string{"doctor"}, ExitSuccess, "Usage: pymd doctor", ""},
		{"config", []string{"config"}, ExitSuccess, "Usage: pymd config", ""},
		{"completion", []string{"completion"}, ExitSuccess, "Usage: pymd completion <shell>", ""},
		{"version", []string{"version"}, ExitSuccess, "Usage: pymd version", ""},
		{"help", []string{"help"}, ExitSuccess, "Usage: pymd help [command]", ""},
		{"unknown", []string{"convert"}, ExitUsage, "", "Unknown command: convert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv(nil)
			code := runHelp(tt.args, env)

			if code != tt.wantCode {
				t.Errorf("runHelp(%v) = %d, want %d", tt.args, code, tt.wantCode)
			}
			if !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantStdout)
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestPrintCompileUsage_FlagsMatchFlagSet(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	printCompileUsage(&buf)

	for _, f := range extractFlagsFromFlagSet(newCompileFlagSet(&compileFlags{})) {
		if !strings.Contains(buf.String(), "--"+f.Long) {
			t.Errorf("compile usage does not document --%s", f.Long)
		}
	}
}
