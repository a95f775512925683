package yamlutil_test

// Notes:
// - Marshal error branch: not tested because yaml.Marshal only fails with
//   unmarshalable types (channels, functions) that never appear in config.

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-pymd/internal/yamlutil"
)

type testSection struct {
	Path    string        `yaml:"path"`
	Args    []string      `yaml:"args"`
	Timeout time.Duration `yaml:"timeout"`
}

type testConfig struct {
	Interpreter testSection `yaml:"interpreter"`
	Enabled     bool        `yaml:"enabled"`
}

// ---------------------------------------------------------------------------
// TestUnmarshalStrict - Parses YAML and rejects unknown fields
// ---------------------------------------------------------------------------

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     []byte
		dest     any
		wantErr  error
		wantText string
		check    func(t *testing.T, v any)
	}{
		{
			name: "nested sections and durations",
			data: []byte("interpreter:\n  path: /usr/bin/python3\n  args: [-X, utf8]\n  timeout: 45s\nenabled: true\n"),
			dest: &testConfig{},
			check: func(t *testing.T, v any) {
				cfg := v.(*testConfig)
				if cfg.Interpreter.Path != "/usr/bin/python3" {
					t.Errorf("Path = %q, want %q", cfg.Interpreter.Path, "/usr/bin/python3")
				}
				if len(cfg.Interpreter.Args) != 2 || cfg.Interpreter.Args[1] != "utf8" {
					t.Errorf("Args = %v, want [-X utf8]", cfg.Interpreter.Args)
				}
				if cfg.Interpreter.Timeout != 45*time.Second {
					t.Errorf("Timeout = %v, want 45s", cfg.Interpreter.Timeout)
				}
				if !cfg.Enabled {
					t.Error("Enabled = false, want true")
				}
			},
		},
		{
			name: "unicode content",
			data: []byte("interpreter:\n  path: /opt/pythön/bin/python3\n"),
			dest: &testConfig{},
			check: func(t *testing.T, v any) {
				if got := v.(*testConfig).Interpreter.Path; got != "/opt/pythön/bin/python3" {
					t.Errorf("Path = %q", got)
				}
			},
		},
		{
			name:     "unknown field is rejected",
			data:     []byte("interpreter:\n  path: python3\n  colour: blue\n"),
			dest:     &testConfig{},
			wantText: "colour",
		},
		{
			name:     "invalid syntax",
			data:     []byte("interpreter: [unclosed"),
			dest:     &testConfig{},
			wantText: "yamlutil:",
		},
		{
			name:    "nil data",
			data:    nil,
			dest:    &testConfig{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "empty data",
			data:    []byte{},
			dest:    &testConfig{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "nil destination",
			data:    []byte("enabled: true"),
			dest:    nil,
			wantErr: yamlutil.ErrNilDestination,
		},
		{
			name:    "input too large",
			data:    []byte("enabled: true\n" + strings.Repeat("#", yamlutil.MaxInputSize)),
			dest:    &testConfig{},
			wantErr: yamlutil.ErrInputTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.UnmarshalStrict(tt.data, tt.dest)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			case tt.wantText != "":
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantText)
				}
				if !strings.Contains(err.Error(), tt.wantText) {
					t.Fatalf("error = %q, want containing %q", err, tt.wantText)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, tt.dest)
			}
		})
	}
}

func TestUnmarshalStrict_SizeInError(t *testing.T) {
	t.Parallel()

	data := make([]byte, yamlutil.MaxInputSize+10)
	err := yamlutil.UnmarshalStrict(data, &testConfig{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "bytes (max") {
		t.Errorf("error should report sizes, got: %s", err)
	}
}

// ---------------------------------------------------------------------------
// TestMarshal - Serializes configuration to YAML
// ---------------------------------------------------------------------------

func TestMarshal(t *testing.T) {
	t.Parallel()

	data, err := yamlutil.Marshal(&testConfig{
		Interpreter: testSection{Path: "python3", Args: []string{"-I"}},
		Enabled:     true,
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	s := string(data)
	for _, want := range []string{"interpreter:\n", "  path: python3", "enabled: true"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q, got:\n%s", want, s)
		}
	}
}

func TestMarshal_ReadableByUnmarshalStrict(t *testing.T) {
	t.Parallel()

	original := testConfig{
		Interpreter: testSection{Path: "python3.12", Args: []string{"-X", "dev"}, Timeout: 90 * time.Second},
		Enabled:     true,
	}

	data, err := yamlutil.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded testConfig
	if err := yamlutil.UnmarshalStrict(data, &decoded); err != nil {
		t.Fatalf("UnmarshalStrict() error = %v\n%s", err, data)
	}
	if decoded.Interpreter.Path != original.Interpreter.Path {
		t.Errorf("Path = %q, want %q", decoded.Interpreter.Path, original.Interpreter.Path)
	}
	if decoded.Interpreter.Timeout != original.Interpreter.Timeout {
		t.Errorf("Timeout = %v, want %v", decoded.Interpreter.Timeout, original.Interpreter.Timeout)
	}
	if len(decoded.Interpreter.Args) != 2 {
		t.Errorf("Args = %v, want 2 entries", decoded.Interpreter.Args)
	}
}
