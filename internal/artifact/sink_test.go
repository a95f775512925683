package artifact_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alnah/go-pymd/internal/artifact"
)

// ---------------------------------------------------------------------------
// TestRef_Tag
// ---------------------------------------------------------------------------

func TestRef_Tag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref  artifact.Ref
		want string
	}{
		{artifact.Ref{Title: "Sales", Path: "plots/Sales.png"}, "![Sales](plots/Sales.png)"},
		{artifact.Ref{Title: "", Path: "plots/.png"}, "![](plots/.png)"},
		{artifact.Ref{Title: "Q1 vs Q2", Path: "plots/Q1 vs Q2.png"}, "![Q1 vs Q2](plots/Q1 vs Q2.png)"},
	}

	for _, tt := range tests {
		if got := tt.ref.Tag(); got != tt.want {
			t.Errorf("Tag() = %q, want %q", got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestDisabled
// ---------------------------------------------------------------------------

func TestDisabled(t *testing.T) {
	t.Parallel()

	var s artifact.Sink = artifact.Disabled{}
	if s.Enabled() {
		t.Error("Disabled.Enabled() = true, want false")
	}
	if _, err := s.Persist(artifact.Artifact{Title: "x"}); !errors.Is(err, artifact.ErrUnsupported) {
		t.Errorf("Disabled.Persist() error = %v, want ErrUnsupported", err)
	}
}

// ---------------------------------------------------------------------------
// TestFileSink_Persist
// ---------------------------------------------------------------------------

func TestFileSink_Persist(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "plots")
	s := artifact.NewFileSink(dir)

	if !s.Enabled() {
		t.Fatal("FileSink.Enabled() = false, want true")
	}

	ref, err := s.Persist(artifact.Artifact{Title: "Revenue", PNG: []byte("png-1")})
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	wantPath := filepath.ToSlash(filepath.Join(dir, "Revenue.png"))
	if ref.Path != wantPath {
		t.Errorf("Path = %q, want %q", ref.Path, wantPath)
	}
	if ref.Title != "Revenue" {
		t.Errorf("Title = %q, want %q", ref.Title, "Revenue")
	}

	data, err := os.ReadFile(filepath.Join(dir, "Revenue.png"))
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if string(data) != "png-1" {
		t.Errorf("artifact content = %q, want %q", data, "png-1")
	}
}

func TestFileSink_Persist_SameTitleLastWins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := artifact.NewFileSink(dir)

	for _, content := range []string{"first", "second"} {
		if _, err := s.Persist(artifact.Artifact{Title: "Same", PNG: []byte(content)}); err != nil {
			t.Fatalf("Persist(%q) error = %v", content, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "Same.png"))
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("artifact content = %q, want %q", data, "second")
	}
}

func TestFileSink_Persist_IdenticalContentNotRewritten(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "Stable.png")
	if err := os.WriteFile(path, []byte("same"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	s := artifact.NewFileSink(dir)
	if _, err := s.Persist(artifact.Artifact{Title: "Stable", PNG: []byte("same")}); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(old) {
		t.Errorf("ModTime = %v, want unchanged %v", info.ModTime(), old)
	}
}

func TestFileSink_Persist_DirIsFile(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "plots")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	s := artifact.NewFileSink(blocker)
	if _, err := s.Persist(artifact.Artifact{Title: "x", PNG: []byte("x")}); !errors.Is(err, artifact.ErrWrite) {
		t.Errorf("Persist() error = %v, want ErrWrite", err)
	}
}

func TestNewFileSink_DefaultDir(t *testing.T) {
	t.Parallel()

	if got := artifact.NewFileSink("").Dir(); got != artifact.DefaultDir {
		t.Errorf("Dir() = %q, want %q", got, artifact.DefaultDir)
	}
}

func TestDigest(t *testing.T) {
	t.Parallel()

	a := artifact.Digest([]byte("chart"))
	b := artifact.Digest([]byte("chart"))
	c := artifact.Digest([]byte("other"))

	if a != b {
		t.Error("Digest() not deterministic")
	}
	if a == c {
		t.Error("Digest() collides for different input")
	}
	if len(a) != 64 {
		t.Errorf("len(Digest()) = %d, want 64 hex chars", len(a))
	}
}
