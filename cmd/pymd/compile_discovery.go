package main

import (
	"cmp"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	pymd "github.com/alnah/go-pymd"
)

// sourceFile represents a single document to compile.
type sourceFile struct {
	InputPath  string
	OutputPath string
	seq        int // discovery position, shared with failed results
}

// discoverSources expands the command-line paths into documents.
// Files are taken as given and must carry the .pymd extension; directories
// are walked for *.pymd files. A path that cannot be used becomes a failed
// result so the remaining paths still run. Duplicate paths are compiled once.
func discoverSources(paths []string) ([]sourceFile, []docResult) {
	var files []sourceFile
	var failed []docResult
	seen := make(map[string]bool)
	seq := 0
	fail := func(path string, err error) {
		failed = append(failed, docResult{InputPath: path, Err: err, seq: seq})
		seq++
	}

	add := func(path string) error {
		out, err := pymd.OutputPath(path)
		if err != nil {
			return err
		}
		key := filepath.Clean(path)
		if seen[key] {
			return nil
		}
		seen[key] = true
		files = append(files, sourceFile{InputPath: path, OutputPath: out, seq: seq})
		seq++
		return nil
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			fail(path, fmt.Errorf("%w: %w", ErrReadSource, err))
			continue
		}

		if !info.IsDir() {
			if err := add(path); err != nil {
				fail(path, err)
			}
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("scanning %s: %w", p, err)
			}
			if d.IsDir() || !pymd.IsSource(d.Name()) {
				return nil
			}
			return add(p)
		})
		if err != nil {
			fail(path, fmt.Errorf("%w: %w", ErrReadSource, err))
		}
	}

	return files, failed
}

// mergeResults interleaves discovery failures with compiled documents so
// the report follows the order of the command-line paths.
func mergeResults(compiled, failed []docResult) []docResult {
	merged := make([]docResult, 0, len(compiled)+len(failed))
	merged = append(merged, compiled...)
	merged = append(merged, failed...)
	slices.SortStableFunc(merged, func(a, b docResult) int {
		return cmp.Compare(a.seq, b.seq)
	})
	return merged
}
