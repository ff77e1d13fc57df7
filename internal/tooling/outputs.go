package tooling

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
)

// resolve joins relative output paths to root
func resolve(root, path string) string {
	if filepath.IsAbs(path) || root == "" {
		return path
	}
	return filepath.Join(root, path)
}

// sortedPaths returns the keys of files in a stable order
func sortedPaths(files map[string]string) []string {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// WriteOutputs writes the emitted files under root, creating directories
// as needed. Files whose contents already match are left alone. It returns
// the paths that were written.
func WriteOutputs(root string, files map[string]string) ([]string, error) {
	var written []string
	for _, path := range sortedPaths(files) {
		full := resolve(root, path)
		content := []byte(files[path])

		if existing, err := os.ReadFile(full); err == nil && bytes.Equal(existing, content) {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return written, fmt.Errorf("creating output directory: %w", err)
		}
		if err := os.WriteFile(full, content, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// FileDiff is the difference between an emitted file and what is on disk
type FileDiff struct {
	Path    string
	Missing bool
	Diff    string
}

// DiffOutputs compares the emitted files with the files under root and
// returns one entry per file that is missing or out of date
func DiffOutputs(root string, files map[string]string) ([]FileDiff, error) {
	var diffs []FileDiff
	for _, path := range sortedPaths(files) {
		want := files[path]

		existing, err := os.ReadFile(resolve(root, path))
		if os.IsNotExist(err) {
			diffs = append(diffs, FileDiff{Path: path, Missing: true})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if string(existing) == want {
			continue
		}

		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(existing)),
			B:        difflib.SplitLines(want),
			FromFile: path + " (on disk)",
			ToFile:   path + " (generated)",
			Context:  3,
		})
		if err != nil {
			return nil, fmt.Errorf("diffing %s: %w", path, err)
		}
		diffs = append(diffs, FileDiff{Path: path, Diff: diff})
	}
	return diffs, nil
}
