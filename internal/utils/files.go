package utils

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SchemaExt is the extension of schema files
const SchemaExt = ".wire"

// FindSchemaFiles recursively finds the .wire files under dir, skipping
// hidden directories. The result is sorted.
func FindSchemaFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) == SchemaExt {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ExpandSchemaArgs replaces directories in paths with the schema files
// they contain
func ExpandSchemaArgs(paths []string) ([]string, error) {
	var out []string
	for _, path := range paths {
		if !isDir(path) {
			out = append(out, path)
			continue
		}
		files, err := FindSchemaFiles(path)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
