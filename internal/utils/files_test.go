package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestFindSchemaFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "net.wire"))
	touch(t, filepath.Join(root, "game", "combat.wire"))
	touch(t, filepath.Join(root, "game", "notes.md"))
	touch(t, filepath.Join(root, ".wirec", "cached.wire"))

	files, err := FindSchemaFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "game", "combat.wire"),
		filepath.Join(root, "net.wire"),
	}, files)
}

func TestExpandSchemaArgs(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "dir", "a.wire"))

	files, err := ExpandSchemaArgs([]string{"single.wire", filepath.Join(root, "dir")})
	require.NoError(t, err)
	assert.Equal(t, []string{"single.wire", filepath.Join(root, "dir", "a.wire")}, files)
}
