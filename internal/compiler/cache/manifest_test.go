package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_RoundTrip(t *testing.T) {
	root := t.TempDir()
	path := ManifestPath(root)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Empty(t, m.Entries)

	m.Record("net.wire", "h1", "1.0.0", map[string]string{"out/server.luau": "return {}"})
	require.NoError(t, m.Save(path))

	loaded, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
}

func TestManifest_Corrupt(t *testing.T) {
	path := ManifestPath(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0x00}, 0o644))

	_, err := LoadManifest(path)
	assert.Error(t, err)
}

func TestManifest_UpToDate(t *testing.T) {
	root := t.TempDir()
	outputs := map[string]string{
		"server.luau": "-- server",
		"client.luau": "-- client",
	}
	for name, content := range outputs {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}

	m := NewManifest()
	assert.False(t, m.UpToDate(root, "net.wire", "h1", "1.0.0"))

	m.Record("net.wire", "h1", "1.0.0", outputs)
	assert.True(t, m.UpToDate(root, "net.wire", "h1", "1.0.0"))
	assert.False(t, m.UpToDate(root, "net.wire", "h2", "1.0.0"), "schema changed")
	assert.False(t, m.UpToDate(root, "net.wire", "h1", "1.1.0"), "compiler changed")

	require.NoError(t, os.WriteFile(filepath.Join(root, "client.luau"), []byte("-- edited"), 0o644))
	assert.False(t, m.UpToDate(root, "net.wire", "h1", "1.0.0"), "output edited")

	require.NoError(t, os.Remove(filepath.Join(root, "client.luau")))
	assert.False(t, m.UpToDate(root, "net.wire", "h1", "1.0.0"), "output removed")
}
