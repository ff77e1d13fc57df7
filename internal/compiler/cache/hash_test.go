package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHasher_HashContent(t *testing.T) {
	hasher := NewFileHasher()

	assert.Equal(t,
		"af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262",
		hasher.HashContent(nil))

	a := hasher.HashString("event Ping = { from: Server, type: Reliable, call: ManySync }")
	b := hasher.HashString("event Ping = { from: Client, type: Reliable, call: ManySync }")
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, hasher.HashString("event Ping = { from: Server, type: Reliable, call: ManySync }"))
}

func TestFileHasher_HashFile(t *testing.T) {
	hasher := NewFileHasher()
	path := filepath.Join(t.TempDir(), "net.wire")
	content := "type Point = struct { x: f32, y: f32 }\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := hasher.HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, hasher.HashString(content), got)

	_, err = hasher.HashFile(filepath.Join(t.TempDir(), "missing.wire"))
	assert.Error(t, err)
}
