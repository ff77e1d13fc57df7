package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wirec-lang/wirec/internal/compiler/analyzer"
	"github.com/wirec-lang/wirec/internal/tooling"
)

type build struct {
	result *BuildResult
	err    error
}

func nextBuild(t *testing.T, builds <-chan build) build {
	t.Helper()
	select {
	case b := <-builds:
		return b
	case <-time.After(3 * time.Second):
		t.Fatal("no build")
		return build{}
	}
}

func TestSession_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeSchema(t, dir, schemaSource)

	builds := make(chan build, 8)
	notifier := NewNotifier(nil)
	defer notifier.Close()

	s, err := NewSession(zaptest.NewLogger(t), tooling.NewCompiler(nil, analyzer.Options{}), Config{
		Schema:   path,
		Root:     dir,
		Debounce: 20 * time.Millisecond,
		Notifier: notifier,
		OnBuild: func(r *BuildResult, err error) {
			builds <- build{r, err}
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	first := nextBuild(t, builds)
	require.NoError(t, first.err)
	assert.True(t, first.result.Success)
	assert.FileExists(t, filepath.Join(dir, "network", "client.luau"))

	// give the watcher time to register before editing
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("type A = Missing\n"), 0o644))

	second := nextBuild(t, builds)
	assert.Error(t, second.err)
	assert.True(t, second.result.Diagnostics.HasErrors())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestSession_RequiresSchema(t *testing.T) {
	_, err := NewSession(nil, tooling.NewCompiler(nil, analyzer.Options{}), Config{})
	assert.Error(t, err)
}
