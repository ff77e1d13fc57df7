package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wirec-lang/wirec/internal/compiler/ast"
	"github.com/wirec-lang/wirec/internal/compiler/errors"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		opts     ErrorOptions
		contains []string
	}{
		{
			name: "with context",
			opts: ErrorOptions{Level: ErrorLevelError, Context: "schema not found", Problem: "Cannot find schema 'a.wire'."},
			contains: []string{
				"❌ SCHEMA NOT FOUND: Cannot find schema 'a.wire'.",
				"   Cannot find schema 'a.wire'.",
			},
		},
		{
			name:     "suggestions",
			opts:     ErrorOptions{Problem: "x", Suggestions: []string{"net.wire", "game.wire"}},
			contains: []string{"Did you mean: net.wire, game.wire?"},
		},
		{
			name:     "help",
			opts:     ErrorOptions{Problem: "x", HelpCommands: []string{"Regenerate: wirec build"}},
			contains: []string{"→ Regenerate: wirec build"},
		},
		{
			name:     "warning",
			opts:     ErrorOptions{Level: ErrorLevelWarning, Problem: "careful"},
			contains: []string{"⚠️ careful"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.NoColor = true
			out := FormatError(tt.opts)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestHelpers(t *testing.T) {
	assert.Contains(t, SchemaNotFoundError("nte.wire", []string{"net.wire"}, true), "Did you mean: net.wire?")
	assert.Contains(t, BuildError("2 errors", true), "BUILD FAILED")
	assert.Contains(t, StaleOutputError([]string{"a.luau", "b.luau"}, true), "2 generated file(s) differ from the schema: a.luau, b.luau")
	assert.Contains(t, ConfigError("bad", true), "wirec init")
	assert.Equal(t, "✓ done", FormatSuccess("done", true))
}

func TestWriteDiagnostics(t *testing.T) {
	diags := errors.ErrorList{
		errors.NewUnresolvedType(ast.Span{Start: 9, End: 16}, "Missing", []string{"Mission"}).WithFile("net.wire"),
		errors.NewNoEvents(ast.Span{}).WithFile("net.wire"),
	}
	diags[0].Location = ast.SourceLocation{Line: 1, Column: 10}
	diags[1].Location = ast.SourceLocation{Line: 1, Column: 1}

	var buf bytes.Buffer
	WriteDiagnostics(&buf, diags, false, true)
	lines := strings.Split(buf.String(), "\n")

	assert.True(t, strings.HasPrefix(lines[0], "net.wire:1:10: error: "), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], "[SEM200]"), lines[0])
	assert.Contains(t, buf.String(), "net.wire:1:1: warning: ")
	assert.Equal(t, "1 error, 1 warning", Summary(diags))
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"Event", "Id", "Size"}, true)
	table.AddRow("Move", "1", "8 bytes")
	table.AddRow("Chat", "2")
	table.Render()

	assert.Equal(t, strings.Join([]string{
		"Event  Id  Size",
		"─────  ──  ───────",
		"Move   1   8 bytes",
		"Chat   2",
		"",
	}, "\n"), buf.String())
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewKeyValueTable(&buf, true)
	table.AddRow("Version", "dev")
	table.AddRow("Go", "go1.23")
	table.Render()

	assert.Equal(t, "Version: dev\nGo:      go1.23\n", buf.String())
}
