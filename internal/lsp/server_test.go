package lsp

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/wirec-lang/wirec/internal/compiler/analyzer"
	"github.com/wirec-lang/wirec/internal/tooling"
)

const schemaURI = protocol.DocumentURI("file:///project/net.wire")

const schemaText = `type Point = struct { x: f32, y: f32 }

event Move = { from: Client, type: Unreliable, call: SingleSync, data: Point }
`

// session connects a client to a server over an in-memory pipe and
// collects published diagnostics
type session struct {
	conn        jsonrpc2.Conn
	diagnostics chan protocol.PublishDiagnosticsParams
	served      chan error
}

func startSession(t *testing.T) *session {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serverSide, clientSide := net.Pipe()
	server := NewServer(nil, analyzer.Options{})

	s := &session{
		diagnostics: make(chan protocol.PublishDiagnosticsParams, 16),
		served:      make(chan error, 1),
	}
	go func() { s.served <- server.Serve(ctx, serverSide) }()

	s.conn = jsonrpc2.NewConn(jsonrpc2.NewStream(clientSide))
	s.conn.Go(ctx, func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		if req.Method() == protocol.MethodTextDocumentPublishDiagnostics {
			var params protocol.PublishDiagnosticsParams
			if err := json.Unmarshal(req.Params(), &params); err == nil {
				s.diagnostics <- params
			}
		}
		return reply(ctx, nil, nil)
	})
	t.Cleanup(func() { s.conn.Close() })

	var result protocol.InitializeResult
	_, err := s.conn.Call(ctx, protocol.MethodInitialize, protocol.InitializeParams{RootURI: "file:///project"}, &result)
	require.NoError(t, err)
	assert.Equal(t, "wirec-lsp", result.ServerInfo.Name)
	require.NoError(t, s.conn.Notify(ctx, protocol.MethodInitialized, protocol.InitializedParams{}))
	return s
}

func (s *session) open(t *testing.T, text string) protocol.PublishDiagnosticsParams {
	t.Helper()
	require.NoError(t, s.conn.Notify(context.Background(), protocol.MethodTextDocumentDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: schemaURI, LanguageID: "wire", Version: 1, Text: text},
	}))
	return s.nextDiagnostics(t)
}

func (s *session) nextDiagnostics(t *testing.T) protocol.PublishDiagnosticsParams {
	t.Helper()
	select {
	case params := <-s.diagnostics:
		return params
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for diagnostics")
		return protocol.PublishDiagnosticsParams{}
	}
}

func TestServer_PublishesDiagnostics(t *testing.T) {
	s := startSession(t)

	params := s.open(t, schemaText)
	assert.Equal(t, schemaURI, params.URI)
	assert.Empty(t, params.Diagnostics)

	require.NoError(t, s.conn.Notify(context.Background(), protocol.MethodTextDocumentDidChange, protocol.DidChangeTextDocumentParams{
		TextDocument:   protocol.VersionedTextDocumentIdentifier{TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: schemaURI}, Version: 2},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: schemaText + "type Bad = Missing\n"}},
	}))
	params = s.nextDiagnostics(t)
	require.Len(t, params.Diagnostics, 1)
	diag := params.Diagnostics[0]
	assert.Equal(t, "SEM200", diag.Code)
	assert.Equal(t, protocol.DiagnosticSeverityError, diag.Severity)
	assert.Equal(t, uint32(3), diag.Range.Start.Line)

	require.NoError(t, s.conn.Notify(context.Background(), protocol.MethodTextDocumentDidClose, protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: schemaURI},
	}))
	assert.Empty(t, s.nextDiagnostics(t).Diagnostics)
}

func TestServer_Hover(t *testing.T) {
	s := startSession(t)
	s.open(t, schemaText)

	var hover protocol.Hover
	_, err := s.conn.Call(context.Background(), protocol.MethodTextDocumentHover, protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: schemaURI},
			Position:     protocol.Position{Line: 2, Character: 7},
		},
	}, &hover)
	require.NoError(t, err)
	assert.Equal(t, protocol.Markdown, hover.Contents.Kind)
	assert.Contains(t, hover.Contents.Value, "**Event id:** 1")
	assert.Contains(t, hover.Contents.Value, "**Payload size:** 8 bytes")
}

func TestServer_DocumentSymbols(t *testing.T) {
	s := startSession(t)
	s.open(t, schemaText)

	var symbols []protocol.DocumentSymbol
	_, err := s.conn.Call(context.Background(), protocol.MethodTextDocumentDocumentSymbol, protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: schemaURI},
	}, &symbols)
	require.NoError(t, err)
	require.Len(t, symbols, 2)
	assert.Equal(t, "Point", symbols[0].Name)
	assert.Equal(t, protocol.SymbolKindStruct, symbols[0].Kind)
	assert.Len(t, symbols[0].Children, 2)
	assert.Equal(t, protocol.SymbolKindEvent, symbols[1].Kind)
}

func TestServer_Formatting(t *testing.T) {
	s := startSession(t)
	s.open(t, "type Point = struct {x:f32,y:f32}\n\nevent Move = { from: Client, type: Unreliable, call: SingleSync, data: Point }")

	var edits []protocol.TextEdit
	_, err := s.conn.Call(context.Background(), protocol.MethodTextDocumentFormatting, protocol.DocumentFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: schemaURI},
	}, &edits)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, protocol.Position{}, edits[0].Range.Start)
	assert.Equal(t, protocol.Position{Line: 2, Character: 78}, edits[0].Range.End)
	assert.Equal(t, schemaText, edits[0].NewText)

	require.NoError(t, s.conn.Notify(context.Background(), protocol.MethodTextDocumentDidChange, protocol.DidChangeTextDocumentParams{
		TextDocument:   protocol.VersionedTextDocumentIdentifier{TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: schemaURI}, Version: 2},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: schemaText}},
	}))
	s.nextDiagnostics(t)

	_, err = s.conn.Call(context.Background(), protocol.MethodTextDocumentFormatting, protocol.DocumentFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: schemaURI},
	}, &edits)
	require.NoError(t, err)
	assert.Empty(t, edits)
}

func TestEndPosition(t *testing.T) {
	assert.Equal(t, protocol.Position{}, endPosition(""))
	assert.Equal(t, protocol.Position{Line: 0, Character: 3}, endPosition("abc"))
	assert.Equal(t, protocol.Position{Line: 1, Character: 0}, endPosition("abc\n"))
	assert.Equal(t, protocol.Position{Line: 1, Character: 2}, endPosition("a\nbc"))
}

func TestServer_Exit(t *testing.T) {
	s := startSession(t)

	_, err := s.conn.Call(context.Background(), protocol.MethodShutdown, nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.conn.Notify(context.Background(), protocol.MethodExit, nil))

	select {
	case <-s.served:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after exit")
	}
}

func TestConvertSeverity(t *testing.T) {
	tests := []struct {
		input    tooling.DiagnosticSeverity
		expected protocol.DiagnosticSeverity
	}{
		{tooling.DiagnosticSeverityError, protocol.DiagnosticSeverityError},
		{tooling.DiagnosticSeverityWarning, protocol.DiagnosticSeverityWarning},
		{tooling.DiagnosticSeverityInfo, protocol.DiagnosticSeverityInformation},
		{tooling.DiagnosticSeverityHint, protocol.DiagnosticSeverityHint},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, convertSeverity(tt.input))
	}
}

func TestConvertSymbolKind(t *testing.T) {
	assert.Equal(t, protocol.SymbolKindStruct, convertSymbolKind(tooling.SymbolKindType))
	assert.Equal(t, protocol.SymbolKindEvent, convertSymbolKind(tooling.SymbolKindEvent))
	assert.Equal(t, protocol.SymbolKindField, convertSymbolKind(tooling.SymbolKindField))
	assert.Equal(t, protocol.SymbolKindEnumMember, convertSymbolKind(tooling.SymbolKindVariant))
	assert.Equal(t, protocol.SymbolKindConstant, convertSymbolKind(tooling.SymbolKindOption))
}
