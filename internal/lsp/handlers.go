package lsp

import (
	"context"
	"encoding/json"
	"strings"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/wirec-lang/wirec/internal/format"
	"github.com/wirec-lang/wirec/internal/tooling"
)

// handleTextDocumentCompletion handles completion requests
func (s *Server) handleTextDocumentCompletion(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.CompletionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse completion params")
	}

	completions, err := s.api.GetCompletions(string(params.TextDocument.URI), convertPosition(params.Position))
	if err != nil {
		s.logger.Debug("completion failed", zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get completions")
	}

	items := make([]protocol.CompletionItem, 0, len(completions))
	for _, c := range completions {
		item := protocol.CompletionItem{
			Label:      c.Label,
			Kind:       convertCompletionKind(c.Kind),
			Detail:     c.Detail,
			InsertText: c.InsertText,
		}
		if c.Documentation != "" {
			item.Documentation = protocol.MarkupContent{
				Kind:  protocol.Markdown,
				Value: c.Documentation,
			}
		}
		if strings.Contains(c.InsertText, "${") {
			item.InsertTextFormat = protocol.InsertTextFormatSnippet
		} else {
			item.InsertTextFormat = protocol.InsertTextFormatPlainText
		}
		items = append(items, item)
	}

	return reply(ctx, protocol.CompletionList{IsIncomplete: false, Items: items}, nil)
}

// handleTextDocumentHover handles hover requests
func (s *Server) handleTextDocumentHover(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.HoverParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse hover params")
	}

	hover, err := s.api.GetHover(string(params.TextDocument.URI), convertPosition(params.Position))
	if err != nil {
		s.logger.Debug("hover failed", zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get hover information")
	}
	if hover == nil {
		return reply(ctx, nil, nil)
	}

	rng := convertRange(hover.Range)
	return reply(ctx, protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: hover.Contents,
		},
		Range: &rng,
	}, nil)
}

// handleTextDocumentDefinition handles go-to-definition requests
func (s *Server) handleTextDocumentDefinition(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DefinitionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse definition params")
	}

	location, err := s.api.GetDefinition(string(params.TextDocument.URI), convertPosition(params.Position))
	if err != nil {
		s.logger.Debug("definition failed", zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get definition")
	}
	if location == nil {
		return reply(ctx, nil, nil)
	}

	return reply(ctx, convertLocation(*location), nil)
}

// handleTextDocumentReferences handles find references requests
func (s *Server) handleTextDocumentReferences(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.ReferenceParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse references params")
	}

	references, err := s.api.GetReferences(string(params.TextDocument.URI), convertPosition(params.Position))
	if err != nil {
		s.logger.Debug("references failed", zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get references")
	}

	locations := make([]protocol.Location, 0, len(references))
	for _, ref := range references {
		locations = append(locations, convertLocation(ref))
	}
	return reply(ctx, locations, nil)
}

// handleTextDocumentDocumentSymbol handles document symbol requests
func (s *Server) handleTextDocumentDocumentSymbol(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DocumentSymbolParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse document symbol params")
	}

	symbols, err := s.api.GetDocumentSymbols(string(params.TextDocument.URI))
	if err != nil {
		s.logger.Debug("document symbols failed", zap.Error(err))
		return s.replyWithError(ctx, reply, jsonrpc2.InternalError, "Failed to get document symbols")
	}

	return reply(ctx, convertDocumentSymbols(symbols), nil)
}

// handleWorkspaceSymbol handles workspace symbol search requests
func (s *Server) handleWorkspaceSymbol(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.WorkspaceSymbolParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse workspace symbol params")
	}

	indexed := s.api.SearchSymbols(params.Query)
	symbols := make([]protocol.SymbolInformation, 0, len(indexed))
	for _, sym := range indexed {
		symbols = append(symbols, protocol.SymbolInformation{
			Name: sym.Name,
			Kind: convertSymbolKind(sym.Kind),
			Location: protocol.Location{
				URI:   protocol.DocumentURI(sym.URI),
				Range: convertRange(sym.SelectionRange),
			},
			ContainerName: sym.ContainerName,
		})
	}

	return reply(ctx, symbols, nil)
}

// handleTextDocumentFormatting replaces the whole document with its
// formatted text. Documents that do not parse get no edits.
func (s *Server) handleTextDocumentFormatting(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DocumentFormattingParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, "Failed to parse formatting params")
	}

	doc, ok := s.api.GetDocument(string(params.TextDocument.URI))
	if !ok {
		return reply(ctx, []protocol.TextEdit{}, nil)
	}

	formatted, err := format.New(s.formatConfig).Format(string(params.TextDocument.URI), doc.Content)
	if err != nil {
		s.logger.Debug("formatting skipped", zap.Error(err))
		return reply(ctx, []protocol.TextEdit{}, nil)
	}
	if formatted == doc.Content {
		return reply(ctx, []protocol.TextEdit{}, nil)
	}

	return reply(ctx, []protocol.TextEdit{{
		Range:   protocol.Range{End: endPosition(doc.Content)},
		NewText: formatted,
	}}, nil)
}

// endPosition is the position just past the last character of text
func endPosition(text string) protocol.Position {
	line := strings.Count(text, "\n")
	last := strings.LastIndexByte(text, '\n')
	return protocol.Position{Line: uint32(line), Character: uint32(len(text) - last - 1)}
}

// Helper functions to convert between tooling and LSP types

func convertPosition(pos protocol.Position) tooling.Position {
	return tooling.Position{Line: int(pos.Line), Character: int(pos.Character)}
}

func convertRange(r tooling.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: uint32(r.Start.Line), Character: uint32(r.Start.Character)},
		End:   protocol.Position{Line: uint32(r.End.Line), Character: uint32(r.End.Character)},
	}
}

func convertLocation(loc tooling.Location) protocol.Location {
	return protocol.Location{URI: protocol.DocumentURI(loc.URI), Range: convertRange(loc.Range)}
}

func convertDocumentSymbols(symbols []*tooling.Symbol) []protocol.DocumentSymbol {
	out := make([]protocol.DocumentSymbol, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, protocol.DocumentSymbol{
			Name:           sym.Name,
			Kind:           convertSymbolKind(sym.Kind),
			Detail:         sym.Detail,
			Range:          convertRange(sym.Range),
			SelectionRange: convertRange(sym.SelectionRange),
			Children:       convertDocumentSymbols(sym.Children),
		})
	}
	return out
}

func convertCompletionKind(kind tooling.CompletionKind) protocol.CompletionItemKind {
	switch kind {
	case tooling.CompletionKindKeyword:
		return protocol.CompletionItemKindKeyword
	case tooling.CompletionKindType:
		return protocol.CompletionItemKindStruct
	case tooling.CompletionKindValue:
		return protocol.CompletionItemKindEnumMember
	case tooling.CompletionKindProperty:
		return protocol.CompletionItemKindProperty
	case tooling.CompletionKindSnippet:
		return protocol.CompletionItemKindSnippet
	default:
		return protocol.CompletionItemKindText
	}
}

func convertSymbolKind(kind tooling.SymbolKind) protocol.SymbolKind {
	switch kind {
	case tooling.SymbolKindType:
		return protocol.SymbolKindStruct
	case tooling.SymbolKindEvent:
		return protocol.SymbolKindEvent
	case tooling.SymbolKindField:
		return protocol.SymbolKindField
	case tooling.SymbolKindVariant:
		return protocol.SymbolKindEnumMember
	case tooling.SymbolKindOption:
		return protocol.SymbolKindConstant
	default:
		return protocol.SymbolKindVariable
	}
}
