// Package tooling exposes the compiler to editors, the watcher and the
// playground. Compiler runs the pipeline; API keeps per-document state and
// answers position queries for the language server.
package tooling

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wirec-lang/wirec/internal/compiler/analyzer"
	"github.com/wirec-lang/wirec/internal/compiler/ast"
	"github.com/wirec-lang/wirec/internal/compiler/errors"
)

// API provides thread-safe access to compiled documents
type API struct {
	compiler *Compiler

	documents map[string]*Document
	docsMutex sync.RWMutex

	symbolIndex *SymbolIndex
}

// Document is an open schema together with its compilation result
type Document struct {
	// URI is the document identifier (typically a file URI)
	URI string

	// Content is the raw source code
	Content string

	// Version tracks document changes (incremented on each update)
	Version int

	Result *Result

	// Symbols are the declarations of the document, with struct fields
	// and enum variants nested under their type
	Symbols []*Symbol
}

// Position is a zero-based line and byte offset within the line
type Position struct {
	Line      int
	Character int
}

// Range represents a range in a document
type Range struct {
	Start Position
	End   Position
}

// Location represents a source location with URI and range
type Location struct {
	URI   string
	Range Range
}

// Symbol is a named declaration
type Symbol struct {
	Name string
	Kind SymbolKind

	// Range covers the whole declaration, SelectionRange only its name
	Range          Range
	SelectionRange Range

	ContainerName string
	Detail        string
	Children      []*Symbol
}

// SymbolKind categorizes symbols for IDE display
type SymbolKind int

const (
	SymbolKindType SymbolKind = iota
	SymbolKindEvent
	SymbolKindField
	SymbolKindVariant
	SymbolKindOption
)

// Hover is markdown shown for the name under the cursor
type Hover struct {
	Contents string
	Range    Range
}

// Diagnostic represents a compilation error or warning
type Diagnostic struct {
	Range    Range
	Severity DiagnosticSeverity
	Code     string
	Message  string
	Source   string
	Related  []RelatedInformation
}

// RelatedInformation points at a second location of a diagnostic
type RelatedInformation struct {
	Range   Range
	Message string
}

// DiagnosticSeverity indicates the severity of a diagnostic
type DiagnosticSeverity int

const (
	DiagnosticSeverityError DiagnosticSeverity = iota
	DiagnosticSeverityWarning
	DiagnosticSeverityInfo
	DiagnosticSeverityHint
)

// NewAPI creates an API with its own compiler
func NewAPI(logger *zap.Logger, opts analyzer.Options) *API {
	return NewAPIWithCompiler(NewCompiler(logger, opts))
}

// NewAPIWithCompiler creates an API over an existing compiler
func NewAPIWithCompiler(compiler *Compiler) *API {
	return &API{
		compiler:    compiler,
		documents:   make(map[string]*Document),
		symbolIndex: NewSymbolIndex(),
	}
}

// OpenDocument compiles content and starts tracking it under uri
func (a *API) OpenDocument(uri, content string) *Document {
	return a.UpdateDocument(uri, content, 1)
}

// UpdateDocument recompiles a document with new content
func (a *API) UpdateDocument(uri, content string, version int) *Document {
	a.docsMutex.Lock()
	if old, ok := a.documents[uri]; ok && old.Content == content {
		old.Version = version
		a.docsMutex.Unlock()
		return old
	}
	a.docsMutex.Unlock()

	result := a.compiler.Compile(uri, content)
	doc := &Document{
		URI:     uri,
		Content: content,
		Version: version,
		Result:  result,
		Symbols: extractSymbols(result),
	}

	a.docsMutex.Lock()
	a.documents[uri] = doc
	a.docsMutex.Unlock()

	a.symbolIndex.Index(uri, doc.Symbols)
	return doc
}

// GetDocument retrieves a tracked document
func (a *API) GetDocument(uri string) (*Document, bool) {
	a.docsMutex.RLock()
	defer a.docsMutex.RUnlock()

	doc, exists := a.documents[uri]
	return doc, exists
}

// CloseDocument stops tracking a document
func (a *API) CloseDocument(uri string) {
	a.docsMutex.Lock()
	delete(a.documents, uri)
	a.docsMutex.Unlock()

	a.symbolIndex.RemoveDocument(uri)
	a.compiler.Cache().Invalidate(uri)
}

// GetDiagnostics returns the diagnostics of a document
func (a *API) GetDiagnostics(uri string) []Diagnostic {
	doc, exists := a.GetDocument(uri)
	if !exists {
		return nil
	}

	file := doc.Result.Source
	diagnostics := make([]Diagnostic, 0, len(doc.Result.Diagnostics))
	for _, err := range doc.Result.Diagnostics {
		d := Diagnostic{
			Range:    rangeOf(file, err.Span),
			Severity: severityOf(err),
			Code:     string(err.Code),
			Message:  err.Message,
			Source:   "wirec",
		}
		if err.Suggestion != "" {
			d.Message += "\n" + err.Suggestion
		}
		for _, rel := range err.Related {
			d.Related = append(d.Related, RelatedInformation{
				Range:   rangeOf(file, rel.Span),
				Message: rel.Message,
			})
		}
		diagnostics = append(diagnostics, d)
	}
	return diagnostics
}

// GetHover returns hover information for a position in a document.
// Returns (nil, nil) if nothing with hover text is at the position.
func (a *API) GetHover(uri string, pos Position) (*Hover, error) {
	doc, exists := a.GetDocument(uri)
	if !exists {
		return nil, fmt.Errorf("document not found: %s", uri)
	}
	return buildHover(doc.Result, offsetOf(doc.Result.Source, pos)), nil
}

// GetDefinition returns the declaration of the type named at a position.
// Returns (nil, nil) if no type name is at the position.
func (a *API) GetDefinition(uri string, pos Position) (*Location, error) {
	doc, exists := a.GetDocument(uri)
	if !exists {
		return nil, fmt.Errorf("document not found: %s", uri)
	}

	name, ok := typeNameAt(doc.Result.File, offsetOf(doc.Result.Source, pos))
	if !ok {
		return nil, nil //nolint:nilnil // no definition is a valid answer
	}
	def := a.symbolIndex.FindDefinition(name)
	if def == nil {
		return nil, nil //nolint:nilnil // unresolved names have no definition
	}
	return &Location{URI: def.URI, Range: def.SelectionRange}, nil
}

// GetReferences returns every use of the type named at a position,
// including its declaration
func (a *API) GetReferences(uri string, pos Position) ([]Location, error) {
	doc, exists := a.GetDocument(uri)
	if !exists {
		return nil, fmt.Errorf("document not found: %s", uri)
	}

	file := doc.Result.File
	name, ok := typeNameAt(file, offsetOf(doc.Result.Source, pos))
	if !ok {
		return []Location{}, nil
	}

	locations := make([]Location, 0)
	for _, span := range typeReferences(file, name) {
		locations = append(locations, Location{URI: uri, Range: rangeOf(doc.Result.Source, span)})
	}
	return locations, nil
}

// GetDocumentSymbols returns all symbols in a document
func (a *API) GetDocumentSymbols(uri string) ([]*Symbol, error) {
	doc, exists := a.GetDocument(uri)
	if !exists {
		return nil, fmt.Errorf("document not found: %s", uri)
	}
	return doc.Symbols, nil
}

// SearchSymbols finds top-level declarations across open documents
func (a *API) SearchSymbols(query string) []*IndexedSymbol {
	return a.symbolIndex.SearchSymbols(query)
}

func severityOf(err *errors.CompilerError) DiagnosticSeverity {
	if err.Severity == errors.SeverityWarning {
		return DiagnosticSeverityWarning
	}
	return DiagnosticSeverityError
}

// rangeOf converts a byte span into a zero-based range
func rangeOf(file *ast.SourceFile, span ast.Span) Range {
	start, end := file.Position(span.Start), file.Position(span.End)
	return Range{
		Start: Position{Line: start.Line - 1, Character: start.Column - 1},
		End:   Position{Line: end.Line - 1, Character: end.Column - 1},
	}
}

// offsetOf converts a zero-based position into a byte offset
func offsetOf(file *ast.SourceFile, pos Position) int {
	return file.Offset(ast.SourceLocation{Line: pos.Line + 1, Column: pos.Character + 1})
}
