package tooling

import (
	"fmt"
	"strings"
	"sync"

	"github.com/wirec-lang/wirec/internal/compiler/ast"
)

// SymbolIndex maintains a searchable index of declarations across documents
type SymbolIndex struct {
	// symbols maps symbol name to all definitions
	symbols map[string][]*IndexedSymbol
	mutex   sync.RWMutex
}

// IndexedSymbol represents a symbol with its document
type IndexedSymbol struct {
	URI string
	*Symbol
}

// NewSymbolIndex creates a new symbol index
func NewSymbolIndex() *SymbolIndex {
	return &SymbolIndex{
		symbols: make(map[string][]*IndexedSymbol),
	}
}

// Index replaces the symbols of a document. Only top-level declarations
// are indexed.
func (si *SymbolIndex) Index(uri string, symbols []*Symbol) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	si.removeDocumentLocked(uri)
	for _, sym := range symbols {
		si.symbols[sym.Name] = append(si.symbols[sym.Name], &IndexedSymbol{URI: uri, Symbol: sym})
	}
}

// RemoveDocument removes all symbols from a document
func (si *SymbolIndex) RemoveDocument(uri string) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	si.removeDocumentLocked(uri)
}

func (si *SymbolIndex) removeDocumentLocked(uri string) {
	for name, syms := range si.symbols {
		filtered := make([]*IndexedSymbol, 0, len(syms))
		for _, sym := range syms {
			if sym.URI != uri {
				filtered = append(filtered, sym)
			}
		}
		if len(filtered) > 0 {
			si.symbols[name] = filtered
		} else {
			delete(si.symbols, name)
		}
	}
}

// FindDefinition finds the type declaration with the given name
func (si *SymbolIndex) FindDefinition(name string) *IndexedSymbol {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	for _, sym := range si.symbols[name] {
		if sym.Kind == SymbolKindType {
			return sym
		}
	}
	return nil
}

// SearchSymbols returns symbols whose name contains query, ignoring case.
// An empty query matches everything.
func (si *SymbolIndex) SearchSymbols(query string) []*IndexedSymbol {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	query = strings.ToLower(query)
	result := make([]*IndexedSymbol, 0)
	for name, syms := range si.symbols {
		if strings.Contains(strings.ToLower(name), query) {
			result = append(result, syms...)
		}
	}
	return result
}

// extractSymbols lists the declarations of a compiled document in source
// order
func extractSymbols(r *Result) []*Symbol {
	file, src := r.File, r.Source
	symbols := make([]*Symbol, 0, len(file.Opts)+len(file.Types)+len(file.Events))

	for _, opt := range file.Opts {
		detail := "opt " + opt.Name.Name
		if opt.Value != nil {
			detail += " = " + src.Slice(opt.Value.Loc)
		}
		symbols = append(symbols, &Symbol{
			Name:           opt.Name.Name,
			Kind:           SymbolKindOption,
			Range:          rangeOf(src, opt.Loc),
			SelectionRange: rangeOf(src, opt.Name.Loc),
			Detail:         detail,
		})
	}

	for _, td := range file.Types {
		sym := &Symbol{
			Name:           td.Name.Name,
			Kind:           SymbolKindType,
			Range:          rangeOf(src, td.Loc),
			SelectionRange: rangeOf(src, td.Name.Loc),
			Detail:         "type " + td.Name.Name,
		}
		if td.Type != nil {
			sym.Detail += " = " + src.Slice(td.Type.Span())
			sym.Children = typeChildren(src, td.Name.Name, td.Type)
		}
		symbols = append(symbols, sym)
	}

	for _, ev := range file.Events {
		sym := &Symbol{
			Name:           ev.Name.Name,
			Kind:           SymbolKindEvent,
			Range:          rangeOf(src, ev.Loc),
			SelectionRange: rangeOf(src, ev.Name.Loc),
			Detail:         "event " + ev.Name.Name,
		}
		if decl, ok := r.Config.Event(ev.Name.Name); ok {
			sym.Detail = fmt.Sprintf("event %s (id %d, from %s)", decl.Name, decl.ID, decl.From)
		}
		if data := ev.Field("data"); data != nil && data.Type != nil {
			sym.Children = typeChildren(src, ev.Name.Name, data.Type)
		}
		symbols = append(symbols, sym)
	}

	return symbols
}

// typeChildren lists the fields of a struct or the variants of an enum
func typeChildren(src *ast.SourceFile, container string, t ast.TypeNode) []*Symbol {
	var children []*Symbol
	switch t := t.(type) {
	case *ast.StructType:
		for _, f := range t.Fields {
			child := &Symbol{
				Name:           f.Name.Name,
				Kind:           SymbolKindField,
				Range:          rangeOf(src, f.Loc),
				SelectionRange: rangeOf(src, f.Name.Loc),
				ContainerName:  container,
			}
			if f.Type != nil {
				child.Detail = src.Slice(f.Type.Span())
				child.Children = typeChildren(src, f.Name.Name, f.Type)
			}
			children = append(children, child)
		}

	case *ast.EnumType:
		for _, v := range t.Variants {
			children = append(children, &Symbol{
				Name:           v.Name,
				Kind:           SymbolKindVariant,
				Range:          rangeOf(src, v.Loc),
				SelectionRange: rangeOf(src, v.Loc),
				ContainerName:  container,
			})
		}

	case *ast.TaggedEnumType:
		for _, c := range t.Cases {
			child := &Symbol{
				Name:           c.Name.Name,
				Kind:           SymbolKindVariant,
				Range:          rangeOf(src, c.Loc),
				SelectionRange: rangeOf(src, c.Name.Loc),
				ContainerName:  container,
				Detail:         fmt.Sprintf("%s = %q", t.Tag.Name, c.Name.Name),
			}
			if c.Body != nil {
				child.Children = typeChildren(src, c.Name.Name, c.Body)
			}
			children = append(children, child)
		}

	case *ast.OptType:
		return typeChildren(src, container, t.Inner)
	}
	return children
}

// within reports whether offset touches span, counting a cursor placed
// right after the last character
func within(span ast.Span, offset int) bool {
	return offset >= span.Start && offset <= span.End
}

// typeRoots returns every type expression written in file
func typeRoots(file *ast.Schema) []ast.TypeNode {
	var roots []ast.TypeNode
	for _, td := range file.Types {
		if td.Type != nil {
			roots = append(roots, td.Type)
		}
	}
	for _, ev := range file.Events {
		for _, f := range ev.Fields {
			if f.Type != nil {
				roots = append(roots, f.Type)
			}
		}
	}
	return roots
}

// refAt finds the type reference whose name is under offset
func refAt(file *ast.Schema, offset int) *ast.RefType {
	var found *ast.RefType
	for _, root := range typeRoots(file) {
		ast.Walk(root, func(n ast.TypeNode) bool {
			if found != nil || !within(n.Span(), offset) {
				return false
			}
			if ref, ok := n.(*ast.RefType); ok && within(ref.Name.Loc, offset) {
				found = ref
			}
			return true
		})
		if found != nil {
			break
		}
	}
	return found
}

// typeNameAt returns the type named under offset, either by its
// declaration or by a reference to it
func typeNameAt(file *ast.Schema, offset int) (string, bool) {
	for _, td := range file.Types {
		if within(td.Name.Loc, offset) {
			return td.Name.Name, true
		}
	}
	if ref := refAt(file, offset); ref != nil {
		return ref.Name.Name, true
	}
	return "", false
}

// typeReferences returns the spans of every declaration of and reference
// to name, in source order of declarations then uses
func typeReferences(file *ast.Schema, name string) []ast.Span {
	var spans []ast.Span
	for _, td := range file.Types {
		if td.Name.Name == name {
			spans = append(spans, td.Name.Loc)
		}
	}
	for _, root := range typeRoots(file) {
		ast.Walk(root, func(n ast.TypeNode) bool {
			if ref, ok := n.(*ast.RefType); ok && ref.Name.Name == name {
				spans = append(spans, ref.Name.Loc)
			}
			return true
		})
	}
	return spans
}
