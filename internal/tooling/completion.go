package tooling

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/wirec-lang/wirec/internal/compiler/analyzer"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// CompletionItem represents a completion suggestion
type CompletionItem struct {
	Label         string
	Kind          CompletionKind
	Detail        string
	Documentation string
	InsertText    string
}

// CompletionKind categorizes completion items
type CompletionKind int

const (
	CompletionKindKeyword CompletionKind = iota
	CompletionKindType
	CompletionKindValue
	CompletionKindProperty
	CompletionKindSnippet
)

// CompletionContextKind categorizes the text before the cursor
type CompletionContextKind int

const (
	CompletionContextTopLevel CompletionContextKind = iota
	CompletionContextOption
	CompletionContextType
	CompletionContextEventKey
	CompletionContextEventValue
)

// CompletionContext describes what may be written at the cursor
type CompletionContext struct {
	Kind CompletionContextKind

	// Key is the event key whose value is being written
	Key string
}

var (
	optPrefix      = regexp.MustCompile(`^\s*opt\s+\w*$`)
	keyValuePrefix = regexp.MustCompile(`(\w+)\s*:\s*\w*$`)
	keyPrefix      = regexp.MustCompile(`(^|[{,])\s*\w*$`)
	typePrefix     = regexp.MustCompile(`[:=<(\[]\s*\w*$|\|\s*\w*$`)
	wordPrefix     = regexp.MustCompile(`^\s*\w*$`)
)

// eventValues lists the words each event key accepts
var eventValues = map[string][]string{
	"from": {"Server", "Client"},
	"type": {"Reliable", "Unreliable"},
	"call": {"SingleSync", "SingleAsync", "ManySync", "ManyAsync"},
}

// GetCompletions returns completion items for a position in a document
func (a *API) GetCompletions(uri string, pos Position) ([]CompletionItem, error) {
	doc, exists := a.GetDocument(uri)
	if !exists {
		return nil, fmt.Errorf("document not found: %s", uri)
	}
	return a.buildCompletions(doc, a.getCompletionContext(doc, pos)), nil
}

// getCompletionContext classifies the cursor from the text on its line and
// the declaration it falls in
func (a *API) getCompletionContext(doc *Document, pos Position) *CompletionContext {
	src := doc.Result.Source
	offset := offsetOf(src, pos)
	line := src.Line(pos.Line + 1)
	if pos.Character < len(line) {
		line = line[:pos.Character]
	}

	inEvent := false
	for _, ev := range doc.Result.File.Events {
		if within(ev.Loc, offset) && offset > ev.Name.Loc.End {
			inEvent = true
			break
		}
	}

	switch {
	case optPrefix.MatchString(line):
		return &CompletionContext{Kind: CompletionContextOption}

	case inEvent:
		if m := keyValuePrefix.FindStringSubmatch(line); m != nil {
			if _, ok := eventValues[m[1]]; ok {
				return &CompletionContext{Kind: CompletionContextEventValue, Key: m[1]}
			}
			return &CompletionContext{Kind: CompletionContextType}
		}
		if keyPrefix.MatchString(line) {
			return &CompletionContext{Kind: CompletionContextEventKey}
		}

	case typePrefix.MatchString(line):
		return &CompletionContext{Kind: CompletionContextType}

	case wordPrefix.MatchString(line) && !insideType(doc, offset):
		return &CompletionContext{Kind: CompletionContextTopLevel}
	}

	return &CompletionContext{Kind: CompletionContextType}
}

// insideType reports whether offset falls in the body of a type declaration
func insideType(doc *Document, offset int) bool {
	for _, td := range doc.Result.File.Types {
		if td.Type != nil && within(td.Type.Span(), offset) {
			return true
		}
	}
	return false
}

// buildCompletions builds completion items for a context
func (a *API) buildCompletions(doc *Document, ctx *CompletionContext) []CompletionItem {
	switch ctx.Kind {
	case CompletionContextTopLevel:
		return getKeywordCompletions()
	case CompletionContextOption:
		return getOptionCompletions()
	case CompletionContextEventKey:
		return getEventKeyCompletions()
	case CompletionContextEventValue:
		items := make([]CompletionItem, 0, len(eventValues[ctx.Key]))
		for _, v := range eventValues[ctx.Key] {
			items = append(items, CompletionItem{Label: v, Kind: CompletionKindValue, Detail: ctx.Key})
		}
		return items
	}
	return getTypeCompletions(doc)
}

func getKeywordCompletions() []CompletionItem {
	return []CompletionItem{
		{Label: "opt", Kind: CompletionKindKeyword, Detail: "Set a schema option", InsertText: "opt ${1:name} = ${2:value}"},
		{Label: "type", Kind: CompletionKindKeyword, Detail: "Declare a named type", InsertText: "type ${1:Name} = ${2:struct {}}"},
		{
			Label:      "event",
			Kind:       CompletionKindKeyword,
			Detail:     "Declare an event",
			InsertText: "event ${1:Name} = {\n\tfrom: ${2:Client},\n\ttype: ${3:Reliable},\n\tcall: ${4:SingleAsync},\n\tdata: ${5:boolean},\n}",
		},
	}
}

func getOptionCompletions() []CompletionItem {
	items := make([]CompletionItem, 0, len(analyzer.KnownOptions))
	for _, name := range analyzer.KnownOptions {
		items = append(items, CompletionItem{Label: name, Kind: CompletionKindProperty, Detail: "option"})
	}
	return items
}

func getEventKeyCompletions() []CompletionItem {
	return []CompletionItem{
		{Label: "from", Kind: CompletionKindProperty, Detail: "Server | Client", InsertText: "from: "},
		{Label: "type", Kind: CompletionKindProperty, Detail: "Reliable | Unreliable", InsertText: "type: "},
		{Label: "call", Kind: CompletionKindProperty, Detail: "SingleSync | SingleAsync | ManySync | ManyAsync", InsertText: "call: "},
		{Label: "data", Kind: CompletionKindProperty, Detail: "payload type", InsertText: "data: "},
	}
}

func getTypeCompletions(doc *Document) []CompletionItem {
	items := make([]CompletionItem, 0, 32)

	for _, kind := range schema.NumKinds {
		items = append(items, CompletionItem{
			Label:  kind.String(),
			Kind:   CompletionKindType,
			Detail: fmt.Sprintf("%d-byte number", kind.Size()),
		})
	}
	items = append(items,
		CompletionItem{Label: "string", Kind: CompletionKindType, Detail: "length-prefixed string"},
		CompletionItem{Label: "buffer", Kind: CompletionKindType, Detail: "length-prefixed bytes"},
		CompletionItem{Label: "struct", Kind: CompletionKindSnippet, InsertText: "struct { ${1:field}: ${2:u8} }"},
		CompletionItem{Label: "enum", Kind: CompletionKindSnippet, InsertText: "enum { ${1:A}, ${2:B} }"},
		CompletionItem{Label: "map", Kind: CompletionKindSnippet, InsertText: "map { [${1:string}]: ${2:u8} }"},
	)

	builtins := make([]string, 0, len(schema.Builtins))
	for name := range schema.Builtins {
		builtins = append(builtins, name)
	}
	sort.Strings(builtins)
	for _, name := range builtins {
		items = append(items, CompletionItem{Label: name, Kind: CompletionKindType, Detail: "built-in"})
	}

	for _, td := range doc.Result.Config.TypeDecls {
		items = append(items, CompletionItem{Label: td.Name, Kind: CompletionKindType, Detail: "declared type"})
	}

	return items
}
