// Package ast defines the syntax tree produced by the wire schema parser.
// Every node records the byte span it was parsed from so that diagnostics
// and editor features can point back into the source.
package ast

// Node is the base interface for all syntax tree nodes
type Node interface {
	Span() Span
	node()
}

// Schema is the root node of a parsed .wire file
type Schema struct {
	Opts   []*OptDecl
	Types  []*TypeDecl
	Events []*EventDecl
	Loc    Span
}

func (s *Schema) node() {}

// Span returns the span of the whole schema
func (s *Schema) Span() Span { return s.Loc }

// Ident is a name together with where it was written
type Ident struct {
	Name string
	Loc  Span
}

// OptValueKind distinguishes the literal forms an option may take
type OptValueKind int

const (
	OptString OptValueKind = iota
	OptNumber
	OptBool
	OptWord
)

// OptDecl represents `opt name = value`
type OptDecl struct {
	Name  Ident
	Value *OptValue // nil when the value is missing
	Loc   Span
}

func (o *OptDecl) node() {}

// Span returns the span of the option declaration
func (o *OptDecl) Span() Span { return o.Loc }

// OptValue is the right-hand side of an option
type OptValue struct {
	Kind OptValueKind
	Raw  string
	Str  string
	Num  float64
	Bool bool
	Loc  Span
}

// TypeDecl represents `type Name = <type>`
type TypeDecl struct {
	Name Ident
	Type TypeNode
	Loc  Span
}

func (d *TypeDecl) node() {}

// Span returns the span of the declaration
func (d *TypeDecl) Span() Span { return d.Loc }

// EventDecl represents `event Name = { key: value, ... }`. Field keys are
// kept as written; the analyzer decides which keys are valid.
type EventDecl struct {
	Name   Ident
	Fields []*EventField
	Loc    Span
}

func (d *EventDecl) node() {}

// Span returns the span of the declaration
func (d *EventDecl) Span() Span { return d.Loc }

// Field returns the first field with the given key, or nil
func (d *EventDecl) Field(key string) *EventField {
	for _, f := range d.Fields {
		if f.Key.Name == key {
			return f
		}
	}
	return nil
}

// EventField is one `key: value` entry of an event. Data entries carry a
// Type; every other entry carries a Word.
type EventField struct {
	Key  Ident
	Word *Ident
	Type TypeNode
	Loc  Span
}

// TypeNode is implemented by every type expression
type TypeNode interface {
	Node
	typeNode()
}

// NumLit is a numeric literal inside a range
type NumLit struct {
	Value float64
	Raw   string
	Loc   Span
}

// RangeNode is a `min..max` bound; either side may be absent. A single
// number produces an exact range with Min and Max pointing at the same
// literal.
type RangeNode struct {
	Min *NumLit
	Max *NumLit
	Loc Span
}

// NumType is a numeric kind such as u8 or f32 with an optional range
type NumType struct {
	Kind  Ident
	Range *RangeNode
	Loc   Span
}

// StrType is `string` with an optional length range
type StrType struct {
	Range *RangeNode
	Loc   Span
}

// BufType is `buffer` with an optional length range
type BufType struct {
	Range *RangeNode
	Loc   Span
}

// ArrType is `T[range]`
type ArrType struct {
	Elem  TypeNode
	Range *RangeNode
	Loc   Span
}

// MapType is `map { [K]: V }`
type MapType struct {
	Key TypeNode
	Val TypeNode
	Loc Span
}

// OptType is `T?`
type OptType struct {
	Inner TypeNode
	Loc   Span
}

// RefType is a bare name: a declared type or a built-in such as boolean or
// Vector3. Arg holds the class of `Instance(Class)`.
type RefType struct {
	Name Ident
	Arg  *Ident
	Loc  Span
}

// StructType is `struct { field: T, ... }`
type StructType struct {
	Fields []*Field
	Loc    Span
}

// Field is a single struct member
type Field struct {
	Name Ident
	Type TypeNode
	Loc  Span
}

// EnumType is a unit enum `enum { A, B }`
type EnumType struct {
	Variants []Ident
	Loc      Span
}

// TaggedEnumType is `enum "tag" { A { ... }, B { ... }, ... { ... } }`
type TaggedEnumType struct {
	Tag      Ident
	Cases    []*EnumCase
	CatchAll *StructType
	Loc      Span
}

// EnumCase is one named case of a tagged enum
type EnumCase struct {
	Name Ident
	Body *StructType
	Loc  Span
}

func (t *NumType) node()        {}
func (t *StrType) node()        {}
func (t *BufType) node()        {}
func (t *ArrType) node()        {}
func (t *MapType) node()        {}
func (t *OptType) node()        {}
func (t *RefType) node()        {}
func (t *StructType) node()     {}
func (t *EnumType) node()       {}
func (t *TaggedEnumType) node() {}

func (t *NumType) typeNode()        {}
func (t *StrType) typeNode()        {}
func (t *BufType) typeNode()        {}
func (t *ArrType) typeNode()        {}
func (t *MapType) typeNode()        {}
func (t *OptType) typeNode()        {}
func (t *RefType) typeNode()        {}
func (t *StructType) typeNode()     {}
func (t *EnumType) typeNode()       {}
func (t *TaggedEnumType) typeNode() {}

func (t *NumType) Span() Span        { return t.Loc }
func (t *StrType) Span() Span        { return t.Loc }
func (t *BufType) Span() Span        { return t.Loc }
func (t *ArrType) Span() Span        { return t.Loc }
func (t *MapType) Span() Span        { return t.Loc }
func (t *OptType) Span() Span        { return t.Loc }
func (t *RefType) Span() Span        { return t.Loc }
func (t *StructType) Span() Span     { return t.Loc }
func (t *EnumType) Span() Span       { return t.Loc }
func (t *TaggedEnumType) Span() Span { return t.Loc }

// Walk calls fn for n and every type node nested inside it, depth first.
// Returning false from fn skips the children of that node.
func Walk(n TypeNode, fn func(TypeNode) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch t := n.(type) {
	case *ArrType:
		Walk(t.Elem, fn)
	case *MapType:
		Walk(t.Key, fn)
		Walk(t.Val, fn)
	case *OptType:
		Walk(t.Inner, fn)
	case *StructType:
		for _, f := range t.Fields {
			Walk(f.Type, fn)
		}
	case *TaggedEnumType:
		for _, c := range t.Cases {
			if c.Body != nil {
				Walk(c.Body, fn)
			}
		}
		if t.CatchAll != nil {
			Walk(t.CatchAll, fn)
		}
	}
}
