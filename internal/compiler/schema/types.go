package schema

import (
	"fmt"
	"strings"

	"github.com/wirec-lang/wirec/internal/compiler/ast"
)

// Type is the closed set of shapes a value on the wire can take
type Type interface {
	String() string
	isType()
}

// Bool is a one-byte true/false value
type Bool struct{}

// Num is a fixed-width number constrained by Range
type Num struct {
	Kind  NumKind
	Range Range
}

// Str is a UTF-8 string whose byte length is constrained by Len
type Str struct {
	Len Range
}

// Buf is a raw byte buffer whose length is constrained by Len
type Buf struct {
	Len Range
}

// Arr is a homogeneous array whose element count is constrained by Len
type Arr struct {
	Elem Type
	Len  Range
}

// Map is an unbounded key/value table
type Map struct {
	Key Type
	Val Type
}

// Opt is a value that may be absent
type Opt struct {
	Inner Type
}

// Ref names another TypeDecl. Span points at the reference in the source.
type Ref struct {
	Name string
	Span ast.Span
}

// Field is one named member of a Struct
type Field struct {
	Name string
	Type Type
}

// Struct is an ordered record of named fields
type Struct struct {
	Fields []Field
}

// UnitEnum is a closed set of names carrying no payload
type UnitEnum struct {
	Variants []string
}

// Variant is one case of a TaggedEnum
type Variant struct {
	Name   string
	Struct *Struct
}

// TaggedEnum is a set of cases told apart by the Tag field. CatchAll, when
// present, receives values whose tag matches no case.
type TaggedEnum struct {
	Tag      string
	Variants []Variant
	CatchAll *Struct
}

// PlatformKind enumerates the opaque engine value types
type PlatformKind int

const (
	Instance PlatformKind = iota
	Vector3
	Color3
	CFrame
	AlignedCFrame
	Unknown
)

// Platform is an engine value with a fixed encoding. Instance and Unknown
// travel through the handle side channel instead of the byte buffer.
type Platform struct {
	Kind  PlatformKind
	Class string // Instance only; empty accepts any class
}

func (Bool) isType()        {}
func (Num) isType()         {}
func (Str) isType()         {}
func (Buf) isType()         {}
func (Arr) isType()         {}
func (Map) isType()         {}
func (Opt) isType()         {}
func (Ref) isType()         {}
func (*Struct) isType()     {}
func (UnitEnum) isType()    {}
func (*TaggedEnum) isType() {}
func (Platform) isType()    {}

func (Bool) String() string { return "boolean" }

func (t Num) String() string {
	if t.Range.Empty() {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", t.Kind, t.Range)
}

func (t Str) String() string {
	if t.Len.Empty() {
		return "string"
	}
	return fmt.Sprintf("string(%s)", t.Len)
}

func (t Buf) String() string {
	if t.Len.Empty() {
		return "buffer"
	}
	return fmt.Sprintf("buffer(%s)", t.Len)
}

func (t Arr) String() string {
	return fmt.Sprintf("%s[%s]", t.Elem, t.Len)
}

func (t Map) String() string {
	return fmt.Sprintf("map { [%s]: %s }", t.Key, t.Val)
}

func (t Opt) String() string { return t.Inner.String() + "?" }

func (t Ref) String() string { return t.Name }

func (t *Struct) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
	}
	return "struct { " + strings.Join(parts, ", ") + " }"
}

func (t UnitEnum) String() string {
	return "enum { " + strings.Join(t.Variants, ", ") + " }"
}

func (t *TaggedEnum) String() string {
	parts := make([]string, 0, len(t.Variants)+1)
	for _, v := range t.Variants {
		parts = append(parts, v.Name+" "+v.Struct.String())
	}
	if t.CatchAll != nil {
		parts = append(parts, "... "+t.CatchAll.String())
	}
	return fmt.Sprintf("enum %q { %s }", t.Tag, strings.Join(parts, ", "))
}

func (t Platform) String() string {
	if t.Kind == Instance && t.Class != "" {
		return fmt.Sprintf("Instance(%s)", t.Class)
	}
	return t.Kind.String()
}

var platformNames = map[PlatformKind]string{
	Instance:      "Instance",
	Vector3:       "Vector3",
	Color3:        "Color3",
	CFrame:        "CFrame",
	AlignedCFrame: "AlignedCFrame",
	Unknown:       "unknown",
}

func (k PlatformKind) String() string {
	return platformNames[k]
}

// Handle reports whether values of this kind use the handle side channel
func (k PlatformKind) Handle() bool {
	return k == Instance || k == Unknown
}

// Component is one numeric slot of a platform value's byte layout
type Component struct {
	Name string
	Kind NumKind
}

// PlatformLayout returns the fixed byte layout of a platform kind. Handle
// kinds have no byte layout.
func PlatformLayout(k PlatformKind) []Component {
	return platformLayouts[k]
}

var vector3Layout = []Component{{"X", F32}, {"Y", F32}, {"Z", F32}}

var platformLayouts = map[PlatformKind][]Component{
	Vector3: vector3Layout,
	Color3:  {{"R", U8}, {"G", U8}, {"B", U8}},
	CFrame: {
		{"X", F32}, {"Y", F32}, {"Z", F32},
		{"AxisX", F32}, {"AxisY", F32}, {"AxisZ", F32},
	},
	AlignedCFrame: {
		{"Alignment", U8},
		{"X", F32}, {"Y", F32}, {"Z", F32},
	},
}

// Builtins maps the reserved type names to the types they denote
var Builtins = map[string]Type{
	"boolean":       Bool{},
	"Instance":      Platform{Kind: Instance},
	"Vector3":       Platform{Kind: Vector3},
	"Color3":        Platform{Kind: Color3},
	"CFrame":        Platform{Kind: CFrame},
	"AlignedCFrame": Platform{Kind: AlignedCFrame},
	"unknown":       Platform{Kind: Unknown},
}

// IsHandle reports whether t is carried through the handle side channel
func IsHandle(t Type) bool {
	p, ok := t.(Platform)
	return ok && p.Kind.Handle()
}

// Axis is a unit vector along one coordinate axis
type Axis [3]float64

// Axes lists the unit axes in alignment enumeration order
var Axes = []Axis{
	{1, 0, 0}, {0, 1, 0}, {0, 0, 1},
	{-1, 0, 0}, {0, -1, 0}, {0, 0, -1},
}

// Alignment is an axis-aligned rotation given by its right and up vectors
type Alignment struct {
	Right Axis
	Up    Axis
}

// Alignments lists the 24 axis-aligned rotations of AlignedCFrame. The wire
// index of an alignment is its position here plus one.
var Alignments = buildAlignments()

func buildAlignments() []Alignment {
	var out []Alignment
	for _, right := range Axes {
		for _, up := range Axes {
			if right[0]*up[0]+right[1]*up[1]+right[2]*up[2] != 0 {
				continue
			}
			out = append(out, Alignment{Right: right, Up: up})
		}
	}
	return out
}
