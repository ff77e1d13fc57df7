// Package irgen turns schema types into binary codec programs. Every type
// gets two flat operation lists, one that serializes a value into a byte
// buffer and one that reads it back. The lists use structured control flow
// markers (If, Else, NumFor, End, ...) so that emitters can render them one
// operation at a time.
package irgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// Expr is a side-effect free expression
type Expr interface {
	String() string
	isExpr()
}

// Nil is the absent value
type Nil struct{}

// Bool is a boolean literal
type Bool bool

// Num is a numeric literal
type Num float64

// Str is a string literal
type Str string

// Name refers to a local variable
type Name string

// Field indexes Of by a constant key, as in `value.x`
type Field struct {
	Of   Expr
	Name string
}

// Index indexes Of by a computed key, as in `value[i]`
type Index struct {
	Of  Expr
	Key Expr
}

// EmptyTable is a new empty table
type EmptyTable struct{}

// Len is the length of a string or array
type Len struct {
	Value Expr
}

// BufLen is the length of a buffer
type BufLen struct {
	Value Expr
}

// Not negates a boolean
type Not struct {
	Value Expr
}

// BinOp is a binary operator
type BinOp string

const (
	OpEq  BinOp = "=="
	OpNe  BinOp = "~="
	OpGe  BinOp = ">="
	OpLe  BinOp = "<="
	OpGt  BinOp = ">"
	OpLt  BinOp = "<"
	OpAdd BinOp = "+"
	OpAnd BinOp = "and"
	OpOr  BinOp = "or"
)

// Binary applies Op to L and R
type Binary struct {
	Op BinOp
	L  Expr
	R  Expr
}

// Cond evaluates to Then when If holds and to Else otherwise
type Cond struct {
	If   Expr
	Then Expr
	Else Expr
}

// IsA tests whether an instance belongs to Class
type IsA struct {
	Value Expr
	Class string
}

// Component extracts slot Index of a platform value's byte layout
type Component struct {
	Kind  schema.PlatformKind
	Value Expr
	Index int
}

// Construct builds a platform value from its layout slots
type Construct struct {
	Kind  schema.PlatformKind
	Parts []Expr
}

func (Nil) isExpr()        {}
func (Bool) isExpr()       {}
func (Num) isExpr()        {}
func (Str) isExpr()        {}
func (Name) isExpr()       {}
func (Field) isExpr()      {}
func (Index) isExpr()      {}
func (EmptyTable) isExpr() {}
func (Len) isExpr()        {}
func (BufLen) isExpr()     {}
func (Not) isExpr()        {}
func (Binary) isExpr()     {}
func (Cond) isExpr()       {}
func (IsA) isExpr()        {}
func (Component) isExpr()  {}
func (Construct) isExpr()  {}

func (Nil) String() string { return "nil" }

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

func (n Num) String() string { return strconv.FormatFloat(float64(n), 'g', -1, 64) }

func (s Str) String() string { return strconv.Quote(string(s)) }

func (n Name) String() string { return string(n) }

func (f Field) String() string { return f.Of.String() + "." + f.Name }

func (i Index) String() string { return fmt.Sprintf("%s[%s]", i.Of, i.Key) }

func (EmptyTable) String() string { return "{}" }

func (l Len) String() string { return "#" + l.Value.String() }

func (l BufLen) String() string { return fmt.Sprintf("buflen(%s)", l.Value) }

func (n Not) String() string { return "not " + n.Value.String() }

func (b Binary) String() string { return fmt.Sprintf("%s %s %s", b.L, b.Op, b.R) }

func (c Cond) String() string {
	return fmt.Sprintf("if %s then %s else %s", c.If, c.Then, c.Else)
}

func (i IsA) String() string { return fmt.Sprintf("isa(%s, %q)", i.Value, i.Class) }

func (c Component) String() string {
	return fmt.Sprintf("%s.%s", c.Value, schema.PlatformLayout(c.Kind)[c.Index].Name)
}

func (c Construct) String() string {
	parts := make([]string, len(c.Parts))
	for i, p := range c.Parts {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", c.Kind, strings.Join(parts, ", "))
}

// Eq builds `l == r`
func Eq(l, r Expr) Expr { return Binary{Op: OpEq, L: l, R: r} }

// Ne builds `l ~= r`
func Ne(l, r Expr) Expr { return Binary{Op: OpNe, L: l, R: r} }

// Op is a single codec operation
type Op interface {
	isOp()
}

// Local declares a variable. A nil Value leaves it unset.
type Local struct {
	Name  string
	Value Expr
}

// Assign stores Value into Target, which is a Name, Field, or Index
type Assign struct {
	Target Expr
	Value  Expr
}

// WriteNum appends Value encoded as Kind
type WriteNum struct {
	Kind  schema.NumKind
	Value Expr
}

// Reserve appends Size zero bytes and stores their offset in a new local
// Into, to be filled later by WriteNumAt.
type Reserve struct {
	Into string
	Size int
}

// WriteNumAt overwrites previously reserved bytes at offset At
type WriteNumAt struct {
	Kind  schema.NumKind
	Value Expr
	At    Expr
}

// ReadNum decodes a Kind and stores it in Into
type ReadNum struct {
	Kind schema.NumKind
	Into Expr
}

// BytesKind says how raw bytes are held by the host
type BytesKind int

const (
	String BytesKind = iota
	Buffer
)

func (k BytesKind) String() string {
	if k == String {
		return "string"
	}
	return "buffer"
}

// WriteBytes appends Count raw bytes of Value
type WriteBytes struct {
	Kind  BytesKind
	Count Expr
	Value Expr
}

// ReadBytes reads Count raw bytes into Into
type ReadBytes struct {
	Kind  BytesKind
	Count Expr
	Into  Expr
}

// Assert aborts the message with Message when Cond is false
type Assert struct {
	Cond    Expr
	Message string
}

// Throw unconditionally aborts the message
type Throw struct {
	Message string
}

// If opens a conditional block closed by End
type If struct {
	Cond Expr
}

// ElseIf continues a conditional block
type ElseIf struct {
	Cond Expr
}

// Else opens the final branch of a conditional block
type Else struct{}

// End closes the innermost block
type End struct{}

// Block opens a plain scope closed by End
type Block struct{}

// NumFor loops Var from From to To inclusive
type NumFor struct {
	Var  string
	From Expr
	To   Expr
}

// GenFor iterates the key/value pairs of the table Value
type GenFor struct {
	Key   string
	Val   string
	Value Expr
}

// PushHandle appends Value to the message's handle list
type PushHandle struct {
	Value Expr
}

// ReadHandle takes the next entry of the handle list into Into
type ReadHandle struct {
	Into Expr
}

// CallWriter serializes Value with the codec of the named type
type CallWriter struct {
	Name  string
	Value Expr
}

// CallReader deserializes a value of the named type into Into
type CallReader struct {
	Name string
	Into Expr
}

func (Local) isOp()      {}
func (Assign) isOp()     {}
func (WriteNum) isOp()   {}
func (Reserve) isOp()    {}
func (WriteNumAt) isOp() {}
func (ReadNum) isOp()    {}
func (WriteBytes) isOp() {}
func (ReadBytes) isOp()  {}
func (Assert) isOp()     {}
func (Throw) isOp()      {}
func (If) isOp()         {}
func (ElseIf) isOp()     {}
func (Else) isOp()       {}
func (End) isOp()        {}
func (Block) isOp()      {}
func (NumFor) isOp()     {}
func (GenFor) isOp()     {}
func (PushHandle) isOp() {}
func (ReadHandle) isOp() {}
func (CallWriter) isOp() {}
func (CallReader) isOp() {}
