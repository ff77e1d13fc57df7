package irgen

import (
	"fmt"
	"strings"
)

// Lines renders ops as indented pseudo-code, one op per line
func Lines(ops []Op) []string {
	lines := make([]string, 0, len(ops))
	depth := 0
	for _, op := range ops {
		switch op.(type) {
		case End, Else, ElseIf:
			depth--
		}
		if depth < 0 {
			depth = 0
		}
		lines = append(lines, strings.Repeat("  ", depth)+opString(op))
		switch op.(type) {
		case If, ElseIf, Else, Block, NumFor, GenFor:
			depth++
		}
	}
	return lines
}

// Format renders ops as a single block of pseudo-code
func Format(ops []Op) string {
	return strings.Join(Lines(ops), "\n")
}

func opString(op Op) string {
	switch op := op.(type) {
	case Local:
		if op.Value == nil {
			return "local " + op.Name
		}
		return fmt.Sprintf("local %s = %s", op.Name, op.Value)
	case Assign:
		return fmt.Sprintf("%s = %s", op.Target, op.Value)
	case WriteNum:
		return fmt.Sprintf("write %s %s", op.Kind, op.Value)
	case Reserve:
		return fmt.Sprintf("local %s = reserve %d", op.Into, op.Size)
	case WriteNumAt:
		return fmt.Sprintf("write %s %s at %s", op.Kind, op.Value, op.At)
	case ReadNum:
		return fmt.Sprintf("%s = read %s", op.Into, op.Kind)
	case WriteBytes:
		return fmt.Sprintf("write %s[%s] %s", op.Kind, op.Count, op.Value)
	case ReadBytes:
		return fmt.Sprintf("%s = read %s[%s]", op.Into, op.Kind, op.Count)
	case Assert:
		return fmt.Sprintf("assert %s, %q", op.Cond, op.Message)
	case Throw:
		return fmt.Sprintf("throw %q", op.Message)
	case If:
		return fmt.Sprintf("if %s then", op.Cond)
	case ElseIf:
		return fmt.Sprintf("elseif %s then", op.Cond)
	case Else:
		return "else"
	case End:
		return "end"
	case Block:
		return "do"
	case NumFor:
		return fmt.Sprintf("for %s = %s, %s do", op.Var, op.From, op.To)
	case GenFor:
		return fmt.Sprintf("for %s, %s in %s do", op.Key, op.Val, op.Value)
	case PushHandle:
		return fmt.Sprintf("push handle %s", op.Value)
	case ReadHandle:
		return fmt.Sprintf("%s = next handle", op.Into)
	case CallWriter:
		return fmt.Sprintf("write_%s(%s)", op.Name, op.Value)
	case CallReader:
		return fmt.Sprintf("%s = read_%s()", op.Into, op.Name)
	}
	return fmt.Sprintf("%T", op)
}

// Listing is the serializable form of a Program used by `wirec ir`
type Listing struct {
	IDKind string         `json:"id_kind" yaml:"id_kind" cbor:"id_kind"`
	Types  []CodecListing `json:"types" yaml:"types" cbor:"types"`
	Events []EventListing `json:"events" yaml:"events" cbor:"events"`
}

// CodecListing is one type of a Listing
type CodecListing struct {
	Name  string   `json:"name" yaml:"name" cbor:"name"`
	Shape string   `json:"shape" yaml:"shape" cbor:"shape"`
	Ser   []string `json:"ser,omitempty" yaml:"ser,omitempty" cbor:"ser,omitempty"`
	Des   []string `json:"des,omitempty" yaml:"des,omitempty" cbor:"des,omitempty"`
}

// EventListing is one event of a Listing
type EventListing struct {
	Name  string   `json:"name" yaml:"name" cbor:"name"`
	ID    int      `json:"id" yaml:"id" cbor:"id"`
	Shape string   `json:"shape" yaml:"shape" cbor:"shape"`
	Ser   []string `json:"ser,omitempty" yaml:"ser,omitempty" cbor:"ser,omitempty"`
	Des   []string `json:"des,omitempty" yaml:"des,omitempty" cbor:"des,omitempty"`
}

// List builds the listing of p. With shapesOnly the op lines are left out.
// Shapes expand calls to other types.
func (p *Program) List(shapesOnly bool) Listing {
	l := Listing{IDKind: p.IDKind.String()}

	for _, c := range p.Types {
		cl := CodecListing{Name: c.Name, Shape: ShapeString(Shape(c.Ser, p.Writers))}
		if !shapesOnly {
			cl.Ser, cl.Des = Lines(c.Ser), Lines(c.Des)
		}
		l.Types = append(l.Types, cl)
	}

	for _, e := range p.Events {
		el := EventListing{Name: e.Name, ID: e.ID, Shape: ShapeString(Shape(e.Ser, p.Writers))}
		if !shapesOnly {
			el.Ser, el.Des = Lines(e.Ser), Lines(e.Des)
		}
		l.Events = append(l.Events, el)
	}

	return l
}
