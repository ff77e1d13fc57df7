package irgen

import (
	"strings"

	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// NodeKind classifies a shape node
type NodeKind int

const (
	NodeNum NodeKind = iota
	NodeBytes
	NodeHandle
	NodeCall
	NodeLoop
	NodeChoice
	nodeThrow
)

// Node is one element of a wire shape: what a codec puts on the wire or
// takes off it, with locals, assertions, and value plumbing erased. A
// serializer and its deserializer have equal shapes.
type Node struct {
	Kind     NodeKind
	Num      schema.NumKind // NodeNum
	Bytes    BytesKind      // NodeBytes
	Name     string         // NodeCall
	Body     []Node         // NodeLoop
	Branches [][]Node       // NodeChoice
}

func (n Node) String() string {
	switch n.Kind {
	case NodeNum:
		return n.Num.String()
	case NodeBytes:
		return n.Bytes.String()
	case NodeHandle:
		return "handle"
	case NodeCall:
		return "call " + n.Name
	case NodeLoop:
		return "loop(" + ShapeString(n.Body) + ")"
	case NodeChoice:
		parts := make([]string, len(n.Branches))
		for i, b := range n.Branches {
			parts[i] = ShapeString(b)
		}
		return "choice(" + strings.Join(parts, " | ") + ")"
	}
	return "throw"
}

// ShapeString renders a shape as a comma separated list
func ShapeString(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}

// Resolver returns the operations of a named codec
type Resolver func(name string) ([]Op, bool)

// Shape projects ops onto their wire shape. Calls are expanded through
// resolve, except when resolve is nil or the call is recursive, in which
// case they stay NodeCall.
//
// Choices are normalized so that writers and readers agree: branches that
// always throw are dropped, leading nodes shared by every branch are hoisted
// in front of the choice, a choice left with only empty branches vanishes,
// and a choice left with a single branch is replaced by it.
func Shape(ops []Op, resolve Resolver) []Node {
	s := &shaper{ops: ops, resolve: resolve, expanding: map[string]bool{}}
	return s.all()
}

type shaper struct {
	ops       []Op
	pos       int
	resolve   Resolver
	expanding map[string]bool
}

func (s *shaper) all() []Node {
	var out []Node
	for s.pos < len(s.ops) {
		out = append(out, s.seq()...)
		// stray terminator at top level
		if s.pos < len(s.ops) {
			s.pos++
		}
	}
	return out
}

// seq projects ops up to the next End, Else, or ElseIf, which it leaves
// unconsumed.
func (s *shaper) seq() []Node {
	var out []Node
	for s.pos < len(s.ops) {
		switch op := s.ops[s.pos].(type) {
		case End, Else, ElseIf:
			return out

		case WriteNum:
			s.pos++
			out = append(out, Node{Kind: NodeNum, Num: op.Kind})
		case ReadNum:
			s.pos++
			out = append(out, Node{Kind: NodeNum, Num: op.Kind})
		case Reserve:
			s.pos++
			out = append(out, Node{Kind: NodeNum, Num: kindOfSize(op.Size)})
		case WriteBytes:
			s.pos++
			out = append(out, Node{Kind: NodeBytes, Bytes: op.Kind})
		case ReadBytes:
			s.pos++
			out = append(out, Node{Kind: NodeBytes, Bytes: op.Kind})
		case PushHandle, ReadHandle:
			s.pos++
			out = append(out, Node{Kind: NodeHandle})
		case Throw:
			s.pos++
			out = append(out, Node{Kind: nodeThrow})

		case CallWriter:
			s.pos++
			out = append(out, s.call(op.Name)...)
		case CallReader:
			s.pos++
			out = append(out, s.call(op.Name)...)

		case NumFor, GenFor:
			s.pos++
			body := s.seq()
			s.skipEnd()
			out = append(out, Node{Kind: NodeLoop, Body: body})

		case Block:
			s.pos++
			out = append(out, s.seq()...)
			s.skipEnd()

		case If:
			s.pos++
			out = append(out, s.choice()...)

		default:
			s.pos++
		}
	}
	return out
}

func (s *shaper) choice() []Node {
	var branches [][]Node
	sawElse := false
	for {
		branches = append(branches, s.seq())
		if s.pos >= len(s.ops) {
			break
		}
		op := s.ops[s.pos]
		s.pos++
		if _, ok := op.(End); ok {
			break
		}
		if _, ok := op.(Else); ok {
			sawElse = true
		}
	}
	if !sawElse {
		branches = append(branches, nil)
	}
	return normalizeChoice(branches)
}

func (s *shaper) skipEnd() {
	if s.pos < len(s.ops) {
		if _, ok := s.ops[s.pos].(End); ok {
			s.pos++
		}
	}
}

func (s *shaper) call(name string) []Node {
	if s.resolve == nil || s.expanding[name] {
		return []Node{{Kind: NodeCall, Name: name}}
	}
	ops, ok := s.resolve(name)
	if !ok {
		return []Node{{Kind: NodeCall, Name: name}}
	}

	s.expanding[name] = true
	inner := &shaper{ops: ops, resolve: s.resolve, expanding: s.expanding}
	nodes := inner.all()
	delete(s.expanding, name)
	return nodes
}

func normalizeChoice(branches [][]Node) []Node {
	kept := branches[:0:0]
	for _, b := range branches {
		if !throws(b) {
			kept = append(kept, b)
		}
	}

	switch len(kept) {
	case 0:
		return []Node{{Kind: nodeThrow}}
	case 1:
		return kept[0]
	}

	var prefix []Node
	for sharedHead(kept) {
		prefix = append(prefix, kept[0][0])
		for i := range kept {
			kept[i] = kept[i][1:]
		}
	}

	for _, b := range kept {
		if len(b) > 0 {
			return append(prefix, Node{Kind: NodeChoice, Branches: kept})
		}
	}
	return prefix
}

func throws(nodes []Node) bool {
	for _, n := range nodes {
		if n.Kind == nodeThrow {
			return true
		}
	}
	return false
}

func sharedHead(branches [][]Node) bool {
	if len(branches[0]) == 0 {
		return false
	}
	head := branches[0][0].String()
	for _, b := range branches[1:] {
		if len(b) == 0 || b[0].String() != head {
			return false
		}
	}
	return true
}

func kindOfSize(n int) schema.NumKind {
	switch n {
	case 1:
		return schema.U8
	case 2:
		return schema.U16
	case 4:
		return schema.U32
	}
	return schema.F64
}
