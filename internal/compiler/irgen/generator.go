package irgen

import (
	"strconv"

	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// ValueVar is the variable a codec reads from or writes into
const ValueVar = Name("value")

// IDVar is the variable an event reader stores the event id in
const IDVar = Name("id")

// Runtime error messages raised by generated code
const (
	msgRange       = "value out of range"
	msgLength      = "length out of range"
	msgEnum        = "invalid enum value"
	msgTag         = "invalid enum tag"
	msgNilInstance = "instance is nil"
	msgClass       = "instance has the wrong class"
)

// Generator lowers types into codec operations. It assumes the Config it
// was built with passed analysis without errors.
type Generator struct {
	cfg    *schema.Config
	checks bool

	ops     []Op
	counter map[string]int
}

// NewGenerator creates a generator over cfg. Values are checked on both
// sides only when the config enables write checks.
func NewGenerator(cfg *schema.Config) *Generator {
	return &Generator{cfg: cfg, checks: cfg.Options.WriteChecks, counter: make(map[string]int)}
}

// Ser returns the operations that write t from the expression from
func (g *Generator) Ser(t schema.Type, from Expr) []Op {
	g.ops = nil
	g.ser(t, from)
	return g.take()
}

// Des returns the operations that read t into the target into
func (g *Generator) Des(t schema.Type, into Expr) []Op {
	g.ops = nil
	g.des(t, into)
	return g.take()
}

// Codec is the serializer and deserializer of one named type. Both operate
// on ValueVar.
type Codec struct {
	Name string
	Ser  []Op
	Des  []Op
}

// Type builds the codec of a declared type
func (g *Generator) Type(td *schema.TypeDecl) Codec {
	g.reset()
	return Codec{
		Name: td.Name,
		Ser:  g.Ser(td.Type, ValueVar),
		Des:  g.Des(td.Type, ValueVar),
	}
}

// EventCodec is the wire program of one event. Ser writes the id followed
// by the payload from ValueVar; Des reads the id into IDVar followed by the
// payload into ValueVar.
type EventCodec struct {
	Name   string
	ID     int
	IDKind schema.NumKind
	Ser    []Op
	Des    []Op
}

// PayloadDes returns Des without the leading id read, for dispatchers that
// consumed the id themselves.
func (e EventCodec) PayloadDes() []Op {
	return e.Des[1:]
}

// Event builds the codec of an event
func (g *Generator) Event(ev *schema.EventDecl) EventCodec {
	g.reset()
	kind := g.cfg.EventIDKind()

	ser := []Op{WriteNum{Kind: kind, Value: Num(ev.ID)}}
	des := []Op{ReadNum{Kind: kind, Into: IDVar}}
	if ev.Data != nil {
		ser = append(ser, g.Ser(ev.Data, ValueVar)...)
		des = append(des, g.Des(ev.Data, ValueVar)...)
	}

	return EventCodec{Name: ev.Name, ID: ev.ID, IDKind: kind, Ser: ser, Des: des}
}

func (g *Generator) reset() {
	g.counter = make(map[string]int)
}

func (g *Generator) take() []Op {
	ops := g.ops
	g.ops = nil
	return ops
}

func (g *Generator) emit(ops ...Op) {
	g.ops = append(g.ops, ops...)
}

// fresh returns a variable name unique within the current codec
func (g *Generator) fresh(base string) Name {
	g.counter[base]++
	return Name(base + "_" + strconv.Itoa(g.counter[base]))
}

func (g *Generator) ser(t schema.Type, from Expr) {
	switch t := t.(type) {
	case schema.Bool:
		g.emit(WriteNum{Kind: schema.U8, Value: Cond{If: from, Then: Num(1), Else: Num(0)}})

	case schema.Num:
		if g.checks {
			g.rangeAsserts(from, t.Range, msgRange)
		}
		g.emit(WriteNum{Kind: t.Kind, Value: from})

	case schema.Str:
		g.serBytes(String, Len{Value: from}, from, t.Len)

	case schema.Buf:
		g.serBytes(Buffer, BufLen{Value: from}, from, t.Len)

	case schema.Arr:
		i := g.fresh("i")
		if n, ok := t.Len.Len(); ok {
			if g.checks {
				g.emit(Assert{Cond: Eq(Len{Value: from}, Num(n)), Message: msgLength})
			}
			g.emit(NumFor{Var: string(i), From: Num(1), To: Num(n)})
		} else {
			length := g.writeLength(Len{Value: from}, t.Len)
			g.emit(NumFor{Var: string(i), From: Num(1), To: length})
		}
		g.ser(t.Elem, Index{Of: from, Key: i})
		g.emit(End{})

	case schema.Map:
		pos, length := g.fresh("pos"), g.fresh("len")
		k, v := g.fresh("k"), g.fresh("v")
		g.emit(
			Reserve{Into: string(pos), Size: schema.LengthKind.Size()},
			Local{Name: string(length), Value: Num(0)},
			GenFor{Key: string(k), Val: string(v), Value: from},
			Assign{Target: length, Value: Binary{Op: OpAdd, L: length, R: Num(1)}},
		)
		g.ser(t.Key, k)
		g.ser(t.Val, v)
		g.emit(End{})
		if g.checks {
			g.emit(Assert{Cond: Binary{Op: OpLe, L: length, R: Num(maxLength())}, Message: msgLength})
		}
		g.emit(WriteNumAt{Kind: schema.LengthKind, Value: length, At: pos})

	case schema.Opt:
		g.emit(
			WriteNum{Kind: schema.U8, Value: Cond{If: Eq(from, Nil{}), Then: Num(0), Else: Num(1)}},
			If{Cond: Ne(from, Nil{})},
		)
		if p, ok := g.optionalHandle(t); ok {
			g.serPlatform(p, from)
		} else {
			g.ser(t.Inner, from)
		}
		g.emit(End{})

	case schema.Ref:
		g.emit(CallWriter{Name: t.Name, Value: from})

	case *schema.Struct:
		g.serFields(t, from)

	case schema.UnitEnum:
		kind := schema.NumTy(0, float64(len(t.Variants)-1))
		for i, name := range t.Variants {
			g.branch(i, Eq(from, Str(name)))
			g.emit(WriteNum{Kind: kind, Value: Num(i)})
		}
		g.closeChoice(len(t.Variants), msgEnum)

	case *schema.TaggedEnum:
		g.serTagged(t, from)

	case schema.Platform:
		g.serPlatform(t, from)
	}
}

func (g *Generator) des(t schema.Type, into Expr) {
	switch t := t.(type) {
	case schema.Bool:
		g.emit(
			ReadNum{Kind: schema.U8, Into: into},
			Assign{Target: into, Value: Eq(into, Num(1))},
		)

	case schema.Num:
		g.emit(ReadNum{Kind: t.Kind, Into: into})
		if g.checks {
			g.rangeAsserts(into, t.Range, msgRange)
		}

	case schema.Str:
		g.desBytes(String, into, t.Len)

	case schema.Buf:
		g.desBytes(Buffer, into, t.Len)

	case schema.Arr:
		g.emit(Assign{Target: into, Value: EmptyTable{}})
		i := g.fresh("i")
		if n, ok := t.Len.Len(); ok {
			g.emit(NumFor{Var: string(i), From: Num(1), To: Num(n)})
		} else {
			length := g.readLength(t.Len)
			g.emit(NumFor{Var: string(i), From: Num(1), To: length})
		}
		g.des(t.Elem, Index{Of: into, Key: i})
		g.emit(End{})

	case schema.Map:
		length, i := g.fresh("len"), g.fresh("i")
		k, v := g.fresh("k"), g.fresh("v")
		g.emit(
			Assign{Target: into, Value: EmptyTable{}},
			Local{Name: string(length)},
			ReadNum{Kind: schema.LengthKind, Into: length},
			NumFor{Var: string(i), From: Num(1), To: length},
			Local{Name: string(k)},
			Local{Name: string(v)},
		)
		g.des(t.Key, k)
		g.des(t.Val, v)
		g.emit(
			Assign{Target: Index{Of: into, Key: k}, Value: v},
			End{},
		)

	case schema.Opt:
		flag := g.fresh("present")
		g.emit(
			Assign{Target: into, Value: Nil{}},
			Local{Name: string(flag)},
			ReadNum{Kind: schema.U8, Into: flag},
			If{Cond: Eq(flag, Num(1))},
		)
		if p, ok := g.optionalHandle(t); ok {
			// optional handles accept nil
			g.emit(ReadHandle{Into: into})
			if g.checks && p.Class != "" {
				g.emit(Assert{
					Cond:    Binary{Op: OpOr, L: Eq(into, Nil{}), R: IsA{Value: into, Class: p.Class}},
					Message: msgClass,
				})
			}
		} else {
			g.des(t.Inner, into)
		}
		g.emit(End{})

	case schema.Ref:
		g.emit(CallReader{Name: t.Name, Into: into})

	case *schema.Struct:
		g.emit(Assign{Target: into, Value: EmptyTable{}})
		g.desFields(t, into)

	case schema.UnitEnum:
		kind := schema.NumTy(0, float64(len(t.Variants)-1))
		idx := g.fresh("enum")
		g.emit(Local{Name: string(idx)}, ReadNum{Kind: kind, Into: idx})
		for i, name := range t.Variants {
			g.branch(i, Eq(idx, Num(i)))
			g.emit(Assign{Target: into, Value: Str(name)})
		}
		g.closeChoice(len(t.Variants), msgEnum)

	case *schema.TaggedEnum:
		g.desTagged(t, into)

	case schema.Platform:
		g.desPlatform(t, into)
	}
}

func (g *Generator) serFields(st *schema.Struct, from Expr) {
	for _, f := range st.Fields {
		g.ser(f.Type, Field{Of: from, Name: f.Name})
	}
}

func (g *Generator) desFields(st *schema.Struct, into Expr) {
	for _, f := range st.Fields {
		g.des(f.Type, Field{Of: into, Name: f.Name})
	}
}

// serTagged writes the 1-based index of the matching case, or 0 followed by
// the tag itself for the catch-all, then the case's fields.
func (g *Generator) serTagged(t *schema.TaggedEnum, from Expr) {
	kind := schema.NumTy(0, float64(len(t.Variants)))
	tag := Field{Of: from, Name: t.Tag}

	for i, v := range t.Variants {
		g.branch(i, Eq(tag, Str(v.Name)))
		g.emit(WriteNum{Kind: kind, Value: Num(i + 1)})
		g.serFields(v.Struct, from)
	}

	if t.CatchAll == nil {
		g.closeChoice(len(t.Variants), msgTag)
		return
	}

	if len(t.Variants) > 0 {
		g.emit(Else{})
	} else {
		g.emit(Block{})
	}
	g.emit(WriteNum{Kind: kind, Value: Num(0)})
	g.ser(schema.Str{}, tag)
	g.serFields(t.CatchAll, from)
	g.emit(End{})
}

func (g *Generator) desTagged(t *schema.TaggedEnum, into Expr) {
	kind := schema.NumTy(0, float64(len(t.Variants)))
	idx := g.fresh("case")
	tag := Field{Of: into, Name: t.Tag}

	g.emit(
		Assign{Target: into, Value: EmptyTable{}},
		Local{Name: string(idx)},
		ReadNum{Kind: kind, Into: idx},
	)

	for i, v := range t.Variants {
		g.branch(i, Eq(idx, Num(i+1)))
		g.emit(Assign{Target: tag, Value: Str(v.Name)})
		g.desFields(v.Struct, into)
	}

	n := len(t.Variants)
	if t.CatchAll != nil {
		g.branch(n, Eq(idx, Num(0)))
		g.des(schema.Str{}, tag)
		g.desFields(t.CatchAll, into)
		n++
	}
	g.closeChoice(n, msgTag)
}

func (g *Generator) serPlatform(t schema.Platform, from Expr) {
	if t.Kind.Handle() {
		if g.checks && t.Class != "" {
			g.emit(Assert{Cond: IsA{Value: from, Class: t.Class}, Message: msgClass})
		}
		g.emit(PushHandle{Value: from})
		return
	}

	for i, c := range schema.PlatformLayout(t.Kind) {
		g.emit(WriteNum{Kind: c.Kind, Value: Component{Kind: t.Kind, Value: from, Index: i}})
	}
}

func (g *Generator) desPlatform(t schema.Platform, into Expr) {
	if t.Kind.Handle() {
		g.emit(ReadHandle{Into: into})
		if g.checks && t.Kind == schema.Instance {
			g.emit(Assert{Cond: Ne(into, Nil{}), Message: msgNilInstance})
			if t.Class != "" {
				g.emit(Assert{Cond: IsA{Value: into, Class: t.Class}, Message: msgClass})
			}
		}
		return
	}

	layout := schema.PlatformLayout(t.Kind)
	parts := make([]Expr, len(layout))
	for i, c := range layout {
		v := g.fresh("c")
		g.emit(Local{Name: string(v)}, ReadNum{Kind: c.Kind, Into: v})
		parts[i] = v
	}
	g.emit(Assign{Target: into, Value: Construct{Kind: t.Kind, Parts: parts}})
}

// serBytes writes a string or buffer, prefixed by its length unless the
// length is fixed.
func (g *Generator) serBytes(kind BytesKind, length, from Expr, r schema.Range) {
	if n, ok := r.Len(); ok {
		if g.checks {
			g.emit(Assert{Cond: Eq(length, Num(n)), Message: msgLength})
		}
		g.emit(WriteBytes{Kind: kind, Count: Num(n), Value: from})
		return
	}
	count := g.writeLength(length, r)
	g.emit(WriteBytes{Kind: kind, Count: count, Value: from})
}

func (g *Generator) desBytes(kind BytesKind, into Expr, r schema.Range) {
	if n, ok := r.Len(); ok {
		g.emit(ReadBytes{Kind: kind, Count: Num(n), Into: into})
		return
	}
	count := g.readLength(r)
	g.emit(ReadBytes{Kind: kind, Count: count, Into: into})
}

// writeLength stores length in a new local, checks it, and writes it as a
// length prefix.
func (g *Generator) writeLength(length Expr, r schema.Range) Name {
	v := g.fresh("len")
	g.emit(Local{Name: string(v), Value: length})
	if g.checks {
		g.rangeAsserts(v, capLength(r), msgLength)
	}
	g.emit(WriteNum{Kind: schema.LengthKind, Value: v})
	return v
}

func (g *Generator) readLength(r schema.Range) Name {
	v := g.fresh("len")
	g.emit(Local{Name: string(v)}, ReadNum{Kind: schema.LengthKind, Into: v})
	if g.checks {
		g.rangeAsserts(v, r, msgLength)
	}
	return v
}

// optionalHandle returns the handle type t wraps, looking through aliases.
// Both sides inline it so a nil handle reads back as an absent value.
func (g *Generator) optionalHandle(t schema.Opt) (schema.Platform, bool) {
	inner := t.Inner
	seen := map[string]bool{}
	for {
		ref, ok := inner.(schema.Ref)
		if !ok || seen[ref.Name] {
			break
		}
		seen[ref.Name] = true
		td, ok := g.cfg.Type(ref.Name)
		if !ok {
			break
		}
		inner = td.Type
	}
	p, ok := inner.(schema.Platform)
	return p, ok && p.Kind.Handle()
}

func (g *Generator) rangeAsserts(v Expr, r schema.Range, msg string) {
	if r.Min != nil {
		g.emit(Assert{Cond: Binary{Op: OpGe, L: v, R: Num(*r.Min)}, Message: msg})
	}
	if r.Max != nil {
		g.emit(Assert{Cond: Binary{Op: OpLe, L: v, R: Num(*r.Max)}, Message: msg})
	}
}

// branch opens case i of a choice
func (g *Generator) branch(i int, cond Expr) {
	if i == 0 {
		g.emit(If{Cond: cond})
	} else {
		g.emit(ElseIf{Cond: cond})
	}
}

// closeChoice ends a choice of n cases with a branch that throws. An empty
// choice throws unconditionally.
func (g *Generator) closeChoice(n int, msg string) {
	if n == 0 {
		g.emit(Throw{Message: msg})
		return
	}
	g.emit(Else{}, Throw{Message: msg}, End{})
}

// capLength bounds r by what a length prefix can carry
func capLength(r schema.Range) schema.Range {
	if r.Max != nil && *r.Max <= maxLength() {
		return r
	}
	max := maxLength()
	return schema.Range{Min: r.Min, Max: &max}
}

func maxLength() float64 {
	_, hi := schema.LengthKind.Domain()
	return hi
}
