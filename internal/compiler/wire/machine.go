package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wirec-lang/wirec/internal/compiler/irgen"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// maxCallDepth bounds nested codec calls so that cyclic tables fail
// instead of overflowing the stack.
const maxCallDepth = 512

// machine runs codec ops over one message
type machine struct {
	prog *irgen.Program

	out     []byte
	in      []byte
	pos     int
	handles []any
	hpos    int

	frame *frame
	depth int
	codec string

	compiled map[compiledKey][]stmt
}

type compiledKey struct {
	name string
	ser  bool
}

type frame struct {
	scopes []map[string]any
}

func newMachine(prog *irgen.Program) *machine {
	return &machine{prog: prog, compiled: make(map[compiledKey][]stmt)}
}

func (m *machine) fail(msg string) error {
	return &RuntimeError{Codec: m.codec, Message: msg}
}

// run executes ops in a fresh frame where value is bound to the codec's
// value variable, and returns the variable's final value.
func (m *machine) run(codec string, ops []stmt, value any) (any, error) {
	if m.depth >= maxCallDepth {
		return nil, m.fail("codec calls nested too deeply")
	}

	saved, savedCodec := m.frame, m.codec
	m.frame = &frame{scopes: []map[string]any{{string(irgen.ValueVar): value}}}
	m.codec = codec
	m.depth++
	defer func() {
		m.frame, m.codec = saved, savedCodec
		m.depth--
	}()

	if err := m.exec(ops); err != nil {
		return nil, err
	}
	return m.lookup(string(irgen.ValueVar)), nil
}

func (m *machine) compile(name string, ser bool, ops []irgen.Op) ([]stmt, error) {
	key := compiledKey{name, ser}
	if body, ok := m.compiled[key]; ok {
		return body, nil
	}
	body, err := structure(ops)
	if err != nil {
		return nil, fmt.Errorf("codec %s: %w", name, err)
	}
	m.compiled[key] = body
	return body, nil
}

func (m *machine) codecBody(name string, ser bool) ([]stmt, error) {
	c, ok := m.prog.Type(name)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", name)
	}
	if ser {
		return m.compile(name, true, c.Ser)
	}
	return m.compile(name, false, c.Des)
}

func (m *machine) push() {
	m.frame.scopes = append(m.frame.scopes, map[string]any{})
}

func (m *machine) pop() {
	m.frame.scopes = m.frame.scopes[:len(m.frame.scopes)-1]
}

func (m *machine) declare(name string, v any) {
	m.frame.scopes[len(m.frame.scopes)-1][name] = v
}

func (m *machine) lookup(name string) any {
	for i := len(m.frame.scopes) - 1; i >= 0; i-- {
		if v, ok := m.frame.scopes[i][name]; ok {
			return v
		}
	}
	return nil
}

// setName assigns to the innermost declaration of name, or declares it in
// the frame's outermost scope.
func (m *machine) setName(name string, v any) {
	for i := len(m.frame.scopes) - 1; i >= 0; i-- {
		if _, ok := m.frame.scopes[i][name]; ok {
			m.frame.scopes[i][name] = v
			return
		}
	}
	m.frame.scopes[0][name] = v
}

func (m *machine) exec(body []stmt) error {
	for _, s := range body {
		if err := m.step(s); err != nil {
			return err
		}
	}
	return nil
}

func (m *machine) scoped(body []stmt, vars map[string]any) error {
	m.push()
	defer m.pop()
	for k, v := range vars {
		m.declare(k, v)
	}
	return m.exec(body)
}

func (m *machine) step(s stmt) error {
	switch op := s.op.(type) {
	case irgen.Local:
		var v any
		if op.Value != nil {
			var err error
			if v, err = m.eval(op.Value); err != nil {
				return err
			}
		}
		m.declare(op.Name, v)

	case irgen.Assign:
		v, err := m.eval(op.Value)
		if err != nil {
			return err
		}
		return m.assign(op.Target, v)

	case irgen.WriteNum:
		v, err := m.evalNumber(op.Value)
		if err != nil {
			return err
		}
		m.out = appendNum(m.out, op.Kind, v)

	case irgen.Reserve:
		m.declare(op.Into, float64(len(m.out)))
		m.out = append(m.out, make([]byte, op.Size)...)

	case irgen.WriteNumAt:
		v, err := m.evalNumber(op.Value)
		if err != nil {
			return err
		}
		at, err := m.evalNumber(op.At)
		if err != nil {
			return err
		}
		n := int(at)
		if n < 0 || n+op.Kind.Size() > len(m.out) {
			return m.fail("write out of bounds")
		}
		putNum(m.out[n:], op.Kind, v)

	case irgen.ReadNum:
		size := op.Kind.Size()
		if m.pos+size > len(m.in) {
			return m.fail("buffer read out of bounds")
		}
		v := readNum(m.in[m.pos:], op.Kind)
		m.pos += size
		return m.assign(op.Into, v)

	case irgen.WriteBytes:
		n, err := m.evalCount(op.Count)
		if err != nil {
			return err
		}
		v, err := m.eval(op.Value)
		if err != nil {
			return err
		}
		var b []byte
		switch v := v.(type) {
		case string:
			b = []byte(v)
		case []byte:
			b = v
		default:
			return typeError(op.Kind.String(), v)
		}
		if n > len(b) {
			return m.fail("buffer write out of bounds")
		}
		m.out = append(m.out, b[:n]...)

	case irgen.ReadBytes:
		n, err := m.evalCount(op.Count)
		if err != nil {
			return err
		}
		if m.pos+n > len(m.in) {
			return m.fail("buffer read out of bounds")
		}
		raw := m.in[m.pos : m.pos+n]
		m.pos += n
		var v any = string(raw)
		if op.Kind == irgen.Buffer {
			v = append([]byte(nil), raw...)
		}
		return m.assign(op.Into, v)

	case irgen.Assert:
		v, err := m.eval(op.Cond)
		if err != nil {
			return err
		}
		if !truthy(v) {
			return m.fail(op.Message)
		}

	case irgen.Throw:
		return m.fail(op.Message)

	case irgen.If:
		for _, a := range s.arms {
			if a.cond != nil {
				v, err := m.eval(a.cond)
				if err != nil {
					return err
				}
				if !truthy(v) {
					continue
				}
			}
			return m.scoped(a.body, nil)
		}

	case irgen.Block:
		return m.scoped(s.body, nil)

	case irgen.NumFor:
		from, err := m.evalNumber(op.From)
		if err != nil {
			return err
		}
		to, err := m.evalNumber(op.To)
		if err != nil {
			return err
		}
		for i := from; i <= to; i++ {
			if err := m.scoped(s.body, map[string]any{op.Var: i}); err != nil {
				return err
			}
		}

	case irgen.GenFor:
		v, err := m.eval(op.Value)
		if err != nil {
			return err
		}
		t, ok := v.(*Table)
		if !ok {
			return typeError("table", v)
		}
		for _, k := range t.Keys() {
			if err := m.scoped(s.body, map[string]any{op.Key: k, op.Val: t.Get(k)}); err != nil {
				return err
			}
		}

	case irgen.PushHandle:
		v, err := m.eval(op.Value)
		if err != nil {
			return err
		}
		m.handles = append(m.handles, v)

	case irgen.ReadHandle:
		var v any
		if m.hpos < len(m.handles) {
			v = m.handles[m.hpos]
		}
		m.hpos++
		return m.assign(op.Into, v)

	case irgen.CallWriter:
		v, err := m.eval(op.Value)
		if err != nil {
			return err
		}
		body, err := m.codecBody(op.Name, true)
		if err != nil {
			return err
		}
		_, err = m.run(op.Name, body, v)
		return err

	case irgen.CallReader:
		body, err := m.codecBody(op.Name, false)
		if err != nil {
			return err
		}
		v, err := m.run(op.Name, body, nil)
		if err != nil {
			return err
		}
		return m.assign(op.Into, v)

	default:
		return fmt.Errorf("unsupported op %T", op)
	}
	return nil
}

func (m *machine) assign(target irgen.Expr, v any) error {
	switch t := target.(type) {
	case irgen.Name:
		m.setName(string(t), v)
		return nil

	case irgen.Field:
		of, err := m.eval(t.Of)
		if err != nil {
			return err
		}
		tbl, ok := of.(*Table)
		if !ok {
			return typeError("table", of)
		}
		tbl.Set(t.Name, v)
		return nil

	case irgen.Index:
		of, err := m.eval(t.Of)
		if err != nil {
			return err
		}
		key, err := m.eval(t.Key)
		if err != nil {
			return err
		}
		tbl, ok := of.(*Table)
		if !ok {
			return typeError("table", of)
		}
		if key == nil {
			return m.fail("table index is nil")
		}
		tbl.Set(key, v)
		return nil
	}
	return fmt.Errorf("cannot assign to %s", target)
}

func (m *machine) evalNumber(e irgen.Expr) (float64, error) {
	v, err := m.eval(e)
	if err != nil {
		return 0, err
	}
	n, ok := toNumber(v)
	if !ok {
		return 0, typeError("number", v)
	}
	return n, nil
}

func (m *machine) evalCount(e irgen.Expr) (int, error) {
	n, err := m.evalNumber(e)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, m.fail("negative byte count")
	}
	return int(n), nil
}

func (m *machine) eval(e irgen.Expr) (any, error) {
	switch e := e.(type) {
	case irgen.Nil:
		return nil, nil
	case irgen.Bool:
		return bool(e), nil
	case irgen.Num:
		return float64(e), nil
	case irgen.Str:
		return string(e), nil
	case irgen.Name:
		return m.lookup(string(e)), nil
	case irgen.EmptyTable:
		return NewTable(), nil

	case irgen.Field:
		of, err := m.eval(e.Of)
		if err != nil {
			return nil, err
		}
		t, ok := of.(*Table)
		if !ok {
			return nil, typeError("table", of)
		}
		return t.Get(e.Name), nil

	case irgen.Index:
		of, err := m.eval(e.Of)
		if err != nil {
			return nil, err
		}
		key, err := m.eval(e.Key)
		if err != nil {
			return nil, err
		}
		t, ok := of.(*Table)
		if !ok {
			return nil, typeError("table", of)
		}
		return t.Get(key), nil

	case irgen.Len:
		v, err := m.eval(e.Value)
		if err != nil {
			return nil, err
		}
		switch v := v.(type) {
		case string:
			return float64(len(v)), nil
		case *Table:
			return float64(v.Len()), nil
		}
		return nil, typeError("string or table", v)

	case irgen.BufLen:
		v, err := m.eval(e.Value)
		if err != nil {
			return nil, err
		}
		b, ok := v.([]byte)
		if !ok {
			return nil, typeError("buffer", v)
		}
		return float64(len(b)), nil

	case irgen.Not:
		v, err := m.eval(e.Value)
		if err != nil {
			return nil, err
		}
		return !truthy(v), nil

	case irgen.Binary:
		return m.binary(e)

	case irgen.Cond:
		c, err := m.eval(e.If)
		if err != nil {
			return nil, err
		}
		if truthy(c) {
			return m.eval(e.Then)
		}
		return m.eval(e.Else)

	case irgen.IsA:
		v, err := m.eval(e.Value)
		if err != nil {
			return nil, err
		}
		inst, ok := v.(*Instance)
		return ok && inst != nil && inst.Class == e.Class, nil

	case irgen.Component:
		v, err := m.eval(e.Value)
		if err != nil {
			return nil, err
		}
		c, err := component(e.Kind, v, e.Index)
		if rt, ok := err.(*RuntimeError); ok {
			rt.Codec = m.codec
		}
		return c, err

	case irgen.Construct:
		parts := make([]float64, len(e.Parts))
		for i, p := range e.Parts {
			n, err := m.evalNumber(p)
			if err != nil {
				return nil, err
			}
			parts[i] = n
		}
		v, err := construct(e.Kind, parts)
		if rt, ok := err.(*RuntimeError); ok {
			rt.Codec = m.codec
		}
		return v, err
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}

func (m *machine) binary(e irgen.Binary) (any, error) {
	l, err := m.eval(e.L)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case irgen.OpAnd:
		if !truthy(l) {
			return l, nil
		}
		return m.eval(e.R)
	case irgen.OpOr:
		if truthy(l) {
			return l, nil
		}
		return m.eval(e.R)
	}

	r, err := m.eval(e.R)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case irgen.OpEq:
		return rawEqual(l, r), nil
	case irgen.OpNe:
		return !rawEqual(l, r), nil
	}

	a, ok := toNumber(l)
	if !ok {
		return nil, typeError("number", l)
	}
	b, ok := toNumber(r)
	if !ok {
		return nil, typeError("number", r)
	}

	switch e.Op {
	case irgen.OpGe:
		return a >= b, nil
	case irgen.OpLe:
		return a <= b, nil
	case irgen.OpGt:
		return a > b, nil
	case irgen.OpLt:
		return a < b, nil
	case irgen.OpAdd:
		return a + b, nil
	}
	return nil, fmt.Errorf("unsupported operator %s", e.Op)
}

// rawEqual compares like the generated code does: tables and instances by
// identity, everything else by value.
func rawEqual(a, b any) bool {
	if an, ok := toNumber(a); ok {
		bn, ok := toNumber(b)
		return ok && an == bn
	}
	ab, aok := a.([]byte)
	bb, bok := b.([]byte)
	if aok || bok {
		return aok && bok && len(ab) == len(bb) && (len(ab) == 0 || &ab[0] == &bb[0])
	}
	return a == b
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	}
	return true
}

func appendNum(buf []byte, kind schema.NumKind, v float64) []byte {
	n := len(buf)
	buf = append(buf, make([]byte, kind.Size())...)
	putNum(buf[n:], kind, v)
	return buf
}

// putNum encodes v little-endian. Integers are truncated toward zero and
// wrap to the kind's width.
func putNum(b []byte, kind schema.NumKind, v float64) {
	le := binary.LittleEndian
	switch kind {
	case schema.U8:
		b[0] = uint8(int64(v))
	case schema.I8:
		b[0] = uint8(int8(int64(v)))
	case schema.U16:
		le.PutUint16(b, uint16(int64(v)))
	case schema.I16:
		le.PutUint16(b, uint16(int16(int64(v))))
	case schema.U32:
		le.PutUint32(b, uint32(int64(v)))
	case schema.I32:
		le.PutUint32(b, uint32(int32(int64(v))))
	case schema.F32:
		le.PutUint32(b, math.Float32bits(float32(v)))
	case schema.F64:
		le.PutUint64(b, math.Float64bits(v))
	}
}

func readNum(b []byte, kind schema.NumKind) float64 {
	le := binary.LittleEndian
	switch kind {
	case schema.U8:
		return float64(b[0])
	case schema.I8:
		return float64(int8(b[0]))
	case schema.U16:
		return float64(le.Uint16(b))
	case schema.I16:
		return float64(int16(le.Uint16(b)))
	case schema.U32:
		return float64(le.Uint32(b))
	case schema.I32:
		return float64(int32(le.Uint32(b)))
	case schema.F32:
		return float64(math.Float32frombits(le.Uint32(b)))
	}
	return math.Float64frombits(le.Uint64(b))
}
