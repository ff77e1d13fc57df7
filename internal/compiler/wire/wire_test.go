package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wirec-lang/wirec/internal/compiler/analyzer"
	"github.com/wirec-lang/wirec/internal/compiler/irgen"
	"github.com/wirec-lang/wirec/internal/compiler/parser"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

const testSchema = `
type Point = struct { x: f32, y: f32 }
type Health = u8(0..100)
type Name = string(1..16)
type Tag = string(4)
type Blob = buffer(..64)
type Color = enum { Red, Green, Blue }
type Shape = enum "kind" {
	Circle { radius: f32 },
	Rect { w: u16, h: u16 },
	... { payload: u8? },
}
type Only = enum "kind" { ... { n: i8 } }
type Tree = struct { value: i32, children: Tree[] }
type Inventory = map { [string(..20)]: u16(..999) }
type Slots = u8[3]
type Owner = Instance(Player)
type MaybeOwner = Instance(Player)?
type OwnerAlias = Owner
type MaybeAliased = OwnerAlias?
type Anything = unknown
type Place = struct {
	position: Vector3,
	tint: Color3,
	frame: CFrame,
	aligned: AlignedCFrame,
}
type Everything = struct {
	flag: boolean,
	point: Point?,
	health: Health,
	names: Name[..4],
	color: Color,
	shape: Shape,
	tree: Tree,
	inventory: Inventory,
	slots: Slots,
	big: f64,
	small: i16(-300..300),
}

event Move = { from: Client, type: Unreliable, call: SingleSync, data: Point }
event Chat = { from: Client, type: Reliable, call: ManyAsync, data: Name }
event Ping = { from: Server, type: Reliable, call: ManySync }
event Spawn = { from: Server, type: Reliable, call: ManySync, data: Owner }
`

func program(t testing.TB) (*schema.Config, *irgen.Program) {
	t.Helper()

	file, _, diags := parser.ParseSource("test.wire", testSchema)
	require.Empty(t, diags)
	cfg, diags := analyzer.Analyze(file, analyzer.Options{})
	require.False(t, diags.HasErrors(), "%v", diags)
	return cfg, irgen.Generate(cfg)
}

func roundTrip(t *testing.T, prog *irgen.Program, typeName string, value any) any {
	t.Helper()

	msg, err := Encode(prog, typeName, value)
	require.NoError(t, err)
	out, err := Decode(prog, typeName, msg)
	require.NoError(t, err)
	return out
}

func TestPointLayout(t *testing.T) {
	_, prog := program(t)

	msg, err := Encode(prog, "Point", Record(map[string]any{"x": 1.5, "y": -2}))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0xc0, 0x3f, 0x00, 0x00, 0x00, 0xc0}, msg.Buf, "little-endian f32s")
	assert.Empty(t, msg.Handles)
}

func TestMoveEvent(t *testing.T) {
	_, prog := program(t)

	msg, err := EncodeEvent(prog, "Move", Record(map[string]any{"x": 1, "y": 2}))
	require.NoError(t, err)
	require.Len(t, msg.Buf, 9, "one byte of id and two f32s")
	assert.Equal(t, byte(1), msg.Buf[0])

	d, err := DecodeEvent(prog, msg)
	require.NoError(t, err)
	assert.Equal(t, "Move", d.Event)
	assert.Equal(t, 1, d.ID)
	assert.True(t, Equal(Record(map[string]any{"x": 1.0, "y": 2.0}), d.Value))
}

func TestBatch(t *testing.T) {
	_, prog := program(t)
	player := &Instance{Class: "Player", Name: "Builderman"}

	chat, err := EncodeEvent(prog, "Chat", "hello")
	require.NoError(t, err)
	ping, err := EncodeEvent(prog, "Ping", nil)
	require.NoError(t, err)
	spawn, err := EncodeEvent(prog, "Spawn", player)
	require.NoError(t, err)

	got, err := DecodeBatch(prog, Concat(chat, ping, spawn))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Chat", got[0].Event)
	assert.Equal(t, "hello", got[0].Value)
	assert.Equal(t, "Ping", got[1].Event)
	assert.Nil(t, got[1].Value)
	assert.Equal(t, "Spawn", got[2].Event)
	assert.Same(t, player, got[2].Value)
}

func TestRuntimeErrors(t *testing.T) {
	_, prog := program(t)

	tests := []struct {
		name  string
		typ   string
		value any
		msg   string
	}{
		{"number above range", "Health", 101.0, "value out of range"},
		{"string too short", "Name", "", "length out of range"},
		{"string too long", "Name", "abcdefghijklmnopq", "length out of range"},
		{"exact string", "Tag", "abc", "length out of range"},
		{"unknown enum", "Color", "Purple", "invalid enum value"},
		{"wrong class", "Owner", &Instance{Class: "Part"}, "instance has the wrong class"},
		{"exact array", "Slots", Array(1.0, 2.0), "length out of range"},
		{"unaligned", "Place", Record(map[string]any{
			"position": Vector3{},
			"tint":     Color3{},
			"frame":    CFrame{},
			"aligned":  CFrame{AxisAngle: Vector3{X: 0.3}},
		}), "invalid axis alignment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(prog, tt.typ, tt.value)
			var rt *RuntimeError
			require.True(t, errors.As(err, &rt), "got %v", err)
			assert.Equal(t, tt.msg, rt.Message)
		})
	}
}

func TestTaggedWithoutCatchAllThrows(t *testing.T) {
	file, _, diags := parser.ParseSource("t.wire", `
type S = enum "kind" { A { x: u8 } }
event E = { from: Server, type: Reliable, call: ManySync, data: S }
`)
	require.Empty(t, diags)
	cfg, _ := analyzer.Analyze(file, analyzer.Options{})
	prog := irgen.Generate(cfg)

	_, err := Encode(prog, "S", Record(map[string]any{"kind": "B"}))
	var rt *RuntimeError
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, "invalid enum tag", rt.Message)
	assert.Equal(t, "S: invalid enum tag", rt.Error())
}

func TestDecodeChecksRanges(t *testing.T) {
	_, prog := program(t)

	_, err := Decode(prog, "Health", Message{Buf: []byte{200}})
	var rt *RuntimeError
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, "value out of range", rt.Message)

	_, err = Decode(prog, "Health", Message{Buf: []byte{}})
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, "buffer read out of bounds", rt.Message)

	_, err = Decode(prog, "Health", Message{Buf: []byte{1, 2}})
	var trailing *TrailingBytesError
	require.ErrorAs(t, err, &trailing)
	assert.Equal(t, 1, trailing.Count)

	_, err = Decode(prog, "Owner", Message{Buf: []byte{}})
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, "instance is nil", rt.Message)

	_, err = DecodeEvent(prog, Message{Buf: []byte{9}})
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, "unknown event id 9", rt.Message)
}

func TestOptionalInstanceAcceptsNil(t *testing.T) {
	_, prog := program(t)

	msg, err := Encode(prog, "MaybeOwner", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, msg.Buf)

	player := &Instance{Class: "Player"}
	msg, err = Encode(prog, "MaybeOwner", player)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, msg.Buf)
	assert.Equal(t, []any{player}, msg.Handles)

	// the instance was destroyed before the message arrived
	for _, name := range []string{"MaybeOwner", "MaybeAliased"} {
		out, err := Decode(prog, name, Message{Buf: []byte{1}})
		require.NoError(t, err, name)
		assert.Nil(t, out, name)
	}

	msg, err = Encode(prog, "MaybeAliased", player)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, msg.Buf)
	assert.Equal(t, player, roundTrip(t, prog, "MaybeAliased", player))

	_, err = Encode(prog, "MaybeAliased", &Instance{Class: "Part"})
	var rt *RuntimeError
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, "instance has the wrong class", rt.Message)
}

func TestDecodeWithoutChecks(t *testing.T) {
	file, _, diags := parser.ParseSource("t.wire", `
opt write_checks = false
type Health = u8(0..100)
type Owner = Instance(Player)
event E = { from: Server, type: Reliable, call: ManySync, data: Health }
`)
	require.Empty(t, diags)
	cfg, _ := analyzer.Analyze(file, analyzer.Options{})
	prog := irgen.Generate(cfg)

	out, err := Decode(prog, "Health", Message{Buf: []byte{200}})
	require.NoError(t, err)
	assert.Equal(t, 200.0, out)

	out, err = Decode(prog, "Owner", Message{Buf: []byte{}})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestMapCountIsPatched(t *testing.T) {
	_, prog := program(t)

	inv := Record(map[string]any{"sword": 1.0, "apple": 12.0})
	msg, err := Encode(prog, "Inventory", inv)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0}, msg.Buf[:2])
	assert.True(t, Equal(inv, roundTrip(t, prog, "Inventory", inv)))
}

func TestPlatformRoundTrip(t *testing.T) {
	_, prog := program(t)

	for i := 1; i <= AlignmentCount(); i++ {
		rot, ok := Alignment(i)
		require.True(t, ok)
		place := Record(map[string]any{
			"position": Vector3{1, 2, 3},
			"tint":     Color3{1, 0, 51.0 / 255},
			"frame":    CFrame{Position: Vector3{-4, 0.5, 8}, AxisAngle: Vector3{0, 1.5, 0}},
			"aligned":  CFrame{Position: Vector3{0, 0, 1}, AxisAngle: rot},
		})
		assert.True(t, Equal(place, roundTrip(t, prog, "Place", place)), "alignment %d", i)
	}
	assert.Equal(t, 24, AlignmentCount())
}

func TestAlignmentsAreDistinct(t *testing.T) {
	seen := map[[3]float64]bool{}
	for i := 1; i <= AlignmentCount(); i++ {
		rot, _ := Alignment(i)
		key := [3]float64{
			math.Round(rot.X * 1e6), math.Round(rot.Y * 1e6), math.Round(rot.Z * 1e6),
		}
		assert.False(t, seen[key], "alignment %d repeats", i)
		seen[key] = true
	}

	identity, _ := Alignment(1)
	assert.Equal(t, Vector3{}, identity)
}

func TestJSON(t *testing.T) {
	_, prog := program(t)

	var raw any
	require.NoError(t, json.Unmarshal([]byte(`{
		"position": {"$vector3": [1, 2, 3]},
		"tint": {"$color3": [0, 1, 0]},
		"frame": {"$cframe": [0, 0, 0, 0, 0, 0]},
		"aligned": {"$cframe": [5, 5, 5, 0, 0, 0]}
	}`), &raw))

	value, err := FromJSON(raw)
	require.NoError(t, err)
	out := roundTrip(t, prog, "Place", value)

	plain, err := json.Marshal(ToPlain(out))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"position": {"$vector3": [1, 2, 3]},
		"tint": {"$color3": [0, 1, 0]},
		"frame": {"$cframe": [0, 0, 0, 0, 0, 0]},
		"aligned": {"$cframe": [5, 5, 5, 0, 0, 0]}
	}`, string(plain))

	list, err := FromJSON([]any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, ToPlain(list))

	_, err = FromJSON(map[string]any{"$nope": 1.0})
	assert.Error(t, err)

	blob, err := FromJSON(map[string]any{"$buffer": "AQID"})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, blob)
}

func TestTable(t *testing.T) {
	tbl := Array("a", "b", "c")
	assert.Equal(t, 3, tbl.Len())
	assert.True(t, tbl.IsArray())

	tbl.Set(2, nil)
	assert.Equal(t, 1, tbl.Len())
	assert.False(t, tbl.IsArray())

	tbl.Set("z", true)
	tbl.Set(false, 1)
	assert.Equal(t, []any{1.0, 3.0, "z", false}, tbl.Keys())
	assert.Equal(t, "c", tbl.Get(3))
}

// genValue builds a random value conforming to typ
func genValue(r *rand.Rand, cfg *schema.Config, typ schema.Type, depth int) any {
	switch t := typ.(type) {
	case schema.Bool:
		return r.Intn(2) == 0

	case schema.Num:
		lo, hi := t.Kind.Domain()
		lo, hi = t.Range.MinOr(math.Max(lo, -1e6)), t.Range.MaxOr(math.Min(hi, 1e6))
		v := lo + math.Floor(r.Float64()*(hi-lo+1))
		if v > hi {
			v = hi
		}
		if t.Kind == schema.F32 {
			return float64(float32(v))
		}
		return v

	case schema.Str:
		return string(genBytes(r, t.Len))

	case schema.Buf:
		return genBytes(r, t.Len)

	case schema.Arr:
		n := genLength(r, t.Len, depth)
		items := make([]any, n)
		for i := range items {
			elem := t.Elem
			if o, ok := elem.(schema.Opt); ok {
				elem = o.Inner
			}
			items[i] = genValue(r, cfg, elem, depth-1)
		}
		return Array(items...)

	case schema.Map:
		tbl := NewTable()
		for i := r.Intn(4); i > 0; i-- {
			tbl.Set(genValue(r, cfg, t.Key, depth-1), genValue(r, cfg, t.Val, depth-1))
		}
		return tbl

	case schema.Opt:
		if r.Intn(2) == 0 {
			return nil
		}
		return genValue(r, cfg, t.Inner, depth)

	case schema.Ref:
		td, _ := cfg.Type(t.Name)
		return genValue(r, cfg, td.Type, depth)

	case *schema.Struct:
		return genStruct(r, cfg, t, depth, NewTable())

	case schema.UnitEnum:
		return t.Variants[r.Intn(len(t.Variants))]

	case *schema.TaggedEnum:
		tbl := NewTable()
		i := r.Intn(len(t.Variants) + 1)
		if i == len(t.Variants) && t.CatchAll != nil {
			tbl.Set(t.Tag, fmt.Sprintf("Other%d", r.Intn(100)))
			return genStruct(r, cfg, t.CatchAll, depth, tbl)
		}
		v := t.Variants[i%len(t.Variants)]
		tbl.Set(t.Tag, v.Name)
		return genStruct(r, cfg, v.Struct, depth, tbl)

	case schema.Platform:
		switch t.Kind {
		case schema.Instance:
			return &Instance{Class: t.Class}
		case schema.Unknown:
			return &Instance{Class: "Folder"}
		case schema.Vector3:
			return Vector3{float64(r.Intn(100)), 0.5, -2}
		case schema.Color3:
			return Color3{float64(r.Intn(256)) / 255, 0, 1}
		case schema.CFrame:
			return CFrame{Position: Vector3{1, 2, 3}, AxisAngle: Vector3{0, 0.25, 0}}
		}
		rot, _ := Alignment(1 + r.Intn(AlignmentCount()))
		return CFrame{Position: Vector3{4, 5, 6}, AxisAngle: rot}
	}
	return nil
}

func genStruct(r *rand.Rand, cfg *schema.Config, st *schema.Struct, depth int, into *Table) *Table {
	for _, f := range st.Fields {
		into.Set(f.Name, genValue(r, cfg, f.Type, depth-1))
	}
	return into
}

func genLength(r *rand.Rand, rng schema.Range, depth int) int {
	lo := int(rng.MinOr(0))
	hi := int(rng.MaxOr(float64(lo + 3)))
	if depth <= 0 {
		hi = lo
	}
	if hi > lo+3 {
		hi = lo + 3
	}
	return lo + r.Intn(hi-lo+1)
}

func genBytes(r *rand.Rand, rng schema.Range) []byte {
	n := genLength(r, rng, 1)
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + r.Intn(26))
	}
	return b
}

func TestRoundTripProperty(t *testing.T) {
	cfg, prog := program(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	for _, td := range cfg.TypeDecls {
		properties.Property("round trip "+td.Name, prop.ForAll(
			func(seed int64) bool {
				value := genValue(rand.New(rand.NewSource(seed)), cfg, td.Type, 3)
				msg, err := Encode(prog, td.Name, value)
				if err != nil {
					t.Logf("encode %s: %v", td.Name, err)
					return false
				}
				out, err := Decode(prog, td.Name, msg)
				if err != nil {
					t.Logf("decode %s: %v", td.Name, err)
					return false
				}
				return Equal(value, out)
			},
			gen.Int64(),
		))
	}

	properties.TestingRun(t)
}
