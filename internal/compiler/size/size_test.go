package size

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

func bounded(min, max int) Bounds {
	return Bounds{Min: min, Max: max, HasMax: true}
}

func unbounded(min int) Bounds {
	return Bounds{Min: min}
}

func TestLeaves(t *testing.T) {
	cfg := schema.NewConfig(nil, nil, schema.DefaultOptions())

	tests := []struct {
		name     string
		ty       schema.Type
		expected Bounds
	}{
		{"boolean", schema.Bool{}, bounded(1, 1)},
		{"u16", schema.Num{Kind: schema.U16}, bounded(2, 2)},
		{"f64", schema.Num{Kind: schema.F64}, bounded(8, 8)},
		{"vector3", schema.Platform{Kind: schema.Vector3}, bounded(12, 12)},
		{"color3", schema.Platform{Kind: schema.Color3}, bounded(3, 3)},
		{"cframe", schema.Platform{Kind: schema.CFrame}, bounded(24, 24)},
		{"aligned cframe", schema.Platform{Kind: schema.AlignedCFrame}, bounded(13, 13)},
		{"instance", schema.Platform{Kind: schema.Instance}, bounded(4, 4)},
		{"unknown", schema.Platform{Kind: schema.Unknown}, unbounded(0)},
		{"no payload", nil, bounded(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Of(cfg, tt.ty))
		})
	}
}

func TestCollections(t *testing.T) {
	cfg := schema.NewConfig(nil, nil, schema.DefaultOptions())
	u8 := schema.Num{Kind: schema.U8}
	f32 := schema.Num{Kind: schema.F32}

	tests := []struct {
		name     string
		ty       schema.Type
		expected Bounds
	}{
		{"exact string", schema.Str{Len: schema.ExactRange(16)}, bounded(16, 16)},
		{"bounded string", schema.Str{Len: schema.NewRange(3, 50)}, bounded(5, 52)},
		{"unbounded string", schema.Str{}, unbounded(2)},
		{"bounded buffer", schema.Buf{Len: schema.AtMost(10)}, bounded(2, 12)},
		{"exact array", schema.Arr{Elem: f32, Len: schema.ExactRange(3)}, bounded(12, 12)},
		{"bounded array", schema.Arr{Elem: u8, Len: schema.NewRange(1, 4)}, bounded(3, 6)},
		{"open array", schema.Arr{Elem: u8, Len: schema.AtLeast(2)}, unbounded(4)},
		{"array of strings", schema.Arr{Elem: schema.Str{}, Len: schema.ExactRange(2)}, unbounded(4)},
		{"map", schema.Map{Key: schema.Str{}, Val: u8}, unbounded(2)},
		{"optional", schema.Opt{Inner: f32}, bounded(1, 5)},
		{"optional map", schema.Opt{Inner: schema.Map{Key: u8, Val: u8}}, unbounded(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Of(cfg, tt.ty))
		})
	}
}

func TestStructsAndEnums(t *testing.T) {
	point := &schema.Struct{Fields: []schema.Field{
		{Name: "x", Type: schema.Num{Kind: schema.F32}},
		{Name: "y", Type: schema.Num{Kind: schema.F32}},
	}}
	cfg := schema.NewConfig([]*schema.TypeDecl{{Name: "Point", Type: point}}, nil, schema.DefaultOptions())

	assert.Equal(t, bounded(8, 8), Of(cfg, schema.Ref{Name: "Point"}))

	pair := &schema.Struct{Fields: []schema.Field{
		{Name: "a", Type: schema.Ref{Name: "Point"}},
		{Name: "b", Type: schema.Ref{Name: "Point"}},
	}}
	assert.Equal(t, bounded(16, 16), Of(cfg, pair), "sibling references are measured independently")

	names := make([]string, 300)
	assert.Equal(t, bounded(1, 1), Of(cfg, schema.UnitEnum{Variants: names[:3]}))
	assert.Equal(t, bounded(2, 2), Of(cfg, schema.UnitEnum{Variants: names}))
}

func TestTaggedEnumSumsCases(t *testing.T) {
	cfg := schema.NewConfig(nil, nil, schema.DefaultOptions())

	tagged := &schema.TaggedEnum{
		Tag: "kind",
		Variants: []schema.Variant{
			{Name: "Small", Struct: &schema.Struct{Fields: []schema.Field{{Name: "v", Type: schema.Num{Kind: schema.U8}}}}},
			{Name: "Large", Struct: &schema.Struct{Fields: []schema.Field{{Name: "v", Type: schema.Num{Kind: schema.F64}}}}},
		},
	}

	// one discriminant byte, cheapest case 1, all cases 1 + 8
	assert.Equal(t, bounded(2, 10), Of(cfg, tagged))

	tagged.CatchAll = &schema.Struct{}
	assert.Equal(t, unbounded(2), Of(cfg, tagged), "the catch-all tag is an unbounded string")
}

func TestRecursiveReferences(t *testing.T) {
	node := &schema.Struct{Fields: []schema.Field{
		{Name: "value", Type: schema.Num{Kind: schema.U8}},
		{Name: "children", Type: schema.Arr{Elem: schema.Ref{Name: "Node"}, Len: schema.AtMost(4)}},
	}}
	cfg := schema.NewConfig([]*schema.TypeDecl{{Name: "Node", Type: node}}, nil, schema.DefaultOptions())

	assert.Equal(t, unbounded(3), Of(cfg, schema.Ref{Name: "Node"}))

	min := Min(cfg, schema.Ref{Name: "Node"})
	_, hasMax := Max(cfg, schema.Ref{Name: "Node"})
	assert.Equal(t, 3, min)
	assert.False(t, hasMax)
}

func TestUnresolvedReference(t *testing.T) {
	cfg := schema.NewConfig(nil, nil, schema.DefaultOptions())
	assert.Equal(t, unbounded(0), Of(cfg, schema.Ref{Name: "Missing"}))
}

func TestSaturation(t *testing.T) {
	cfg := schema.NewConfig(nil, nil, schema.DefaultOptions())

	nest := func(elem schema.Type, levels int, r schema.Range) schema.Type {
		for i := 0; i < levels; i++ {
			elem = schema.Arr{Elem: elem, Len: r}
		}
		return elem
	}

	t.Run("exact arrays", func(t *testing.T) {
		b := Of(cfg, nest(schema.Num{Kind: schema.U8}, 4, schema.ExactRange(65535)))
		assert.Equal(t, math.MaxInt, b.Min)
		assert.False(t, b.HasMax)
	})

	t.Run("bounded arrays", func(t *testing.T) {
		b := Of(cfg, nest(schema.Num{Kind: schema.F64}, 5, schema.NewRange(65535, 65536)))
		assert.Equal(t, math.MaxInt, b.Min)
		assert.False(t, b.HasMax)
	})

	t.Run("struct of huge fields", func(t *testing.T) {
		huge := nest(schema.Num{Kind: schema.U8}, 4, schema.ExactRange(65535))
		st := &schema.Struct{Fields: []schema.Field{{Name: "a", Type: huge}, {Name: "b", Type: huge}}}
		b := Of(cfg, schema.Opt{Inner: st})
		assert.Equal(t, unbounded(1), b)
	})

	t.Run("maximum only", func(t *testing.T) {
		b := Of(cfg, nest(schema.Num{Kind: schema.U8}, 4, schema.AtMost(65535)))
		assert.Equal(t, unbounded(2), b)
	})
}

func TestSaturatingArithmetic(t *testing.T) {
	assert.Equal(t, 5, Add(2, 3))
	assert.Equal(t, math.MaxInt, Add(math.MaxInt, 1))
	assert.Equal(t, math.MaxInt, Add(math.MaxInt-1, math.MaxInt-1))
	assert.Equal(t, 6, Mul(2, 3))
	assert.Equal(t, 0, Mul(0, math.MaxInt))
	assert.Equal(t, math.MaxInt, Mul(math.MaxInt/2+1, 2))
}

func TestBoundsString(t *testing.T) {
	assert.Equal(t, "8", bounded(8, 8).String())
	assert.Equal(t, "2..52", bounded(2, 52).String())
	assert.Equal(t, "2..", unbounded(2).String())
}
