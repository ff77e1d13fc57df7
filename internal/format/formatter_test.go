package format

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wirec-lang/wirec/internal/compiler/parser"
)

func format(t *testing.T, config *Config, source string) string {
	t.Helper()
	out, err := New(config).Format("net.wire", source)
	require.NoError(t, err)
	return out
}

func TestFormat_Inline(t *testing.T) {
	source := `opt server_output="a.luau"
type   Point = struct {x:f32,y:f32}
type Hp = u8(10..100)
event Move={from:Client,type:Unreliable,call:SingleSync,data:Point}
`
	expected := `opt server_output = "a.luau"
type Point = struct { x: f32, y: f32 }
type Hp = u8(10..100)
event Move = { from: Client, type: Unreliable, call: SingleSync, data: Point }
`
	assert.Equal(t, expected, format(t, nil, source))
}

func TestFormat_MultiLine(t *testing.T) {
	source := `-- header

type Player = struct {
  name: string(..16), -- display name
  -- health points
  hp: u8,
  tags: enum { A, B }[]
}
event Spawn = {
	from: Server, type: Reliable,
	call: ManyAsync,
	data: Player,
}
`
	expected := `-- header

type Player = struct {
    name: string(..16), -- display name
    -- health points
    hp: u8,
    tags: enum { A, B }[],
}
event Spawn = {
    from: Server,
    type: Reliable,
    call: ManyAsync,
    data: Player,
}
`
	assert.Equal(t, expected, format(t, nil, source))
}

func TestFormat_Types(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name:     "tagged enum keeps case order",
			source:   `type Shape = enum "kind" { Circle { r: f32 }, ... { n: u8 } , Rect{w:u16,h:u16} }`,
			expected: `type Shape = enum "kind" { Circle { r: f32 }, ... { n: u8 }, Rect { w: u16, h: u16 } }`,
		},
		{
			name:     "map",
			source:   `type Inv = map{[string(..20)]:u16?}`,
			expected: `type Inv = map { [string(..20)]: u16? }`,
		},
		{
			name:     "exact array",
			source:   `type Slots = u8[ 3 ]`,
			expected: `type Slots = u8[3]`,
		},
		{
			name:     "open ranges",
			source:   `type A = string( 1.. )[..8]`,
			expected: `type A = string(1..)[..8]`,
		},
		{
			name:     "instance class",
			source:   `type O = Instance( Player )`,
			expected: `type O = Instance(Player)`,
		},
		{
			name:     "empty bodies",
			source:   "type E = struct {\n}",
			expected: "type E = struct {}",
		},
		{
			name:     "string with dashes",
			source:   `opt server_output = "a--b.luau"`,
			expected: `opt server_output = "a--b.luau"`,
		},
		{
			name:     "trailing comment at end of file",
			source:   "type A = u8 -- tail",
			expected: "type A = u8 -- tail",
		},
		{
			name:     "block comment",
			source:   "--[[ block\n  comment ]]\ntype A = u8",
			expected: "--[[ block\n  comment ]]\ntype A = u8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected+"\n", format(t, nil, tt.source))
		})
	}
}

func TestFormat_BlankLines(t *testing.T) {
	source := "type A = u8\n\n\n\ntype B = u8\ntype C = u8\n\n"
	assert.Equal(t, "type A = u8\n\ntype B = u8\ntype C = u8\n", format(t, nil, source))
}

func TestFormat_Empty(t *testing.T) {
	assert.Equal(t, "", format(t, nil, ""))
	assert.Equal(t, "-- nothing yet\n", format(t, nil, "-- nothing yet"))
}

func TestFormat_MaxWidth(t *testing.T) {
	config := &Config{IndentSize: 2, MaxWidth: 30}
	expected := `type Point = struct {
  x: f32,
  y: f32,
}
`
	assert.Equal(t, expected, format(t, config, "type Point = struct { x: f32, y: f32 }"))
}

func TestFormat_AlignFields(t *testing.T) {
	config := &Config{AlignFields: true}
	source := "type P = struct {\nid: u8,\nposition: Vector3\n}"
	expected := `type P = struct {
    id:       u8,
    position: Vector3,
}
`
	assert.Equal(t, expected, format(t, config, source))
}

func TestFormat_NestedBreak(t *testing.T) {
	source := `type Shape = enum "kind" {
	Circle { r: f32 },
	Rect {
		w: u16,
		h: u16
	}
}`
	expected := `type Shape = enum "kind" {
    Circle { r: f32 },
    Rect {
        w: u16,
        h: u16,
    },
}
`
	assert.Equal(t, expected, format(t, nil, source))
}

func TestFormat_Errors(t *testing.T) {
	t.Run("syntax error", func(t *testing.T) {
		source := "type = u8\n"
		out, err := New(nil).Format("bad.wire", source)
		require.Error(t, err)
		assert.Equal(t, source, out)
	})

	t.Run("comment inside a type", func(t *testing.T) {
		source := "type M = map { [u8]: -- value\n u16 }\n"
		out, err := New(nil).Format("net.wire", source)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "net.wire:1:22: cannot keep this comment in place")
		assert.Equal(t, source, out)
	})
}

func TestFormat_Idempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	fieldType := gen.OneConstOf("u8", "f32", "string(..16)", "boolean", "u16[4]", "Vector3?", "map { [u8]: i32 }")
	field := gopter.CombineGens(gen.Identifier(), fieldType).Map(func(v []interface{}) string {
		return "f_" + v[0].(string) + ": " + v[1].(string)
	})

	properties.Property("formatting is stable and keeps the schema valid", prop.ForAll(
		func(fields []string, broken bool, width int) bool {
			sep := ", "
			if broken {
				sep = ",\n"
			}
			source := "type T = struct {" + strings.Join(fields, sep) + "}\n"

			config := &Config{MaxWidth: width}
			once, err := New(config).Format("t.wire", source)
			if err != nil {
				return false
			}
			twice, err := New(config).Format("t.wire", once)
			if err != nil || once != twice {
				return false
			}
			_, _, diags := parser.ParseSource("t.wire", once)
			return !diags.HasErrors()
		},
		gen.SliceOfN(5, field),
		gen.Bool(),
		gen.IntRange(20, 120),
	))

	properties.TestingRun(t)
}

func TestDiff(t *testing.T) {
	d := Diff("net.wire", "type A = u8\ntype  B = u8\n", "type A = u8\ntype B = u8\n")
	require.True(t, d.Changed)

	unified := d.UnifiedDiff()
	assert.Contains(t, unified, "--- a/net.wire")
	assert.Contains(t, unified, "+++ b/net.wire")
	assert.Contains(t, unified, "-type  B = u8")
	assert.Contains(t, unified, "+type B = u8")
	assert.Equal(t, unified, d.Colorize(true))
	assert.Contains(t, d.Colorize(false), "\x1b[")
	assert.Equal(t, "1 lines changed, 0 added, 0 removed", d.Stats())

	same := Diff("net.wire", "x\n", "x\n")
	assert.False(t, same.Changed)
	assert.Empty(t, same.UnifiedDiff())
	assert.Equal(t, "No changes", same.Stats())
}
