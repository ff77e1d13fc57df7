package analyzer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wirec-lang/wirec/internal/compiler/errors"
	"github.com/wirec-lang/wirec/internal/compiler/parser"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
	"github.com/wirec-lang/wirec/internal/compiler/size"
)

// analyze parses and analyzes source, failing the test on syntax errors
func analyze(t *testing.T, source string, opts Options) (*schema.Config, errors.ErrorList) {
	t.Helper()

	file, src, diags := parser.ParseSource("test.wire", source)
	require.Empty(t, diags, "unexpected syntax errors: %v", diags)

	cfg, diags := Analyze(file, opts)
	require.NotNil(t, cfg)
	return cfg, diags.Locate(src)
}

// withEvent appends an event so that the no-events warning stays out of
// the way.
func withEvent(source string) string {
	return source + "\nevent Ping = { from: Client, type: Reliable, call: ManyAsync }\n"
}

func TestEndToEndPoint(t *testing.T) {
	source := `
type Point = struct { x: f32, y: f32 }
event Move = { from: Client, type: Unreliable, call: SingleSync, data: Point }
`
	cfg, diags := analyze(t, source, Options{})
	require.Empty(t, diags)

	require.Len(t, cfg.TypeDecls, 1)
	point, ok := cfg.Type("Point")
	require.True(t, ok)
	assert.Equal(t, 8, size.Min(cfg, point.Type))
	max, bounded := size.Max(cfg, point.Type)
	assert.True(t, bounded)
	assert.Equal(t, 8, max)

	assert.Equal(t, schema.U8, cfg.EventIDKind())
	assert.Equal(t, 1, cfg.EventIDKind().Size())

	move, ok := cfg.Event("Move")
	require.True(t, ok)
	assert.Equal(t, 1, move.ID)
	assert.Equal(t, schema.Client, move.From)
	assert.Equal(t, schema.Unreliable, move.Transport)
	assert.Equal(t, schema.SingleSync, move.Call)
	assert.Equal(t, "Point", move.Data.(schema.Ref).Name)
}

func TestEventIDs(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 300; i++ {
		fmt.Fprintf(&b, "event E%d = { from: Server, type: Reliable, call: ManySync }\n", i)
	}

	cfg, diags := analyze(t, b.String(), Options{})
	require.Empty(t, diags)
	require.Len(t, cfg.EventDecls, 300)
	assert.Equal(t, 1, cfg.EventDecls[0].ID)
	assert.Equal(t, 300, cfg.EventDecls[299].ID)
	assert.Equal(t, schema.U16, cfg.EventIDKind())
}

func TestDuplicateType(t *testing.T) {
	source := withEvent("type Foo = u8\ntype Foo = u16")
	cfg, diags := analyze(t, source, Options{})

	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, errors.ErrDuplicateType, d.Code)
	assert.Equal(t, 2, d.Location.Line)
	require.Len(t, d.Related, 1)
	assert.Equal(t, 1, d.Related[0].Location.Line)

	require.Len(t, cfg.TypeDecls, 1)
	assert.Equal(t, schema.U8, cfg.TypeDecls[0].Type.(schema.Num).Kind, "the first declaration wins")
}

func TestDuplicateField(t *testing.T) {
	_, diags := analyze(t, withEvent("type A = struct { x: u8, x: u16 }"), Options{})

	require.Len(t, diags, 1)
	assert.Equal(t, errors.ErrDuplicateField, diags[0].Code)
	assert.Len(t, diags[0].Related, 1)
}

func TestDuplicateEvent(t *testing.T) {
	source := `
event A = { from: Server, type: Reliable, call: ManyAsync }
event B = { from: Server, type: Reliable, call: ManyAsync }
event A = { from: Client, type: Reliable, call: ManyAsync }
`
	cfg, diags := analyze(t, source, Options{})

	require.Len(t, diags, 1)
	assert.Equal(t, errors.ErrDuplicateEvent, diags[0].Code)
	require.Len(t, cfg.EventDecls, 2)
	assert.Equal(t, "B", cfg.EventDecls[1].Name)
	assert.Equal(t, 2, cfg.EventDecls[1].ID)
}

func TestDuplicateVariants(t *testing.T) {
	source := withEvent(`
type A = enum { X, Y, X }
type B = enum "t" { P { }, P { } }`)
	_, diags := analyze(t, source, Options{})

	assert.Len(t, diags.WithCode(errors.ErrDuplicateVariant), 2)
	assert.Len(t, diags, 2)
}

func TestTagCollision(t *testing.T) {
	source := withEvent(`type Shape = enum "kind" {
	Circle { kind: u8, radius: f32 },
	Square { side: f32 },
}`)
	_, diags := analyze(t, source, Options{})

	require.Len(t, diags, 1)
	assert.Equal(t, errors.ErrTagUsedAsField, diags[0].Code)
	assert.Equal(t, 2, diags[0].Location.Line)
}

func TestTagCollisionInCatchAll(t *testing.T) {
	source := withEvent(`type Shape = enum "kind" { A { }, ... { kind: string } }`)
	_, diags := analyze(t, source, Options{})

	assert.Len(t, diags.WithCode(errors.ErrTagUsedAsField), 1)
}

func TestRecursion(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		rejected []string
	}{
		{"direct", "type A = struct { next: A }", []string{"A"}},
		{"array may be empty", "type A = struct { children: A[0..] }", nil},
		{"unbounded array", "type A = struct { children: A[] }", nil},
		{"array must be non-empty", "type A = struct { children: A[1..] }", []string{"A"}},
		{"optional", "type A = struct { next: A? }", nil},
		{"map", "type A = struct { kids: map { [string]: A } }", nil},
		{"mutual", "type A = struct { b: B }\ntype B = struct { a: A }", []string{"A", "B"}},
		{"mutual broken", "type A = struct { b: B }\ntype B = struct { a: A? }", nil},
		{"tagged with a base case", `type E = enum "t" { Leaf { }, Node { l: E, r: E } }`, nil},
		{"tagged without a base case", `type E = enum "t" { Node { next: E } }`, []string{"E"}},
		{"catch-all base case", `type E = enum "t" { Node { next: E }, ... { } }`, nil},
		{"depends on a cycle", "type A = struct { a: A }\ntype B = struct { a: A }", []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := analyze(t, withEvent(tt.source), Options{})

			rec := diags.WithCode(errors.ErrUnboundedRecursion)
			assert.Len(t, diags, len(rec), "only recursion diagnostics expected")

			var names []string
			for _, d := range rec {
				names = append(names, strings.Split(d.Message, "'")[1])
			}
			assert.Equal(t, tt.rejected, names)
		})
	}
}

func TestRecursionSpans(t *testing.T) {
	source := "type A = struct { next: A }"
	_, diags := analyze(t, withEvent(source), Options{})

	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, 0, d.Span.Start)
	assert.Equal(t, len(source), d.Span.End)
	require.Len(t, d.Related, 1)
	assert.Equal(t, strings.LastIndex(source, "A"), d.Related[0].Span.Start)
}

func TestUnreliableSize(t *testing.T) {
	event := func(data string) string {
		return "event E = { from: Server, type: Unreliable, call: ManyAsync, data: " + data + " }"
	}

	t.Run("fits", func(t *testing.T) {
		_, diags := analyze(t, event("u8[999]"), Options{})
		assert.Empty(t, diags)
	})

	t.Run("minimum over budget", func(t *testing.T) {
		_, diags := analyze(t, event("u8[1000]"), Options{})
		require.Len(t, diags, 1)
		assert.Equal(t, errors.ErrOversizeUnreliable, diags[0].Code)
		assert.True(t, diags[0].IsError())
		assert.Contains(t, diags[0].Message, "1001")
	})

	t.Run("unbounded string", func(t *testing.T) {
		_, diags := analyze(t, event("string"), Options{})
		require.Len(t, diags, 1)
		assert.Equal(t, errors.WarnPotentiallyOversize, diags[0].Code)
		assert.False(t, diags[0].IsError())
	})

	t.Run("maximum over budget", func(t *testing.T) {
		_, diags := analyze(t, event("string(..2000)"), Options{})
		require.Len(t, diags, 1)
		assert.Equal(t, errors.WarnPotentiallyOversize, diags[0].Code)
		assert.Contains(t, diags[0].Message, "2003")
	})

	t.Run("reliable is not checked", func(t *testing.T) {
		_, diags := analyze(t, "event E = { from: Server, type: Reliable, call: ManyAsync, data: u8[5000] }", Options{})
		assert.Empty(t, diags)
	})

	t.Run("nested arrays do not wrap", func(t *testing.T) {
		for _, data := range []string{
			"u8[65535][65535][65535][65535]",
			"f64[65535][65535][65535][65535][65535]",
			"struct { a: u8[65535][65535][65535][65535], b: u8[65535][65535][65535][65535] }",
		} {
			_, diags := analyze(t, event(data), Options{})
			require.Len(t, diags, 1, data)
			assert.Equal(t, errors.ErrOversizeUnreliable, diags[0].Code, data)
			assert.True(t, diags.HasErrors(), data)
		}
	})

	t.Run("nested open arrays warn", func(t *testing.T) {
		_, diags := analyze(t, event("u8[..65535][..65535][..65535][..65535]"), Options{})
		require.Len(t, diags, 1)
		assert.Equal(t, errors.WarnPotentiallyOversize, diags[0].Code)
	})

	t.Run("custom budget", func(t *testing.T) {
		_, diags := analyze(t, event("struct { x: f32, y: f32 }"), Options{MaxUnreliableSize: 8})
		require.Len(t, diags, 1)
		assert.Equal(t, errors.ErrOversizeUnreliable, diags[0].Code)
	})
}

func TestRanges(t *testing.T) {
	tests := []struct {
		ty   string
		code errors.ErrorCode
	}{
		{"u8(0..255)", ""},
		{"f32(-1.5..2.5)", ""},
		{"i8(-128..127)", ""},
		{"u8(0..300)", errors.ErrRangeOutOfDomain},
		{"i8(-129..0)", errors.ErrRangeOutOfDomain},
		{"u8(-1..3)", errors.ErrRangeOutOfDomain},
		{"u8(10..1)", errors.ErrInvalidRange},
		{"u16(1.5..2)", errors.ErrNonIntegralBound},
		{"string(..65535)", ""},
		{"string(..70000)", errors.ErrRangeOutOfDomain},
		{"buffer(2.5)", errors.ErrNonIntegralBound},
		{"u8[5..2]", errors.ErrInvalidRange},
		{"u8[-1..]", errors.ErrRangeOutOfDomain},
	}

	for _, tt := range tests {
		t.Run(tt.ty, func(t *testing.T) {
			_, diags := analyze(t, withEvent("type A = "+tt.ty), Options{})
			if tt.code == "" {
				assert.Empty(t, diags)
				return
			}
			require.Len(t, diags, 1)
			assert.Equal(t, tt.code, diags[0].Code)
		})
	}
}

func TestRangeIsLowered(t *testing.T) {
	cfg, diags := analyze(t, withEvent("type A = u8(2..10)\ntype B = string(16)"), Options{})
	require.Empty(t, diags)

	a, _ := cfg.Type("A")
	r := a.Type.(schema.Num).Range
	assert.Equal(t, 2.0, *r.Min)
	assert.Equal(t, 10.0, *r.Max)

	b, _ := cfg.Type("B")
	n, ok := b.Type.(schema.Str).Len.Len()
	assert.True(t, ok)
	assert.Equal(t, 16, n)
}

func TestUnresolvedType(t *testing.T) {
	cfg, diags := analyze(t, withEvent("type Point = struct { x: f32 }\ntype A = Pont[]"), Options{})

	require.Len(t, diags, 1)
	assert.Equal(t, errors.ErrUnresolvedType, diags[0].Code)
	assert.Equal(t, "Did you mean 'Point'?", diags[0].Suggestion)

	a, _ := cfg.Type("A")
	ref, ok := a.Type.(schema.Arr).Elem.(schema.Ref)
	require.True(t, ok, "unresolved names are kept as references")
	assert.Equal(t, "Pont", ref.Name)
}

func TestForwardReference(t *testing.T) {
	_, diags := analyze(t, withEvent("type A = B\ntype B = u8"), Options{})
	assert.Empty(t, diags)
}

func TestBuiltins(t *testing.T) {
	cfg, diags := analyze(t, withEvent(`type A = struct {
	flag: boolean,
	pos: Vector3,
	who: Instance(Player),
	any: Instance,
	blob: unknown,
}`), Options{})
	require.Empty(t, diags)

	a, _ := cfg.Type("A")
	fields := a.Type.(*schema.Struct).Fields
	assert.Equal(t, schema.Bool{}, fields[0].Type)
	assert.Equal(t, schema.Platform{Kind: schema.Vector3}, fields[1].Type)
	assert.Equal(t, schema.Platform{Kind: schema.Instance, Class: "Player"}, fields[2].Type)
	assert.Equal(t, schema.Platform{Kind: schema.Instance}, fields[3].Type)
	assert.Equal(t, schema.Platform{Kind: schema.Unknown}, fields[4].Type)
}

func TestSemanticErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   errors.ErrorCode
	}{
		{"reserved name", "type Vector3 = u8", errors.ErrReservedName},
		{"class on a non-instance", "type A = Vector3(Part)", errors.ErrInvalidTypeArgument},
		{"optional optional", "type A = u8??", errors.ErrInvalidOptional},
		{"optional unknown", "type A = unknown?", errors.ErrInvalidOptional},
		{"optional map key", "type A = map { [string?]: u8 }", errors.ErrInvalidOptional},
		{"optional map value", "type A = map { [string]: u8? }", errors.ErrInvalidOptional},
		{"aliased optional optional", "type O = u8?\ntype A = O?", errors.ErrInvalidOptional},
		{"forward aliased optional", "type A = O?\ntype O = u8?", errors.ErrInvalidOptional},
		{"alias chain to optional", "type O = u8?\ntype P = O\ntype A = P?", errors.ErrInvalidOptional},
		{"aliased unknown", "type U = unknown\ntype A = U?", errors.ErrInvalidOptional},
		{"aliased optional map key", "type O = u8?\ntype A = map { [O]: u8 }", errors.ErrInvalidOptional},
		{"aliased optional map value", "type O = u8?\ntype A = map { [u8]: O }", errors.ErrInvalidOptional},
		{"empty enum", "type A = enum { }", errors.ErrEmptyEnum},
		{"empty tagged enum", `type A = enum "t" { }`, errors.ErrEmptyEnum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := analyze(t, withEvent(tt.source), Options{})
			require.Len(t, diags, 1, "%v", diags)
			assert.Equal(t, tt.code, diags[0].Code)
		})
	}
}

func TestAliasedOptionalsAllowed(t *testing.T) {
	_, diags := analyze(t, withEvent(`
type Owner = Instance(Player)
type Point = struct { x: f32, y: f32 }
type P = Point
type A = struct { owner: Owner?, point: P?, missing: Missing? }
`), Options{})
	require.Len(t, diags, 1, "%v", diags)
	assert.Equal(t, errors.ErrUnresolvedType, diags[0].Code)
}

func TestAliasedOptionalSpan(t *testing.T) {
	source := withEvent("type O = u8?\ntype A = struct { o: O? }")
	_, diags := analyze(t, source, Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, strings.Index(source, "O?"), diags[0].Span.Start)
	assert.Contains(t, diags[0].Message, "O is already optional")
}

func TestEventFields(t *testing.T) {
	tests := []struct {
		name   string
		fields string
		codes  []errors.ErrorCode
	}{
		{"complete", "from: Server, type: Reliable, call: SingleAsync, data: u8", nil},
		{"no data", "from: Server, type: Reliable, call: SingleAsync", nil},
		{"missing call", "from: Server, type: Reliable", []errors.ErrorCode{errors.ErrMissingEventField}},
		{"missing all", "", []errors.ErrorCode{
			errors.ErrMissingEventField, errors.ErrMissingEventField, errors.ErrMissingEventField,
		}},
		{"unknown key", "from: Server, type: Reliable, call: ManySync, rate: Fast", []errors.ErrorCode{errors.ErrInvalidEventField}},
		{"bad value", "from: Sever, type: Reliable, call: ManySync", []errors.ErrorCode{errors.ErrInvalidEventField}},
		{"repeated key", "from: Server, from: Client, type: Reliable, call: ManySync", []errors.ErrorCode{errors.ErrDuplicateEventField}},
		{"type given as a type", "from: Server, type: Reliable, call: ManySync, data: Missing", []errors.ErrorCode{errors.ErrUnresolvedType}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := analyze(t, "event E = { "+tt.fields+" }", Options{})

			var codes []errors.ErrorCode
			for _, d := range diags {
				codes = append(codes, d.Code)
			}
			assert.Equal(t, tt.codes, codes)
		})
	}
}

func TestEventValues(t *testing.T) {
	cfg, diags := analyze(t, "event E = { from: Server, type: Unreliable, call: ManyAsync, data: u8 }", Options{})
	require.Empty(t, diags)

	ev := cfg.EventDecls[0]
	assert.Equal(t, schema.Server, ev.From)
	assert.Equal(t, schema.Unreliable, ev.Transport)
	assert.Equal(t, schema.ManyAsync, ev.Call)
	assert.Equal(t, schema.U8, ev.Data.(schema.Num).Kind)
}

func TestOptions(t *testing.T) {
	source := withEvent(`
opt write_checks = false
opt typescript = true
opt server_output = "out/server.luau"
opt client_output = "out/client.luau"
opt casing = camelCase
opt manual_event_loop = true
opt yield_type = "promise"
opt async_lib = "require(game.ReplicatedStorage.Promise)"
`)
	cfg, diags := analyze(t, source, Options{})
	require.Empty(t, diags)

	o := cfg.Options
	assert.False(t, o.WriteChecks)
	assert.True(t, o.Typescript)
	assert.Equal(t, "out/server.luau", o.ServerOutput)
	assert.Equal(t, "out/client.luau", o.ClientOutput)
	assert.Equal(t, schema.Camel, o.Casing)
	assert.True(t, o.ManualEventLoop)
	assert.Equal(t, schema.Promise, o.YieldType)
	assert.Equal(t, "require(game.ReplicatedStorage.Promise)", o.AsyncLib)
}

func TestOptionDefaults(t *testing.T) {
	cfg, diags := analyze(t, withEvent(""), Options{})
	require.Empty(t, diags)
	assert.Equal(t, schema.DefaultOptions(), cfg.Options)
}

func TestOptionDiagnostics(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   errors.ErrorCode
		warn   bool
	}{
		{"unknown", "opt colour = true", errors.WarnUnknownOption, true},
		{"wrong kind", "opt write_checks = 1", errors.ErrInvalidOptionValue, false},
		{"bad casing", `opt casing = "kebab"`, errors.ErrInvalidOptionValue, false},
		{"missing value", "opt typescript =", errors.ErrMissingOptionValue, false},
		{"repeated", "opt typescript = true\nopt typescript = false", errors.WarnDuplicateOption, true},
		{"future without a library", `opt yield_type = "future"`, errors.ErrInvalidOptionValue, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := analyze(t, withEvent(tt.source), Options{})
			require.Len(t, diags, 1, "%v", diags)
			assert.Equal(t, tt.code, diags[0].Code)
			assert.Equal(t, !tt.warn, diags[0].IsError())
		})
	}
}

func TestCasingAliases(t *testing.T) {
	cfg, diags := analyze(t, withEvent(`opt casing = "snake"`), Options{})
	require.Empty(t, diags)
	assert.Equal(t, schema.Snake, cfg.Options.Casing)
}

func TestRepeatedOptionLastWins(t *testing.T) {
	cfg, _ := analyze(t, withEvent("opt typescript = true\nopt typescript = false"), Options{})
	assert.False(t, cfg.Options.Typescript)
}

func TestNoEvents(t *testing.T) {
	cfg, diags := analyze(t, "type A = u8", Options{})

	require.Len(t, diags, 1)
	assert.Equal(t, errors.WarnNoEvents, diags[0].Code)
	assert.False(t, diags.HasErrors())
	assert.Len(t, cfg.TypeDecls, 1)
}

func TestDiagnosticsAreSorted(t *testing.T) {
	source := withEvent(`type B = Missing
type A = u8(9..1)
type B = u8`)
	_, diags := analyze(t, source, Options{})

	require.Len(t, diags, 3)
	for i := 1; i < len(diags); i++ {
		assert.LessOrEqual(t, diags[i-1].Span.Start, diags[i].Span.Start)
	}
}

func TestAnalyzeNilSchema(t *testing.T) {
	cfg, diags := Analyze(nil, Options{})
	require.NotNil(t, cfg)
	assert.Len(t, diags.WithCode(errors.WarnNoEvents), 1)
}
