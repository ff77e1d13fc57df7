package docs

import (
	"encoding/base64"
	"strings"

	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// ExampleGenerator builds example values that pass every check the
// generated serializers make. Values use the JSON form of `wirec encode`.
type ExampleGenerator struct {
	cfg *schema.Config

	// expanding holds the type names currently being generated; a
	// reference back into one of them is filled with the smallest value
	// that ends the recursion
	expanding map[string]bool
}

// NewExampleGenerator creates a new example generator
func NewExampleGenerator(cfg *schema.Config) *ExampleGenerator {
	return &ExampleGenerator{
		cfg:       cfg,
		expanding: make(map[string]bool),
	}
}

// GenerateForType generates an example value for a given type
func (g *ExampleGenerator) GenerateForType(t schema.Type) any {
	return g.generate(t, false)
}

// GenerateForDecl generates an example value for a declared type
func (g *ExampleGenerator) GenerateForDecl(td *schema.TypeDecl) any {
	return g.generate(schema.Ref{Name: td.Name}, false)
}

func (g *ExampleGenerator) generate(t schema.Type, minimal bool) any {
	switch t := t.(type) {
	case schema.Bool:
		return true

	case schema.Num:
		return numberExample(t.Range)

	case schema.Str:
		return strings.Repeat("a", lengthExample(t.Len, 4))

	case schema.Buf:
		return map[string]any{"$buffer": base64.StdEncoding.EncodeToString(make([]byte, lengthExample(t.Len, 2)))}

	case schema.Arr:
		want := 1
		if minimal {
			want = 0
		}
		items := make([]any, lengthExample(t.Len, want))
		for i := range items {
			items[i] = g.generate(t.Elem, minimal)
		}
		return items

	case schema.Map:
		if _, ok := t.Key.(schema.Str); !ok || minimal {
			return map[string]any{}
		}
		return map[string]any{"key": g.generate(t.Val, minimal)}

	case schema.Opt:
		if minimal {
			return nil
		}
		return g.generate(t.Inner, false)

	case schema.Ref:
		td, ok := g.cfg.Type(t.Name)
		if !ok {
			return nil
		}
		if g.expanding[t.Name] {
			return g.generate(td.Type, true)
		}
		g.expanding[t.Name] = true
		defer delete(g.expanding, t.Name)
		return g.generate(td.Type, minimal)

	case *schema.Struct:
		return g.fields(t, nil, minimal)

	case schema.UnitEnum:
		if len(t.Variants) == 0 {
			return nil
		}
		return t.Variants[0]

	case *schema.TaggedEnum:
		if len(t.Variants) == 0 {
			if t.CatchAll != nil {
				return g.fields(t.CatchAll, map[string]any{t.Tag: "Other"}, minimal)
			}
			return nil
		}
		v := t.Variants[0]
		return g.fields(v.Struct, map[string]any{t.Tag: v.Name}, minimal)

	case schema.Platform:
		return platformExample(t)
	}
	return nil
}

func (g *ExampleGenerator) fields(st *schema.Struct, into map[string]any, minimal bool) map[string]any {
	if into == nil {
		into = make(map[string]any, len(st.Fields))
	}
	for _, f := range st.Fields {
		into[f.Name] = g.generate(f.Type, minimal)
	}
	return into
}

// numberExample picks 0 when the range allows it, otherwise the nearest
// bound
func numberExample(r schema.Range) float64 {
	v := 0.0
	if r.Min != nil && *r.Min > v {
		v = *r.Min
	}
	if r.Max != nil && *r.Max < v {
		v = *r.Max
	}
	return v
}

// lengthExample clamps want into the length range
func lengthExample(r schema.Range, want int) int {
	if n, ok := r.Len(); ok {
		return n
	}
	if r.Min != nil && float64(want) < *r.Min {
		want = int(*r.Min)
	}
	if r.Max != nil && float64(want) > *r.Max {
		want = int(*r.Max)
	}
	return want
}

func platformExample(t schema.Platform) any {
	switch t.Kind {
	case schema.Instance:
		class := t.Class
		if class == "" {
			class = "Part"
		}
		return map[string]any{"$instance": class}
	case schema.Vector3:
		return map[string]any{"$vector3": []any{0.0, 1.0, 0.0}}
	case schema.Color3:
		return map[string]any{"$color3": []any{1.0, 1.0, 1.0}}
	case schema.CFrame, schema.AlignedCFrame:
		return map[string]any{"$cframe": []any{0.0, 0.0, 0.0, 0.0, 0.0, 0.0}}
	default:
		return "any"
	}
}
