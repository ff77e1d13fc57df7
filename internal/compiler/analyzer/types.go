package analyzer

import (
	"math"
	"sort"

	"github.com/wirec-lang/wirec/internal/compiler/ast"
	"github.com/wirec-lang/wirec/internal/compiler/errors"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
	utilstrings "github.com/wirec-lang/wirec/internal/util/strings"
)

// lengthDomain names the values a length prefix can carry
const lengthDomain = "a length"

// lowerType converts a syntax type into a semantic type
func (a *Analyzer) lowerType(node ast.TypeNode) schema.Type {
	switch t := node.(type) {
	case *ast.NumType:
		kind, _ := schema.ParseNumKind(t.Kind.Name)
		return schema.Num{Kind: kind, Range: a.numRange(t.Range, kind)}

	case *ast.StrType:
		return schema.Str{Len: a.lengthRange(t.Range)}

	case *ast.BufType:
		return schema.Buf{Len: a.lengthRange(t.Range)}

	case *ast.ArrType:
		return schema.Arr{Elem: a.lowerType(t.Elem), Len: a.lengthRange(t.Range)}

	case *ast.MapType:
		key := a.lowerType(t.Key)
		val := a.lowerType(t.Val)
		if _, ok := key.(schema.Opt); ok {
			a.report(errors.NewInvalidOptional(t.Key.Span(), "map keys cannot be optional"))
		}
		if _, ok := val.(schema.Opt); ok {
			a.report(errors.NewInvalidOptional(t.Val.Span(), "map values cannot be optional"))
		}
		a.deferAliasCheck(t.Key.Span(), key, asMapKey)
		a.deferAliasCheck(t.Val.Span(), val, asMapValue)
		return schema.Map{Key: key, Val: val}

	case *ast.OptType:
		inner := a.lowerType(t.Inner)
		switch in := inner.(type) {
		case schema.Opt:
			a.report(errors.NewInvalidOptional(t.Loc, "an optional type cannot be optional again"))
			return in
		case schema.Platform:
			if in.Kind == schema.Unknown {
				a.report(errors.NewInvalidOptional(t.Loc, "unknown already includes nil"))
				return in
			}
		case schema.Ref:
			a.deferAliasCheck(t.Loc, in, inOptional)
		}
		return schema.Opt{Inner: inner}

	case *ast.RefType:
		return a.lowerRef(t)

	case *ast.StructType:
		return a.lowerStruct(t)

	case *ast.EnumType:
		return a.lowerEnum(t)

	case *ast.TaggedEnumType:
		return a.lowerTaggedEnum(t)
	}

	// The parser never produces other nodes; treat anything else as empty.
	return &schema.Struct{}
}

func (a *Analyzer) lowerRef(t *ast.RefType) schema.Type {
	name := t.Name.Name

	if t.Arg != nil && name != "Instance" {
		a.report(errors.NewInvalidTypeArgument(t.Arg.Loc, name))
	}

	if builtin, ok := schema.Builtins[name]; ok {
		if p, ok := builtin.(schema.Platform); ok && p.Kind == schema.Instance && t.Arg != nil {
			p.Class = t.Arg.Name
			return p
		}
		return builtin
	}

	if _, ok := a.declared[name]; !ok {
		a.report(errors.NewUnresolvedType(t.Name.Loc, name, a.suggestTypes(name)))
	}
	return schema.Ref{Name: name, Span: t.Name.Loc}
}

// suggestTypes finds declared and built-in names close to name
func (a *Analyzer) suggestTypes(name string) []string {
	candidates := make([]string, 0, len(a.names)+len(schema.Builtins)+2)
	candidates = append(candidates, a.names...)
	builtins := make([]string, 0, len(schema.Builtins))
	for b := range schema.Builtins {
		builtins = append(builtins, b)
	}
	sort.Strings(builtins)
	candidates = append(candidates, builtins...)
	candidates = append(candidates, "string", "buffer")
	return utilstrings.Similar(name, candidates, 1)
}

func (a *Analyzer) lowerStruct(t *ast.StructType) *schema.Struct {
	st := &schema.Struct{Fields: make([]schema.Field, 0, len(t.Fields))}
	seen := make(map[string]ast.Span, len(t.Fields))

	for _, f := range t.Fields {
		ty := a.lowerType(f.Type)
		if first, ok := seen[f.Name.Name]; ok {
			a.report(errors.NewDuplicateField(f.Name.Loc, first, f.Name.Name))
			continue
		}
		seen[f.Name.Name] = f.Name.Loc
		st.Fields = append(st.Fields, schema.Field{Name: f.Name.Name, Type: ty})
	}

	return st
}

func (a *Analyzer) lowerEnum(t *ast.EnumType) schema.Type {
	if len(t.Variants) == 0 {
		a.report(errors.NewEmptyEnum(t.Loc))
	}

	enum := schema.UnitEnum{Variants: make([]string, 0, len(t.Variants))}
	seen := make(map[string]ast.Span, len(t.Variants))
	for _, v := range t.Variants {
		if first, ok := seen[v.Name]; ok {
			a.report(errors.NewDuplicateVariant(v.Loc, first, v.Name))
			continue
		}
		seen[v.Name] = v.Loc
		enum.Variants = append(enum.Variants, v.Name)
	}
	return enum
}

func (a *Analyzer) lowerTaggedEnum(t *ast.TaggedEnumType) schema.Type {
	if len(t.Cases) == 0 && t.CatchAll == nil {
		a.report(errors.NewEmptyEnum(t.Loc))
	}

	enum := &schema.TaggedEnum{Tag: t.Tag.Name, Variants: make([]schema.Variant, 0, len(t.Cases))}
	seen := make(map[string]ast.Span, len(t.Cases))

	for _, c := range t.Cases {
		a.checkTagCollision(t.Tag, c.Body)
		body := a.lowerStruct(c.Body)
		if first, ok := seen[c.Name.Name]; ok {
			a.report(errors.NewDuplicateVariant(c.Name.Loc, first, c.Name.Name))
			continue
		}
		seen[c.Name.Name] = c.Name.Loc
		enum.Variants = append(enum.Variants, schema.Variant{Name: c.Name.Name, Struct: body})
	}

	if t.CatchAll != nil {
		a.checkTagCollision(t.Tag, t.CatchAll)
		enum.CatchAll = a.lowerStruct(t.CatchAll)
	}

	return enum
}

// checkTagCollision reports every field of body named like the tag
func (a *Analyzer) checkTagCollision(tag ast.Ident, body *ast.StructType) {
	if body == nil {
		return
	}
	for _, f := range body.Fields {
		if f.Name.Name == tag.Name {
			a.report(errors.NewTagUsedAsField(f.Name.Loc, tag.Loc, tag.Name))
		}
	}
}

// numRange validates a value range against the domain of kind
func (a *Analyzer) numRange(r *ast.RangeNode, kind schema.NumKind) schema.Range {
	if r == nil {
		return schema.Range{}
	}
	lo, hi := kind.Domain()
	return a.checkRange(r, kind.String(), lo, hi, kind.Integral())
}

// lengthRange validates a string, buffer, or array length against the
// values a length prefix can carry.
func (a *Analyzer) lengthRange(r *ast.RangeNode) schema.Range {
	if r == nil {
		return schema.Range{}
	}
	lo, hi := schema.LengthKind.Domain()
	return a.checkRange(r, lengthDomain, lo, hi, true)
}

func (a *Analyzer) checkRange(r *ast.RangeNode, what string, lo, hi float64, integral bool) schema.Range {
	out := schema.Range{}
	valid := true

	check := func(lit *ast.NumLit) *float64 {
		if lit == nil {
			return nil
		}
		v := lit.Value
		switch {
		case v < lo || v > hi:
			a.report(errors.NewRangeOutOfDomain(lit.Loc, v, what, lo, hi))
			valid = false
		case integral && v != math.Trunc(v):
			a.report(errors.NewNonIntegralBound(lit.Loc, v, what))
			valid = false
		}
		return &v
	}

	out.Min = check(r.Min)
	if r.Max == r.Min {
		out.Max = out.Min
	} else {
		out.Max = check(r.Max)
	}

	if out.Min != nil && out.Max != nil && *out.Min > *out.Max {
		a.report(errors.NewInvalidRange(r.Loc, *out.Min, *out.Max))
		valid = false
	}

	if !valid {
		return schema.Range{}
	}
	return out
}
