package analyzer

import (
	"github.com/wirec-lang/wirec/internal/compiler/ast"
	"github.com/wirec-lang/wirec/internal/compiler/errors"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// optionalUse is a position where an optional type is not allowed
type optionalUse int

const (
	inOptional optionalUse = iota
	asMapKey
	asMapValue
)

// aliasCheck is a reference whose target decides whether the optional or
// map around it is valid. References may point forward, so these run once
// the type table is complete.
type aliasCheck struct {
	span ast.Span
	ref  schema.Ref
	use  optionalUse
}

func (a *Analyzer) deferAliasCheck(span ast.Span, t schema.Type, use optionalUse) {
	if ref, ok := t.(schema.Ref); ok {
		a.aliasChecks = append(a.aliasChecks, aliasCheck{span: span, ref: ref, use: use})
	}
}

// checkAliasedOptionals applies the optional rules to the types references
// resolve to.
func (a *Analyzer) checkAliasedOptionals(cfg *schema.Config) {
	for _, c := range a.aliasChecks {
		target := resolveAlias(cfg, c.ref)
		name := c.ref.Name

		switch t := target.(type) {
		case schema.Opt:
			switch c.use {
			case inOptional:
				a.report(errors.NewInvalidOptional(c.span, name+" is already optional and cannot be optional again"))
			case asMapKey:
				a.report(errors.NewInvalidOptional(c.span, "map keys cannot be optional, and "+name+" is"))
			case asMapValue:
				a.report(errors.NewInvalidOptional(c.span, "map values cannot be optional, and "+name+" is"))
			}
		case schema.Platform:
			if c.use == inOptional && t.Kind == schema.Unknown {
				a.report(errors.NewInvalidOptional(c.span, name+" is unknown, which already includes nil"))
			}
		}
	}
}

// resolveAlias follows references until it reaches a non-reference type.
// Unresolved and cyclic references resolve to themselves.
func resolveAlias(cfg *schema.Config, t schema.Type) schema.Type {
	seen := map[string]bool{}
	for {
		ref, ok := t.(schema.Ref)
		if !ok || seen[ref.Name] {
			return t
		}
		seen[ref.Name] = true
		td, ok := cfg.Type(ref.Name)
		if !ok {
			return t
		}
		t = td.Type
	}
}
