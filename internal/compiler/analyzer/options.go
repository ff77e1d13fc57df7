package analyzer

import (
	"github.com/wirec-lang/wirec/internal/compiler/ast"
	"github.com/wirec-lang/wirec/internal/compiler/errors"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// KnownOptions lists every option name a schema may set
var KnownOptions = []string{
	"write_checks",
	"typescript",
	"server_output",
	"client_output",
	"casing",
	"manual_event_loop",
	"yield_type",
	"async_lib",
}

var casingAliases = map[string]schema.Casing{
	"pascal": schema.Pascal,
	"camel":  schema.Camel,
	"snake":  schema.Snake,
}

// lowerOptions applies `opt` declarations over the defaults. When an option
// is repeated the last value wins.
func (a *Analyzer) lowerOptions(opts []*ast.OptDecl) schema.Options {
	out := schema.DefaultOptions()
	seen := make(map[string]ast.Span, len(opts))
	var yieldSpan *ast.Span

	for _, opt := range opts {
		name := opt.Name.Name

		if !isKnownOption(name) {
			a.report(errors.NewUnknownOption(opt.Name.Loc, name, KnownOptions))
			continue
		}
		if first, ok := seen[name]; ok {
			a.report(errors.NewDuplicateOption(opt.Name.Loc, first, name))
		}
		seen[name] = opt.Name.Loc

		if opt.Value == nil {
			a.report(errors.NewMissingOptionValue(opt.Loc, name))
			continue
		}
		v := opt.Value

		switch name {
		case "write_checks":
			a.boolOption(opt, &out.WriteChecks)
		case "typescript":
			a.boolOption(opt, &out.Typescript)
		case "manual_event_loop":
			a.boolOption(opt, &out.ManualEventLoop)
		case "server_output":
			a.stringOption(opt, &out.ServerOutput)
		case "client_output":
			a.stringOption(opt, &out.ClientOutput)
		case "async_lib":
			a.stringOption(opt, &out.AsyncLib)

		case "casing":
			if !isText(v) {
				a.report(errors.NewInvalidOptionValue(v.Loc, name, "PascalCase, camelCase, or snake_case"))
				continue
			}
			c, ok := schema.ParseCasing(v.Str)
			if !ok {
				c, ok = casingAliases[v.Str]
			}
			if !ok {
				a.report(errors.NewInvalidOptionValue(v.Loc, name, "PascalCase, camelCase, or snake_case"))
				continue
			}
			out.Casing = c

		case "yield_type":
			y, ok := schema.YieldType(0), false
			if isText(v) {
				y, ok = schema.ParseYieldType(v.Str)
			}
			if !ok {
				a.report(errors.NewInvalidOptionValue(v.Loc, name, "yield, future, or promise"))
				continue
			}
			out.YieldType = y
			span := v.Loc
			yieldSpan = &span
		}
	}

	if out.YieldType != schema.Yield && out.AsyncLib == "" && yieldSpan != nil {
		a.report(errors.NewInvalidOptionValue(*yieldSpan, "yield_type",
			"yield, unless async_lib names the library to require"))
		out.YieldType = schema.Yield
	}

	return out
}

func isKnownOption(name string) bool {
	for _, k := range KnownOptions {
		if k == name {
			return true
		}
	}
	return false
}

// isText reports whether v is a string or a bare word
func isText(v *ast.OptValue) bool {
	return v.Kind == ast.OptString || v.Kind == ast.OptWord
}

func (a *Analyzer) boolOption(opt *ast.OptDecl, dst *bool) {
	if opt.Value.Kind != ast.OptBool {
		a.report(errors.NewInvalidOptionValue(opt.Value.Loc, opt.Name.Name, "true or false"))
		return
	}
	*dst = opt.Value.Bool
}

func (a *Analyzer) stringOption(opt *ast.OptDecl, dst *string) {
	if opt.Value.Kind != ast.OptString {
		a.report(errors.NewInvalidOptionValue(opt.Value.Loc, opt.Name.Name, "a string"))
		return
	}
	*dst = opt.Value.Str
}
