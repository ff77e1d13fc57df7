// Package analyzer lowers a parsed schema into a validated schema.Config.
//
// Every check runs even after earlier ones fail, so a single pass reports
// as much as possible. Malformed constructs are replaced by placeholders
// (an unresolved reference stays a schema.Ref) and the returned Config is
// always usable by the size estimator, though only an error-free Config
// should reach the code generators.
package analyzer

import (
	"github.com/wirec-lang/wirec/internal/compiler/ast"
	"github.com/wirec-lang/wirec/internal/compiler/errors"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// DefaultMaxUnreliableSize is the datagram budget, in bytes, that an
// unreliable event including its id must fit in.
const DefaultMaxUnreliableSize = 1000

// Options tune the analysis
type Options struct {
	// MaxUnreliableSize overrides DefaultMaxUnreliableSize when positive
	MaxUnreliableSize int
}

func (o Options) budget() int {
	if o.MaxUnreliableSize > 0 {
		return o.MaxUnreliableSize
	}
	return DefaultMaxUnreliableSize
}

// Analyzer holds the state of one analysis
type Analyzer struct {
	opts  Options
	diags errors.ErrorList

	// declared maps every user type name to its first declaration
	declared map[string]*ast.TypeDecl
	names    []string

	// eventNodes parallels the events of the config being built
	eventNodes []*ast.EventDecl

	aliasChecks []aliasCheck
}

// New creates an analyzer
func New(opts Options) *Analyzer {
	return &Analyzer{
		opts:     opts,
		diags:    make(errors.ErrorList, 0),
		declared: make(map[string]*ast.TypeDecl),
	}
}

// Analyze validates file and builds its Config. The Config is never nil.
// Diagnostics are sorted by position but not yet located; call Locate on
// the list with the matching source file.
func Analyze(file *ast.Schema, opts Options) (*schema.Config, errors.ErrorList) {
	return New(opts).Analyze(file)
}

// Analyze runs every pass over file
func (a *Analyzer) Analyze(file *ast.Schema) (*schema.Config, errors.ErrorList) {
	if file == nil {
		file = &ast.Schema{}
	}

	options := a.lowerOptions(file.Opts)

	// First pass: register type names so that references may point forward
	a.registerTypes(file.Types)

	// Second pass: lower type bodies and events
	types := a.lowerTypeDecls(file.Types)
	events := a.lowerEvents(file.Events)

	cfg := schema.NewConfig(types, events, options)

	a.checkAliasedOptionals(cfg)
	a.checkRecursion(cfg)
	a.checkUnreliableSizes(cfg)

	if len(file.Events) == 0 {
		a.report(errors.NewNoEvents(ast.Span{Start: 0, End: 0}))
	}

	a.diags.Sort()
	return cfg, a.diags
}

func (a *Analyzer) report(err *errors.CompilerError) {
	a.diags = append(a.diags, err)
}

// registerTypes records the first declaration of every name and reports
// reserved and duplicate names.
func (a *Analyzer) registerTypes(decls []*ast.TypeDecl) {
	for _, td := range decls {
		name := td.Name.Name
		if _, ok := schema.Builtins[name]; ok {
			a.report(errors.NewReservedName(td.Name.Loc, name))
			continue
		}
		if first, ok := a.declared[name]; ok {
			a.report(errors.NewDuplicateType(td.Name.Loc, first.Name.Loc, name))
			continue
		}
		a.declared[name] = td
		a.names = append(a.names, name)
	}
}

// lowerTypeDecls lowers every declaration body. Bodies of rejected
// declarations are still lowered for their diagnostics but are left out of
// the result.
func (a *Analyzer) lowerTypeDecls(decls []*ast.TypeDecl) []*schema.TypeDecl {
	out := make([]*schema.TypeDecl, 0, len(decls))
	for _, td := range decls {
		ty := a.lowerType(td.Type)
		if a.declared[td.Name.Name] != td {
			continue
		}
		out = append(out, &schema.TypeDecl{Name: td.Name.Name, Type: ty, Span: td.Loc})
	}
	return out
}
