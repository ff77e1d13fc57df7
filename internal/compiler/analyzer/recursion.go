package analyzer

import (
	"github.com/wirec-lang/wirec/internal/compiler/errors"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// finiteSet tracks which declared types are known to have a finite value.
// A struct is finite when all its fields are, a tagged enum when any case
// is, and an array when it may be empty or its element is finite.
// Optionals and maps are always finite.
type finiteSet struct {
	cfg    *schema.Config
	finite map[string]bool
}

// checkRecursion computes the finite set as a least fixpoint over the type
// table and reports every declaration left outside it.
func (a *Analyzer) checkRecursion(cfg *schema.Config) {
	fs := &finiteSet{cfg: cfg, finite: make(map[string]bool, len(cfg.TypeDecls))}

	for changed := true; changed; {
		changed = false
		for _, td := range cfg.TypeDecls {
			if !fs.finite[td.Name] && fs.terminates(td.Type) {
				fs.finite[td.Name] = true
				changed = true
			}
		}
	}

	for _, td := range cfg.TypeDecls {
		if fs.finite[td.Name] {
			continue
		}
		refSpan := td.Span
		if ref, ok := fs.blockingRef(td.Type, td.Name); ok {
			refSpan = ref.Span
		}
		a.report(errors.NewUnboundedRecursion(td.Span, refSpan, td.Name))
	}
}

// terminates reports whether a finite value of t exists. Unresolved names
// count as finite; they already have their own diagnostic.
func (fs *finiteSet) terminates(t schema.Type) bool {
	switch t := t.(type) {
	case schema.Ref:
		if _, ok := fs.cfg.Type(t.Name); !ok {
			return true
		}
		return fs.finite[t.Name]
	case schema.Arr:
		return t.Len.MinOr(0) == 0 || fs.terminates(t.Elem)
	case *schema.Struct:
		return fs.structTerminates(t)
	case *schema.TaggedEnum:
		if len(t.Variants) == 0 && t.CatchAll == nil {
			return true
		}
		for _, v := range t.Variants {
			if fs.structTerminates(v.Struct) {
				return true
			}
		}
		return t.CatchAll != nil && fs.structTerminates(t.CatchAll)
	}
	return true
}

func (fs *finiteSet) structTerminates(st *schema.Struct) bool {
	for _, f := range st.Fields {
		if !fs.terminates(f.Type) {
			return false
		}
	}
	return true
}

// blockingRef finds a reference that keeps t from terminating, preferring
// one that names self.
func (fs *finiteSet) blockingRef(t schema.Type, self string) (schema.Ref, bool) {
	var refs []schema.Ref
	fs.collectBlocking(t, &refs)

	for _, r := range refs {
		if r.Name == self {
			return r, true
		}
	}
	if len(refs) > 0 {
		return refs[0], true
	}
	return schema.Ref{}, false
}

// collectBlocking gathers, in source order, the non-finite references
// reachable from t without crossing a construct that can stop.
func (fs *finiteSet) collectBlocking(t schema.Type, refs *[]schema.Ref) {
	switch t := t.(type) {
	case schema.Ref:
		if !fs.terminates(t) {
			*refs = append(*refs, t)
		}
	case schema.Arr:
		if t.Len.MinOr(0) > 0 {
			fs.collectBlocking(t.Elem, refs)
		}
	case *schema.Struct:
		for _, f := range t.Fields {
			fs.collectBlocking(f.Type, refs)
		}
	case *schema.TaggedEnum:
		for _, v := range t.Variants {
			fs.collectBlocking(v.Struct, refs)
		}
		if t.CatchAll != nil {
			fs.collectBlocking(t.CatchAll, refs)
		}
	}
}
