package analyzer

import (
	"fmt"

	"github.com/wirec-lang/wirec/internal/compiler/ast"
	"github.com/wirec-lang/wirec/internal/compiler/errors"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

var (
	eventKeys  = []string{"from", "type", "call", "data"}
	fromValues = []string{"Server", "Client"}
	typeValues = []string{"Reliable", "Unreliable"}
	callValues = []string{"SingleSync", "SingleAsync", "ManySync", "ManyAsync"}
)

// lowerEvents lowers event declarations in order, numbering accepted events
// from 1.
func (a *Analyzer) lowerEvents(decls []*ast.EventDecl) []*schema.EventDecl {
	out := make([]*schema.EventDecl, 0, len(decls))
	seen := make(map[string]ast.Span, len(decls))

	for _, ed := range decls {
		ev := a.lowerEvent(ed)
		if first, ok := seen[ed.Name.Name]; ok {
			a.report(errors.NewDuplicateEvent(ed.Name.Loc, first, ed.Name.Name))
			continue
		}
		seen[ed.Name.Name] = ed.Name.Loc

		ev.ID = len(out) + 1
		out = append(out, ev)
		a.eventNodes = append(a.eventNodes, ed)
	}

	return out
}

func (a *Analyzer) lowerEvent(ed *ast.EventDecl) *schema.EventDecl {
	ev := &schema.EventDecl{Name: ed.Name.Name, Span: ed.Loc}
	seen := make(map[string]ast.Span, len(ed.Fields))

	for _, f := range ed.Fields {
		key := f.Key.Name
		if first, ok := seen[key]; ok {
			a.report(errors.NewDuplicateEventField(f.Key.Loc, first, key))
			continue
		}
		seen[key] = f.Key.Loc

		switch key {
		case "from":
			if i, ok := a.eventWord(f, fromValues); ok {
				ev.From = schema.Side(i)
			}
		case "type":
			if i, ok := a.eventWord(f, typeValues); ok {
				ev.Transport = schema.Transport(i)
			}
		case "call":
			if i, ok := a.eventWord(f, callValues); ok {
				ev.Call = schema.Call(i)
			}
		case "data":
			ev.Data = a.lowerType(f.Type)
		default:
			a.report(errors.NewInvalidEventField(f.Key.Loc,
				fmt.Sprintf("Unknown event field '%s'", key), eventKeys))
		}
	}

	for _, key := range []string{"from", "type", "call"} {
		if _, ok := seen[key]; !ok {
			a.report(errors.NewMissingEventField(ed.Name.Loc, ed.Name.Name, key))
		}
	}

	return ev
}

// eventWord finds the index of a field's word among allowed
func (a *Analyzer) eventWord(f *ast.EventField, allowed []string) (int, bool) {
	if f.Word == nil {
		a.report(errors.NewInvalidEventField(f.Loc,
			fmt.Sprintf("Event field '%s' takes a name, not a type", f.Key.Name), allowed))
		return 0, false
	}
	for i, v := range allowed {
		if v == f.Word.Name {
			return i, true
		}
	}
	a.report(errors.NewInvalidEventField(f.Word.Loc,
		fmt.Sprintf("Invalid value '%s' for event field '%s'", f.Word.Name, f.Key.Name), allowed))
	return 0, false
}
