package tooling

import (
	"fmt"
	"strings"

	"github.com/wirec-lang/wirec/internal/compiler/analyzer"
	"github.com/wirec-lang/wirec/internal/compiler/ast"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
	"github.com/wirec-lang/wirec/internal/compiler/size"
)

// buildHover describes the declaration or type name under offset
func buildHover(r *Result, offset int) *Hover {
	file := r.File

	for _, td := range file.Types {
		if within(td.Name.Loc, offset) {
			return typeHover(r, td.Name.Name, td.Name.Loc)
		}
	}

	for _, ev := range file.Events {
		if within(ev.Name.Loc, offset) {
			return eventHover(r, ev)
		}
	}

	if ref := refAt(file, offset); ref != nil {
		if _, ok := schema.Builtins[ref.Name.Name]; ok {
			return builtinHover(r, ref)
		}
		return typeHover(r, ref.Name.Name, ref.Name.Loc)
	}

	return nil
}

func typeHover(r *Result, name string, at ast.Span) *Hover {
	td, ok := r.Config.Type(name)
	if !ok {
		return nil
	}

	var content strings.Builder
	content.WriteString("```wire\n")
	content.WriteString("type " + name)
	for _, decl := range r.File.Types {
		if decl.Name.Name == name && decl.Type != nil {
			content.WriteString(" = " + r.Source.Slice(decl.Type.Span()))
			break
		}
	}
	content.WriteString("\n```\n\n")
	writeSize(&content, "Encoded size", size.Of(r.Config, td.Type))

	return &Hover{Contents: content.String(), Range: rangeOf(r.Source, at)}
}

func builtinHover(r *Result, ref *ast.RefType) *Hover {
	t := schema.Builtins[ref.Name.Name]

	var content strings.Builder
	content.WriteString("```wire\n")
	content.WriteString(r.Source.Slice(ref.Loc))
	content.WriteString("\n```\n\n")
	content.WriteString("*Built-in type*\n\n")
	if schema.IsHandle(t) {
		content.WriteString("Sent as an instance handle, not in the byte stream.\n\n")
	}
	writeSize(&content, "Encoded size", size.Of(r.Config, t))

	return &Hover{Contents: content.String(), Range: rangeOf(r.Source, ref.Name.Loc)}
}

func eventHover(r *Result, node *ast.EventDecl) *Hover {
	ev, ok := r.Config.Event(node.Name.Name)
	if !ok {
		return nil
	}
	idKind := r.Config.EventIDKind()

	var content strings.Builder
	content.WriteString("```wire\n")
	content.WriteString("event " + ev.Name)
	content.WriteString("\n```\n\n")
	content.WriteString(fmt.Sprintf("**Event id:** %d (`%s`)\n\n", ev.ID, idKind))
	content.WriteString(fmt.Sprintf("**Direction:** %s → %s\n\n", ev.From, ev.From.Other()))
	content.WriteString(fmt.Sprintf("**Transport:** %s, **call:** %s\n\n", ev.Transport, ev.Call))

	if ev.Data == nil {
		content.WriteString("*No payload*\n\n")
	} else {
		writeSize(&content, "Payload size", size.Of(r.Config, ev.Data))
	}

	if ev.Transport == schema.Unreliable {
		budget := r.EffectiveBudget()
		content.WriteString("---\n\n")
		content.WriteString(fmt.Sprintf("Unreliable messages must fit in %d bytes including the %d-byte id.\n", budget, idKind.Size()))
	}

	return &Hover{Contents: content.String(), Range: rangeOf(r.Source, node.Name.Loc)}
}

func writeSize(content *strings.Builder, label string, b size.Bounds) {
	if b.HasMax {
		content.WriteString(fmt.Sprintf("**%s:** %s bytes\n", label, b))
		return
	}
	content.WriteString(fmt.Sprintf("**%s:** at least %d bytes (unbounded)\n", label, b.Min))
}

// EffectiveBudget is the unreliable size budget the result was analyzed
// against
func (r *Result) EffectiveBudget() int {
	if r.Budget > 0 {
		return r.Budget
	}
	return analyzer.DefaultMaxUnreliableSize
}
