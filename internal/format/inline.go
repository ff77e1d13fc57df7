package format

import (
	"strconv"
	"strings"

	"github.com/wirec-lang/wirec/internal/compiler/ast"
)

// inlineType renders t on a single line
func inlineType(t ast.TypeNode) string {
	switch t := t.(type) {
	case *ast.NumType:
		return t.Kind.Name + inlineArgs(t.Range)
	case *ast.StrType:
		return "string" + inlineArgs(t.Range)
	case *ast.BufType:
		return "buffer" + inlineArgs(t.Range)
	case *ast.ArrType:
		return inlineType(t.Elem) + "[" + inlineRange(t.Range) + "]"
	case *ast.OptType:
		return inlineType(t.Inner) + "?"
	case *ast.MapType:
		return "map { [" + inlineType(t.Key) + "]: " + inlineType(t.Val) + " }"
	case *ast.RefType:
		if t.Arg != nil {
			return t.Name.Name + "(" + t.Arg.Name + ")"
		}
		return t.Name.Name
	case *ast.StructType:
		return "struct " + inlineStructBody(t)
	case *ast.EnumType:
		return "enum " + inlineEnumBody(t)
	case *ast.TaggedEnumType:
		return "enum " + strconv.Quote(t.Tag.Name) + " " + inlineTaggedBody(t)
	}
	return ""
}

func inlineArgs(r *ast.RangeNode) string {
	if r == nil {
		return ""
	}
	return "(" + inlineRange(r) + ")"
}

// inlineRange renders `min..max`, or a single number for exact ranges
func inlineRange(r *ast.RangeNode) string {
	if r == nil {
		return ""
	}
	if r.Min != nil && r.Min == r.Max {
		return r.Min.Raw
	}
	var b strings.Builder
	if r.Min != nil {
		b.WriteString(r.Min.Raw)
	}
	b.WriteString("..")
	if r.Max != nil {
		b.WriteString(r.Max.Raw)
	}
	return b.String()
}

func inlineStructBody(st *ast.StructType) string {
	parts := make([]string, len(st.Fields))
	for i, field := range st.Fields {
		parts[i] = field.Name.Name + ": " + inlineType(field.Type)
	}
	return inlineBraces(parts)
}

func inlineEnumBody(t *ast.EnumType) string {
	parts := make([]string, len(t.Variants))
	for i, v := range t.Variants {
		parts[i] = v.Name
	}
	return inlineBraces(parts)
}

func inlineTaggedBody(t *ast.TaggedEnumType) string {
	type part struct {
		start int
		text  string
	}
	parts := make([]part, 0, len(t.Cases)+1)
	for _, c := range t.Cases {
		parts = append(parts, part{c.Loc.Start, c.Name.Name + " " + inlineStructBody(c.Body)})
	}
	if t.CatchAll != nil {
		catchAll := part{t.CatchAll.Loc.Start, "... " + inlineStructBody(t.CatchAll)}
		i := len(parts)
		for i > 0 && parts[i-1].start > catchAll.start {
			i--
		}
		parts = append(parts[:i], append([]part{catchAll}, parts[i:]...)...)
	}

	texts := make([]string, len(parts))
	for i, p := range parts {
		texts[i] = p.text
	}
	return inlineBraces(texts)
}

func inlineEventBody(d *ast.EventDecl) string {
	parts := make([]string, len(d.Fields))
	for i, field := range d.Fields {
		value := ""
		if field.Type != nil {
			value = inlineType(field.Type)
		} else if field.Word != nil {
			value = field.Word.Name
		}
		parts[i] = field.Key.Name + ": " + value
	}
	return inlineBraces(parts)
}

func inlineBraces(parts []string) string {
	if len(parts) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}
