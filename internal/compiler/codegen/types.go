package codegen

import (
	"fmt"
	"strings"

	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// luauType renders t as a Luau type annotation
func luauType(t schema.Type) string {
	switch t := t.(type) {
	case schema.Bool:
		return "boolean"
	case schema.Num:
		return "number"
	case schema.Str:
		return "string"
	case schema.Buf:
		return "buffer"
	case schema.Arr:
		return "{ " + luauType(t.Elem) + " }"
	case schema.Map:
		return fmt.Sprintf("{ [%s]: %s }", luauType(t.Key), luauType(t.Val))
	case schema.Opt:
		inner := luauType(t.Inner)
		if isUnion(t.Inner) {
			inner = "(" + inner + ")"
		}
		return inner + "?"
	case schema.Ref:
		return t.Name
	case *schema.Struct:
		return luauStruct(t, "")
	case schema.UnitEnum:
		return unitUnion(t)
	case *schema.TaggedEnum:
		var arms []string
		for _, v := range t.Variants {
			arms = append(arms, luauStruct(v.Struct, fmt.Sprintf("%s: %q", tableKey(t.Tag), v.Name)))
		}
		if t.CatchAll != nil {
			arms = append(arms, luauStruct(t.CatchAll, tableKey(t.Tag)+": string"))
		}
		if len(arms) == 0 {
			return "never"
		}
		return strings.Join(arms, " | ")
	case schema.Platform:
		return platformType(t)
	}
	panic(fmt.Sprintf("codegen: unhandled type %T", t))
}

func luauStruct(st *schema.Struct, head string) string {
	var fields []string
	if head != "" {
		fields = append(fields, head)
	}
	for _, f := range st.Fields {
		fields = append(fields, fmt.Sprintf("%s: %s", tableKey(f.Name), luauType(f.Type)))
	}
	if len(fields) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(fields, ", ") + " }"
}

// tsType renders t as a TypeScript type
func tsType(t schema.Type) string {
	switch t := t.(type) {
	case schema.Bool:
		return "boolean"
	case schema.Num:
		return "number"
	case schema.Str:
		return "string"
	case schema.Buf:
		return "buffer"
	case schema.Arr:
		return tsArray(t)
	case schema.Map:
		return fmt.Sprintf("{ [index: %s]: %s }", tsType(t.Key), tsType(t.Val))
	case schema.Opt:
		return tsType(t.Inner) + " | undefined"
	case schema.Ref:
		return t.Name
	case *schema.Struct:
		return tsStruct(t, "")
	case schema.UnitEnum:
		return unitUnion(t)
	case *schema.TaggedEnum:
		var arms []string
		for _, v := range t.Variants {
			arms = append(arms, tsStruct(v.Struct, fmt.Sprintf("%s: %q", t.Tag, v.Name)))
		}
		if t.CatchAll != nil {
			arms = append(arms, tsStruct(t.CatchAll, t.Tag+": string"))
		}
		if len(arms) == 0 {
			return "never"
		}
		return strings.Join(arms, " | ")
	case schema.Platform:
		return platformType(t)
	}
	panic(fmt.Sprintf("codegen: unhandled type %T", t))
}

// maxTupleLen is the longest array rendered as a tuple type
const maxTupleLen = 32

// tsArray renders exact lengths as tuples and bounded lengths as a
// required prefix joined with an optional tail
func tsArray(t schema.Arr) string {
	elem := tsType(t.Elem)
	min, max := t.Len.Min, t.Len.Max
	if min != nil && *min > maxTupleLen {
		min = nil
	}
	if max != nil && *max > maxTupleLen {
		max = nil
	}

	switch {
	case min != nil && max != nil:
		if n, ok := t.Len.Len(); ok {
			return tuple(elem, n)
		}
		out := ""
		if *min > 0 {
			out = tuple(elem, int(*min)) + " & "
		}
		return out + "Partial<" + tuple(elem, int(*max)) + ">"

	case min != nil:
		if *min > 0 {
			return "[" + repeat(elem, int(*min)) + ", ...Array<" + elem + " | undefined>]"
		}
		return "[...Array<" + elem + " | undefined>]"

	case max != nil:
		return "Partial<" + tuple(elem, int(*max)) + ">"
	}
	return "(" + elem + ")[]"
}

func tuple(elem string, n int) string {
	return "[" + repeat(elem, n) + "]"
}

func repeat(elem string, n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = elem
	}
	return strings.Join(items, ", ")
}

func tsStruct(st *schema.Struct, head string) string {
	var fields []string
	if head != "" {
		fields = append(fields, head)
	}
	for _, f := range st.Fields {
		fields = append(fields, f.Name+tsField(f.Type))
	}
	if len(fields) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(fields, ", ") + " }"
}

// tsField renders the annotation of a field or parameter. Optional values
// become optional members.
func tsField(t schema.Type) string {
	if opt, ok := t.(schema.Opt); ok {
		return "?: " + tsType(opt.Inner)
	}
	return ": " + tsType(t)
}

func unitUnion(t schema.UnitEnum) string {
	if len(t.Variants) == 0 {
		return "never"
	}
	arms := make([]string, len(t.Variants))
	for i, v := range t.Variants {
		arms[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(arms, " | ")
}

func platformType(t schema.Platform) string {
	switch t.Kind {
	case schema.Instance:
		if t.Class != "" {
			return t.Class
		}
		return "Instance"
	case schema.AlignedCFrame:
		return "CFrame"
	}
	return t.Kind.String()
}

func isUnion(t schema.Type) bool {
	switch t := t.(type) {
	case schema.UnitEnum:
		return len(t.Variants) > 1
	case *schema.TaggedEnum:
		n := len(t.Variants)
		if t.CatchAll != nil {
			n++
		}
		return n > 1
	}
	return false
}
