// Package format rewrites .wire schemas into their canonical layout.
// Bodies written on one line stay on one line while they fit; bodies the
// author broke across lines get one member per line with trailing commas.
// Comments stay attached to the declaration or member they precede.
package format

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/wirec-lang/wirec/internal/compiler/ast"
	"github.com/wirec-lang/wirec/internal/compiler/parser"
)

// Formatter formats wire schema source
type Formatter struct {
	config *Config
	buf    *bytes.Buffer
	indent int

	src      string
	comments []comment
	used     []bool
}

// New creates a new Formatter with the given configuration
func New(config *Config) *Formatter {
	if config == nil {
		config = DefaultConfig()
	}
	return &Formatter{
		config: config.withDefaults(),
		buf:    new(bytes.Buffer),
	}
}

// Format formats a schema and returns the result. Schemas with syntax
// errors are returned unchanged along with the diagnostics.
func (f *Formatter) Format(name, source string) (string, error) {
	schema, file, diags := parser.ParseSource(name, source)
	if diags.HasErrors() {
		return source, diags
	}

	f.buf.Reset()
	f.indent = 0
	f.src = source
	f.comments = scanComments(source)
	f.used = make([]bool, len(f.comments))

	f.formatSchema(schema)

	for i, c := range f.comments {
		if !f.used[i] {
			pos := file.Position(c.Start)
			return source, fmt.Errorf("%s:%d:%d: cannot keep this comment in place; move it above the declaration", name, pos.Line, pos.Column)
		}
	}

	return f.buf.String(), nil
}

// FormatFile formats a schema file
func FormatFile(path string, config *Config) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return New(config).Format(path, string(content))
}

// member is one line-able entry of a block: a declaration, a field, an
// enum case
type member struct {
	span  ast.Span
	write func()
}

func (f *Formatter) formatSchema(schema *ast.Schema) {
	var decls []member
	for _, o := range schema.Opts {
		decls = append(decls, member{o.Loc, func() { f.formatOpt(o) }})
	}
	for _, d := range schema.Types {
		decls = append(decls, member{d.Loc, func() { f.formatTypeDecl(d) }})
	}
	for _, d := range schema.Events {
		decls = append(decls, member{d.Loc, func() { f.formatEventDecl(d) }})
	}
	sort.SliceStable(decls, func(i, j int) bool { return decls[i].span.Start < decls[j].span.Start })

	f.writeMembers(decls, 0, len(f.src), "")
}

func (f *Formatter) formatOpt(o *ast.OptDecl) {
	f.buf.WriteString("opt ")
	f.buf.WriteString(o.Name.Name)
	f.buf.WriteString(" =")
	if o.Value != nil {
		f.buf.WriteString(" ")
		f.buf.WriteString(o.Value.Raw)
	}
}

func (f *Formatter) formatTypeDecl(d *ast.TypeDecl) {
	f.buf.WriteString("type ")
	f.buf.WriteString(d.Name.Name)
	f.buf.WriteString(" = ")
	f.formatType(d.Type)
}

func (f *Formatter) formatEventDecl(d *ast.EventDecl) {
	f.buf.WriteString("event ")
	f.buf.WriteString(d.Name.Name)
	f.buf.WriteString(" = ")

	flat := inlineEventBody(d)
	if len(d.Fields) == 0 || !f.shouldBreak(d.Loc, flat) {
		f.buf.WriteString(flat)
		return
	}

	width := f.keyWidth(len(d.Fields), func(i int) string { return d.Fields[i].Key.Name })
	members := make([]member, len(d.Fields))
	for i, field := range d.Fields {
		members[i] = member{field.Loc, func() {
			f.writeKey(field.Key.Name, width)
			if field.Type != nil {
				f.formatType(field.Type)
			} else if field.Word != nil {
				f.buf.WriteString(field.Word.Name)
			}
		}}
	}
	f.writeBody(members, d.Loc)
}

// formatType writes t, breaking bodies that do not stay on one line
func (f *Formatter) formatType(t ast.TypeNode) {
	switch t := t.(type) {
	case *ast.StructType:
		f.buf.WriteString("struct ")
		f.formatStructBody(t)

	case *ast.EnumType:
		f.buf.WriteString("enum ")
		flat := inlineEnumBody(t)
		if len(t.Variants) == 0 || !f.shouldBreak(t.Loc, flat) {
			f.buf.WriteString(flat)
			return
		}
		members := make([]member, len(t.Variants))
		for i, v := range t.Variants {
			members[i] = member{v.Loc, func() { f.buf.WriteString(v.Name) }}
		}
		f.writeBody(members, t.Loc)

	case *ast.TaggedEnumType:
		f.buf.WriteString("enum ")
		f.buf.WriteString(strconv.Quote(t.Tag.Name))
		f.buf.WriteString(" ")
		flat := inlineTaggedBody(t)
		if (len(t.Cases) == 0 && t.CatchAll == nil) || !f.shouldBreak(t.Loc, flat) {
			f.buf.WriteString(flat)
			return
		}
		var members []member
		for _, c := range t.Cases {
			members = append(members, member{c.Loc, func() {
				f.buf.WriteString(c.Name.Name)
				f.buf.WriteString(" ")
				f.formatStructBody(c.Body)
			}})
		}
		if t.CatchAll != nil {
			members = append(members, member{t.CatchAll.Loc, func() {
				f.buf.WriteString("... ")
				f.formatStructBody(t.CatchAll)
			}})
			sort.SliceStable(members, func(i, j int) bool { return members[i].span.Start < members[j].span.Start })
		}
		f.writeBody(members, ast.Span{Start: t.Tag.Loc.End, End: t.Loc.End})

	case *ast.ArrType:
		f.formatType(t.Elem)
		f.buf.WriteString("[")
		f.buf.WriteString(inlineRange(t.Range))
		f.buf.WriteString("]")

	case *ast.OptType:
		f.formatType(t.Inner)
		f.buf.WriteString("?")

	case *ast.MapType:
		f.buf.WriteString("map { [")
		f.formatType(t.Key)
		f.buf.WriteString("]: ")
		f.formatType(t.Val)
		f.buf.WriteString(" }")

	default:
		f.buf.WriteString(inlineType(t))
	}
}

func (f *Formatter) formatStructBody(st *ast.StructType) {
	flat := inlineStructBody(st)
	if len(st.Fields) == 0 || !f.shouldBreak(st.Loc, flat) {
		f.buf.WriteString(flat)
		return
	}

	width := f.keyWidth(len(st.Fields), func(i int) string { return st.Fields[i].Name.Name })
	members := make([]member, len(st.Fields))
	for i, field := range st.Fields {
		members[i] = member{field.Loc, func() {
			f.writeKey(field.Name.Name, width)
			f.formatType(field.Type)
		}}
	}
	f.writeBody(members, st.Loc)
}

// shouldBreak reports whether a body spanning span, rendered flat as
// flat, goes one member per line
func (f *Formatter) shouldBreak(span ast.Span, flat string) bool {
	if strings.Contains(f.src[span.Start:span.End], "\n") {
		return true
	}
	for _, c := range f.comments {
		if c.Start >= span.Start && c.Start < span.End {
			return true
		}
	}
	return f.column()+len(flat) > f.config.MaxWidth
}

// writeBody writes `{`, the members one per line, and the closing `}`
func (f *Formatter) writeBody(members []member, span ast.Span) {
	f.buf.WriteString("{\n")
	f.indent++
	f.writeMembers(members, span.Start, span.End, ",")
	f.indent--
	f.writeIndent()
	f.buf.WriteString("}")
}

// writeMembers writes each member on its own line followed by sep. The
// comments between open and close are placed before the member they
// precede, or after it when they share its last line.
func (f *Formatter) writeMembers(members []member, open, close int, sep string) {
	cursor := open
	wrote := false

	for i, m := range members {
		for _, c := range f.takeComments(cursor, m.span.Start) {
			f.blankLine(wrote, cursor, c.Start)
			f.writeComment(c)
			cursor = c.End
			wrote = true
		}
		f.blankLine(wrote, cursor, m.span.Start)

		f.writeIndent()
		m.write()
		f.buf.WriteString(sep)
		cursor = m.span.End

		next := close
		if i+1 < len(members) {
			next = members[i+1].span.Start
		}
		if c, ok := f.takeTrailing(cursor, next); ok {
			f.buf.WriteString(" ")
			f.buf.WriteString(c.Text)
			cursor = c.End
		}
		f.buf.WriteString("\n")
		wrote = true
	}

	for _, c := range f.takeComments(cursor, close) {
		f.blankLine(wrote, cursor, c.Start)
		f.writeComment(c)
		cursor = c.End
		wrote = true
	}
}

// takeComments claims the comments starting in [from, to)
func (f *Formatter) takeComments(from, to int) []comment {
	var out []comment
	for i, c := range f.comments {
		if !f.used[i] && c.Start >= from && c.Start < to {
			f.used[i] = true
			out = append(out, c)
		}
	}
	return out
}

// takeTrailing claims the first comment in [from, to) on the line of from
func (f *Formatter) takeTrailing(from, to int) (comment, bool) {
	for i, c := range f.comments {
		if f.used[i] || c.Start < from || c.Start >= to {
			continue
		}
		if !sameLine(f.src, from, c.Start) {
			return comment{}, false
		}
		f.used[i] = true
		return c, true
	}
	return comment{}, false
}

func (f *Formatter) blankLine(wrote bool, from, to int) {
	if wrote && blankLineBetween(f.src, from, to) {
		f.buf.WriteString("\n")
	}
}

func (f *Formatter) writeComment(c comment) {
	f.writeIndent()
	f.buf.WriteString(c.Text)
	f.buf.WriteString("\n")
}

// keyWidth is the column field types line up at when AlignFields is set
func (f *Formatter) keyWidth(n int, name func(int) string) int {
	if !f.config.AlignFields {
		return 0
	}
	width := 0
	for i := 0; i < n; i++ {
		width = max(width, len(name(i)))
	}
	return width
}

func (f *Formatter) writeKey(name string, width int) {
	f.buf.WriteString(name)
	f.buf.WriteString(":")
	if pad := width - len(name); pad > 0 {
		f.buf.WriteString(strings.Repeat(" ", pad))
	}
	f.buf.WriteString(" ")
}

// writeIndent writes the current indentation level
func (f *Formatter) writeIndent() {
	f.buf.WriteString(strings.Repeat(" ", f.indent*f.config.IndentSize))
}

// column is the width of the line being written
func (f *Formatter) column() int {
	b := f.buf.Bytes()
	return len(b) - (bytes.LastIndexByte(b, '\n') + 1)
}
