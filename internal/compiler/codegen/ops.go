package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wirec-lang/wirec/internal/compiler/irgen"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// writeOps renders codec operations as Luau statements at the current
// indentation. Writes call alloc before touching outgoing_buff, since alloc
// may replace the buffer.
func (g *Generator) writeOps(ops []irgen.Op) {
	for _, op := range ops {
		g.writeOp(op)
	}
}

func (g *Generator) writeOp(op irgen.Op) {
	switch op := op.(type) {
	case irgen.Local:
		if op.Value == nil {
			g.writeLine("local %s", op.Name)
		} else {
			g.writeLine("local %s = %s", op.Name, expr(op.Value))
		}

	case irgen.Assign:
		g.writeLine("%s = %s", expr(op.Target), expr(op.Value))

	case irgen.WriteNum:
		g.writeLine("alloc(%d)", op.Kind.Size())
		g.writeLine("buffer.write%s(outgoing_buff, outgoing_apos, %s)", op.Kind, expr(op.Value))

	case irgen.Reserve:
		g.writeLine("local %s = alloc(%d)", op.Into, op.Size)

	case irgen.WriteNumAt:
		g.writeLine("buffer.write%s(outgoing_buff, %s, %s)", op.Kind, expr(op.At), expr(op.Value))

	case irgen.ReadNum:
		g.writeLine("%s = buffer.read%s(incoming_buff, read(%d))", expr(op.Into), op.Kind, op.Kind.Size())

	case irgen.WriteBytes:
		count := expr(op.Count)
		g.writeLine("alloc(%s)", count)
		if op.Kind == irgen.String {
			g.writeLine("buffer.writestring(outgoing_buff, outgoing_apos, %s, %s)", expr(op.Value), count)
		} else {
			g.writeLine("buffer.copy(outgoing_buff, outgoing_apos, %s, 0, %s)", expr(op.Value), count)
		}

	case irgen.ReadBytes:
		into, count := expr(op.Into), expr(op.Count)
		if op.Kind == irgen.String {
			g.writeLine("%s = buffer.readstring(incoming_buff, read(%s), %s)", into, count, count)
		} else {
			g.writeLine("%s = buffer.create(%s)", into, count)
			g.writeLine("buffer.copy(%s, 0, incoming_buff, read(%s), %s)", into, count, count)
		}

	case irgen.Assert:
		g.writeLine("assert(%s, %s)", expr(op.Cond), luaString(op.Message))

	case irgen.Throw:
		g.writeLine("error(%s)", luaString(op.Message))

	case irgen.If:
		g.writeLine("if %s then", expr(op.Cond))
		g.in()

	case irgen.ElseIf:
		g.out()
		g.writeLine("elseif %s then", expr(op.Cond))
		g.in()

	case irgen.Else:
		g.out()
		g.writeLine("else")
		g.in()

	case irgen.End:
		g.out()
		g.writeLine("end")

	case irgen.Block:
		g.writeLine("do")
		g.in()

	case irgen.NumFor:
		g.writeLine("for %s = %s, %s do", op.Var, expr(op.From), expr(op.To))
		g.in()

	case irgen.GenFor:
		g.writeLine("for %s, %s in %s do", op.Key, op.Val, expr(op.Value))
		g.in()

	case irgen.PushHandle:
		g.writeLine("table.insert(outgoing_inst, %s)", expr(op.Value))

	case irgen.ReadHandle:
		g.writeLine("incoming_ipos = incoming_ipos + 1")
		g.writeLine("%s = incoming_inst[incoming_ipos]", expr(op.Into))

	case irgen.CallWriter:
		g.writeLine("types.write_%s(%s)", op.Name, expr(op.Value))

	case irgen.CallReader:
		g.writeLine("%s = types.read_%s()", expr(op.Into), op.Name)

	default:
		panic(fmt.Sprintf("codegen: unhandled op %T", op))
	}
}

// expr renders an expression as Luau
func expr(e irgen.Expr) string {
	switch e := e.(type) {
	case irgen.Nil:
		return "nil"
	case irgen.Bool:
		return strconv.FormatBool(bool(e))
	case irgen.Num:
		return e.String()
	case irgen.Str:
		return luaString(string(e))
	case irgen.Name:
		return string(e)
	case irgen.Field:
		return index(expr(e.Of), e.Name)
	case irgen.Index:
		return fmt.Sprintf("%s[%s]", expr(e.Of), expr(e.Key))
	case irgen.EmptyTable:
		return "{}"
	case irgen.Len:
		return "#" + operand(e.Value)
	case irgen.BufLen:
		return fmt.Sprintf("buffer.len(%s)", expr(e.Value))
	case irgen.Not:
		return "not " + operand(e.Value)
	case irgen.Binary:
		return fmt.Sprintf("%s %s %s", operand(e.L), e.Op, operand(e.R))
	case irgen.Cond:
		return fmt.Sprintf("(if %s then %s else %s)", expr(e.If), expr(e.Then), expr(e.Else))
	case irgen.IsA:
		return fmt.Sprintf("%s:IsA(%s)", expr(e.Value), luaString(e.Class))
	case irgen.Component:
		return component(e)
	case irgen.Construct:
		return construct(e)
	}
	panic(fmt.Sprintf("codegen: unhandled expression %T", e))
}

// operand renders e for use inside a larger expression
func operand(e irgen.Expr) string {
	switch e.(type) {
	case irgen.Binary, irgen.Not:
		return "(" + expr(e) + ")"
	}
	return expr(e)
}

func component(c irgen.Component) string {
	v := expr(c.Value)
	slot := schema.PlatformLayout(c.Kind)[c.Index].Name

	switch c.Kind {
	case schema.Color3:
		return fmt.Sprintf("math.round(%s.%s * 255)", v, slot)
	case schema.CFrame:
		if c.Index >= 3 {
			return fmt.Sprintf("axis_angle(%s).%s", v, strings.TrimPrefix(slot, "Axis"))
		}
	case schema.AlignedCFrame:
		if c.Index == 0 {
			return fmt.Sprintf("alignment_of(%s)", v)
		}
	}
	return v + "." + slot
}

func construct(c irgen.Construct) string {
	parts := make([]string, len(c.Parts))
	for i, p := range c.Parts {
		parts[i] = expr(p)
	}
	args := strings.Join(parts, ", ")

	switch c.Kind {
	case schema.Vector3:
		return "Vector3.new(" + args + ")"
	case schema.Color3:
		return "Color3.fromRGB(" + args + ")"
	case schema.CFrame:
		return "from_axis_angle(" + args + ")"
	case schema.AlignedCFrame:
		return "from_alignment(" + args + ")"
	}
	panic(fmt.Sprintf("codegen: %s has no byte layout", c.Kind))
}

var luauKeywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "if": true,
	"in": true, "local": true, "nil": true, "not": true, "or": true,
	"repeat": true, "return": true, "then": true, "true": true,
	"until": true, "while": true, "continue": true,
}

// index renders a constant-key table access
func index(of, key string) string {
	if luauKeywords[key] {
		return fmt.Sprintf("%s[%s]", of, luaString(key))
	}
	return of + "." + key
}

// tableKey renders key as the left side of a table constructor entry
func tableKey(key string) string {
	if luauKeywords[key] {
		return "[" + luaString(key) + "]"
	}
	return key
}

// luaString quotes s as a Luau string literal
func luaString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(&b, `\%03d`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
