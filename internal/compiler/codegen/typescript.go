package codegen

import (
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// Typescript renders the declarations of one side's module
func (g *Generator) Typescript(side schema.Side) string {
	g.reset()
	g.writeLine("// %s generated by wirec (https://github.com/wirec-lang/wirec)", side)
	g.writeLine("")

	for _, td := range g.cfg.TypeDecls {
		g.writeLine("type %s = %s;", td.Name, tsType(td.Type))
	}
	if len(g.cfg.TypeDecls) > 0 {
		g.writeLine("")
	}

	if g.cfg.Options.ManualEventLoop {
		g.writeLine("export declare const %s: () => void;", g.api("SendEvents", "sendEvents", "send_events"))
		g.writeLine("")
	}

	for _, ev := range g.cfg.EventDecls {
		g.writeLine("export declare const %s: {", ev.Name)
		g.in()
		switch {
		case ev.From != side:
			g.writeTsListen(side, ev)
		case side == schema.Server:
			g.writeTsServerFire(ev)
		default:
			g.writeLine("%s: (%s) => void;", g.api("Fire", "fire", "fire"), tsValue(ev))
		}
		g.out()
		g.writeLine("};")
	}

	return g.buf.String()
}

// tsValue renders the value parameter of ev, or nothing for events
// without data
func tsValue(ev *schema.EventDecl) string {
	if ev.Data == nil {
		return ""
	}
	return "value" + tsField(ev.Data)
}

func (g *Generator) writeTsServerFire(ev *schema.EventDecl) {
	value := tsValue(ev)
	g.writeLine("%s: (%s) => void;", g.api("Fire", "fire", "fire"), args("player: Player", value))
	g.writeLine("%s: (%s) => void;", g.api("FireAll", "fireAll", "fire_all"), value)
	g.writeLine("%s: (%s) => void;", g.api("FireExcept", "fireExcept", "fire_except"), args("except: Player", value))
	g.writeLine("%s: (%s) => void;", g.api("FireList", "fireList", "fire_list"), args("list: Player[]", value))
	g.writeLine("%s: (%s) => void;", g.api("FireSet", "fireSet", "fire_set"), args("set: Set<Player>", value))
}

func (g *Generator) writeTsListen(side schema.Side, ev *schema.EventDecl) {
	name := g.api("SetCallback", "setCallback", "set_callback")
	if !ev.Call.Single() {
		name = g.api("On", "on", "on")
	}

	player := ""
	if side == schema.Server {
		player = "player: Player"
	}
	g.writeLine("%s: (callback: (%s) => void) => () => void;", name, args(player, tsValue(ev)))
}
