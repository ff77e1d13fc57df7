package codegen

import (
	"github.com/wirec-lang/wirec/internal/compiler/irgen"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// Luau renders the module of one side
func (g *Generator) Luau(side schema.Side) string {
	g.reset()
	g.writeRuntime(side)
	g.writeTypes()
	g.writeRemotes(side)

	if side == schema.Server {
		g.writeServerLoop()
	} else {
		g.writeClientLoop()
	}

	reliable, unreliable := g.incoming(side)
	g.writeCallbackLists(append(append([]*schema.EventDecl(nil), reliable...), unreliable...))
	if side == schema.Client {
		g.writeEventQueue(reliable, unreliable)
	}
	g.writeHandler(side, "reliable", reliable, true)
	g.writeHandler(side, "unreliable", unreliable, false)

	g.writeReturns(side)
	return g.buf.String()
}

// writeServerLoop writes the per-player outgoing buffers and the function
// that flushes them, run every frame unless the schema asks to run it by
// hand
func (g *Generator) writeServerLoop() {
	g.writeLine("local player_map = {}")
	g.writeLine("")
	g.writeLine("local function load_player(player: Player)")
	g.in()
	g.writeLine("if player_map[player] then")
	g.in()
	g.writeLine("load(player_map[player])")
	g.out()
	g.writeLine("else")
	g.in()
	g.writeLine("load_empty()")
	g.out()
	g.writeLine("end")
	g.out()
	g.writeLine("end")
	g.writeLine("")
	g.writeLine("Players.PlayerRemoving:Connect(function(player)")
	g.in()
	g.writeLine("player_map[player] = nil")
	g.out()
	g.writeLine("end)")
	g.writeLine("")

	g.writeLine("local function send_events()")
	g.in()
	g.writeLine("for player, outgoing in player_map do")
	g.in()
	g.writeLine("if outgoing.used > 0 then")
	g.in()
	g.writeLine("load(outgoing)")
	g.writeLine("reliable:FireClient(player, take(), outgoing_inst)")
	g.writeLine("player_map[player] = nil")
	g.out()
	g.writeLine("end")
	g.out()
	g.writeLine("end")
	g.out()
	g.writeLine("end")
	g.writeLine("")

	if !g.cfg.Options.ManualEventLoop {
		g.writeLine("RunService.Heartbeat:Connect(send_events)")
		g.writeLine("")
	}
}

// writeReturns writes the table the module returns: the event loop when it
// is manual, and one entry per event
func (g *Generator) writeReturns(side schema.Side) {
	g.writeLine("return {")
	g.in()
	if g.cfg.Options.ManualEventLoop {
		g.writeLine("%s = send_events,", g.api("SendEvents", "sendEvents", "send_events"))
	}

	for _, ev := range g.cfg.EventDecls {
		g.writeLine("%s = {", tableKey(ev.Name))
		g.in()
		switch {
		case ev.From != side:
			g.writeListen(side, ev)
		case side == schema.Server:
			g.writeServerFire(ev)
		default:
			g.writeClientFire(ev)
		}
		g.out()
		g.writeLine("},")
	}

	g.out()
	g.writeLine("}")
}

func (g *Generator) writeServerFire(ev *schema.EventDecl) {
	codec, _ := g.prog.Event(ev.Name)
	value := payloadParam(ev, string(irgen.ValueVar))

	g.writeLine("%s = function(%s)", g.api("Fire", "fire", "fire"), args("player: Player", value))
	g.in()
	if ev.Transport == schema.Reliable {
		g.writeLine("load_player(player)")
		g.writeOps(codec.Ser)
		g.writeLine("player_map[player] = save()")
	} else {
		g.writeLine("load_empty()")
		g.writeOps(codec.Ser)
		g.writeLine("unreliable:FireClient(player, take(), outgoing_inst)")
	}
	g.out()
	g.writeLine("end,")

	g.writeBroadcast(ev, codec, g.api("FireAll", "fireAll", "fire_all"), "", "for _, player in Players:GetPlayers() do", "")
	g.writeBroadcast(ev, codec, g.api("FireExcept", "fireExcept", "fire_except"), "except: Player",
		"for _, player in Players:GetPlayers() do", "player ~= except")
	g.writeBroadcast(ev, codec, g.api("FireList", "fireList", "fire_list"), "list: { Player }",
		"for _, player in list do", "")
	g.writeBroadcast(ev, codec, g.api("FireSet", "fireSet", "fire_set"), "set: { [Player]: true }",
		"for player in set do", "")
}

// writeBroadcast writes a fire function that serializes the value once and
// sends it to every player the loop visits
func (g *Generator) writeBroadcast(ev *schema.EventDecl, codec irgen.EventCodec, name, target, loop, filter string) {
	value := payloadParam(ev, string(irgen.ValueVar))

	g.writeLine("%s = function(%s)", name, args(target, value))
	g.in()
	g.writeLine("load_empty()")
	g.writeOps(codec.Ser)

	if ev.Transport == schema.Unreliable && target == "" {
		g.writeLine("unreliable:FireAllClients(take(), outgoing_inst)")
		g.out()
		g.writeLine("end,")
		return
	}

	if ev.Transport == schema.Reliable {
		g.writeLine("local buff, used, inst = outgoing_buff, outgoing_used, outgoing_inst")
	} else {
		g.writeLine("local buff, inst = take(), outgoing_inst")
	}

	g.writeLine(loop)
	g.in()
	if filter != "" {
		g.writeLine("if %s then", filter)
		g.in()
	}

	if ev.Transport == schema.Reliable {
		g.writeLine("load_player(player)")
		g.writeLine("alloc(used)")
		g.writeLine("buffer.copy(outgoing_buff, outgoing_apos, buff, 0, used)")
		g.writeLine("table.move(inst, 1, #inst, #outgoing_inst + 1, outgoing_inst)")
		g.writeLine("player_map[player] = save()")
	} else {
		g.writeLine("unreliable:FireClient(player, buff, inst)")
	}

	if filter != "" {
		g.out()
		g.writeLine("end")
	}
	g.out()
	g.writeLine("end")
	g.out()
	g.writeLine("end,")
}
