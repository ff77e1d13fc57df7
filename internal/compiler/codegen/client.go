package codegen

import (
	"github.com/wirec-lang/wirec/internal/compiler/irgen"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// writeClientLoop writes the committed outgoing state and the function
// that sends it, run at most 61 times a second unless the schema asks to
// run it by hand
func (g *Generator) writeClientLoop() {
	g.writeLine("local outgoing = save()")
	g.writeLine("")
	g.writeLine("local function send_events()")
	g.in()
	g.writeLine("if outgoing.used > 0 then")
	g.in()
	g.writeLine("load(outgoing)")
	g.writeLine("reliable:FireServer(take(), outgoing_inst)")
	g.writeLine("load_empty()")
	g.writeLine("outgoing = save()")
	g.out()
	g.writeLine("end")
	g.out()
	g.writeLine("end")
	g.writeLine("")

	if g.cfg.Options.ManualEventLoop {
		return
	}

	g.writeLine("local elapsed = 0")
	g.writeLine("RunService.Heartbeat:Connect(function(dt)")
	g.in()
	g.writeLine("elapsed = elapsed + dt")
	g.writeLine("if elapsed >= (1 / 61) then")
	g.in()
	g.writeLine("elapsed = elapsed - (1 / 61)")
	g.writeLine("send_events()")
	g.out()
	g.writeLine("end")
	g.out()
	g.writeLine("end)")
	g.writeLine("")
}

// writeEventQueue declares a queue for every incoming event
func (g *Generator) writeEventQueue(reliable, unreliable []*schema.EventDecl) {
	g.writeLine("local event_queue = {}")
	for _, ev := range append(append([]*schema.EventDecl(nil), reliable...), unreliable...) {
		g.writeLine("event_queue[%d] = {}", ev.ID)
	}
	g.writeLine("")
}

func (g *Generator) writeClientFire(ev *schema.EventDecl) {
	codec, _ := g.prog.Event(ev.Name)

	g.writeLine("%s = function(%s)", g.api("Fire", "fire", "fire"), payloadParam(ev, string(irgen.ValueVar)))
	g.in()
	if ev.Transport == schema.Reliable {
		g.writeLine("load(outgoing)")
		g.writeOps(codec.Ser)
		g.writeLine("outgoing = save()")
	} else {
		g.writeLine("load_empty()")
		g.writeOps(codec.Ser)
		g.writeLine("unreliable:FireServer(take(), outgoing_inst)")
	}
	g.out()
	g.writeLine("end,")
}
