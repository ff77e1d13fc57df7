package codegen

import (
	"strconv"

	"github.com/wirec-lang/wirec/internal/compiler/irgen"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// incoming splits the events a side receives by transport
func (g *Generator) incoming(side schema.Side) (reliable, unreliable []*schema.EventDecl) {
	for _, ev := range g.cfg.Events(side.Other()) {
		if ev.Transport == schema.Reliable {
			reliable = append(reliable, ev)
		} else {
			unreliable = append(unreliable, ev)
		}
	}
	return reliable, unreliable
}

// writeHandler connects a remote to a function that decodes its messages
// and dispatches them. Reliable messages carry a batch of events, so the
// handler loops until the buffer is consumed.
func (g *Generator) writeHandler(side schema.Side, remote string, events []*schema.EventDecl, batch bool) {
	if side == schema.Server {
		g.writeLine("%s.OnServerEvent:Connect(function(player, buff, inst)", remote)
	} else {
		g.writeLine("%s.OnClientEvent:Connect(function(buff, inst)", remote)
	}
	g.in()
	g.writeLine("load_incoming(buff, inst)")

	if batch {
		g.writeLine("local len = buffer.len(buff)")
		g.writeLine("while incoming_read < len do")
		g.in()
	}

	g.writeLine("local %s", irgen.IDVar)
	g.writeOp(irgen.ReadNum{Kind: g.prog.IDKind, Into: irgen.IDVar})

	for i, ev := range events {
		if i == 0 {
			g.writeLine("if %s == %d then", irgen.IDVar, ev.ID)
		} else {
			g.writeLine("elseif %s == %d then", irgen.IDVar, ev.ID)
		}
		g.in()
		g.writeLine("local %s", irgen.ValueVar)
		codec, _ := g.prog.Event(ev.Name)
		g.writeOps(codec.PayloadDes())
		g.writeDispatch(side, ev)
		g.out()
	}
	if len(events) > 0 {
		g.writeLine("else")
		g.in()
		g.writeLine(`error("Unknown event id")`)
		g.out()
		g.writeLine("end")
	} else {
		g.writeLine(`error("Unknown event id")`)
	}

	if batch {
		g.out()
		g.writeLine("end")
	}
	g.out()
	g.writeLine("end)")
	g.writeLine("")
}

// callArgs are the arguments listeners of ev receive
func callArgs(side schema.Side, ev *schema.EventDecl) string {
	player, value := "", ""
	if side == schema.Server {
		player = "player"
	}
	if ev.Data != nil {
		value = string(irgen.ValueVar)
	}
	return args(player, value)
}

// writeDispatch hands a decoded value to the listeners of ev. Clients queue
// values that arrive before a listener is attached.
func (g *Generator) writeDispatch(side schema.Side, ev *schema.EventDecl) {
	listeners := "events[" + strconv.Itoa(ev.ID) + "]"
	present := listeners
	if !ev.Call.Single() {
		present = listeners + "[1]"
	}

	g.writeLine("if %s then", present)
	g.in()
	g.writeCall(ev, listeners, callArgs(side, ev))
	g.out()

	if side == schema.Client {
		queue := "event_queue[" + strconv.Itoa(ev.ID) + "]"
		entry := "{}"
		if ev.Data != nil {
			entry = "{ " + string(irgen.ValueVar) + " }"
		}
		g.writeLine("else")
		g.in()
		g.writeLine("table.insert(%s, %s)", queue, entry)
		g.writeLine("if #%s > 64 then", queue)
		g.in()
		g.writeLine("warn(`[wirec] {#%s} events in queue for %s. Did you forget to attach a listener?`)", queue, ev.Name)
		g.out()
		g.writeLine("end")
		g.out()
	}
	g.writeLine("end")
}

// writeCall invokes the listeners of ev with callArgs according to its call
// policy
func (g *Generator) writeCall(ev *schema.EventDecl, listeners, callArgs string) {
	switch ev.Call {
	case schema.SingleSync:
		g.writeLine("%s(%s)", listeners, callArgs)
	case schema.SingleAsync:
		g.writeLine("task.spawn(%s)", args(listeners, callArgs))
	case schema.ManySync:
		g.writeLine("for _, callback in %s do", listeners)
		g.in()
		g.writeLine("callback(%s)", callArgs)
		g.out()
		g.writeLine("end")
	case schema.ManyAsync:
		g.writeLine("for _, callback in %s do", listeners)
		g.in()
		g.writeLine("task.spawn(%s)", args("callback", callArgs))
		g.out()
		g.writeLine("end")
	}
}

// writeListen writes the SetCallback or On function of an incoming event
func (g *Generator) writeListen(side schema.Side, ev *schema.EventDecl) {
	listeners := "events[" + strconv.Itoa(ev.ID) + "]"
	params := ""
	if side == schema.Server {
		params = "Player"
	}
	if ev.Data != nil {
		params = args(params, luauType(ev.Data))
	}
	callbackTy := "(" + params + ") -> ()"

	if ev.Call.Single() {
		g.writeLine("%s = function(callback: %s): () -> ()", g.api("SetCallback", "setCallback", "set_callback"), callbackTy)
		g.in()
		g.writeLine("%s = callback", listeners)
	} else {
		g.writeLine("%s = function(callback: %s): () -> ()", g.api("On", "on", "on"), callbackTy)
		g.in()
		g.writeLine("table.insert(%s, callback)", listeners)
	}

	if side == schema.Client {
		g.writeFlush(ev)
	}

	g.writeLine("return function()")
	g.in()
	if ev.Call.Single() {
		g.writeLine("if %s == callback then", listeners)
		g.in()
		g.writeLine("%s = nil", listeners)
		g.out()
		g.writeLine("end")
	} else {
		g.writeLine("local index = table.find(%s, callback)", listeners)
		g.writeLine("if index then")
		g.in()
		g.writeLine("table.remove(%s, index)", listeners)
		g.out()
		g.writeLine("end")
	}
	g.out()
	g.writeLine("end")
	g.out()
	g.writeLine("end,")
}

// writeFlush delivers queued values to a newly attached callback. Entries
// are boxed so that nil payloads keep their place in the queue.
func (g *Generator) writeFlush(ev *schema.EventDecl) {
	queue := "event_queue[" + strconv.Itoa(ev.ID) + "]"
	value := ""
	if ev.Data != nil {
		value = "entry[1]"
	}

	g.writeLine("for _, entry in %s do", queue)
	g.in()
	if ev.Call.Async() {
		g.writeLine("task.spawn(%s)", args("callback", value))
	} else {
		g.writeLine("callback(%s)", value)
	}
	g.out()
	g.writeLine("end")
	g.writeLine("%s = {}", queue)
}
