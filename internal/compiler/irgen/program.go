package irgen

import (
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// Program holds the codecs of every declared type and event of a Config,
// in declaration order.
type Program struct {
	IDKind schema.NumKind
	Types  []Codec
	Events []EventCodec

	types  map[string]int
	events map[string]int
}

// Generate builds the program of cfg
func Generate(cfg *schema.Config) *Program {
	g := NewGenerator(cfg)
	p := &Program{
		IDKind: cfg.EventIDKind(),
		Types:  make([]Codec, 0, len(cfg.TypeDecls)),
		Events: make([]EventCodec, 0, len(cfg.EventDecls)),
		types:  make(map[string]int, len(cfg.TypeDecls)),
		events: make(map[string]int, len(cfg.EventDecls)),
	}

	for _, td := range cfg.TypeDecls {
		p.types[td.Name] = len(p.Types)
		p.Types = append(p.Types, g.Type(td))
	}
	for _, ev := range cfg.EventDecls {
		p.events[ev.Name] = len(p.Events)
		p.Events = append(p.Events, g.Event(ev))
	}

	return p
}

// Type looks up the codec of a declared type
func (p *Program) Type(name string) (Codec, bool) {
	i, ok := p.types[name]
	if !ok {
		return Codec{}, false
	}
	return p.Types[i], true
}

// Event looks up the codec of an event
func (p *Program) Event(name string) (EventCodec, bool) {
	i, ok := p.events[name]
	if !ok {
		return EventCodec{}, false
	}
	return p.Events[i], true
}

// EventByID looks up an event by its wire id
func (p *Program) EventByID(id int) (EventCodec, bool) {
	if id < 1 || id > len(p.Events) {
		return EventCodec{}, false
	}
	return p.Events[id-1], true
}

// Writers resolves named calls in serializers, for Shape
func (p *Program) Writers(name string) ([]Op, bool) {
	c, ok := p.Type(name)
	return c.Ser, ok
}

// Readers resolves named calls in deserializers, for Shape
func (p *Program) Readers(name string) ([]Op, bool) {
	c, ok := p.Type(name)
	return c.Des, ok
}
