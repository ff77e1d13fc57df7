// Package wire executes codec programs on Go values. It is a reference
// implementation of the generated Luau: the same ops, the same byte layout,
// and the same runtime errors. Values use Luau-like host types: bool,
// float64, string, []byte, *Table, the platform structs, and *Instance.
package wire

import (
	"fmt"

	"github.com/wirec-lang/wirec/internal/compiler/irgen"
)

// Message is one encoded value: the byte buffer plus the handles that
// travel beside it.
type Message struct {
	Buf     []byte
	Handles []any
}

// RuntimeError is a failed assertion or throw in a codec. It is the
// equivalent of the error raised by generated code.
type RuntimeError struct {
	Codec   string
	Message string
}

func (e *RuntimeError) Error() string {
	if e.Codec == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Codec, e.Message)
}

// TrailingBytesError reports bytes left over after a complete decode
type TrailingBytesError struct {
	Count int
}

func (e *TrailingBytesError) Error() string {
	return fmt.Sprintf("%d trailing bytes after message", e.Count)
}

// Encode serializes value as the named type
func Encode(prog *irgen.Program, typeName string, value any) (Message, error) {
	m := newMachine(prog)
	body, err := m.codecBody(typeName, true)
	if err != nil {
		return Message{}, err
	}
	if _, err := m.run(typeName, body, value); err != nil {
		return Message{}, err
	}
	return Message{Buf: m.out, Handles: m.handles}, nil
}

// Decode deserializes a value of the named type. The message must be
// consumed exactly.
func Decode(prog *irgen.Program, typeName string, msg Message) (any, error) {
	m := newMachine(prog)
	m.in, m.handles = msg.Buf, msg.Handles

	body, err := m.codecBody(typeName, false)
	if err != nil {
		return nil, err
	}
	v, err := m.run(typeName, body, nil)
	if err != nil {
		return nil, err
	}
	if rest := len(m.in) - m.pos; rest > 0 {
		return nil, &TrailingBytesError{Count: rest}
	}
	return v, nil
}

// EncodeEvent serializes an event: its id followed by its payload. value
// is ignored for events without data.
func EncodeEvent(prog *irgen.Program, event string, value any) (Message, error) {
	ev, ok := prog.Event(event)
	if !ok {
		return Message{}, fmt.Errorf("unknown event %q", event)
	}

	m := newMachine(prog)
	body, err := m.compile("event "+event, true, ev.Ser)
	if err != nil {
		return Message{}, err
	}
	if _, err := m.run(ev.Name, body, value); err != nil {
		return Message{}, err
	}
	return Message{Buf: m.out, Handles: m.handles}, nil
}

// Delivery is one decoded event
type Delivery struct {
	Event string
	ID    int
	Value any
}

// DecodeEvent decodes a single event message
func DecodeEvent(prog *irgen.Program, msg Message) (Delivery, error) {
	m := newMachine(prog)
	m.in, m.handles = msg.Buf, msg.Handles

	d, err := m.nextEvent()
	if err != nil {
		return Delivery{}, err
	}
	if rest := len(m.in) - m.pos; rest > 0 {
		return Delivery{}, &TrailingBytesError{Count: rest}
	}
	return d, nil
}

// DecodeBatch decodes events packed back to back, as the reliable channel
// sends them once per frame.
func DecodeBatch(prog *irgen.Program, msg Message) ([]Delivery, error) {
	m := newMachine(prog)
	m.in, m.handles = msg.Buf, msg.Handles

	var out []Delivery
	for m.pos < len(m.in) {
		d, err := m.nextEvent()
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Concat packs messages into one batch
func Concat(msgs ...Message) Message {
	var out Message
	for _, msg := range msgs {
		out.Buf = append(out.Buf, msg.Buf...)
		out.Handles = append(out.Handles, msg.Handles...)
	}
	return out
}

func (m *machine) nextEvent() (Delivery, error) {
	kind := m.prog.IDKind
	if m.pos+kind.Size() > len(m.in) {
		return Delivery{}, &RuntimeError{Message: "buffer read out of bounds"}
	}
	id := int(readNum(m.in[m.pos:], kind))
	m.pos += kind.Size()

	ev, ok := m.prog.EventByID(id)
	if !ok {
		return Delivery{}, &RuntimeError{Message: fmt.Sprintf("unknown event id %d", id)}
	}

	body, err := m.compile("event "+ev.Name, false, ev.PayloadDes())
	if err != nil {
		return Delivery{}, err
	}
	v, err := m.run(ev.Name, body, nil)
	if err != nil {
		return Delivery{}, err
	}
	return Delivery{Event: ev.Name, ID: id, Value: v}, nil
}
