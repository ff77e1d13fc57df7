// Package schema holds the validated semantic model of a wire schema: the
// named type table, the ordered event table, and global options. A Config
// is built once by the analyzer and read by everything after it.
package schema

import (
	"fmt"

	"github.com/wirec-lang/wirec/internal/compiler/ast"
)

// TypeDecl binds a name to a type
type TypeDecl struct {
	Name string
	Type Type
	Span ast.Span
}

// Side identifies one of the two endpoints
type Side int

const (
	Server Side = iota
	Client
)

func (s Side) String() string {
	if s == Server {
		return "Server"
	}
	return "Client"
}

// Other returns the opposite endpoint
func (s Side) Other() Side {
	if s == Server {
		return Client
	}
	return Server
}

// Transport is the delivery class of an event
type Transport int

const (
	Reliable Transport = iota
	Unreliable
)

func (t Transport) String() string {
	if t == Reliable {
		return "Reliable"
	}
	return "Unreliable"
}

// Call is the listener dispatch policy of an event
type Call int

const (
	SingleSync Call = iota
	SingleAsync
	ManySync
	ManyAsync
)

var callNames = [...]string{"SingleSync", "SingleAsync", "ManySync", "ManyAsync"}

func (c Call) String() string {
	return callNames[c]
}

// Single reports whether the event has at most one listener
func (c Call) Single() bool {
	return c == SingleSync || c == SingleAsync
}

// Async reports whether listeners run in a new thread
func (c Call) Async() bool {
	return c == SingleAsync || c == ManyAsync
}

// ParseCall looks up a call policy by name
func ParseCall(name string) (Call, bool) {
	for i, n := range callNames {
		if n == name {
			return Call(i), true
		}
	}
	return 0, false
}

// EventDecl is a directional message. ID is 1-based in declaration order.
type EventDecl struct {
	ID        int
	Name      string
	From      Side
	Transport Transport
	Call      Call
	Data      Type // nil when the event carries no payload
	Span      ast.Span
}

// Casing is the naming convention of the generated API
type Casing int

const (
	Pascal Casing = iota
	Camel
	Snake
)

var casingNames = [...]string{"PascalCase", "camelCase", "snake_case"}

func (c Casing) String() string {
	return casingNames[c]
}

// ParseCasing looks up a casing by its option spelling
func ParseCasing(name string) (Casing, bool) {
	for i, n := range casingNames {
		if n == name {
			return Casing(i), true
		}
	}
	return 0, false
}

// With picks the variant of a name matching the casing
func (c Casing) With(pascal, camel, snake string) string {
	switch c {
	case Camel:
		return camel
	case Snake:
		return snake
	}
	return pascal
}

// YieldType controls how generated code exposes asynchronous results
type YieldType int

const (
	Yield YieldType = iota
	Future
	Promise
)

var yieldNames = [...]string{"yield", "future", "promise"}

func (y YieldType) String() string {
	return yieldNames[y]
}

// ParseYieldType looks up a yield type by its option spelling
func ParseYieldType(name string) (YieldType, bool) {
	for i, n := range yieldNames {
		if n == name {
			return YieldType(i), true
		}
	}
	return 0, false
}

// Options are the schema-level settings set with `opt`
type Options struct {
	WriteChecks     bool
	Typescript      bool
	ServerOutput    string
	ClientOutput    string
	Casing          Casing
	ManualEventLoop bool
	YieldType       YieldType
	AsyncLib        string
}

// DefaultOptions returns the options used when a schema sets none
func DefaultOptions() Options {
	return Options{
		WriteChecks:  true,
		ServerOutput: "network/server.luau",
		ClientOutput: "network/client.luau",
		Casing:       Pascal,
		YieldType:    Yield,
	}
}

// Config is the validated schema
type Config struct {
	TypeDecls  []*TypeDecl
	EventDecls []*EventDecl
	Options    Options

	types map[string]*TypeDecl
}

// NewConfig builds a config and indexes its type table. Later declarations
// never replace earlier ones with the same name.
func NewConfig(types []*TypeDecl, events []*EventDecl, opts Options) *Config {
	c := &Config{
		TypeDecls:  types,
		EventDecls: events,
		Options:    opts,
		types:      make(map[string]*TypeDecl, len(types)),
	}
	for _, td := range types {
		if _, ok := c.types[td.Name]; !ok {
			c.types[td.Name] = td
		}
	}
	return c
}

// Type looks up a declared type by name
func (c *Config) Type(name string) (*TypeDecl, bool) {
	td, ok := c.types[name]
	return td, ok
}

// Event looks up an event by name
func (c *Config) Event(name string) (*EventDecl, bool) {
	for _, ev := range c.EventDecls {
		if ev.Name == name {
			return ev, true
		}
	}
	return nil, false
}

// EventIDKind is the encoding of the event id that prefixes every message
func (c *Config) EventIDKind() NumKind {
	return NumTy(1, float64(len(c.EventDecls)))
}

// Events returns the events that originate from side
func (c *Config) Events(from Side) []*EventDecl {
	var out []*EventDecl
	for _, ev := range c.EventDecls {
		if ev.From == from {
			out = append(out, ev)
		}
	}
	return out
}

// Resolve follows references until reaching a non-reference type. Unknown
// names and reference cycles return an error.
func (c *Config) Resolve(t Type) (Type, error) {
	seen := map[string]bool{}
	for {
		ref, ok := t.(Ref)
		if !ok {
			return t, nil
		}
		if seen[ref.Name] {
			return nil, fmt.Errorf("reference cycle through %q", ref.Name)
		}
		seen[ref.Name] = true
		td, ok := c.Type(ref.Name)
		if !ok {
			return nil, fmt.Errorf("unknown type %q", ref.Name)
		}
		t = td.Type
	}
}
