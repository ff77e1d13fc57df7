// Package docs renders a reference of a compiled schema: every event with
// its routing and payload size, every type with its wire shape, and an
// example value for each in the JSON form `wirec encode` accepts.
package docs

// Documentation is the extracted reference of one schema
type Documentation struct {
	// Schema is the schema file name
	Schema string `json:"schema"`

	// IDKind is the number type of the event id prefix
	IDKind string `json:"id_kind"`

	// Budget is the unreliable payload limit in bytes
	Budget int `json:"budget"`

	Options OptionsDoc  `json:"options"`
	Events  []*EventDoc `json:"events"`
	Types   []*TypeDoc  `json:"types"`
}

// OptionsDoc lists the effective schema options
type OptionsDoc struct {
	ServerOutput string `json:"server_output"`
	ClientOutput string `json:"client_output"`
	Casing       string `json:"casing"`
	WriteChecks  bool   `json:"write_checks"`
	Typescript   bool   `json:"typescript"`
}

// EventDoc documents one event
type EventDoc struct {
	Name      string `json:"name"`
	ID        int    `json:"id"`
	From      string `json:"from"`
	Transport string `json:"transport"`
	Call      string `json:"call"`

	// Data is the payload type as written in the schema, empty when the
	// event carries none
	Data string `json:"data,omitempty"`

	// Size is the payload size in bytes, excluding the id
	Size string `json:"size"`

	// OverBudget is set for unreliable events that may exceed the budget
	OverBudget bool `json:"over_budget,omitempty"`

	Shape   string `json:"shape"`
	Example any    `json:"example,omitempty"`
}

// TypeDoc documents one declared type
type TypeDoc struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
	Size       string `json:"size"`
	Shape      string `json:"shape"`
	Example    any    `json:"example"`

	// UsedBy lists the events whose payload reaches this type
	UsedBy []string `json:"used_by,omitempty"`
}
