package wire

import (
	"math"
	"sort"
)

// Table is the host representation of records, arrays, and maps. Keys are
// float64, string, or bool; integral numbers of any Go type are stored as
// float64. Arrays use keys 1..n.
type Table struct {
	entries map[any]any
}

// NewTable returns an empty table
func NewTable() *Table {
	return &Table{entries: make(map[any]any)}
}

// Array builds a table holding items at keys 1..len(items)
func Array(items ...any) *Table {
	t := NewTable()
	for i, v := range items {
		t.Set(float64(i+1), v)
	}
	return t
}

// Record builds a table from string keys
func Record(fields map[string]any) *Table {
	t := NewTable()
	for k, v := range fields {
		t.Set(k, v)
	}
	return t
}

// Get returns the value at k, or nil
func (t *Table) Get(k any) any {
	return t.entries[normalizeKey(k)]
}

// Set stores v at k. A nil v removes the key.
func (t *Table) Set(k, v any) {
	k = normalizeKey(k)
	if v == nil {
		delete(t.entries, k)
		return
	}
	t.entries[k] = v
}

// Len returns n such that keys 1..n are all present and n+1 is not
func (t *Table) Len() int {
	n := 0
	for {
		if _, ok := t.entries[float64(n+1)]; !ok {
			return n
		}
		n++
	}
}

// Count returns the number of keys
func (t *Table) Count() int {
	return len(t.entries)
}

// Keys returns every key in a stable order: numbers ascending, then
// strings, then false and true.
func (t *Table) Keys() []any {
	keys := make([]any, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keyLess(keys[i], keys[j])
	})
	return keys
}

// IsArray reports whether the keys are exactly 1..n
func (t *Table) IsArray() bool {
	return t.Len() == len(t.entries)
}

func keyRank(k any) int {
	switch k.(type) {
	case float64:
		return 0
	case string:
		return 1
	}
	return 2
}

func keyLess(a, b any) bool {
	ra, rb := keyRank(a), keyRank(b)
	if ra != rb {
		return ra < rb
	}
	switch a := a.(type) {
	case float64:
		return a < b.(float64)
	case string:
		return a < b.(string)
	case bool:
		return !a && b.(bool)
	}
	return false
}

func normalizeKey(k any) any {
	if f, ok := toNumber(k); ok {
		return f
	}
	return k
}

// toNumber widens any Go number to float64
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// Equal compares host values structurally. Tables compare by content,
// instances by identity, and numbers by value.
func Equal(a, b any) bool {
	if an, ok := toNumber(a); ok {
		bn, ok := toNumber(b)
		return ok && (an == bn || math.IsNaN(an) && math.IsNaN(bn))
	}

	switch a := a.(type) {
	case nil:
		return b == nil
	case *Table:
		bt, ok := b.(*Table)
		if !ok || len(a.entries) != len(bt.entries) {
			return false
		}
		for k, v := range a.entries {
			if !Equal(v, bt.entries[k]) {
				return false
			}
		}
		return true
	case []byte:
		bb, ok := b.([]byte)
		return ok && string(a) == string(bb)
	}
	return a == b
}
