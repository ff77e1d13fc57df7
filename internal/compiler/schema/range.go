package schema

import (
	"fmt"
	"math"
)

// Range is an optional inclusive bound on a value or a length
type Range struct {
	Min *float64
	Max *float64
}

// NewRange builds a range with both ends present
func NewRange(min, max float64) Range {
	return Range{Min: &min, Max: &max}
}

// ExactRange builds a range holding exactly n
func ExactRange(n float64) Range {
	return NewRange(n, n)
}

// AtLeast builds a range with only a minimum
func AtLeast(min float64) Range {
	return Range{Min: &min}
}

// AtMost builds a range with only a maximum
func AtMost(max float64) Range {
	return Range{Max: &max}
}

// Exact reports whether both ends are present and equal
func (r Range) Exact() bool {
	return r.Min != nil && r.Max != nil && *r.Min == *r.Max
}

// Empty reports whether the range places no constraint at all
func (r Range) Empty() bool {
	return r.Min == nil && r.Max == nil
}

// MinOr returns the minimum or def when absent
func (r Range) MinOr(def float64) float64 {
	if r.Min == nil {
		return def
	}
	return *r.Min
}

// MaxOr returns the maximum or def when absent
func (r Range) MaxOr(def float64) float64 {
	if r.Max == nil {
		return def
	}
	return *r.Max
}

// Len returns the exact length when the range is exact
func (r Range) Len() (int, bool) {
	if !r.Exact() {
		return 0, false
	}
	return int(*r.Min), true
}

// String renders the range in schema syntax, e.g. "0..10" or "..255"
func (r Range) String() string {
	if r.Exact() {
		return formatBound(*r.Min)
	}
	s := ""
	if r.Min != nil {
		s += formatBound(*r.Min)
	}
	s += ".."
	if r.Max != nil {
		s += formatBound(*r.Max)
	}
	return s
}

func formatBound(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
