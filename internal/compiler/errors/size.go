package errors

import (
	"fmt"
	"math"

	"github.com/wirec-lang/wirec/internal/compiler/ast"
)

// Size codes (SIZ300-399)
const (
	// ErrOversizeUnreliable indicates an unreliable event that can never fit
	ErrOversizeUnreliable ErrorCode = "SIZ300"
	// WarnPotentiallyOversize indicates an unreliable event that may not fit
	WarnPotentiallyOversize ErrorCode = "SIZ301"
)

// NewOversizeUnreliable creates a SIZ300 error
func NewOversizeUnreliable(span ast.Span, event string, min, budget int) *CompilerError {
	msg := fmt.Sprintf("Unreliable event %s needs at least %d bytes but the limit is %d", quote(event), min, budget)
	if min == math.MaxInt {
		msg = fmt.Sprintf("Unreliable event %s needs more bytes than can be counted; the limit is %d", quote(event), budget)
	}
	return newError(
		ErrOversizeUnreliable,
		"oversize_unreliable",
		CategorySize,
		SeverityError,
		msg,
		span,
	).WithSuggestion("Make the event Reliable or shrink its payload")
}

// NewPotentiallyOversize creates a SIZ301 warning. A negative max means the
// payload size has no static upper bound.
func NewPotentiallyOversize(span ast.Span, event string, max, budget int) *CompilerError {
	msg := fmt.Sprintf("Unreliable event %s has no upper size bound and may exceed %d bytes", quote(event), budget)
	if max >= 0 {
		msg = fmt.Sprintf("Unreliable event %s may need up to %d bytes, over the %d byte limit", quote(event), max, budget)
	}
	return newError(
		WarnPotentiallyOversize,
		"potentially_oversize",
		CategorySize,
		SeverityWarning,
		msg,
		span,
	).WithSuggestion("Bound the lengths of strings, buffers, and arrays in the payload")
}
