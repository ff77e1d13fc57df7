package errors

import (
	"fmt"
	"strings"

	"github.com/wirec-lang/wirec/internal/compiler/ast"
)

// Option codes (CFG400-499)
const (
	// WarnUnknownOption indicates an `opt` name the compiler does not know
	WarnUnknownOption ErrorCode = "CFG400"
	// ErrInvalidOptionValue indicates a value of the wrong kind or outside the allowed set
	ErrInvalidOptionValue ErrorCode = "CFG401"
	// ErrMissingOptionValue indicates `opt name =` with nothing after it
	ErrMissingOptionValue ErrorCode = "CFG402"
	// WarnDuplicateOption indicates the same option set twice; the last one wins
	WarnDuplicateOption ErrorCode = "CFG403"
)

// NewUnknownOption creates a CFG400 warning
func NewUnknownOption(span ast.Span, name string, known []string) *CompilerError {
	return newError(
		WarnUnknownOption,
		"unknown_option",
		CategoryOption,
		SeverityWarning,
		fmt.Sprintf("Unknown option %s", quote(name)),
		span,
	).WithSuggestion("Known options: " + strings.Join(known, ", "))
}

// NewInvalidOptionValue creates a CFG401 error
func NewInvalidOptionValue(span ast.Span, name, expected string) *CompilerError {
	return newError(
		ErrInvalidOptionValue,
		"invalid_option_value",
		CategoryOption,
		SeverityError,
		fmt.Sprintf("Invalid value for option %s, expected %s", quote(name), expected),
		span,
	)
}

// NewMissingOptionValue creates a CFG402 error
func NewMissingOptionValue(span ast.Span, name string) *CompilerError {
	return newError(
		ErrMissingOptionValue,
		"missing_option_value",
		CategoryOption,
		SeverityError,
		fmt.Sprintf("Option %s has no value", quote(name)),
		span,
	)
}

// NewDuplicateOption creates a CFG403 warning
func NewDuplicateOption(span, first ast.Span, name string) *CompilerError {
	return newError(
		WarnDuplicateOption,
		"duplicate_option",
		CategoryOption,
		SeverityWarning,
		fmt.Sprintf("Option %s is set more than once; the last value wins", quote(name)),
		span,
	).WithRelated(first, "first set here")
}
