package errors

import (
	"fmt"

	"github.com/wirec-lang/wirec/internal/compiler/ast"
)

// Semantic error codes (SEM200-299)
const (
	// ErrUnresolvedType indicates a reference to an undeclared type
	ErrUnresolvedType ErrorCode = "SEM200"
	// ErrDuplicateType indicates a type name was declared twice
	ErrDuplicateType ErrorCode = "SEM201"
	// ErrDuplicateEvent indicates an event name was declared twice
	ErrDuplicateEvent ErrorCode = "SEM202"
	// ErrDuplicateField indicates a struct declares a field twice
	ErrDuplicateField ErrorCode = "SEM203"
	// ErrDuplicateVariant indicates an enum repeats a variant or case name
	ErrDuplicateVariant ErrorCode = "SEM204"
	// ErrTagUsedAsField indicates a tagged enum case declares its tag as a field
	ErrTagUsedAsField ErrorCode = "SEM205"
	// ErrInvalidRange indicates a range whose minimum exceeds its maximum
	ErrInvalidRange ErrorCode = "SEM206"
	// ErrRangeOutOfDomain indicates a bound the declared kind cannot represent
	ErrRangeOutOfDomain ErrorCode = "SEM207"
	// ErrUnboundedRecursion indicates a type that can only be infinitely large
	ErrUnboundedRecursion ErrorCode = "SEM208"
	// ErrEmptyEnum indicates an enum with no variants
	ErrEmptyEnum ErrorCode = "SEM209"
	// ErrInvalidOptional indicates an optional that cannot be encoded
	ErrInvalidOptional ErrorCode = "SEM210"
	// ErrReservedName indicates a declaration shadows a built-in type
	ErrReservedName ErrorCode = "SEM211"
	// ErrInvalidEventField indicates an unknown key or bad value in an event
	ErrInvalidEventField ErrorCode = "SEM212"
	// ErrMissingEventField indicates a required event key is absent
	ErrMissingEventField ErrorCode = "SEM213"
	// ErrDuplicateEventField indicates an event key was given twice
	ErrDuplicateEventField ErrorCode = "SEM214"
	// ErrInvalidTypeArgument indicates a class argument on a type that takes none
	ErrInvalidTypeArgument ErrorCode = "SEM215"
	// ErrNonIntegralBound indicates a fractional bound on an integer kind or length
	ErrNonIntegralBound ErrorCode = "SEM216"
	// WarnNoEvents indicates a schema that declares no events
	WarnNoEvents ErrorCode = "SEM250"
)

// NewUnresolvedType creates a SEM200 error
func NewUnresolvedType(span ast.Span, name string, suggestions []string) *CompilerError {
	err := newError(
		ErrUnresolvedType,
		"unresolved_type",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Unknown type %s", quote(name)),
		span,
	)
	if len(suggestions) > 0 {
		err.WithSuggestion(fmt.Sprintf("Did you mean %s?", quote(suggestions[0])))
	} else {
		err.WithSuggestion("Declare it with 'type " + name + " = ...' or use a built-in type")
	}
	return err
}

func newDuplicate(code ErrorCode, typ, what, name string, span, first ast.Span) *CompilerError {
	return newError(
		code,
		typ,
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Duplicate %s %s", what, quote(name)),
		span,
	).WithRelated(first, fmt.Sprintf("%s first declared here", quote(name)))
}

// NewDuplicateType creates a SEM201 error
func NewDuplicateType(span, first ast.Span, name string) *CompilerError {
	return newDuplicate(ErrDuplicateType, "duplicate_type", "type", name, span, first)
}

// NewDuplicateEvent creates a SEM202 error
func NewDuplicateEvent(span, first ast.Span, name string) *CompilerError {
	return newDuplicate(ErrDuplicateEvent, "duplicate_event", "event", name, span, first)
}

// NewDuplicateField creates a SEM203 error
func NewDuplicateField(span, first ast.Span, name string) *CompilerError {
	return newDuplicate(ErrDuplicateField, "duplicate_field", "field", name, span, first)
}

// NewDuplicateVariant creates a SEM204 error
func NewDuplicateVariant(span, first ast.Span, name string) *CompilerError {
	return newDuplicate(ErrDuplicateVariant, "duplicate_variant", "variant", name, span, first)
}

// NewTagUsedAsField creates a SEM205 error
func NewTagUsedAsField(span, tagSpan ast.Span, tag string) *CompilerError {
	return newError(
		ErrTagUsedAsField,
		"tag_used_as_field",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Field %s collides with the enum tag", quote(tag)),
		span,
	).WithRelated(tagSpan, "tag declared here").
		WithSuggestion("Rename the field; the tag is written implicitly")
}

// NewInvalidRange creates a SEM206 error
func NewInvalidRange(span ast.Span, min, max float64) *CompilerError {
	return newError(
		ErrInvalidRange,
		"invalid_range",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Range minimum %g is greater than maximum %g", min, max),
		span,
	)
}

// NewRangeOutOfDomain creates a SEM207 error
func NewRangeOutOfDomain(span ast.Span, value float64, kind string, lo, hi float64) *CompilerError {
	return newError(
		ErrRangeOutOfDomain,
		"range_out_of_domain",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Bound %g is outside the range of %s", value, kind),
		span,
	).WithSuggestion(fmt.Sprintf("%s holds values from %g to %g", kind, lo, hi))
}

// NewUnboundedRecursion creates a SEM208 error
func NewUnboundedRecursion(span, refSpan ast.Span, name string) *CompilerError {
	return newError(
		ErrUnboundedRecursion,
		"unbounded_recursion",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Type %s contains itself with no way to terminate", quote(name)),
		span,
	).WithRelated(refSpan, "recursive reference here").
		WithSuggestion("Break the cycle with an optional, a map, or an array that may be empty")
}

// NewEmptyEnum creates a SEM209 error
func NewEmptyEnum(span ast.Span) *CompilerError {
	return newError(
		ErrEmptyEnum,
		"empty_enum",
		CategorySemantic,
		SeverityError,
		"Enum must declare at least one variant",
		span,
	)
}

// NewInvalidOptional creates a SEM210 error
func NewInvalidOptional(span ast.Span, reason string) *CompilerError {
	return newError(
		ErrInvalidOptional,
		"invalid_optional",
		CategorySemantic,
		SeverityError,
		"Invalid optional type: "+reason,
		span,
	)
}

// NewReservedName creates a SEM211 error
func NewReservedName(span ast.Span, name string) *CompilerError {
	return newError(
		ErrReservedName,
		"reserved_name",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("%s is a built-in type and cannot be redeclared", quote(name)),
		span,
	)
}

// NewInvalidEventField creates a SEM212 error
func NewInvalidEventField(span ast.Span, message string, allowed []string) *CompilerError {
	err := newError(
		ErrInvalidEventField,
		"invalid_event_field",
		CategorySemantic,
		SeverityError,
		message,
		span,
	)
	if len(allowed) > 0 {
		err.WithExamples(allowed...)
	}
	return err
}

// NewMissingEventField creates a SEM213 error
func NewMissingEventField(span ast.Span, event, key string) *CompilerError {
	return newError(
		ErrMissingEventField,
		"missing_event_field",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Event %s is missing required field %s", quote(event), quote(key)),
		span,
	)
}

// NewDuplicateEventField creates a SEM214 error
func NewDuplicateEventField(span, first ast.Span, key string) *CompilerError {
	return newDuplicate(ErrDuplicateEventField, "duplicate_event_field", "event field", key, span, first)
}

// NewInvalidTypeArgument creates a SEM215 error
func NewInvalidTypeArgument(span ast.Span, name string) *CompilerError {
	return newError(
		ErrInvalidTypeArgument,
		"invalid_type_argument",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Type %s does not take an argument", quote(name)),
		span,
	)
}

// NewNonIntegralBound creates a SEM216 error
func NewNonIntegralBound(span ast.Span, value float64, what string) *CompilerError {
	return newError(
		ErrNonIntegralBound,
		"non_integral_bound",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Bound %g must be a whole number for %s", value, what),
		span,
	)
}

// NewNoEvents creates a SEM250 warning
func NewNoEvents(span ast.Span) *CompilerError {
	return newError(
		WarnNoEvents,
		"no_events",
		CategorySemantic,
		SeverityWarning,
		"Schema declares no events; generated files will only contain types",
		span,
	)
}
