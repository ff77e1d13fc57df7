// Package errors provides structured diagnostics for the wire schema
// compiler. It defines error codes, categories, and formatting for both
// human-readable terminal output and machine-parseable JSON consumed by
// editors and the playground.
package errors

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/wirec-lang/wirec/internal/compiler/ast"
)

// ErrorCode represents a unique diagnostic code
type ErrorCode string

// ErrorCategory represents the category of a diagnostic
type ErrorCategory string

const (
	// CategorySyntax represents lexer and parser errors (SYN001-099)
	CategorySyntax ErrorCategory = "syntax"
	// CategorySemantic represents analyzer errors (SEM200-299)
	CategorySemantic ErrorCategory = "semantic"
	// CategorySize represents payload size errors and warnings (SIZ300-399)
	CategorySize ErrorCategory = "size"
	// CategoryOption represents schema option problems (CFG400-499)
	CategoryOption ErrorCategory = "option"
)

// ErrorSeverity indicates the severity level of a diagnostic
type ErrorSeverity string

const (
	// SeverityError prevents artifacts from being emitted
	SeverityError ErrorSeverity = "error"
	// SeverityWarning is reported but does not block emission
	SeverityWarning ErrorSeverity = "warning"
)

// ErrorContext provides source code context for an error
type ErrorContext struct {
	// Current is the line of code where the error occurred
	Current string `json:"current"`
	// SourceLines is a snippet of source code (before, error line, after)
	SourceLines []string `json:"source_lines"`
}

// Related points at a second location relevant to a diagnostic, such as
// the first declaration of a duplicated name.
type Related struct {
	Message  string             `json:"message"`
	Span     ast.Span           `json:"-"`
	Location ast.SourceLocation `json:"location"`
}

// CompilerError is a single diagnostic
type CompilerError struct {
	// Code is the unique error code (e.g., "SEM201")
	Code ErrorCode `json:"code"`
	// Type is a machine-readable error type identifier
	Type string `json:"type"`
	// Category is the error category
	Category ErrorCategory `json:"category"`
	// Severity is the error severity level
	Severity ErrorSeverity `json:"severity"`
	// Message is the primary error message
	Message string `json:"message"`
	// Span is the primary byte range in the source
	Span ast.Span `json:"-"`
	// Location is the line and column of Span.Start, filled by Locate
	Location ast.SourceLocation `json:"location"`
	// End is the line and column of Span.End, filled by Locate
	End ast.SourceLocation `json:"end"`
	// File is the source file name (optional)
	File string `json:"file,omitempty"`
	// Context provides source code context
	Context *ErrorContext `json:"context,omitempty"`
	// Related lists secondary locations
	Related []Related `json:"related,omitempty"`
	// Suggestion provides a hint for fixing the error (optional)
	Suggestion string `json:"suggestion,omitempty"`
	// Examples provides example fixes (optional)
	Examples []string `json:"examples,omitempty"`
}

// Error implements the error interface
func (e *CompilerError) Error() string {
	return FormatCompact(e)
}

// Format returns a human-readable error message for terminal output
func (e *CompilerError) Format() string {
	return FormatError(e)
}

// ToJSON returns the error as a JSON string
func (e *CompilerError) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// IsError reports whether the diagnostic blocks emission
func (e *CompilerError) IsError() bool {
	return e.Severity == SeverityError
}

// WithFile sets the source file name for the error
func (e *CompilerError) WithFile(file string) *CompilerError {
	e.File = file
	return e
}

// WithContext sets the source code context for the error
func (e *CompilerError) WithContext(current string, sourceLines []string) *CompilerError {
	e.Context = &ErrorContext{
		Current:     current,
		SourceLines: sourceLines,
	}
	return e
}

// WithSuggestion sets a suggestion for fixing the error
func (e *CompilerError) WithSuggestion(suggestion string) *CompilerError {
	e.Suggestion = suggestion
	return e
}

// WithExamples sets example fixes for the error
func (e *CompilerError) WithExamples(examples ...string) *CompilerError {
	e.Examples = examples
	return e
}

// WithRelated attaches a secondary location
func (e *CompilerError) WithRelated(span ast.Span, message string) *CompilerError {
	e.Related = append(e.Related, Related{Message: message, Span: span})
	return e
}

// Locate fills line and column information and a three-line source
// snippet from the given file.
func (e *CompilerError) Locate(file *ast.SourceFile) *CompilerError {
	if file == nil {
		return e
	}
	e.File = file.Name
	e.Location = file.Position(e.Span.Start)
	e.End = file.Position(e.Span.End)
	for i := range e.Related {
		e.Related[i].Location = file.Position(e.Related[i].Span.Start)
	}

	line := e.Location.Line
	lines := []string{file.Line(line - 1), file.Line(line), file.Line(line + 1)}
	return e.WithContext(file.Line(line), lines)
}

// ErrorList is a collection of diagnostics
type ErrorList []*CompilerError

// Error implements the error interface
func (el ErrorList) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	return FormatErrorList(el)
}

// HasErrors returns true if the list contains any errors (excludes warnings)
func (el ErrorList) HasErrors() bool {
	for _, err := range el {
		if err.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings returns true if the list contains any warnings
func (el ErrorList) HasWarnings() bool {
	for _, err := range el {
		if err.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// ToJSON returns all errors as a JSON array
func (el ErrorList) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(el, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// ErrorCount returns the number of diagnostics by severity
func (el ErrorList) ErrorCount() (errors, warnings int) {
	for _, err := range el {
		switch err.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	return
}

// WithCode returns the diagnostics carrying code
func (el ErrorList) WithCode(code ErrorCode) ErrorList {
	var out ErrorList
	for _, err := range el {
		if err.Code == code {
			out = append(out, err)
		}
	}
	return out
}

// Locate resolves positions for every diagnostic in the list
func (el ErrorList) Locate(file *ast.SourceFile) ErrorList {
	for _, err := range el {
		err.Locate(file)
	}
	return el
}

// Sort orders diagnostics by source position, keeping the relative order
// of diagnostics that start at the same offset.
func (el ErrorList) Sort() {
	sort.SliceStable(el, func(i, j int) bool {
		return el[i].Span.Start < el[j].Span.Start
	})
}

// newError creates a new CompilerError with the given parameters
func newError(
	code ErrorCode,
	typ string,
	category ErrorCategory,
	severity ErrorSeverity,
	message string,
	span ast.Span,
) *CompilerError {
	return &CompilerError{
		Code:     code,
		Type:     typ,
		Category: category,
		Severity: severity,
		Message:  message,
		Span:     span,
	}
}

func quote(name string) string {
	return fmt.Sprintf("'%s'", name)
}
