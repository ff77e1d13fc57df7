package errors

import (
	"fmt"
	"strings"
)

// FormatError returns a human-readable error message for terminal output
func FormatError(e *CompilerError) string {
	var b strings.Builder

	file := e.File
	if file == "" {
		file = "<source>"
	}

	fmt.Fprintf(&b, "%s %s [%s] in %s\n", severityIcon(e.Severity), categoryDisplayName(e.Category, e.Severity), e.Code, file)
	fmt.Fprintf(&b, "Line %d, Column %d:\n", e.Location.Line, e.Location.Column)

	if e.Context != nil && len(e.Context.SourceLines) > 0 {
		for i, line := range e.Context.SourceLines {
			lineNum := e.Location.Line - 1 + i
			if lineNum < 1 || (i != 1 && line == "") {
				continue
			}
			if i == 1 {
				fmt.Fprintf(&b, "%s  %s ← %s\n", formatLineNumber(lineNum), line, e.Message)
			} else {
				fmt.Fprintf(&b, "%s  %s\n", formatLineNumber(lineNum), line)
			}
		}
	} else {
		fmt.Fprintf(&b, "  %s\n", e.Message)
	}

	for _, rel := range e.Related {
		fmt.Fprintf(&b, "  note: %s (line %d, column %d)\n", rel.Message, rel.Location.Line, rel.Location.Column)
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n💡 %s\n", e.Suggestion)
	}

	if len(e.Examples) > 0 {
		b.WriteString("\nAccepted values:\n")
		for i, example := range e.Examples {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, example)
		}
	}

	return b.String()
}

// FormatErrorList returns a formatted string of all errors
func FormatErrorList(errors ErrorList) string {
	if len(errors) == 0 {
		return "no errors"
	}

	var b strings.Builder

	errCount, warnCount := errors.ErrorCount()
	if errCount > 0 {
		fmt.Fprintf(&b, "Compilation failed with %d error(s), %d warning(s)\n\n", errCount, warnCount)
	} else {
		fmt.Fprintf(&b, "Compilation finished with %d warning(s)\n\n", warnCount)
	}

	for i, err := range errors {
		if i > 0 {
			b.WriteString("\n" + strings.Repeat("-", 80) + "\n\n")
		}
		b.WriteString(err.Format())
	}

	return b.String()
}

// FormatCompact returns a compact one-line error format
func FormatCompact(e *CompilerError) string {
	file := e.File
	if file == "" {
		file = "<source>"
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s [%s]",
		file, e.Location.Line, e.Location.Column,
		e.Severity, e.Message, e.Code)
}

func severityIcon(severity ErrorSeverity) string {
	switch severity {
	case SeverityError:
		return "❌"
	case SeverityWarning:
		return "⚠️ "
	default:
		return "❓"
	}
}

func categoryDisplayName(category ErrorCategory, severity ErrorSeverity) string {
	suffix := "Error"
	if severity == SeverityWarning {
		suffix = "Warning"
	}
	switch category {
	case CategorySyntax:
		return "Syntax " + suffix
	case CategorySemantic:
		return "Schema " + suffix
	case CategorySize:
		return "Size " + suffix
	case CategoryOption:
		return "Option " + suffix
	default:
		return suffix
	}
}

func formatLineNumber(n int) string {
	return fmt.Sprintf("%4d |", n)
}
