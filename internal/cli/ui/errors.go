package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/wirec-lang/wirec/internal/compiler/errors"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Consequence  string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

func newColor(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ SCHEMA NOT FOUND: net.wrie
//	   Cannot find schema 'net.wrie'.
//
//	   Did you mean: net.wire?
//
//	   → Create a project: wirec init
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var headerColor, bodyColor *color.Color
	var symbol string

	switch opts.Level {
	case ErrorLevelError:
		headerColor = newColor(opts.NoColor, color.FgRed, color.Bold)
		bodyColor = newColor(opts.NoColor, color.FgRed)
		symbol = "❌"
	case ErrorLevelWarning:
		headerColor = newColor(opts.NoColor, color.FgYellow, color.Bold)
		bodyColor = newColor(opts.NoColor, color.FgYellow)
		symbol = "⚠️"
	default:
		headerColor = newColor(opts.NoColor, color.FgCyan, color.Bold)
		bodyColor = newColor(opts.NoColor, color.FgCyan)
		symbol = "ℹ️"
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
		bodyColor.Fprintf(&b, "   %s\n", opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if opts.Consequence != "" {
		b.WriteString("\n")
		bodyColor.Fprintf(&b, "   %s\n", opts.Consequence)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		newColor(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := newColor(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return newColor(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// SchemaNotFoundError reports a missing schema file
func SchemaNotFoundError(path string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "SCHEMA NOT FOUND",
		Problem:     fmt.Sprintf("Cannot find schema '%s'.", path),
		Suggestions: suggestions,
		HelpCommands: []string{
			"Create a project: wirec init",
			"Get help: wirec build --help",
		},
		NoColor: noColor,
	})
}

// BuildError reports a schema that failed to compile
func BuildError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "BUILD FAILED",
		Problem:     message,
		Consequence: "No output files were written.",
		HelpCommands: []string{
			"Check the schema: wirec check",
			"Get help: wirec build --help",
		},
		NoColor: noColor,
	})
}

// StaleOutputError reports outputs that differ from what the schema produces
func StaleOutputError(paths []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:        ErrorLevelError,
		Context:      "OUTPUT OUT OF DATE",
		Problem:      fmt.Sprintf("%d generated file(s) differ from the schema: %s", len(paths), strings.Join(paths, ", ")),
		HelpCommands: []string{"Regenerate: wirec build"},
		NoColor:      noColor,
	})
}

// ConfigError reports an invalid wirec.yml
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "CONFIGURATION ERROR",
		Problem: message,
		HelpCommands: []string{
			"View config: cat wirec.yml",
			"Write a fresh config: wirec init",
		},
		NoColor: noColor,
	})
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelWarning,
		Problem: message,
		NoColor: noColor,
	})
}

// Info creates a standardized info message
func Info(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelInfo,
		Problem: message,
		NoColor: noColor,
	})
}

// WriteDiagnostics prints one line per diagnostic, colored by severity, with
// the suggestion and related locations indented below it. detailed switches
// to the full multi-line form with source context.
func WriteDiagnostics(w io.Writer, diags errors.ErrorList, detailed, noColor bool) {
	if detailed {
		fmt.Fprint(w, errors.FormatErrorList(diags))
		return
	}

	red := newColor(noColor, color.FgRed, color.Bold)
	yellow := newColor(noColor, color.FgYellow, color.Bold)
	gray := newColor(noColor, color.FgHiBlack)

	for _, d := range diags {
		file := d.File
		if file == "" {
			file = "<source>"
		}
		severity := red
		if !d.IsError() {
			severity = yellow
		}

		fmt.Fprintf(w, "%s:%d:%d: ", file, d.Location.Line, d.Location.Column)
		severity.Fprintf(w, "%s", d.Severity)
		fmt.Fprintf(w, ": %s ", d.Message)
		gray.Fprintf(w, "[%s]\n", d.Code)

		for _, r := range d.Related {
			gray.Fprintf(w, "    %s:%d:%d: %s\n", file, r.Location.Line, r.Location.Column, r.Message)
		}
		if d.Suggestion != "" {
			fmt.Fprintf(w, "    help: %s\n", d.Suggestion)
		}
	}
}

// Summary renders "2 errors, 1 warning" style counts
func Summary(diags errors.ErrorList) string {
	errs, warns := diags.ErrorCount()
	return fmt.Sprintf("%d %s, %d %s", errs, plural(errs, "error"), warns, plural(warns, "warning"))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
