package format

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

// DiffResult represents the difference between original and formatted code
type DiffResult struct {
	Path      string
	Original  string
	Formatted string
	Changed   bool
}

// Diff compares original and formatted code and returns the difference
func Diff(path, original, formatted string) *DiffResult {
	return &DiffResult{
		Path:      path,
		Original:  original,
		Formatted: formatted,
		Changed:   original != formatted,
	}
}

// UnifiedDiff returns a unified diff format string
func (d *DiffResult) UnifiedDiff() string {
	if !d.Changed {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(d.Original),
		B:        difflib.SplitLines(d.Formatted),
		FromFile: "a/" + d.Path,
		ToFile:   "b/" + d.Path,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}

// Colorize returns the unified diff with removed lines in red, added
// lines in green and hunk headers in cyan
func (d *DiffResult) Colorize(noColor bool) string {
	diff := d.UnifiedDiff()
	if noColor || diff == "" {
		return diff
	}

	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	red.EnableColor()
	green.EnableColor()
	cyan.EnableColor()

	var buf bytes.Buffer
	for _, line := range strings.SplitAfter(diff, "\n") {
		text := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(text, "---"), strings.HasPrefix(text, "+++"):
			buf.WriteString(line)
			continue
		case strings.HasPrefix(text, "@@"):
			cyan.Fprint(&buf, text)
		case strings.HasPrefix(text, "-"):
			red.Fprint(&buf, text)
		case strings.HasPrefix(text, "+"):
			green.Fprint(&buf, text)
		default:
			buf.WriteString(text)
		}
		if strings.HasSuffix(line, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// Stats returns statistics about the changes
func (d *DiffResult) Stats() string {
	if !d.Changed {
		return "No changes"
	}

	m := difflib.NewMatcher(difflib.SplitLines(d.Original), difflib.SplitLines(d.Formatted))
	added, removed, changed := 0, 0, 0
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'i':
			added += op.J2 - op.J1
		case 'd':
			removed += op.I2 - op.I1
		case 'r':
			changed += max(op.I2-op.I1, op.J2-op.J1)
		}
	}

	return fmt.Sprintf("%d lines changed, %d added, %d removed", changed, added, removed)
}
