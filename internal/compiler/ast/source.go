package ast

import (
	"sort"
	"strings"
)

// Span is a half-open byte range [Start, End) in a schema source
type Span struct {
	Start int
	End   int
}

// To returns the span covering s through other
func (s Span) To(other Span) Span {
	return Span{Start: s.Start, End: other.End}
}

// Contains reports whether offset falls inside the span
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// SourceLocation tracks a human-facing position in source code
type SourceLocation struct {
	Line   int `json:"line"`   // Line number (1-indexed)
	Column int `json:"column"` // Column number (1-indexed)
}

// SourceFile holds the text of a schema and maps byte offsets to lines and
// columns.
type SourceFile struct {
	Name string
	Text string

	lineStarts []int
}

// NewSourceFile indexes the line starts of text
func NewSourceFile(name, text string) *SourceFile {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &SourceFile{Name: name, Text: text, lineStarts: starts}
}

// Position converts a byte offset into a line and column
func (f *SourceFile) Position(offset int) SourceLocation {
	if offset < 0 {
		offset = 0
	}
	if offset > len(f.Text) {
		offset = len(f.Text)
	}
	line := sort.Search(len(f.lineStarts), func(i int) bool {
		return f.lineStarts[i] > offset
	}) - 1
	return SourceLocation{Line: line + 1, Column: offset - f.lineStarts[line] + 1}
}

// Offset converts a 1-indexed line and column back into a byte offset,
// clamping to the bounds of the file.
func (f *SourceFile) Offset(loc SourceLocation) int {
	line := loc.Line - 1
	if line < 0 {
		return 0
	}
	if line >= len(f.lineStarts) {
		return len(f.Text)
	}
	offset := f.lineStarts[line] + loc.Column - 1
	end := len(f.Text)
	if line+1 < len(f.lineStarts) {
		end = f.lineStarts[line+1] - 1
	}
	if offset > end {
		return end
	}
	if offset < f.lineStarts[line] {
		return f.lineStarts[line]
	}
	return offset
}

// Line returns the text of a 1-indexed line without its terminator
func (f *SourceFile) Line(n int) string {
	if n < 1 || n > len(f.lineStarts) {
		return ""
	}
	start := f.lineStarts[n-1]
	end := len(f.Text)
	if n < len(f.lineStarts) {
		end = f.lineStarts[n] - 1
	}
	return strings.TrimRight(f.Text[start:end], "\r")
}

// LineCount returns the number of lines in the file
func (f *SourceFile) LineCount() int {
	return len(f.lineStarts)
}

// Slice returns the source text covered by span
func (f *SourceFile) Slice(span Span) string {
	if span.Start < 0 || span.End > len(f.Text) || span.Start > span.End {
		return ""
	}
	return f.Text[span.Start:span.End]
}
