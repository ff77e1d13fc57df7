package docs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MarkdownGenerator generates Markdown documentation
type MarkdownGenerator struct{}

// NewMarkdownGenerator creates a new Markdown generator
func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

// Generate writes the reference to path, creating its directory
func (g *MarkdownGenerator) Generate(doc *Documentation, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(path, []byte(g.Render(doc)), 0o644)
}

// Render renders the reference as one Markdown document
func (g *MarkdownGenerator) Render(doc *Documentation) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("# %s\n\n", doc.Schema))
	buf.WriteString(fmt.Sprintf("Every message starts with a `%s` event id. Unreliable payloads must fit in %d bytes including the id.\n\n", doc.IDKind, doc.Budget))

	// Table of contents
	buf.WriteString("## Table of Contents\n\n")
	buf.WriteString("- [Options](#options)\n")
	buf.WriteString("- [Events](#events)\n")
	if len(doc.Types) > 0 {
		buf.WriteString("- [Types](#types)\n")
	}
	buf.WriteString("\n")

	buf.WriteString("## Options\n\n")
	buf.WriteString("| Option | Value |\n")
	buf.WriteString("|--------|-------|\n")
	buf.WriteString(fmt.Sprintf("| `server_output` | `%s` |\n", doc.Options.ServerOutput))
	buf.WriteString(fmt.Sprintf("| `client_output` | `%s` |\n", doc.Options.ClientOutput))
	buf.WriteString(fmt.Sprintf("| `casing` | %s |\n", doc.Options.Casing))
	buf.WriteString(fmt.Sprintf("| `write_checks` | %s |\n", yesNo(doc.Options.WriteChecks)))
	buf.WriteString(fmt.Sprintf("| `typescript` | %s |\n", yesNo(doc.Options.Typescript)))
	buf.WriteString("\n")

	buf.WriteString("## Events\n\n")
	if len(doc.Events) == 0 {
		buf.WriteString("No events defined.\n\n")
	} else {
		buf.WriteString("| Id | Event | From | Transport | Call | Size (bytes) |\n")
		buf.WriteString("|----|-------|------|-----------|------|--------------|\n")
		for _, ev := range doc.Events {
			size := ev.Size
			if ev.OverBudget {
				size += " ⚠️"
			}
			buf.WriteString(fmt.Sprintf("| %d | [%s](#%s) | %s | %s | %s | %s |\n",
				ev.ID, ev.Name, anchor(ev.Name), ev.From, ev.Transport, ev.Call, size))
		}
		buf.WriteString("\n")

		for _, ev := range doc.Events {
			g.writeEvent(&buf, ev)
		}
	}

	if len(doc.Types) > 0 {
		buf.WriteString("## Types\n\n")
		for _, t := range doc.Types {
			g.writeType(&buf, t)
		}
	}

	return buf.String()
}

// writeEvent writes a single event to the buffer
func (g *MarkdownGenerator) writeEvent(buf *strings.Builder, ev *EventDoc) {
	buf.WriteString(fmt.Sprintf("### %s\n\n", ev.Name))
	buf.WriteString(fmt.Sprintf("- **Id:** %d\n", ev.ID))
	buf.WriteString(fmt.Sprintf("- **From:** %s, **%s**, %s\n", ev.From, ev.Transport, ev.Call))
	if ev.Data == "" {
		buf.WriteString("- **Data:** none\n\n")
		return
	}
	buf.WriteString(fmt.Sprintf("- **Data:** `%s`\n", ev.Data))
	buf.WriteString(fmt.Sprintf("- **Size:** %s bytes\n", ev.Size))
	if ev.Shape != "" {
		buf.WriteString(fmt.Sprintf("- **Wire shape:** `%s`\n", ev.Shape))
	}
	if ev.OverBudget {
		buf.WriteString("\n> The payload may exceed the unreliable size budget.\n")
	}
	buf.WriteString("\n")
	writeExample(buf, ev.Example)
}

// writeType writes a single type to the buffer
func (g *MarkdownGenerator) writeType(buf *strings.Builder, t *TypeDoc) {
	buf.WriteString(fmt.Sprintf("### %s\n\n", t.Name))
	buf.WriteString(fmt.Sprintf("```\ntype %s = %s\n```\n\n", t.Name, t.Definition))
	buf.WriteString(fmt.Sprintf("- **Size:** %s bytes\n", t.Size))
	if t.Shape != "" {
		buf.WriteString(fmt.Sprintf("- **Wire shape:** `%s`\n", t.Shape))
	}
	if len(t.UsedBy) > 0 {
		links := make([]string, len(t.UsedBy))
		for i, name := range t.UsedBy {
			links[i] = fmt.Sprintf("[%s](#%s)", name, anchor(name))
		}
		buf.WriteString(fmt.Sprintf("- **Used by:** %s\n", strings.Join(links, ", ")))
	}
	buf.WriteString("\n")
	writeExample(buf, t.Example)
}

func writeExample(buf *strings.Builder, example any) {
	exampleJSON, err := json.MarshalIndent(example, "", "  ")
	if err != nil {
		return
	}
	buf.WriteString("**Example:**\n\n")
	buf.WriteString("```json\n")
	buf.Write(exampleJSON)
	buf.WriteString("\n```\n\n")
}

// anchor is the heading id GitHub assigns to a name
func anchor(name string) string {
	return strings.ToLower(name)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
