package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wirec-lang/wirec/internal/cli/ui"
	"github.com/wirec-lang/wirec/internal/docs"
)

type docsOptions struct {
	format *enumValue
	output string
}

// NewDocsCommand creates the docs command
func NewDocsCommand() *cobra.Command {
	opts := &docsOptions{format: newEnum("markdown", "markdown", "json")}

	cmd := &cobra.Command{
		Use:   "docs [schema]",
		Short: "Generate a reference of the schema's events and types",
		Long: `Write a reference of every event (id, direction, transport, call policy,
payload size) and every type (definition, size, wire shape), each with an
example value in the JSON form that wirec encode accepts.`,
		Example: `  wirec docs
  wirec docs net.wire -o docs/network.md
  wirec docs --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocs(cmd, args, opts)
		},
	}

	cmd.Flags().Var(opts.format, "format", "Output format")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

func runDocs(cmd *cobra.Command, args []string, opts *docsOptions) error {
	noColor := envFrom(cmd).opts.noColor

	p, err := loadProject(cmd, args)
	if err != nil {
		return err
	}
	result, err := p.compile(cmd, newCompiler(cmd, p.cfg), false)
	if err != nil {
		return err
	}
	if !result.OK() {
		fmt.Fprint(cmd.ErrOrStderr(), ui.BuildError(fmt.Sprintf("%s: %s", p.schema, ui.Summary(result.Diagnostics)), noColor))
		return &ExitError{Code: 1}
	}

	doc, err := docs.NewExtractor().Extract(result)
	if err != nil {
		return err
	}

	var content string
	if opts.format.String() == "json" {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		content = string(data) + "\n"
	} else {
		content = docs.NewMarkdownGenerator().Render(doc)
	}

	if opts.output == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(opts.output, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", opts.output, err)
	}
	ui.WriteSuccess(cmd.OutOrStdout(), "Wrote "+opts.output, noColor)
	return nil
}
