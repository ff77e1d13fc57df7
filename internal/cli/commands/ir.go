package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wirec-lang/wirec/internal/cli/ui"
	"github.com/wirec-lang/wirec/internal/compiler/irgen"
)

type irOptions struct {
	format *enumValue
	shapes bool
	output string
}

// NewIRCommand creates the ir command
func NewIRCommand() *cobra.Command {
	opts := &irOptions{format: newEnum("yaml", "yaml", "json", "cbor")}

	cmd := &cobra.Command{
		Use:   "ir [schema]",
		Short: "Dump the codec programs of a schema",
		Long: `Print the intermediate codec programs the generators consume: for every
type and event its serializer and deserializer ops, plus the shape of
what they write.`,
		Example: `  wirec ir
  wirec ir net.wire --shape
  wirec ir net.wire --format json -o ir.json
  wirec ir net.wire --format cbor -o ir.cbor`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIR(cmd, args, opts)
		},
	}

	cmd.Flags().Var(opts.format, "format", "Output format")
	cmd.Flags().BoolVar(&opts.shapes, "shape", false, "Only print shapes, without op listings")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

func runIR(cmd *cobra.Command, args []string, opts *irOptions) error {
	p, err := loadProject(cmd, args)
	if err != nil {
		return err
	}
	result, err := p.compile(cmd, newCompiler(cmd, p.cfg), false)
	if err != nil {
		return err
	}
	if !result.OK() {
		fmt.Fprint(cmd.ErrOrStderr(), ui.BuildError(fmt.Sprintf("%s: %s", p.schema, ui.Summary(result.Diagnostics)), envFrom(cmd).opts.noColor))
		return &ExitError{Code: 1}
	}

	data, err := encodeListing(result.Program.List(opts.shapes), opts.format.String())
	if err != nil {
		return err
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", opts.output, err)
		}
		return nil
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func encodeListing(l irgen.Listing, format string) ([]byte, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(l, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "cbor":
		return cbor.Marshal(l)
	default:
		return yaml.Marshal(l)
	}
}

// readInput reads a file, or stdin when path is "-" or empty
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
