package commands

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"

	"github.com/wirec-lang/wirec/internal/cli/ui"
	"github.com/wirec-lang/wirec/internal/compiler/irgen"
	"github.com/wirec-lang/wirec/internal/compiler/wire"
)

type encodeOptions struct {
	event    string
	typeName string
	format   *enumValue
}

// NewEncodeCommand creates the encode command
func NewEncodeCommand() *cobra.Command {
	opts := &encodeOptions{format: newEnum("hex", "hex", "base64", "raw")}

	cmd := &cobra.Command{
		Use:   "encode <schema> [value.json|-]",
		Short: "Encode a JSON value with a schema codec",
		Long: `Serialize a JSON value exactly as the generated modules would. The value
is read from a file or stdin and may contain comments.

Platform values use tagged objects:
  {"$vector3": [x, y, z]}  {"$color3": [r, g, b]}
  {"$cframe": [x, y, z, ax, ay, az]}  {"$buffer": "base64"}
  {"$instance": "Part"}`,
		Example: `  wirec encode net.wire move.json --event Move
  echo '{"x": 1, "y": 2}' | wirec encode net.wire --type Point`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.event, "event", "e", "", "Encode as this event, prefixed with its id")
	cmd.Flags().StringVarP(&opts.typeName, "type", "t", "", "Encode as this type")
	cmd.Flags().Var(opts.format, "format", "Output format")
	cmd.MarkFlagsMutuallyExclusive("event", "type")
	cmd.MarkFlagsOneRequired("event", "type")

	return cmd
}

// compileProgram compiles the schema at path and fails on errors
func compileProgram(cmd *cobra.Command, path string) (*irgen.Program, error) {
	p, err := loadProject(cmd, []string{path})
	if err != nil {
		return nil, err
	}
	result, err := p.compile(cmd, newCompiler(cmd, p.cfg), false)
	if err != nil {
		return nil, err
	}
	if !result.OK() {
		fmt.Fprint(cmd.ErrOrStderr(), ui.BuildError(fmt.Sprintf("%s: %s", path, ui.Summary(result.Diagnostics)), envFrom(cmd).opts.noColor))
		return nil, &ExitError{Code: 1}
	}
	return result.Program, nil
}

func runEncode(cmd *cobra.Command, args []string, opts *encodeOptions) error {
	prog, err := compileProgram(cmd, args[0])
	if err != nil {
		return err
	}

	input := "-"
	if len(args) > 1 {
		input = args[1]
	}
	value, err := readValue(cmd, input, opts.event != "")
	if err != nil {
		return err
	}

	var msg wire.Message
	if opts.event != "" {
		msg, err = wire.EncodeEvent(prog, opts.event, value)
	} else {
		msg, err = wire.Encode(prog, opts.typeName, value)
	}
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}

	envFrom(cmd).logger.Sugar().Debugw("encoded", "bytes", len(msg.Buf), "handles", len(msg.Handles))
	if len(msg.Handles) > 0 {
		fmt.Fprint(cmd.ErrOrStderr(), ui.Info(fmt.Sprintf("%d instance handle(s) travel beside the buffer", len(msg.Handles)), envFrom(cmd).opts.noColor))
	}

	out := cmd.OutOrStdout()
	switch opts.format.String() {
	case "raw":
		_, err = out.Write(msg.Buf)
	case "base64":
		_, err = fmt.Fprintln(out, base64.StdEncoding.EncodeToString(msg.Buf))
	default:
		_, err = fmt.Fprintln(out, hex.EncodeToString(msg.Buf))
	}
	return err
}

// readValue reads a JSONC document and converts it to host values. Events
// without data may omit the input entirely.
func readValue(cmd *cobra.Command, path string, optional bool) (any, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	data = jsonc.ToJSON(data)
	if optional && len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing value: %w", err)
	}
	return wire.FromJSON(raw)
}
