package commands

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wirec-lang/wirec/internal/compiler/wire"
)

type decodeOptions struct {
	event    bool
	batch    bool
	typeName string
	format   *enumValue
}

// decodedEvent is one event of the decode output
type decodedEvent struct {
	Event string `json:"event"`
	ID    int    `json:"id"`
	Value any    `json:"value"`
}

// NewDecodeCommand creates the decode command
func NewDecodeCommand() *cobra.Command {
	opts := &decodeOptions{format: newEnum("hex", "hex", "base64", "raw")}

	cmd := &cobra.Command{
		Use:   "decode <schema> [input|-]",
		Short: "Decode a buffer with a schema codec and print it as JSON",
		Long: `Deserialize bytes produced by the generated modules and print the value
as JSON. The input is read from a file or stdin.

With --event the buffer holds one event, id first. With --batch it holds
events packed back to back, as one frame of the reliable channel.`,
		Example: `  wirec encode net.wire move.json --event Move | wirec decode net.wire --event
  wirec decode net.wire frame.bin --batch --format raw
  wirec decode net.wire --type Point <<< 0000803f00000040`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.event, "event", "e", false, "Decode a single event")
	cmd.Flags().BoolVar(&opts.batch, "batch", false, "Decode a batch of events")
	cmd.Flags().StringVarP(&opts.typeName, "type", "t", "", "Decode as this type")
	cmd.Flags().Var(opts.format, "format", "Input format")
	cmd.MarkFlagsMutuallyExclusive("event", "batch", "type")
	cmd.MarkFlagsOneRequired("event", "batch", "type")

	return cmd
}

func runDecode(cmd *cobra.Command, args []string, opts *decodeOptions) error {
	prog, err := compileProgram(cmd, args[0])
	if err != nil {
		return err
	}

	input := "-"
	if len(args) > 1 {
		input = args[1]
	}
	data, err := readInput(cmd, input)
	if err != nil {
		return err
	}
	buf, err := decodeBytes(data, opts.format.String())
	if err != nil {
		return err
	}
	msg := wire.Message{Buf: buf}

	var out any
	switch {
	case opts.batch:
		deliveries, err := wire.DecodeBatch(prog, msg)
		if err != nil {
			return fmt.Errorf("decoding batch after %d event(s): %w", len(deliveries), err)
		}
		events := make([]decodedEvent, 0, len(deliveries))
		for _, d := range deliveries {
			events = append(events, decodedEvent{Event: d.Event, ID: d.ID, Value: wire.ToPlain(d.Value)})
		}
		out = events
	case opts.event:
		d, err := wire.DecodeEvent(prog, msg)
		if err != nil {
			return fmt.Errorf("decoding: %w", err)
		}
		out = decodedEvent{Event: d.Event, ID: d.ID, Value: wire.ToPlain(d.Value)}
	default:
		v, err := wire.Decode(prog, opts.typeName, msg)
		if err != nil {
			return fmt.Errorf("decoding: %w", err)
		}
		out = wire.ToPlain(v)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func decodeBytes(data []byte, format string) ([]byte, error) {
	switch format {
	case "raw":
		return data, nil
	case "hex":
		buf, err := hex.DecodeString(string(bytes.Join(bytes.Fields(data), nil)))
		if err != nil {
			return nil, fmt.Errorf("parsing hex input: %w", err)
		}
		return buf, nil
	case "base64":
		buf, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(data)))
		if err != nil {
			return nil, fmt.Errorf("parsing base64 input: %w", err)
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want hex, base64, or raw)", format)
	}
}
