package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wirec-lang/wirec/internal/cli/ui"
	"github.com/wirec-lang/wirec/internal/compiler/errors"
	"github.com/wirec-lang/wirec/internal/compiler/size"
	"github.com/wirec-lang/wirec/internal/tooling"
	"github.com/wirec-lang/wirec/internal/utils"
)

type checkOptions struct {
	denyWarnings bool
	json         bool
	detailed     bool
	summary      bool
}

// checkReport is one schema of the --json output of check
type checkReport struct {
	Schema      string           `json:"schema"`
	OK          bool             `json:"ok"`
	Diagnostics errors.ErrorList `json:"diagnostics"`
}

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [schema|dir]...",
		Short: "Report diagnostics without writing output",
		Long: `Parse and analyze one or more schemas and print every diagnostic.
Directories are searched for .wire files. Nothing is written.`,
		Example: `  wirec check
  wirec check schemas/
  wirec check net.wire --summary
  wirec check net.wire --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.denyWarnings, "deny-warnings", false, "Treat warnings as errors")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print diagnostics as JSON")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "Show source context for each diagnostic")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "Print a table of events with their payload sizes")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts *checkOptions) error {
	e := envFrom(cmd)
	noColor := e.opts.noColor

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	denyWarnings := opts.denyWarnings || cfg.Analysis.DenyWarnings

	paths := []string{cfg.SchemaPath()}
	if len(args) > 0 {
		if paths, err = utils.ExpandSchemaArgs(args); err != nil {
			return err
		}
	}
	if len(paths) == 0 {
		fmt.Fprint(cmd.ErrOrStderr(), ui.Warning("No .wire files found", noColor))
		return &ExitError{Code: 1}
	}

	compiler := newCompiler(cmd, cfg)
	out := cmd.OutOrStdout()
	var reports []checkReport
	failures := 0

	for _, path := range paths {
		p := &project{cfg: cfg, schema: path}

		var result *tooling.Result
		if opts.json {
			result, err = compiler.CompileFile(path)
		} else {
			result, err = p.compile(cmd, compiler, opts.detailed)
		}
		if err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), ui.SchemaNotFoundError(path, suggestSchemas(path), noColor))
			failures++
			continue
		}

		ok := !failed(result, denyWarnings)
		if !ok {
			failures++
		}

		if opts.json {
			diags := result.Diagnostics
			if diags == nil {
				diags = errors.ErrorList{}
			}
			reports = append(reports, checkReport{Schema: path, OK: ok, Diagnostics: diags})
			continue
		}

		if ok {
			ui.WriteSuccess(out, fmt.Sprintf("%s: %s", path, ui.Summary(result.Diagnostics)), noColor)
		} else {
			fmt.Fprint(cmd.ErrOrStderr(), ui.BuildError(fmt.Sprintf("%s: %s", path, ui.Summary(result.Diagnostics)), noColor))
		}
		if opts.summary && result.OK() {
			writeEventSummary(cmd, result)
		}
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	}

	if failures > 0 {
		return &ExitError{Code: 1}
	}
	return nil
}

func writeEventSummary(cmd *cobra.Command, result *tooling.Result) {
	cfg := result.Config
	table := ui.NewTable(cmd.OutOrStdout(), []string{"Event", "Id", "From", "Transport", "Call", "Size"}, envFrom(cmd).opts.noColor)
	for _, ev := range cfg.EventDecls {
		bytes := "0"
		if ev.Data != nil {
			bytes = size.Of(cfg, ev.Data).String()
		}
		table.AddRow(ev.Name, strconv.Itoa(ev.ID), ev.From.String(), ev.Transport.String(), ev.Call.String(), bytes)
	}
	table.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "event id: %s\n", cfg.EventIDKind())
}
