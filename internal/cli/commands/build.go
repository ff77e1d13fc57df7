package commands

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wirec-lang/wirec/internal/cli/ui"
	"github.com/wirec-lang/wirec/internal/compiler/cache"
	"github.com/wirec-lang/wirec/internal/compiler/errors"
	"github.com/wirec-lang/wirec/internal/tooling"
)

type buildOptions struct {
	check bool
	force bool
	json  bool
}

// buildReport is the --json output of build
type buildReport struct {
	Schema      string           `json:"schema"`
	OK          bool             `json:"ok"`
	UpToDate    bool             `json:"up_to_date"`
	Written     []string         `json:"written"`
	Stale       []string         `json:"stale,omitempty"`
	Diagnostics errors.ErrorList `json:"diagnostics"`
}

// NewBuildCommand creates the build command
func NewBuildCommand() *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build [schema]",
		Short: "Compile a schema and write the generated modules",
		Long: `Compile a .wire schema and write the server and client Luau modules,
plus TypeScript declarations when enabled.

The schema defaults to the one named in wirec.yml. Builds are skipped when
the schema and every output are unchanged since the last build; the build
state lives in .wirec/manifest.cbor.`,
		Example: `  wirec build
  wirec build schemas/net.wire
  wirec build --check    # fail when generated files are out of date
  wirec build --force    # rebuild even if nothing changed`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.check, "check", false, "Compare outputs with the files on disk instead of writing them")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Rebuild even when the manifest says outputs are current")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print a JSON report")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string, opts *buildOptions) error {
	e := envFrom(cmd)
	noColor := e.opts.noColor

	p, err := loadProject(cmd, args)
	if err != nil {
		return err
	}
	compiler := newCompiler(cmd, p.cfg)

	result, err := p.compile(cmd, compiler, false)
	if err != nil {
		return err
	}

	report := &buildReport{Schema: p.schema, Diagnostics: result.Diagnostics, Written: []string{}}
	if report.Diagnostics == nil {
		report.Diagnostics = errors.ErrorList{}
	}

	if failed(result, p.cfg.Analysis.DenyWarnings) {
		if opts.json {
			return writeBuildReport(cmd, report, 1)
		}
		fmt.Fprint(cmd.ErrOrStderr(), ui.BuildError(fmt.Sprintf("%s: %s", p.schema, ui.Summary(result.Diagnostics)), noColor))
		return &ExitError{Code: 1}
	}

	root := p.cfg.Root()
	manifestPath := cache.ManifestPath(root)
	manifest, err := cache.LoadManifest(manifestPath)
	if err != nil {
		e.logger.Sugar().Debugw("ignoring unreadable manifest", "error", err)
		manifest = cache.NewManifest()
	}

	if !opts.force && manifest.UpToDate(root, p.schema, result.Hash, compilerID()) {
		report.OK, report.UpToDate = true, true
		if opts.json {
			return writeBuildReport(cmd, report, 0)
		}
		ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s is up to date", p.schema), noColor)
		return nil
	}

	files, err := compiler.Emit(result)
	if err != nil {
		return err
	}

	if opts.check {
		return checkOutputs(cmd, root, files, report, opts.json)
	}

	written, err := tooling.WriteOutputs(root, files)
	if err != nil {
		return err
	}
	report.OK, report.Written = true, written

	manifest.Record(p.schema, result.Hash, compilerID(), files)
	if err := manifest.Save(manifestPath); err != nil {
		return err
	}

	if opts.json {
		return writeBuildReport(cmd, report, 0)
	}

	out := cmd.OutOrStdout()
	gray := color.New(color.FgHiBlack)
	if noColor {
		gray.DisableColor()
	}
	for _, path := range written {
		gray.Fprintf(out, "  wrote %s\n", path)
	}
	ui.WriteSuccess(out, fmt.Sprintf("Built %s (%d written, %d unchanged)", p.schema, len(written), len(files)-len(written)), noColor)
	return nil
}

// checkOutputs prints a unified diff for every output that differs from
// the file on disk and fails if any does
func checkOutputs(cmd *cobra.Command, root string, files map[string]string, report *buildReport, asJSON bool) error {
	noColor := envFrom(cmd).opts.noColor

	diffs, err := tooling.DiffOutputs(root, files)
	if err != nil {
		return err
	}
	for _, d := range diffs {
		report.Stale = append(report.Stale, d.Path)
	}

	if asJSON {
		report.OK = len(diffs) == 0
		code := 0
		if !report.OK {
			code = 1
		}
		return writeBuildReport(cmd, report, code)
	}

	if len(diffs) == 0 {
		ui.WriteSuccess(cmd.OutOrStdout(), "Generated files are up to date", noColor)
		return nil
	}

	out := cmd.OutOrStdout()
	for _, d := range diffs {
		if d.Missing {
			fmt.Fprintf(out, "missing: %s\n", d.Path)
			continue
		}
		fmt.Fprint(out, d.Diff)
	}
	fmt.Fprint(cmd.ErrOrStderr(), ui.StaleOutputError(report.Stale, noColor))
	return &ExitError{Code: 1}
}

func writeBuildReport(cmd *cobra.Command, report *buildReport, code int) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
