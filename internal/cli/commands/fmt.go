package commands

import (
	goerrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wirec-lang/wirec/internal/cli/ui"
	"github.com/wirec-lang/wirec/internal/compiler/errors"
	"github.com/wirec-lang/wirec/internal/format"
	"github.com/wirec-lang/wirec/internal/utils"
)

type fmtOptions struct {
	write bool
	check bool
}

// NewFmtCommand creates the fmt command
func NewFmtCommand() *cobra.Command {
	opts := &fmtOptions{}

	cmd := &cobra.Command{
		Use:   "fmt [schema|dir|-]...",
		Short: "Format schema files",
		Long: `Rewrite schemas into the canonical layout.

By default, shows a diff of what would change without modifying files.
Use --write to apply the changes, or --check to fail when a file is not
formatted. "-" formats stdin to stdout. Indentation, field alignment and
line width come from the format section of wirec.yml.`,
		Example: `  wirec fmt
  wirec fmt --write schemas/
  wirec fmt --check
  cat net.wire | wirec fmt -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "Write formatted output to the files")
	cmd.Flags().BoolVar(&opts.check, "check", false, "Exit with status 1 when a file is not formatted")
	cmd.MarkFlagsMutuallyExclusive("write", "check")

	return cmd
}

func runFmt(cmd *cobra.Command, args []string, opts *fmtOptions) error {
	noColor := envFrom(cmd).opts.noColor

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if len(args) == 1 && args[0] == "-" {
		return fmtStdin(cmd, &cfg.Format)
	}

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

	out := cmd.OutOrStdout()
	formatter := format.New(&cfg.Format)
	unformatted, errorCount := 0, 0

	for _, path := range paths {
		original, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), ui.SchemaNotFoundError(path, suggestSchemas(path), noColor))
			errorCount++
			continue
		}

		formatted, err := formatter.Format(path, string(original))
		if err != nil {
			writeFormatError(cmd, err, noColor)
			errorCount++
			continue
		}

		diff := format.Diff(path, string(original), formatted)
		if !diff.Changed {
			if !opts.check {
				ui.WriteSuccess(out, path+" (no changes)", noColor)
			}
			continue
		}
		unformatted++

		switch {
		case opts.check:
			fmt.Fprint(cmd.ErrOrStderr(), ui.BuildError(path+" needs formatting", noColor))
		case opts.write:
			if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			ui.WriteSuccess(out, path+" formatted", noColor)
		default:
			fmt.Fprint(out, diff.Colorize(noColor))
			fmt.Fprintf(out, "%s\n\n", diff.Stats())
		}
	}

	if !opts.write && !opts.check && unformatted > 0 {
		fmt.Fprint(out, ui.Info("Run 'wirec fmt --write' to apply changes", noColor))
	}

	if errorCount > 0 || (opts.check && unformatted > 0) {
		return &ExitError{Code: 1}
	}
	return nil
}

func fmtStdin(cmd *cobra.Command, config *format.Config) error {
	source, err := readInput(cmd, "-")
	if err != nil {
		return err
	}
	formatted, err := format.New(config).Format("<stdin>", string(source))
	if err != nil {
		writeFormatError(cmd, err, envFrom(cmd).opts.noColor)
		return &ExitError{Code: 1}
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), formatted)
	return err
}

// writeFormatError prints syntax errors as diagnostics and anything else
// as a single error line
func writeFormatError(cmd *cobra.Command, err error, noColor bool) {
	var diags errors.ErrorList
	if goerrors.As(err, &diags) {
		ui.WriteDiagnostics(cmd.ErrOrStderr(), diags, false, noColor)
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), ui.BuildError(err.Error(), noColor))
}
