package commands

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wirec-lang/wirec/internal/cli/ui"
	"github.com/wirec-lang/wirec/internal/lsp"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// ExitError ends the process with Code after the command has already
// reported the problem
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// globalOptions are the persistent flags of the root command
type globalOptions struct {
	verbose    bool
	noColor    bool
	configPath string
}

type envKey struct{}

// env is what every command receives from the root command
type env struct {
	logger *zap.Logger
	opts   *globalOptions
}

func envFrom(cmd *cobra.Command) *env {
	if e, ok := cmd.Context().Value(envKey{}).(*env); ok {
		return e
	}
	return &env{logger: zap.NewNop(), opts: &globalOptions{}}
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "wirec",
		Short: "Compile network schemas into typed Luau event modules",
		Long: color.CyanString(`wirec - network schema compiler

wirec reads a .wire schema of types and events and generates a server and a
client Luau module that serialize every event into compact binary buffers.

Features:
  • Bit-exact codecs for numbers, strings, buffers, enums, maps and structs
  • Range and length checks on every value
  • Unreliable payload size analysis
  • Optional TypeScript declarations`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.noColor {
				color.NoColor = true
			}

			logger := zap.NewNop()
			if opts.verbose {
				var err error
				if logger, err = zap.NewDevelopment(); err != nil {
					return fmt.Errorf("creating logger: %w", err)
				}
			}
			lsp.Version = Version

			cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, &env{logger: logger, opts: opts}))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = envFrom(cmd).logger.Sync()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log compiler phases to stderr")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: ./wirec.yml)")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewBuildCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewIRCommand())
	rootCmd.AddCommand(NewDocsCommand())
	rootCmd.AddCommand(NewFmtCommand())
	rootCmd.AddCommand(NewEncodeCommand())
	rootCmd.AddCommand(NewDecodeCommand())
	rootCmd.AddCommand(NewWatchCommand())
	rootCmd.AddCommand(NewLSPCommand())
	rootCmd.AddCommand(NewServeCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the wirec version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			table := ui.NewKeyValueTable(cmd.OutOrStdout(), envFrom(cmd).opts.noColor)
			table.AddRow("wirec version", Version)
			table.AddRow("Git commit", GitCommit)
			table.AddRow("Build date", BuildDate)
			table.AddRow("Go version", goVer)
			table.Render()
		},
	}
}

// compilerID identifies the compiler in build manifests so an upgrade
// invalidates earlier builds
func compilerID() string {
	return "wirec " + Version + " (" + GitCommit + ")"
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		var exit *ExitError
		if !errors.As(err, &exit) {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}
