package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/wirec-lang/wirec/internal/cli/config"
	"github.com/wirec-lang/wirec/internal/cli/ui"
	utilstrings "github.com/wirec-lang/wirec/internal/util/strings"
)

const starterSchema = `opt server_output = %q
opt client_output = %q

type Vector = struct {
	x: f32,
	y: f32,
	z: f32,
}

event Move = {
	from: Client,
	type: Unreliable,
	call: SingleSync,
	data: Vector,
}

event Chat = {
	from: Client,
	type: Reliable,
	call: ManySync,
	data: string(..200),
}
`

type initOptions struct {
	yes   bool
	force bool
}

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create wirec.yml and a starter schema",
		Long: `Set up a wirec project: ask for the schema name and output paths, then
write wirec.yml and a starter schema.`,
		Example: `  wirec init
  wirec init game --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Accept the defaults without prompting")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite an existing wirec.yml")

	return cmd
}

// defaultSchemaName derives a schema file name from the project directory
func defaultSchemaName(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return config.Default().Schema
	}
	name := utilstrings.ToSnakeCase(filepath.Base(abs))
	if name == "" {
		return config.Default().Schema
	}
	return name + ".wire"
}

func runInit(cmd *cobra.Command, dir string, opts *initOptions) error {
	noColor := envFrom(cmd).opts.noColor

	configPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(configPath); err == nil && !opts.force {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(fmt.Sprintf("%s already exists (use --force to overwrite)", configPath), noColor))
		return &ExitError{Code: 1}
	}

	cfg := config.Default()
	cfg.Schema = defaultSchemaName(dir)
	cfg.Output.Server = "src/server/network.luau"
	cfg.Output.Client = "src/client/network.luau"

	if !opts.yes {
		if err := askProject(cfg); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := cfg.Write(configPath); err != nil {
		return err
	}
	ui.WriteSuccess(cmd.OutOrStdout(), "Created "+configPath, noColor)

	schemaPath := filepath.Join(dir, cfg.Schema)
	if _, err := os.Stat(schemaPath); err == nil {
		fmt.Fprint(cmd.OutOrStdout(), ui.Info(schemaPath+" already exists, leaving it alone", noColor))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(schemaPath), 0o755); err != nil {
		return fmt.Errorf("creating schema directory: %w", err)
	}
	schema := fmt.Sprintf(starterSchema, cfg.Output.Server, cfg.Output.Client)
	if err := os.WriteFile(schemaPath, []byte(schema), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", schemaPath, err)
	}
	ui.WriteSuccess(cmd.OutOrStdout(), "Created "+schemaPath, noColor)

	fmt.Fprintln(cmd.OutOrStdout(), "\nNext: wirec build")
	return nil
}

func askProject(cfg *config.Config) error {
	validateSchema := func(ans interface{}) error {
		if s, ok := ans.(string); ok && filepath.Ext(s) != ".wire" {
			return fmt.Errorf("schema must be a .wire file")
		}
		return nil
	}

	if err := survey.AskOne(&survey.Input{
		Message: "Schema file:",
		Default: cfg.Schema,
	}, &cfg.Schema, survey.WithValidator(survey.ComposeValidators(survey.Required, validateSchema))); err != nil {
		return err
	}

	if err := survey.AskOne(&survey.Input{
		Message: "Server module output:",
		Default: cfg.Output.Server,
	}, &cfg.Output.Server, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	if err := survey.AskOne(&survey.Input{
		Message: "Client module output:",
		Default: cfg.Output.Client,
	}, &cfg.Output.Client, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	var declarations string
	if err := survey.AskOne(&survey.Select{
		Message: "TypeScript declarations:",
		Options: []string{"no", "yes"},
		Default: "no",
	}, &declarations); err != nil {
		return err
	}
	cfg.Output.Typescript = declarations == "yes"

	return nil
}
