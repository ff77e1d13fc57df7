package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wirec-lang/wirec/internal/cli/config"
	"github.com/wirec-lang/wirec/internal/cli/ui"
	"github.com/wirec-lang/wirec/internal/tooling"
	utilstrings "github.com/wirec-lang/wirec/internal/util/strings"
	"github.com/wirec-lang/wirec/internal/utils"
)

// project is the loaded config plus the schema a command operates on
type project struct {
	cfg    *config.Config
	schema string
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	e := envFrom(cmd)
	cfg, err := config.Load(e.opts.configPath)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), e.opts.noColor))
		return nil, &ExitError{Code: 1}
	}
	return cfg, nil
}

// loadProject reads the config and resolves the schema from args, falling
// back to the one the config names
func loadProject(cmd *cobra.Command, args []string) (*project, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	schema := cfg.SchemaPath()
	if len(args) > 0 {
		schema = args[0]
	}

	if _, err := os.Stat(schema); err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.SchemaNotFoundError(schema, suggestSchemas(schema), envFrom(cmd).opts.noColor))
		return nil, &ExitError{Code: 1}
	}
	return &project{cfg: cfg, schema: schema}, nil
}

// suggestSchemas lists schema files near path whose names resemble it
func suggestSchemas(path string) []string {
	dir := filepath.Dir(path)
	files, err := utils.FindSchemaFiles(dir)
	if err != nil || len(files) == 0 {
		return nil
	}
	return utilstrings.Similar(path, files, 3)
}

func newCompiler(cmd *cobra.Command, cfg *config.Config) *tooling.Compiler {
	compiler := tooling.NewCompiler(envFrom(cmd).logger, cfg.AnalyzerOptions())
	compiler.SetOutputs(cfg.Outputs())
	return compiler
}

// compile runs the compiler on the project schema and prints diagnostics.
// The result is nil when the schema cannot be read.
func (p *project) compile(cmd *cobra.Command, compiler *tooling.Compiler, detailed bool) (*tooling.Result, error) {
	result, err := compiler.CompileFile(p.schema)
	if err != nil {
		return nil, err
	}
	if len(result.Diagnostics) > 0 {
		ui.WriteDiagnostics(cmd.ErrOrStderr(), result.Diagnostics, detailed, envFrom(cmd).opts.noColor)
	}
	return result, nil
}

// failed reports whether diagnostics should stop the command
func failed(result *tooling.Result, denyWarnings bool) bool {
	if !result.OK() {
		return true
	}
	return denyWarnings && result.Diagnostics.HasWarnings()
}
