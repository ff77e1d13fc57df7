package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/wirec-lang/wirec/internal/compiler/analyzer"
	"github.com/wirec-lang/wirec/internal/format"
	"github.com/wirec-lang/wirec/internal/tooling"
)

// FileName is the project config file written by `wirec init`
const FileName = "wirec.yml"

// EnvPrefix prefixes environment overrides, e.g. WIREC_OUTPUT_SERVER
const EnvPrefix = "WIREC"

// Config represents a wirec project configuration
type Config struct {
	Schema   string         `mapstructure:"schema" yaml:"schema"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Serve    ServeConfig    `mapstructure:"serve" yaml:"serve"`
	Watch    WatchConfig    `mapstructure:"watch" yaml:"watch"`
	Format   format.Config  `mapstructure:"format" yaml:"format"`

	// File is the config file that was read, empty when defaults were used
	File string `mapstructure:"-" yaml:"-"`
}

// OutputConfig overrides the output options of the schema
type OutputConfig struct {
	Server     string `mapstructure:"server" yaml:"server,omitempty"`
	Client     string `mapstructure:"client" yaml:"client,omitempty"`
	Typescript bool   `mapstructure:"typescript" yaml:"typescript"`
}

// AnalysisConfig tunes the checks
type AnalysisConfig struct {
	MaxUnreliableSize int  `mapstructure:"max_unreliable_size" yaml:"max_unreliable_size"`
	DenyWarnings      bool `mapstructure:"deny_warnings" yaml:"deny_warnings"`
}

// ServeConfig configures the playground server
type ServeConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Schema: "net.wire",
		Analysis: AnalysisConfig{
			MaxUnreliableSize: analyzer.DefaultMaxUnreliableSize,
		},
		Serve: ServeConfig{Addr: "127.0.0.1:7777"},
		Watch:  WatchConfig{Debounce: 100 * time.Millisecond},
		Format: *format.DefaultConfig(),
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Default()

	v.SetDefault("schema", d.Schema)
	v.SetDefault("output.server", "")
	v.SetDefault("output.client", "")
	v.SetDefault("output.typescript", false)
	v.SetDefault("analysis.max_unreliable_size", d.Analysis.MaxUnreliableSize)
	v.SetDefault("analysis.deny_warnings", false)
	v.SetDefault("serve.addr", d.Serve.Addr)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("format.indent_size", d.Format.IndentSize)
	v.SetDefault("format.align_fields", d.Format.AlignFields)
	v.SetDefault("format.max_width", d.Format.MaxWidth)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path, or searches the working directory
// for wirec.yml when path is empty. A missing file is not an error.
// Relative schema and output paths are resolved against the directory of
// the config file.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("wirec")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Root is the directory outputs are written relative to
func (c *Config) Root() string {
	if c.File == "" {
		return "."
	}
	return filepath.Dir(c.File)
}

// SchemaPath resolves the schema against Root
func (c *Config) SchemaPath() string {
	if filepath.IsAbs(c.Schema) {
		return c.Schema
	}
	return filepath.Join(c.Root(), c.Schema)
}

// AnalyzerOptions returns the options for the analyzer
func (c *Config) AnalyzerOptions() analyzer.Options {
	return analyzer.Options{MaxUnreliableSize: c.Analysis.MaxUnreliableSize}
}

// Outputs returns the output overrides; empty paths keep the schema's opts
func (c *Config) Outputs() tooling.Outputs {
	return tooling.Outputs{
		Server:     c.Output.Server,
		Client:     c.Output.Client,
		Typescript: c.Output.Typescript,
	}
}

// Write renders c as YAML to path
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// FindProjectRoot walks up from dir to the first directory holding a
// wirec.yml
func FindProjectRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		for _, name := range []string{"wirec.yml", "wirec.yaml"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a wirec project (no %s found)", FileName)
		}
		dir = parent
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Schema == "" {
		return fmt.Errorf("schema must not be empty")
	}
	if filepath.Ext(cfg.Schema) != ".wire" {
		return fmt.Errorf("schema must be a .wire file, got: %s", cfg.Schema)
	}
	if cfg.Analysis.MaxUnreliableSize <= 0 {
		return fmt.Errorf("analysis.max_unreliable_size must be positive, got: %d", cfg.Analysis.MaxUnreliableSize)
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got: %s", cfg.Watch.Debounce)
	}
	if cfg.Output.Server != "" && cfg.Output.Server == cfg.Output.Client {
		return fmt.Errorf("output.server and output.client must differ, both are: %s", cfg.Output.Server)
	}
	if cfg.Serve.Addr == "" {
		return fmt.Errorf("serve.addr must not be empty")
	}
	if cfg.Format.IndentSize <= 0 || cfg.Format.IndentSize > 8 {
		return fmt.Errorf("format.indent_size must be between 1 and 8, got: %d", cfg.Format.IndentSize)
	}
	if cfg.Format.MaxWidth < 20 {
		return fmt.Errorf("format.max_width must be at least 20, got: %d", cfg.Format.MaxWidth)
	}
	return nil
}
