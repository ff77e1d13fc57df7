package format

// Config represents formatting configuration options
type Config struct {
	IndentSize  int  `mapstructure:"indent_size" yaml:"indent_size"`
	AlignFields bool `mapstructure:"align_fields" yaml:"align_fields"`

	// MaxWidth is the longest line a body may be joined onto; longer
	// bodies are broken one member per line
	MaxWidth int `mapstructure:"max_width" yaml:"max_width"`
}

// DefaultConfig returns the default formatting configuration
func DefaultConfig() *Config {
	return &Config{
		IndentSize:  4,
		AlignFields: false,
		MaxWidth:    100,
	}
}

func (c *Config) withDefaults() *Config {
	out := *c
	d := DefaultConfig()
	if out.IndentSize <= 0 {
		out.IndentSize = d.IndentSize
	}
	if out.MaxWidth <= 0 {
		out.MaxWidth = d.MaxWidth
	}
	return &out
}
