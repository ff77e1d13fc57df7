// Package codegen renders a validated schema and its codec program into the
// files a game project consumes: one Luau module per side, plus TypeScript
// declarations for each module when the schema asks for them.
package codegen

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/wirec-lang/wirec/internal/compiler/irgen"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// Generator renders output files for one schema
type Generator struct {
	cfg  *schema.Config
	prog *irgen.Program

	buf    *bytes.Buffer
	indent int
}

// NewGenerator creates a generator. prog must have been generated from cfg.
func NewGenerator(cfg *schema.Config, prog *irgen.Program) *Generator {
	return &Generator{
		cfg:  cfg,
		prog: prog,
		buf:  &bytes.Buffer{},
	}
}

// GenerateProgram renders every output file, keyed by the path the schema
// options give it.
func (g *Generator) GenerateProgram() (map[string]string, error) {
	opts := g.cfg.Options
	if opts.ServerOutput == opts.ClientOutput {
		return nil, fmt.Errorf("server and client output are both %q", opts.ServerOutput)
	}

	files := make(map[string]string)
	files[opts.ServerOutput] = g.Luau(schema.Server)
	files[opts.ClientOutput] = g.Luau(schema.Client)

	if opts.Typescript {
		files[DeclarationPath(opts.ServerOutput)] = g.Typescript(schema.Server)
		files[DeclarationPath(opts.ClientOutput)] = g.Typescript(schema.Client)
	}

	return files, nil
}

// Generate builds the codec program of cfg and renders its files
func Generate(cfg *schema.Config) (map[string]string, error) {
	return NewGenerator(cfg, irgen.Generate(cfg)).GenerateProgram()
}

// DeclarationPath returns the path of the TypeScript declarations that sit
// beside a Luau module
func DeclarationPath(luau string) string {
	ext := path.Ext(luau)
	if ext == ".luau" || ext == ".lua" {
		luau = strings.TrimSuffix(luau, ext)
	}
	return luau + ".d.ts"
}

// reset clears the generator state
func (g *Generator) reset() {
	g.buf.Reset()
	g.indent = 0
}

// writeLine writes a formatted line with proper indentation
func (g *Generator) writeLine(format string, args ...interface{}) {
	if format == "" {
		g.buf.WriteString("\n")
		return
	}

	for i := 0; i < g.indent; i++ {
		g.buf.WriteString("\t")
	}

	if len(args) > 0 {
		g.buf.WriteString(fmt.Sprintf(format, args...))
	} else {
		g.buf.WriteString(format)
	}
	g.buf.WriteString("\n")
}

func (g *Generator) in() { g.indent++ }

func (g *Generator) out() { g.indent-- }

// api picks the casing variant of a generated API name
func (g *Generator) api(pascal, camel, snake string) string {
	return g.cfg.Options.Casing.With(pascal, camel, snake)
}
