package tooling

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/wirec-lang/wirec/internal/compiler/analyzer"
	"github.com/wirec-lang/wirec/internal/compiler/ast"
	"github.com/wirec-lang/wirec/internal/compiler/cache"
	"github.com/wirec-lang/wirec/internal/compiler/codegen"
	"github.com/wirec-lang/wirec/internal/compiler/errors"
	"github.com/wirec-lang/wirec/internal/compiler/irgen"
	"github.com/wirec-lang/wirec/internal/compiler/parser"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// Result is everything known about one compiled schema
type Result struct {
	Name   string
	Source *ast.SourceFile
	File   *ast.Schema

	// Config is never nil, but only an error-free Config has a Program.
	Config  *schema.Config
	Program *irgen.Program

	Diagnostics errors.ErrorList

	// Budget is the unreliable size limit the schema was checked against;
	// zero means the default
	Budget int

	// Hash covers the source text, the analysis options and the output
	// overrides
	Hash string
}

// OK reports whether the schema compiled without errors
func (r *Result) OK() bool {
	return !r.Diagnostics.HasErrors()
}

// Outputs override the output options a schema sets. Empty fields leave
// the schema's choice in place.
type Outputs struct {
	Server     string
	Client     string
	Typescript bool
}

func (o Outputs) key() string {
	return o.Server + "\x00" + o.Client + "\x00" + strconv.FormatBool(o.Typescript)
}

// apply returns a copy of cfg with the overrides in place
func (o Outputs) apply(cfg *schema.Config) *schema.Config {
	out := *cfg
	if o.Server != "" {
		out.Options.ServerOutput = o.Server
	}
	if o.Client != "" {
		out.Options.ClientOutput = o.Client
	}
	if o.Typescript {
		out.Options.Typescript = true
	}
	return &out
}

// Compiler runs the parse, analyze and generate pipeline, reusing results
// for sources it has already seen
type Compiler struct {
	logger  *zap.Logger
	opts    analyzer.Options
	outputs Outputs
	hasher  *cache.FileHasher
	cache   *cache.SchemaCache
}

// NewCompiler creates a compiler. A nil logger discards output.
func NewCompiler(logger *zap.Logger, opts analyzer.Options) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{
		logger: logger,
		opts:   opts,
		hasher: cache.NewFileHasher(),
		cache:  cache.NewSchemaCache(),
	}
}

// Options returns the analysis options the compiler was created with
func (c *Compiler) Options() analyzer.Options {
	return c.opts
}

// SetOutputs installs output overrides used by Emit
func (c *Compiler) SetOutputs(o Outputs) {
	c.outputs = o
}

// Cache exposes the compiled schema cache
func (c *Compiler) Cache() *cache.SchemaCache {
	return c.cache
}

// Compile compiles schema text. name is used in diagnostics and as the
// cache key.
func (c *Compiler) Compile(name, text string) *Result {
	hash := c.hasher.HashString(strconv.Itoa(c.opts.MaxUnreliableSize) + "\x00" + c.outputs.key() + "\x00" + text)
	log := c.logger.With(zap.String("file", name))

	if cached, ok := c.cache.Lookup(name, hash); ok {
		log.Debug("schema unchanged", zap.String("hash", hash[:12]))
		return &Result{
			Name:        name,
			Source:      cached.Source,
			File:        cached.File,
			Config:      cached.Config,
			Program:     cached.Program,
			Diagnostics: cached.Diagnostics,
			Budget:      c.opts.MaxUnreliableSize,
			Hash:        hash,
		}
	}

	start := time.Now()
	file, source, diags := parser.ParseSource(name, text)
	log.Debug("parsed",
		zap.Int("types", len(file.Types)),
		zap.Int("events", len(file.Events)),
		zap.Int("syntax_errors", len(diags)),
		zap.Duration("elapsed", time.Since(start)))

	start = time.Now()
	cfg, semantic := analyzer.Analyze(file, c.opts)
	// A partial tree produces noise; semantic checks only count once the
	// syntax is clean.
	if len(diags) == 0 {
		diags = semantic.Locate(source)
	}
	errs, warns := diags.ErrorCount()
	log.Debug("analyzed",
		zap.Int("errors", errs),
		zap.Int("warnings", warns),
		zap.Duration("elapsed", time.Since(start)))

	result := &Result{
		Name:        name,
		Source:      source,
		File:        file,
		Config:      cfg,
		Diagnostics: diags,
		Budget:      c.opts.MaxUnreliableSize,
		Hash:        hash,
	}

	if result.OK() {
		start = time.Now()
		result.Program = irgen.Generate(cfg)
		log.Debug("generated codecs",
			zap.Int("types", len(result.Program.Types)),
			zap.Int("events", len(result.Program.Events)),
			zap.Duration("elapsed", time.Since(start)))
	}

	c.cache.Set(name, &cache.CachedSchema{
		File:        file,
		Source:      source,
		Config:      cfg,
		Program:     result.Program,
		Diagnostics: diags,
		Hash:        hash,
	})
	return result
}

// CompileFile reads and compiles the schema at path
func (c *Compiler) CompileFile(path string) (*Result, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	return c.Compile(path, string(text)), nil
}

// Emit renders the output files of a successful result
func (c *Compiler) Emit(r *Result) (map[string]string, error) {
	if !r.OK() || r.Program == nil {
		errs, _ := r.Diagnostics.ErrorCount()
		return nil, fmt.Errorf("%s has %d error(s)", r.Name, errs)
	}

	start := time.Now()
	files, err := codegen.NewGenerator(c.outputs.apply(r.Config), r.Program).GenerateProgram()
	if err != nil {
		return nil, fmt.Errorf("generating %s: %w", r.Name, err)
	}
	c.logger.Debug("emitted",
		zap.String("file", r.Name),
		zap.Int("outputs", len(files)),
		zap.Duration("elapsed", time.Since(start)))
	return files, nil
}
