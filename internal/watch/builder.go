package watch

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/wirec-lang/wirec/internal/compiler/errors"
	"github.com/wirec-lang/wirec/internal/tooling"
)

// BuildResult holds the outcome of one rebuild
type BuildResult struct {
	Success     bool
	Diagnostics errors.ErrorList
	Duration    time.Duration
	// Changed are the files that triggered the build
	Changed []string
	// Written are the output paths whose contents changed
	Written []string
	// Unchanged is set when the schema hash matched the previous build
	Unchanged bool
}

// Builder recompiles one schema and writes its outputs
type Builder struct {
	compiler *tooling.Compiler
	logger   *zap.Logger
	schema   string
	root     string
	lastHash string
}

// NewBuilder creates a builder for the schema at path. Outputs are written
// relative to root.
func NewBuilder(logger *zap.Logger, compiler *tooling.Compiler, path, root string) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		compiler: compiler,
		logger:   logger,
		schema:   path,
		root:     root,
	}
}

// Schema returns the path of the schema being built
func (b *Builder) Schema() string {
	return b.schema
}

// Build compiles the schema and writes the outputs. Diagnostics are part of
// the result; the error is only set when the build could not run at all or
// failed.
func (b *Builder) Build(changed []string) (*BuildResult, error) {
	start := time.Now()
	result := &BuildResult{Changed: changed}

	compiled, err := b.compiler.CompileFile(b.schema)
	if err != nil {
		result.Duration = time.Since(start)
		return result, err
	}
	result.Diagnostics = compiled.Diagnostics

	if !compiled.OK() {
		result.Duration = time.Since(start)
		errs, _ := compiled.Diagnostics.ErrorCount()
		return result, fmt.Errorf("compilation failed with %d error(s)", errs)
	}

	if compiled.Hash == b.lastHash {
		result.Success = true
		result.Unchanged = true
		result.Duration = time.Since(start)
		return result, nil
	}

	files, err := b.compiler.Emit(compiled)
	if err != nil {
		result.Duration = time.Since(start)
		return result, err
	}

	result.Written, err = tooling.WriteOutputs(b.root, files)
	if err != nil {
		result.Duration = time.Since(start)
		return result, err
	}

	b.lastHash = compiled.Hash
	result.Success = true
	result.Duration = time.Since(start)
	b.logger.Debug("build finished",
		zap.String("schema", b.schema),
		zap.Strings("written", result.Written),
		zap.Duration("elapsed", result.Duration))
	return result, nil
}

// Affects reports whether any of the changed files is the schema itself
func (b *Builder) Affects(changed []string) bool {
	want, err := filepath.Abs(b.schema)
	if err != nil {
		want = filepath.Clean(b.schema)
	}
	for _, file := range changed {
		abs, err := filepath.Abs(file)
		if err != nil {
			abs = filepath.Clean(file)
		}
		if abs == want {
			return true
		}
	}
	return false
}

// Reset forgets the last successful build so the next one writes again
func (b *Builder) Reset() {
	b.lastHash = ""
	b.compiler.Cache().Invalidate(b.schema)
}
