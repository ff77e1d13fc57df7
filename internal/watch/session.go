package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wirec-lang/wirec/internal/tooling"
)

// Config holds the settings of a watch session
type Config struct {
	// Schema is the schema file to rebuild
	Schema string
	// Root is where outputs are written; it defaults to the working directory
	Root string
	// Debounce is the quiet period before a rebuild
	Debounce time.Duration
	// Ignored are extra base name globs the watcher skips
	Ignored []string
	// Notifier receives build notifications when set
	Notifier *Notifier
	// OnBuild is called after every build
	OnBuild func(*BuildResult, error)
}

// Session watches the directory of a schema and rebuilds it on change
type Session struct {
	logger   *zap.Logger
	builder  *Builder
	watcher  *FileWatcher
	notifier *Notifier
	onBuild  func(*BuildResult, error)

	isBuilding bool
	buildMutex sync.Mutex
	pending    []string
}

// NewSession creates a session
func NewSession(logger *zap.Logger, compiler *tooling.Compiler, config Config) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Schema == "" {
		return nil, fmt.Errorf("no schema to watch")
	}
	logger = logger.Named("watch")

	s := &Session{
		logger:   logger,
		builder:  NewBuilder(logger, compiler, config.Schema, config.Root),
		notifier: config.Notifier,
		onBuild:  config.OnBuild,
	}

	var err error
	s.watcher, err = NewFileWatcher(logger, WatcherOptions{
		Root:     filepath.Dir(config.Schema),
		Ignored:  append([]string{"*.swp", "*~"}, config.Ignored...),
		Debounce: config.Debounce,
	}, s.handleFileChange)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Run builds once, then rebuilds on every change until ctx is done
func (s *Session) Run(ctx context.Context) error {
	s.rebuild([]string{s.builder.Schema()})

	if err := s.watcher.Start(); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	s.logger.Info("watching for changes", zap.String("schema", s.builder.Schema()))

	<-ctx.Done()
	return s.watcher.Stop()
}

// handleFileChange rebuilds after a settled batch. Changes that arrive
// during a build are folded into one follow-up build.
func (s *Session) handleFileChange(files []string) error {
	s.buildMutex.Lock()
	if s.isBuilding {
		s.pending = append(s.pending, files...)
		s.buildMutex.Unlock()
		return nil
	}
	s.isBuilding = true
	s.buildMutex.Unlock()

	for {
		s.rebuild(files)

		s.buildMutex.Lock()
		if len(s.pending) == 0 {
			s.isBuilding = false
			s.buildMutex.Unlock()
			return nil
		}
		files, s.pending = s.pending, nil
		s.buildMutex.Unlock()
	}
}

func (s *Session) rebuild(files []string) {
	// Only edits to the schema itself trigger a build
	if !s.builder.Affects(files) {
		s.logger.Debug("ignoring unrelated change", zap.Strings("files", files))
		return
	}

	schema := s.builder.Schema()
	if s.notifier != nil {
		s.notifier.NotifyBuilding(schema, files)
	}

	result, err := s.builder.Build(files)
	switch {
	case err != nil:
		s.logger.Warn("build failed", zap.String("schema", schema), zap.Error(err))
	case result.Unchanged:
		s.logger.Debug("outputs up to date", zap.String("schema", schema))
	default:
		s.logger.Info("rebuilt",
			zap.String("schema", schema),
			zap.Strings("written", result.Written),
			zap.Duration("elapsed", result.Duration))
	}

	if s.notifier != nil {
		s.notifier.NotifyResult(schema, result, err)
	}
	if s.onBuild != nil {
		s.onBuild(result, err)
	}
}
