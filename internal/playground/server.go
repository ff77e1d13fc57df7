// Package playground serves an HTTP API for compiling schemas from a
// browser: one-shot compile and IR endpoints plus a websocket that
// recompiles on every message.
package playground

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wirec-lang/wirec/internal/compiler/analyzer"
	"github.com/wirec-lang/wirec/internal/tooling"
	"github.com/wirec-lang/wirec/internal/watch"
)

// DefaultAddr is the listen address when none is configured
const DefaultAddr = "127.0.0.1:7777"

// MaxSourceBytes bounds the size of a submitted schema
const MaxSourceBytes = 1 << 20

// Config holds server settings
type Config struct {
	Addr string
	// Analysis is used for every compile
	Analysis analyzer.Options
	// Notifier, when set, is mounted at /ws/builds so clients can follow a
	// watch session
	Notifier *watch.Notifier
}

// Server is the playground HTTP server
type Server struct {
	logger     *zap.Logger
	compiler   *tooling.Compiler
	notifier   *watch.Notifier
	router     chi.Router
	httpServer *http.Server
	listener   net.Listener
}

// New creates a server and registers its routes
func New(logger *zap.Logger, config Config) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	logger = logger.Named("playground")

	s := &Server{
		logger:   logger,
		compiler: tooling.NewCompiler(logger, config.Analysis),
		notifier: config.Notifier,
		router:   chi.NewRouter(),
	}
	s.routes()

	s.httpServer = &http.Server{
		Addr:              config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(RequestID)
	s.router.Use(Logging(s.logger))
	s.router.Use(Recovery(s.logger))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/compile", s.handleCompile)
		r.Post("/ir", s.handleIR)
	})
	s.router.Get("/ws", s.handleLive)
	if s.notifier != nil {
		s.router.Get("/ws/builds", s.notifier.HandleWebSocket)
	}
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the bound address once the server is listening
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Listen binds the configured address
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener
	return nil
}

// Serve listens if needed and serves until ctx is done, then shuts down
// gracefully
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.logger.Info("listening", zap.String("addr", s.Addr()))

	errc := make(chan error, 1)
	go func() {
		errc <- s.httpServer.Serve(s.listener)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
