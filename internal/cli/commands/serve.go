package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wirec-lang/wirec/internal/cli/ui"
	"github.com/wirec-lang/wirec/internal/lsp"
	"github.com/wirec-lang/wirec/internal/playground"
	"github.com/wirec-lang/wirec/internal/watch"
)

// signalContext is cancelled by SIGINT, SIGTERM, or the parent
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the schema playground server",
		Long: `Start an HTTP server that compiles schemas on request.

Endpoints:
  GET  /healthz       liveness check
  POST /api/compile   diagnostics and generated files
  POST /api/ir        codec listing
  GET  /ws            live compile over a WebSocket`,
		Example: `  wirec serve
  wirec serve --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Serve.Addr = addr
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()

			server := playground.New(envFrom(cmd).logger, playground.Config{
				Addr:     cfg.Serve.Addr,
				Analysis: cfg.AnalyzerOptions(),
			})
			if err := server.Listen(); err != nil {
				return err
			}
			printListening(cmd, server.Addr())
			return server.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from wirec.yml, 127.0.0.1:7777)")
	return cmd
}

func printListening(cmd *cobra.Command, addr string) {
	cyan := color.New(color.FgCyan, color.Bold)
	if envFrom(cmd).opts.noColor {
		cyan.DisableColor()
	}
	cyan.Fprintf(cmd.OutOrStdout(), "Playground listening on http://%s\n", addr)
}

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	var serve bool

	cmd := &cobra.Command{
		Use:   "watch [schema]",
		Short: "Rebuild the generated modules whenever the schema changes",
		Long: `Build the schema, then watch it and rebuild on every save. Rapid saves
are debounced (watch.debounce in wirec.yml).

With --serve the playground runs alongside and streams build results to
WebSocket clients at /ws/builds.`,
		Example: `  wirec watch
  wirec watch schemas/net.wire --serve`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, serve)
		},
	}

	cmd.Flags().BoolVar(&serve, "serve", false, "Also run the playground and stream build results")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string, serve bool) error {
	e := envFrom(cmd)
	p, err := loadProject(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	out := cmd.OutOrStdout()
	config := watch.Config{
		Schema:   p.schema,
		Root:     p.cfg.Root(),
		Debounce: p.cfg.Watch.Debounce,
		OnBuild: func(result *watch.BuildResult, err error) {
			switch {
			case result.Unchanged:
			case err != nil:
				if len(result.Diagnostics) > 0 {
					ui.WriteDiagnostics(cmd.ErrOrStderr(), result.Diagnostics, false, e.opts.noColor)
				}
				fmt.Fprint(cmd.ErrOrStderr(), ui.BuildError(err.Error(), e.opts.noColor))
			default:
				ui.WriteSuccess(out, fmt.Sprintf("Rebuilt %s in %s (%d written)", p.schema, result.Duration.Round(1e6), len(result.Written)), e.opts.noColor)
			}
		},
	}

	var server *playground.Server
	if serve {
		notifier := watch.NewNotifier(e.logger)
		defer notifier.Close()
		config.Notifier = notifier

		server = playground.New(e.logger, playground.Config{
			Addr:     p.cfg.Serve.Addr,
			Analysis: p.cfg.AnalyzerOptions(),
			Notifier: notifier,
		})
		if err := server.Listen(); err != nil {
			return err
		}
		printListening(cmd, server.Addr())
	}

	session, err := watch.NewSession(e.logger, newCompiler(cmd, p.cfg), config)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return session.Run(ctx) })
	if server != nil {
		g.Go(func() error { return server.Serve(ctx) })
	}
	return g.Wait()
}

// NewLSPCommand creates the lsp command
func NewLSPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the language server",
		Long: `Run a Language Server Protocol server on stdin/stdout for editor
integration: diagnostics, hover with payload sizes, go to definition,
references, document symbols, completion, and formatting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()

			server := lsp.NewServer(envFrom(cmd).logger, cfg.AnalyzerOptions())
			server.SetFormatConfig(&cfg.Format)
			if err := server.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("language server error: %w", err)
			}
			return nil
		},
	}
}
