package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shieldops/shieldops/internal/adapters/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the supervisor HTTP API",
	Long: `Start the supervisor as an HTTP service.

The API accepts events on POST /api/v1/events, runs a full session per
event, and exposes finished sessions, an SSE event stream, health, and
prometheus metrics.

Examples:
  # Start with defaults (127.0.0.1:8440)
  shieldops serve

  # Bind elsewhere
  shieldops serve --host 0.0.0.0 --port 9000`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "",
		"Host address to bind to (overrides config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0,
		"Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if cfg.Rules.Watch && cfg.Rules.Path != "" {
		go func() {
			if err := rt.toolkit.WatchRules(ctx, cfg.Rules.Path); err != nil {
				rt.logger.Error("rules watcher stopped", "error", err)
			}
		}()
		rt.logger.Info("watching rules file", "path", cfg.Rules.Path)
	}

	server := web.NewServer(rt.orchestrator, rt.store, rt.bus,
		web.WithLogger(rt.logger),
		web.WithMetricsGatherer(rt.registry),
		web.WithCORSOrigins(cfg.Server.CORSOrigins),
	)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("server started", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-sigCh:
		rt.logger.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	rt.logger.Info("server stopped")
	return nil
}
