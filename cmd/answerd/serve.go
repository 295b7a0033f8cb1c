package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/answerd/internal/http"
	"github.com/fyrsmithlabs/answerd/internal/pipeline"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the answerd HTTP server",
	Long: `Start the answerd HTTP server.

The server exposes:
  POST /v1/query    answer a question
  POST /v1/ingest   index documents
  GET  /healthz     health check
  GET  /metrics     Prometheus metrics

Examples:
  # Start with defaults
  answerd serve

  # Start with a config file
  answerd serve --config answerd.yaml

  # Override via environment
  ANSWERD_SERVER_PORT=9000 answerd serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("starting answerd",
		zap.String("version", version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("use_reranker", cfg.Retrieval.UseReranker),
		zap.Bool("router_enabled", cfg.Router.Enabled),
	)

	metrics := pipeline.NewMetrics(nil)
	p, store, err := buildPipeline(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer store.Close()

	server, err := http.NewServer(p, logger, &http.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
