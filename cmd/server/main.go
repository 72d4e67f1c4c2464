package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ranger-finance/ranger-agent-kit/internal/config"
	"github.com/ranger-finance/ranger-agent-kit/internal/handlers"
	"github.com/ranger-finance/ranger-agent-kit/internal/instrumentation"
	"github.com/ranger-finance/ranger-agent-kit/internal/mcp"
	"github.com/ranger-finance/ranger-agent-kit/internal/tools"
	"github.com/ranger-finance/ranger-agent-kit/internal/upstream"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv(".env")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	// stdout carries the protocol in stdio mode, so logs go to stderr there
	var logOut io.Writer = os.Stdout
	if cfg.Transport == config.TransportStdio {
		logOut = os.Stderr
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("mcp_service_starting",
		"transport", cfg.Transport,
		"port", cfg.Port,
		"timeout_ms", cfg.TimeoutMS,
		"sor_base_url", cfg.SORBaseURL,
		"data_base_url", cfg.DataBaseURL,
		"version", tools.Version,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := instrumentation.NewMetrics(registry)

	client := upstream.New(cfg, metrics, logger)
	server, err := tools.NewServer(cfg, client, metrics, logger)
	if err != nil {
		logger.Error("failed to build mcp server", "error", err)
		os.Exit(1)
	}

	logger.Info("mcp_server_initialized",
		"tools", len(server.Tools()),
		"resources", len(server.Resources()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.PrometheusPort != 0 {
		go serveMetrics(cfg.PrometheusPort, registry, logger)
	}

	switch cfg.Transport {
	case config.TransportStdio:
		err = server.ServeStdio(ctx, os.Stdin, os.Stdout)
	default:
		err = serveSSE(ctx, cfg, server, logger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server_error", "error", err)
		os.Exit(1)
	}

	logger.Info("mcp_service_stopped")
}

func serveMetrics(port int, registry *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	addr := fmt.Sprintf(":%d", port)
	logger.Info("metrics_server_starting", "port", port)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics_server_failed", "error", err)
	}
}

func serveSSE(ctx context.Context, cfg *config.Config, server *mcp.Server, logger *slog.Logger) error {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.CorrelationIDMiddleware)
	r.Use(handlers.LoggingMiddleware(logger))

	// Health check endpoint (for docker healthcheck)
	r.Get("/health", handlers.HealthCheckHandler(server))

	// JSON-RPC over SSE. The handler enforces the per request timeout itself;
	// the middleware only adds slack for writing the response.
	r.With(handlers.TimeoutMiddleware(cfg.Timeout()+time.Second, logger)).
		Post("/mcp/sse", handlers.NewMCPInvokeHandler(server, cfg.Timeout(), logger).ServeHTTP)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Timeout() + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mcp_server_listening", "port", cfg.Port, "status", "healthy")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown
	logger.Info("shutdown_signal_received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	return nil
}
