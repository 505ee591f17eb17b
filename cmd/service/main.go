// Package main is the entry point for the gateway service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jsamuelsen/jsonapi-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/jsonapi-gateway/internal/adapters/clients/acl"
	"github.com/jsamuelsen/jsonapi-gateway/internal/adapters/http"
	"github.com/jsamuelsen/jsonapi-gateway/internal/adapters/http/handlers"
	"github.com/jsamuelsen/jsonapi-gateway/internal/app"
	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/config"
	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/logging"
	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/metrics"
	"github.com/jsamuelsen/jsonapi-gateway/internal/platform/telemetry"
	"github.com/jsamuelsen/jsonapi-gateway/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("upstream", cfg.Upstream.BaseURL),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Create the Prometheus registry and decode metrics
	registry := metrics.NewRegistry()

	decodeMetrics, err := metrics.NewDecoder(registry)
	if err != nil {
		return fmt.Errorf("creating decode metrics: %w", err)
	}

	// 6. Create HTTP client for the upstream JSON:API service
	httpClient, err := clients.New(&clients.Config{
		BaseURL:         cfg.Upstream.BaseURL,
		ServiceName:     cfg.Upstream.Name,
		Timeout:         cfg.Client.Timeout,
		MaxResponseSize: cfg.Client.MaxResponseSize,
		Circuit:         cfg.Client.CircuitBreaker,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	// 7. Create the resource client adapter and register it as a health checker
	resourceClient := acl.NewResourceClient(acl.ResourceClientConfig{
		Client:     httpClient,
		HealthPath: cfg.Upstream.HealthPath,
		Logger:     logger,
	})

	healthRegistry := ports.NewHealthRegistry()
	if err := healthRegistry.Register(resourceClient); err != nil {
		return fmt.Errorf("registering upstream health check: %w", err)
	}

	// 8. Create document service (application layer)
	documentService := app.NewDocumentService(app.DocumentServiceConfig{
		Client:              resourceClient,
		Metrics:             decodeMetrics,
		UnresolvedWarnRatio: cfg.Decode.UnresolvedWarnRatio,
		BatchLimit:          cfg.Decode.BatchLimit,
		BatchConcurrency:    cfg.Decode.BatchConcurrency,
		Logger:              logger,
	})

	// 9. Create handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	healthHandler := handlers.NewHealthHandler(healthRegistry, buildInfo, metrics.Handler(registry))
	documentHandler := handlers.NewDocumentHandler(documentService)

	// 10. Create HTTP server and router
	server := http.New(&cfg.Server, logger)

	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:          logger,
		AppConfig:       &cfg.App,
		HealthHandler:   healthHandler,
		DocumentHandler: documentHandler,
		Timeout:         cfg.Server.RequestTimeout,
	})

	// 11. Start server (non-blocking)
	serverErr := server.Start()

	// 12. Wait for shutdown signal
	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

// waitForShutdown blocks until a shutdown signal is received or server error occurs.
// It then performs graceful shutdown of the HTTP server.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown",
		slog.Duration("timeout", shutdownTimeout),
	)

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
