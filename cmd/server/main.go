package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/prxgr4mmer/price-resolver/internal/adapters/http"
	"github.com/prxgr4mmer/price-resolver/internal/adapters/postgres"
	"github.com/prxgr4mmer/price-resolver/internal/adapters/quoteapi"
	"github.com/prxgr4mmer/price-resolver/internal/config"
	"github.com/prxgr4mmer/price-resolver/internal/services"
	"github.com/prxgr4mmer/price-resolver/internal/worker"
	"github.com/prxgr4mmer/price-resolver/pkg/ratelimit"
	"github.com/prxgr4mmer/price-resolver/pkg/retry"
)

func main() {
	// Initialize logger
	logger := initLogger()
	slog.SetDefault(logger)

	logger.Info("starting price resolver service")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Create root context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build and start application
	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	// Start application components
	if err := app.Start(ctx); err != nil {
		logger.Error("failed to start application", "error", err)
		os.Exit(1)
	}

	// Wait for shutdown signal
	waitForShutdown(ctx, cancel, app, logger)
}

func initLogger() *slog.Logger {
	logLevel := os.Getenv("LOG_LEVEL")
	logFormat := os.Getenv("LOG_FORMAT")

	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if logFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// Application holds all components
type Application struct {
	db         *postgres.DB
	httpServer *httpAdapter.Server
	refresher  *worker.Refresher
	logger     *slog.Logger
}

func buildApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("building application")

	// 1. Infrastructure Layer - Database
	db, err := postgres.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	// 2. Infrastructure Layer - Repositories
	symbolRepo := postgres.NewSymbolRepository(db)
	quoteRepo := postgres.NewQuoteRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)

	// 3. Infrastructure Layer - Upstream Client
	provider := quoteapi.NewClient(
		quoteapi.WithBaseURL(cfg.Upstream.BaseURL),
		quoteapi.WithServiceKey(cfg.Upstream.ServiceKey),
		quoteapi.WithRetry(retry.Config{
			MaxAttempts:    cfg.Upstream.MaxAttempts,
			InitialBackoff: cfg.Upstream.RetryBackoff,
			MaxBackoff:     cfg.Upstream.MaxBackoff,
			Multiplier:     2.0,
			Jitter:         0.1,
			AttemptTimeout: cfg.Upstream.AttemptTimeout,
		}),
		quoteapi.WithLogger(logger),
	)

	// 4. Admission control for the upstream
	limiter := ratelimit.New(ratelimit.Config{
		Burst:       cfg.RateLimit.Burst,
		BurstWindow: cfg.RateLimit.BurstWindow,
		PerMinute:   cfg.RateLimit.PerMinute,
		PerHour:     cfg.RateLimit.PerHour,
	})

	thresholds := cfg.Cache.Thresholds()

	// 5. Service Layer
	metricsService := services.NewMetricsService(
		symbolRepo,
		quoteRepo,
		historyRepo,
		provider,
		thresholds,
		logger,
	)

	symbolService := services.NewSymbolService(symbolRepo, logger)

	fallbackService := services.NewFallbackService(
		quoteRepo,
		historyRepo,
		thresholds,
		cfg.History.AverageWindowDays,
		cfg.History.AverageMaxRecords,
		logger,
	)

	resolverService := services.NewResolverService(
		provider,
		quoteRepo,
		historyRepo,
		fallbackService,
		limiter,
		metricsService,
		thresholds,
		logger,
	)

	maintenanceService := services.NewMaintenanceService(
		quoteRepo,
		historyRepo,
		thresholds,
		logger,
	)

	refreshService := services.NewRefreshService(
		symbolRepo,
		resolverService,
		metricsService,
		cfg.Refresh.BatchSize,
		cfg.Refresh.BatchDelay,
		logger,
	)

	// 6. Transport Layer - HTTP Server
	httpServer := httpAdapter.NewServer(
		cfg.Server,
		resolverService,
		symbolService,
		maintenanceService,
		metricsService,
		provider,
		logger,
	)

	// 7. Background Workers
	refresher := worker.NewRefresher(
		refreshService,
		maintenanceService,
		cfg.Refresh.Interval,
		cfg.Refresh.PruneInterval,
		cfg.History.RetentionDays,
		logger,
	)

	logger.Info("application built successfully")

	return &Application{
		db:         db,
		httpServer: httpServer,
		refresher:  refresher,
		logger:     logger,
	}, nil
}

func (a *Application) Start(ctx context.Context) error {
	a.logger.Info("starting application components")

	// Start refresher in background
	go func() {
		if err := a.refresher.Start(ctx); err != nil {
			a.logger.Error("refresher error", "error", err)
		}
	}()

	// Start HTTP server in background (will block until shutdown)
	go func() {
		if err := a.httpServer.Start(); err != nil {
			a.logger.Error("http server error", "error", err)
		}
	}()

	a.logger.Info("application started",
		"http_addr", a.httpServer.Addr(),
	)

	return nil
}

func (a *Application) Shutdown() {
	a.logger.Info("shutting down application")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop refresher first
	if err := a.refresher.Stop(); err != nil {
		a.logger.Error("failed to stop refresher", "error", err)
	}

	// Stop HTTP server
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shutdown http server", "error", err)
	}

	// Close database connection
	a.db.Close()

	a.logger.Info("application shutdown complete")
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc, app *Application, logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
		app.Shutdown()
	case <-ctx.Done():
		app.Shutdown()
	}
}
