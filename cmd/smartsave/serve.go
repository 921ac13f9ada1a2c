package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boddenberg/smartsave-bfa-go/internal/config"
	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
	"github.com/boddenberg/smartsave-bfa-go/internal/handler"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/cache"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/client"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/observability"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/smartsave-bfa-go/internal/port"
	"github.com/boddenberg/smartsave-bfa-go/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	// --- Load .env file (for local development) ---
	envFile, envErr := config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if envErr != nil {
		logger.Warn("ignoring .env file", zap.Error(envErr))
	}
	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("env_file", envFile),
		zap.Bool("use_supabase", cfg.SupabaseEnabled()),
		zap.Bool("narrative_enabled", cfg.NarrativeAPIURL != ""),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Engine ---
	eng, err := newEngine(cfg)
	if err != nil {
		return fmt.Errorf("loading thresholds: %w", err)
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "smartsave-bfa")
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	analysisCache := cache.New[*domain.AnalysisResult](cfg.CacheTTL, cfg.CacheMaxEntries)
	defer analysisCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var store port.SnapshotStore
	if cfg.SupabaseEnabled() {
		logger.Info("using Supabase as snapshot store",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		store = supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase", logger),
			resilienceCfg,
			logger,
		)
	} else {
		logger.Warn("snapshot store: Supabase not configured, snapshot routes unavailable")
	}

	var narrator port.NarrativeCaller
	if cfg.NarrativeAPIURL != "" {
		narrator = client.NewNarrativeClient(
			httpClient,
			cfg.NarrativeAPIURL,
			resilience.NewCircuitBreaker("narrative", logger),
			resilienceCfg,
		)
	} else {
		logger.Warn("narrative: NARRATIVE_API_URL not set, insights route unavailable")
	}

	// --- Services ---
	analysisSvc := service.NewAnalysis(eng, store, narrator, analysisCache, metrics, logger, cfg.MaxConcurrency)

	// --- Router ---
	router := handler.NewRouter(analysisSvc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
