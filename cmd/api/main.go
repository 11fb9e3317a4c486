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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miz-art/Micro-narrativesxHarms-June25/cmd/mainconfig"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/api/router"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/app/bootstrap"
	appconfig "github.com/miz-art/Micro-narrativesxHarms-June25/internal/config"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/http/handlers"
	httpmiddleware "github.com/miz-art/Micro-narrativesxHarms-June25/internal/http/middleware"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/llm"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/observability/metrics"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/webchat"
	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.NewWithWriter(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info("starting narrative session API",
		"env", cfg.Env,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	var awsCfg *aws.Config
	if needsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("load AWS config: %w", err)
		}
		awsCfg = &loaded
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	store := bootstrap.BuildSessionStore(redisClient, cfg, logger)

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}
	sink := bootstrap.BuildPackageSink(cfg, awsCfg, pool, logger)

	metricsHandler, narrativeMetrics := setupMetrics()

	client, closeLLM, err := bootstrap.BuildLLMClient(ctx, cfg, awsCfg, logger)
	if err != nil {
		return err
	}
	defer closeLLM()

	service, err := bootstrap.BuildNarrativeService(cfg, client, store, sink, narrativeMetrics, logger)
	if err != nil {
		return err
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx, time.Minute, 10*time.Minute)

	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; admin endpoints reject every request")
	}

	r := router.New(&router.Config{
		Logger:             logger,
		SessionHandler:     handlers.NewSessionHandler(service, logger),
		AdminSessions:      handlers.NewAdminSessionsHandler(service, logger),
		WebChat:            webchat.NewHandler(service, logger),
		Health:             handlers.NewHealthHandler(bootstrap.HealthChecks(redisClient, pool)...),
		MetricsHandler:     metricsHandler,
		RequestObserver:    narrativeMetrics,
		RateLimiter:        limiter,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Scenario fan-out holds a request open across several completions.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
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

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// needsAWS reports whether any configured component talks to AWS.
func needsAWS(cfg *appconfig.Config) bool {
	return cfg.LLMProvider == "bedrock" || cfg.LLMFallbackProvider == "bedrock" ||
		cfg.PackageTable != "" || cfg.ArchiveBucket != "" || cfg.PackageQueueURL != ""
}

func setupMetrics() (http.Handler, *metrics.NarrativeMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	llm.RegisterMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewNarrativeMetrics(reg)
}
