package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/voicewatch/internal/adapter/api"
	"github.com/V4T54L/voicewatch/internal/adapter/api/handler"
	"github.com/V4T54L/voicewatch/internal/adapter/events"
	"github.com/V4T54L/voicewatch/internal/adapter/logless"
	"github.com/V4T54L/voicewatch/internal/adapter/metrics"
	"github.com/V4T54L/voicewatch/internal/adapter/pii"
	"github.com/V4T54L/voicewatch/internal/adapter/repository/cached"
	"github.com/V4T54L/voicewatch/internal/adapter/repository/postgres"
	redisrepo "github.com/V4T54L/voicewatch/internal/adapter/repository/redis"
	"github.com/V4T54L/voicewatch/internal/domain"
	"github.com/V4T54L/voicewatch/internal/pkg/config"
	"github.com/V4T54L/voicewatch/internal/pkg/logger"
	"github.com/V4T54L/voicewatch/internal/summary"
	"github.com/V4T54L/voicewatch/internal/usecase"

	_ "github.com/lib/pq" // Keep for postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.New()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Log Backend ---
	var (
		logs      domain.LogSource
		summaries domain.SummarySource
	)
	switch cfg.LogBackend {
	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		repo := postgres.NewLogRepository(db, logger)
		if cfg.PostgresSchema {
			if err := repo.EnsureSchema(ctx); err != nil {
				logger.Error("failed to ensure postgres schema", "error", err)
				os.Exit(1)
			}
		}
		logs, summaries = repo, repo
	default:
		client := logless.NewClient(logless.Options{
			BaseURL: cfg.LoglessBaseURL,
			RPS:     cfg.LoglessRPS,
			Burst:   cfg.LoglessBurst,
			Timeout: cfg.LoglessTimeout,
		}, logger)
		logs, summaries = client, client
	}
	logger.Info("using log backend", "backend", cfg.LogBackend)
	// Redact before the cache so stored entries hold no credentials.
	logs = pii.NewSource(logs, pii.NewRedactor(cfg.RedactionFields, logger))

	// --- Optional Redis Query Cache ---
	var (
		cacheRepo  domain.CacheRepository
		adminRepo  domain.CacheAdminRepository
		cacheAlign time.Duration
	)
	if cfg.RedisAddr != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisAddr)
		if err != nil {
			logger.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("could not connect to redis, queries will bypass the cache until it recovers", "error", err)
		}

		repo, err := redisrepo.NewCacheRepository(redisClient, logger, cfg.CacheTTL)
		if err != nil {
			logger.Error("failed to initialize redis cache", "error", err)
			os.Exit(1)
		}
		go repo.StartHealthCheck(ctx, 5*time.Second)

		source := cached.NewSource(logs, summaries, repo, m, logger)
		cacheAlign = cfg.CacheTTL
		logs, summaries = source, source
		cacheRepo = repo
		adminRepo = redisrepo.NewAdminRepository(redisClient, logger)
	}

	// --- Initialize Use Cases ---
	policy, err := summary.ParseDuplicatePolicy(cfg.SummaryDuplicates)
	if err != nil {
		logger.Error("invalid summary duplicate policy", "error", err)
		os.Exit(1)
	}
	merger := summary.NewMerger(summary.DefaultSeries,
		summary.WithDuplicatePolicy(policy),
		summary.WithLocation(cfg.Location()),
	)

	conversationsUseCase := usecase.NewConversationsUseCase(logs, m, logger, cfg.DefaultLookback, cfg.DefaultLogLimit)
	conversationsUseCase.AlignDefaultEnd(cacheAlign)
	summaryUseCase := usecase.NewSummaryUseCase(summaries, merger, m, logger, cfg.DefaultLookback)
	summaryUseCase.AlignDefaultEnd(cacheAlign)
	cacheAdminUseCase := usecase.NewCacheAdminUseCase(cacheRepo, adminRepo, logger)

	// --- Optional Live Updates over NATS ---
	var broker *handler.SSEBroker
	if cfg.NATSURL != "" {
		nc, err := events.NewClient(cfg.NATSURL, cfg.NATSToken, logger)
		if err != nil {
			logger.Error("failed to connect to nats", "error", err)
			os.Exit(1)
		}
		defer nc.Close()

		broker = handler.NewSSEBroker(ctx, logger, cfg.SSEFlushInterval)
		if err := nc.Subscribe(cfg.NATSInvalidationSubject, broker.HandleEvent); err != nil {
			logger.Error("failed to subscribe to ingestion events", "error", err)
			os.Exit(1)
		}
	}

	// --- Start Admin and Metrics Server ---
	adminHandler := handler.NewAdminHandler(cacheAdminUseCase, logger)
	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: api.NewAdminRouter(adminHandler, cfg.AdminAPIKeys, logger),
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Start Dashboard Server ---
	dashboardHandler := handler.NewDashboardHandler(conversationsUseCase, summaryUseCase, m, logger)
	apiServer := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     api.NewRouter(logger, dashboardHandler, broker),
		ReadTimeout: 5 * time.Second,
		// No WriteTimeout: event streams stay open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("starting dashboard server", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("dashboard server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("dashboard server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
