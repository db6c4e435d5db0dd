package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/voicewatch/internal/adapter/events"
	"github.com/V4T54L/voicewatch/internal/adapter/metrics"
	redisrepo "github.com/V4T54L/voicewatch/internal/adapter/repository/redis"
	"github.com/V4T54L/voicewatch/internal/pkg/config"
	"github.com/V4T54L/voicewatch/internal/pkg/logger"
	"github.com/V4T54L/voicewatch/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("starting cache invalidator")

	if cfg.RedisAddr == "" || cfg.NATSURL == "" {
		log.Error("REDIS_ADDR and NATS_URL are required for the invalidator")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Connect to Redis
	redisOpts, err := redis.ParseURL(cfg.RedisAddr)
	if err != nil {
		log.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to redis")

	cacheRepo, err := redisrepo.NewCacheRepository(redisClient, log, cfg.CacheTTL)
	if err != nil {
		log.Error("failed to create redis cache repository", "error", err)
		os.Exit(1)
	}
	go cacheRepo.StartHealthCheck(ctx, 5*time.Second)

	invalidate := usecase.NewInvalidateCacheUseCase(cacheRepo, m, log, cfg.InvalidationRetries, cfg.InvalidationBackoff)

	// Connect to NATS
	nc, err := events.NewClient(cfg.NATSURL, cfg.NATSToken, log)
	if err != nil {
		log.Error("failed to connect to nats", "error", err)
		os.Exit(1)
	}
	defer nc.Close()

	err = nc.Subscribe(cfg.NATSInvalidationSubject, func(subject string, data []byte) {
		removed, err := invalidate.Handle(ctx, data)
		if err != nil {
			log.Error("error handling ingestion event", "subject", subject, "error", err)
			return
		}
		log.Debug("invalidated cached queries", "subject", subject, "removed", removed)
	})
	if err != nil {
		log.Error("failed to subscribe", "error", err)
		os.Exit(1)
	}

	// Metrics only; the invalidator has no admin API.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: cfg.AdminAddr, Handler: mux}
	go func() {
		log.Info("starting metrics server", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", "error", err)
		}
	}()

	log.Info("invalidator started", "subject", cfg.NATSInvalidationSubject)
	<-ctx.Done()
	log.Info("shutdown signal received, stopping invalidator...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics server shutdown failed", "error", err)
	}

	log.Info("invalidator shut down gracefully")
}
