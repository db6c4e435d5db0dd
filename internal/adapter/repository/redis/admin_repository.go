package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/voicewatch/internal/domain"
)

// AdminRepository answers operational questions about the query cache.
type AdminRepository struct {
	client *redis.Client
	logger *slog.Logger
}

// NewAdminRepository creates a new Redis admin repository.
func NewAdminRepository(client *redis.Client, logger *slog.Logger) *AdminRepository {
	return &AdminRepository{
		client: client,
		logger: logger.With("component", "redis_admin"),
	}
}

// SourceInfo reports how many queries of a source are cached and when the index expires.
// Index members that already expired are not counted.
func (r *AdminRepository) SourceInfo(ctx context.Context, source string) (*domain.CacheInfo, error) {
	pipe := r.client.Pipeline()
	card := pipe.ZCount(ctx, indexKey(source), expiryScore(time.Now()), "+inf")
	ttl := pipe.PTTL(ctx, indexKey(source))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get cache info for source %s: %w", source, err)
	}

	info := &domain.CacheInfo{Source: source, Entries: card.Val()}
	if d := ttl.Val(); d > 0 {
		info.ExpiresIn = d.Round(time.Second).String()
	}
	return info, nil
}

// ServerInfo returns the connection latency of the Redis server.
func (r *AdminRepository) ServerInfo(ctx context.Context) (*domain.CacheHealth, error) {
	start := time.Now()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return &domain.CacheHealth{Available: false, Error: err.Error()}, nil
	}
	return &domain.CacheHealth{Available: true, Latency: time.Since(start).String()}, nil
}
