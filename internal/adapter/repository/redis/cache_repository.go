package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/voicewatch/internal/domain"
)

const keyPrefix = "voicewatch:cache"

func entryKey(source, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, source, key)
}

func indexKey(source string) string {
	return fmt.Sprintf("%s:%s:keys", keyPrefix, source)
}

// expiryScore is the index score of an entry: its expiry in unix milliseconds.
func expiryScore(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// CacheRepository implements domain.CacheRepository on Redis. Values are zstd
// compressed and every key is indexed in a per-source sorted set scored by expiry,
// so a source can be invalidated without SCAN and expired members are pruned on write. While Redis is unreachable reads miss and writes are
// dropped.
type CacheRepository struct {
	client      *redis.Client
	logger      *slog.Logger
	ttl         time.Duration
	now         func() time.Time
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
	isAvailable atomic.Bool
}

// NewCacheRepository creates a Redis-backed cache with the given entry TTL.
func NewCacheRepository(client *redis.Client, logger *slog.Logger, ttl time.Duration) (*CacheRepository, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	repo := &CacheRepository{
		client:  client,
		logger:  logger.With("component", "redis_cache"),
		ttl:     ttl,
		now:     time.Now,
		encoder: enc,
		decoder: dec,
	}
	repo.isAvailable.Store(true) // Assume available initially
	return repo, nil
}

// Available reports whether the last interaction with Redis succeeded.
func (r *CacheRepository) Available() bool {
	return r.isAvailable.Load()
}

// StartHealthCheck pings Redis every interval and flips availability until ctx is done.
func (r *CacheRepository) StartHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("Starting Redis health check")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopping Redis health check")
			return
		case <-ticker.C:
			r.Ping(ctx)
		}
	}
}

// Ping checks connectivity once and updates availability.
func (r *CacheRepository) Ping(ctx context.Context) error {
	err := r.client.Ping(ctx).Err()
	if err != nil {
		if r.isAvailable.CompareAndSwap(true, false) {
			r.logger.Error("Redis connection lost", "error", err)
		}
		return err
	}
	if r.isAvailable.CompareAndSwap(false, true) {
		r.logger.Info("Redis connection recovered")
	}
	return nil
}

// Get returns the cached value or domain.ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, source, key string) ([]byte, error) {
	if !r.isAvailable.Load() {
		return nil, domain.ErrCacheMiss
	}

	compressed, err := r.client.Get(ctx, entryKey(source, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCacheMiss
		}
		r.markFailure(err)
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheMiss, err)
	}

	value, err := r.decoder.DecodeAll(compressed, nil)
	if err != nil {
		r.logger.Warn("Dropping undecodable cache entry", "source", source, "key", key, "error", err)
		r.client.Del(ctx, entryKey(source, key))
		return nil, domain.ErrCacheMiss
	}
	return value, nil
}

// Set stores value under key for the configured TTL.
func (r *CacheRepository) Set(ctx context.Context, source, key string, value []byte) error {
	if !r.isAvailable.Load() {
		return nil
	}

	compressed := r.encoder.EncodeAll(value, nil)
	now := r.now()

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, entryKey(source, key), compressed, r.ttl)
	pipe.ZAdd(ctx, indexKey(source), redis.Z{Score: float64(now.Add(r.ttl).UnixMilli()), Member: key})
	pipe.ZRemRangeByScore(ctx, indexKey(source), "-inf", "("+expiryScore(now))
	pipe.Expire(ctx, indexKey(source), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		r.markFailure(err)
		return fmt.Errorf("failed to cache %s for source %s: %w", key, source, err)
	}
	return nil
}

// InvalidateSource deletes every entry of source and returns how many existed.
func (r *CacheRepository) InvalidateSource(ctx context.Context, source string) (int64, error) {
	keys, err := r.client.ZRange(ctx, indexKey(source), 0, -1).Result()
	if err != nil {
		r.markFailure(err)
		return 0, fmt.Errorf("failed to list cache keys of source %s: %w", source, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = entryKey(source, k)
	}

	pipe := r.client.TxPipeline()
	deleted := pipe.Del(ctx, redisKeys...)
	pipe.Del(ctx, indexKey(source))
	if _, err := pipe.Exec(ctx); err != nil {
		r.markFailure(err)
		return 0, fmt.Errorf("failed to invalidate source %s: %w", source, err)
	}

	r.logger.Info("Invalidated cached queries", "source", source, "count", deleted.Val())
	return deleted.Val(), nil
}

func (r *CacheRepository) markFailure(err error) {
	if isNetworkError(err) && r.isAvailable.CompareAndSwap(true, false) {
		r.logger.Error("Redis connection lost during cache access", "error", err)
	}
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed)
}
