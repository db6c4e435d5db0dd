package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/V4T54L/voicewatch/internal/domain"
)

// ErrCacheDisabled is returned when no cache is configured.
var ErrCacheDisabled = errors.New("cache is not configured")

// CacheAdminUseCase provides use cases for operating the query cache.
type CacheAdminUseCase struct {
	cache  domain.CacheRepository
	admin  domain.CacheAdminRepository
	logger *slog.Logger
}

// NewCacheAdminUseCase creates a new CacheAdminUseCase. Both repositories may be nil
// when caching is disabled.
func NewCacheAdminUseCase(cache domain.CacheRepository, admin domain.CacheAdminRepository, logger *slog.Logger) *CacheAdminUseCase {
	return &CacheAdminUseCase{cache: cache, admin: admin, logger: logger.With("component", "cache_admin")}
}

// Invalidate drops the cached queries of a source.
func (uc *CacheAdminUseCase) Invalidate(ctx context.Context, source string) (int64, error) {
	if uc.cache == nil {
		return 0, ErrCacheDisabled
	}
	n, err := uc.cache.InvalidateSource(ctx, source)
	if err != nil {
		return 0, err
	}
	uc.logger.Info("cache invalidated by operator", "source", source, "count", n)
	return n, nil
}

// SourceInfo describes the cached queries of a source.
func (uc *CacheAdminUseCase) SourceInfo(ctx context.Context, source string) (*domain.CacheInfo, error) {
	if uc.admin == nil {
		return nil, ErrCacheDisabled
	}
	return uc.admin.SourceInfo(ctx, source)
}

// Health reports whether the cache server is reachable.
func (uc *CacheAdminUseCase) Health(ctx context.Context) (*domain.CacheHealth, error) {
	if uc.admin == nil {
		return nil, ErrCacheDisabled
	}
	return uc.admin.ServerInfo(ctx)
}
