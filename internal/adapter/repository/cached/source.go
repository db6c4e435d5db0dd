// Package cached puts a read-through cache in front of the log backends.
package cached

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/V4T54L/voicewatch/internal/adapter/metrics"
	"github.com/V4T54L/voicewatch/internal/domain"
)

// Source implements domain.LogSource and domain.SummarySource by consulting the cache
// before the wrapped backend. Cache failures never fail a query.
type Source struct {
	logs      domain.LogSource
	summaries domain.SummarySource
	cache     domain.CacheRepository
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewSource wraps the backends. summaries may be nil for backends without summaries.
func NewSource(logs domain.LogSource, summaries domain.SummarySource, cache domain.CacheRepository, m *metrics.Metrics, logger *slog.Logger) *Source {
	return &Source{
		logs:      logs,
		summaries: summaries,
		cache:     cache,
		metrics:   m,
		logger:    logger.With("component", "query_cache"),
	}
}

func logsKey(q domain.LogQuery) string {
	return fmt.Sprintf("logs:%d:%d:%d", q.Start.UnixMilli(), q.End.UnixMilli(), q.Limit)
}

func summaryKey(kind string, q domain.SummaryQuery) string {
	return fmt.Sprintf("%s:%d:%d:%s:%t", kind, q.Start.UnixMilli(), q.End.UnixMilli(), q.Granularity, q.FillGaps)
}

// ListLogs returns the cached logs of the query window or fetches them.
func (s *Source) ListLogs(ctx context.Context, q domain.LogQuery) ([]domain.LogRecord, error) {
	return readThrough(ctx, s, q.Source, logsKey(q), func() ([]domain.LogRecord, error) {
		return s.logs.ListLogs(ctx, q)
	})
}

func (s *Source) TimeSummary(ctx context.Context, q domain.SummaryQuery) (*domain.TimeSummary, error) {
	if s.summaries == nil {
		return nil, domain.ErrUnsupported
	}
	return readThrough(ctx, s, q.Source, summaryKey("time", q), func() (*domain.TimeSummary, error) {
		return s.summaries.TimeSummary(ctx, q)
	})
}

func (s *Source) IntentSummary(ctx context.Context, q domain.SummaryQuery) (*domain.IntentSummary, error) {
	if s.summaries == nil {
		return nil, domain.ErrUnsupported
	}
	return readThrough(ctx, s, q.Source, summaryKey("intents", q), func() (*domain.IntentSummary, error) {
		return s.summaries.IntentSummary(ctx, q)
	})
}

func (s *Source) SourceStats(ctx context.Context, q domain.SummaryQuery) (*domain.SourceStats, error) {
	if s.summaries == nil {
		return nil, domain.ErrUnsupported
	}
	return readThrough(ctx, s, q.Source, summaryKey("stats", q), func() (*domain.SourceStats, error) {
		return s.summaries.SourceStats(ctx, q)
	})
}

func readThrough[T any](ctx context.Context, s *Source, source, key string, fetch func() (T, error)) (T, error) {
	if data, err := s.cache.Get(ctx, source, key); err == nil {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			s.metrics.CacheHits.Inc()
			return v, nil
		}
		s.logger.Warn("Ignoring undecodable cache entry", "source", source, "key", key)
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.Warn("Cache read failed", "source", source, "key", key, "error", err)
	}
	s.metrics.CacheMisses.Inc()

	v, err := fetch()
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("Failed to encode query result for caching", "source", source, "key", key, "error", err)
		return v, nil
	}
	if err := s.cache.Set(ctx, source, key, data); err != nil {
		s.logger.Warn("Cache write failed", "source", source, "key", key, "error", err)
	}
	return v, nil
}
