package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/V4T54L/voicewatch/internal/adapter/metrics"
	"github.com/V4T54L/voicewatch/internal/domain"
)

const (
	defaultRetryCount   = 3
	defaultRetryBackoff = 1 * time.Second
)

// ErrInvalidEvent is returned for notifications that cannot be decoded.
var ErrInvalidEvent = errors.New("invalid ingestion event")

// IngestionEvent announces that new logs of the given sources were stored.
type IngestionEvent struct {
	Source  string   `json:"source"`
	Sources []string `json:"sources,omitempty"`
}

// AllSources returns Source followed by Sources, skipping blanks and repeats.
func (e IngestionEvent) AllSources() []string {
	out := make([]string, 0, len(e.Sources)+1)
	for _, s := range append([]string{e.Source}, e.Sources...) {
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// InvalidateCacheUseCase drops cached queries of sources that received new logs.
type InvalidateCacheUseCase struct {
	cache        domain.CacheRepository
	metrics      *metrics.Metrics
	logger       *slog.Logger
	retryCount   int
	retryBackoff time.Duration
}

// NewInvalidateCacheUseCase creates a new use case. Non-positive retry settings fall
// back to the defaults.
func NewInvalidateCacheUseCase(cache domain.CacheRepository, m *metrics.Metrics, logger *slog.Logger, retryCount int, retryBackoff time.Duration) *InvalidateCacheUseCase {
	if retryCount <= 0 {
		retryCount = defaultRetryCount
	}
	if retryBackoff <= 0 {
		retryBackoff = defaultRetryBackoff
	}
	return &InvalidateCacheUseCase{
		cache:        cache,
		metrics:      m,
		logger:       logger.With("component", "invalidator"),
		retryCount:   retryCount,
		retryBackoff: retryBackoff,
	}
}

// Handle decodes one notification and invalidates every source it names. It returns
// the number of removed cache entries.
func (uc *InvalidateCacheUseCase) Handle(ctx context.Context, data []byte) (int64, error) {
	uc.metrics.InvalidationsReceived.Inc()

	// 1. Decode the event
	var event IngestionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	sources := event.AllSources()
	if len(sources) == 0 {
		return 0, fmt.Errorf("%w: no source", ErrInvalidEvent)
	}

	// 2. Invalidate each source, retrying transient failures
	var (
		total int64
		errs  []error
	)
	for _, source := range sources {
		n, err := uc.invalidateWithRetry(ctx, source)
		if err != nil {
			uc.logger.Error("failed to invalidate source after retries", "source", source, "error", err)
			errs = append(errs, fmt.Errorf("source %s: %w", source, err))
			continue
		}
		total += n
	}

	uc.logger.Debug("processed ingestion event", "sources", len(sources), "removed", total)
	return total, errors.Join(errs...)
}

func (uc *InvalidateCacheUseCase) invalidateWithRetry(ctx context.Context, source string) (int64, error) {
	var lastErr error
	for i := 0; i < uc.retryCount; i++ {
		n, err := uc.cache.InvalidateSource(ctx, source)
		if err == nil {
			return n, nil
		}
		lastErr = err
		uc.logger.Warn("failed to invalidate source, retrying...", "attempt", i+1, "source", source, "error", err)
		select {
		case <-time.After(uc.retryBackoff):
			// continue
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return 0, lastErr
}
