package domain

import (
	"context"
	"time"
)

// LogQuery selects the logs of one source over a time window.
type LogQuery struct {
	Source string
	Start  time.Time
	End    time.Time
	Limit  int
}

// SummaryQuery selects aggregated counts of one source over a time window.
type SummaryQuery struct {
	Source      string
	Start       time.Time
	End         time.Time
	Granularity string
	FillGaps    bool
}

// LogSource fetches raw log records.
// Implementations: the logless HTTP client, PostgreSQL and the Redis cache decorator.
type LogSource interface {
	// ListLogs returns the logs of a source in the query window.
	ListLogs(ctx context.Context, q LogQuery) ([]LogRecord, error)
}

// SummarySource fetches pre-aggregated summaries.
type SummarySource interface {
	// TimeSummary returns hourly counts, total and per origin.
	TimeSummary(ctx context.Context, q SummaryQuery) (*TimeSummary, error)

	// IntentSummary returns intent counts per origin.
	IntentSummary(ctx context.Context, q SummaryQuery) (*IntentSummary, error)

	// SourceStats returns overall totals.
	SourceStats(ctx context.Context, q SummaryQuery) (*SourceStats, error)
}

// CacheRepository stores encoded query results keyed per source.
type CacheRepository interface {
	// Get returns ErrCacheMiss when the key is absent.
	Get(ctx context.Context, source, key string) ([]byte, error)

	// Set stores a value for the configured TTL.
	Set(ctx context.Context, source, key string, value []byte) error

	// InvalidateSource drops every cached entry of a source and returns how many were removed.
	InvalidateSource(ctx context.Context, source string) (int64, error)
}
