package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/V4T54L/voicewatch/internal/adapter/metrics"
	"github.com/V4T54L/voicewatch/internal/domain"
	"github.com/V4T54L/voicewatch/internal/summary"
)

// Summaries are always requested per hour; the merger aligns to hours as well.
const summaryGranularity = "hour"

// SummaryUseCase serves the chart and statistics views of a source.
type SummaryUseCase struct {
	source   domain.SummarySource
	merger   *summary.Merger
	metrics  *metrics.Metrics
	logger   *slog.Logger
	lookback time.Duration
	align    time.Duration
	now      func() time.Time
}

// NewSummaryUseCase creates a new SummaryUseCase.
func NewSummaryUseCase(source domain.SummarySource, merger *summary.Merger, m *metrics.Metrics, logger *slog.Logger, lookback time.Duration) *SummaryUseCase {
	return &SummaryUseCase{
		source:   source,
		merger:   merger,
		metrics:  m,
		logger:   logger.With("component", "summary"),
		lookback: lookback,
		now:      time.Now,
	}
}

// AlignDefaultEnd rounds an open window end up to a multiple of d.
func (uc *SummaryUseCase) AlignDefaultEnd(d time.Duration) {
	uc.align = d
}

func (uc *SummaryUseCase) window(q domain.SummaryQuery) domain.SummaryQuery {
	if q.End.IsZero() {
		q.End = defaultEnd(uc.now(), uc.align)
	}
	if q.Start.IsZero() {
		q.Start = q.End.Add(-uc.lookback)
	}
	q.Granularity = summaryGranularity
	return q
}

// TimeSummary returns the merged hourly points of the window. With FillGaps set, an
// empty result is replaced by one zero point per day so charts still render an axis.
func (uc *SummaryUseCase) TimeSummary(ctx context.Context, q domain.SummaryQuery) ([]summary.Point, error) {
	q = uc.window(q)

	ts, err := uc.source.TimeSummary(ctx, q)
	if err != nil {
		uc.metrics.UpstreamErrors.WithLabelValues("time_summary").Inc()
		uc.logger.Error("failed to fetch time summary", "error", err, "source", q.Source)
		return nil, err
	}

	points, err := uc.merger.Merge(summary.SeriesOf(ts)...)
	if err != nil {
		uc.logger.Error("failed to merge time summary", "error", err, "source", q.Source)
		return nil, err
	}
	if len(points) == 0 && q.FillGaps {
		points = uc.merger.FillDays(q.Start, q.End)
	}
	if points == nil {
		points = []summary.Point{}
	}

	uc.metrics.SummaryPoints.Add(float64(len(points)))
	return points, nil
}

// IntentSummary returns intent counts of the window.
func (uc *SummaryUseCase) IntentSummary(ctx context.Context, q domain.SummaryQuery) (*domain.IntentSummary, error) {
	q = uc.window(q)
	s, err := uc.source.IntentSummary(ctx, q)
	if err != nil {
		uc.metrics.UpstreamErrors.WithLabelValues("intent_summary").Inc()
		uc.logger.Error("failed to fetch intent summary", "error", err, "source", q.Source)
		return nil, err
	}
	return s, nil
}

// SourceStats returns totals of the window.
func (uc *SummaryUseCase) SourceStats(ctx context.Context, q domain.SummaryQuery) (*domain.SourceStats, error) {
	q = uc.window(q)
	s, err := uc.source.SourceStats(ctx, q)
	if err != nil {
		uc.metrics.UpstreamErrors.WithLabelValues("source_stats").Inc()
		uc.logger.Error("failed to fetch source stats", "error", err, "source", q.Source)
		return nil, err
	}
	return s, nil
}
