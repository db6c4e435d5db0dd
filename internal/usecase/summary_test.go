package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/V4T54L/voicewatch/internal/adapter/repository/cached"
	"github.com/V4T54L/voicewatch/internal/domain"
	"github.com/V4T54L/voicewatch/internal/domain/mocks"
	"github.com/V4T54L/voicewatch/internal/summary"
)

func TestSummaryUseCase_TimeSummary(t *testing.T) {
	logger := testLogger()
	merger := summary.NewMerger(summary.DefaultSeries)
	now := time.Date(2017, time.August, 10, 0, 0, 0, 0, time.UTC)

	t.Run("Merges Series", func(t *testing.T) {
		source := &mocks.MockSummarySource{Time: &domain.TimeSummary{
			Buckets:       []domain.TimeBucket{{Date: "2017-08-09T14:00:00Z", Count: 5}},
			AmazonBuckets: []domain.TimeBucket{{Date: "2017-08-09T14:00:00Z", Count: 3}},
		}}
		uc := NewSummaryUseCase(source, merger, testMetrics(), logger, 7*24*time.Hour)
		uc.now = func() time.Time { return now }

		points, err := uc.TimeSummary(context.Background(), domain.SummaryQuery{Source: "s"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(points) != 1 || points[0].Values["total"] != 5 || points[0].Values["Amazon.Alexa"] != 3 {
			t.Errorf("unexpected points %+v", points)
		}

		q := source.Queries[0]
		if q.Granularity != "hour" || !q.Start.Equal(now.AddDate(0, 0, -7)) || !q.End.Equal(now) {
			t.Errorf("unexpected query %+v", q)
		}
	})

	t.Run("Fills Empty Days", func(t *testing.T) {
		source := &mocks.MockSummarySource{}
		uc := NewSummaryUseCase(source, merger, testMetrics(), logger, 3*24*time.Hour)
		uc.now = func() time.Time { return now }

		points, err := uc.TimeSummary(context.Background(), domain.SummaryQuery{Source: "s", FillGaps: true})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(points) != 3 {
			t.Fatalf("expected 3 zero points, got %d", len(points))
		}
		if !points[0].Time.Equal(now.AddDate(0, 0, -3)) {
			t.Errorf("unexpected first day %v", points[0].Time)
		}
	})

	t.Run("No Fill Without FillGaps", func(t *testing.T) {
		uc := NewSummaryUseCase(&mocks.MockSummarySource{}, merger, testMetrics(), logger, time.Hour)

		points, err := uc.TimeSummary(context.Background(), domain.SummaryQuery{Source: "s"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if points == nil || len(points) != 0 {
			t.Errorf("expected an empty, non-nil list, got %v", points)
		}
	})

	t.Run("Invalid Bucket", func(t *testing.T) {
		source := &mocks.MockSummarySource{Time: &domain.TimeSummary{
			Buckets: []domain.TimeBucket{{Date: "not a date", Count: 1}},
		}}
		uc := NewSummaryUseCase(source, merger, testMetrics(), logger, time.Hour)

		if _, err := uc.TimeSummary(context.Background(), domain.SummaryQuery{Source: "s"}); !errors.Is(err, summary.ErrInvalidBucketTime) {
			t.Errorf("expected ErrInvalidBucketTime, got %v", err)
		}
	})
}

func TestSummaryUseCase_AlignedDefaultWindow(t *testing.T) {
	logger := testLogger()
	now := time.Date(2017, time.August, 10, 0, 2, 0, 0, time.UTC)
	backend := &mocks.MockSummarySource{Intents: &domain.IntentSummary{Count: []domain.IntentBucket{{Name: "Hello", Count: 2}}}}
	cache := mocks.NewMockCache()
	m := testMetrics()
	uc := NewSummaryUseCase(cached.NewSource(nil, backend, cache, m, logger), summary.NewMerger(summary.DefaultSeries), m, logger, time.Hour)
	uc.AlignDefaultEnd(5 * time.Minute)

	clock := now
	uc.now = func() time.Time { return clock }
	for i := 0; i < 3; i++ {
		if _, err := uc.IntentSummary(context.Background(), domain.SummaryQuery{Source: "s"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		clock = clock.Add(time.Millisecond)
	}

	if backend.Calls() != 1 {
		t.Errorf("expected one backend query, got %d", backend.Calls())
	}
	if cache.Len() != 1 {
		t.Errorf("expected one cache entry, got %d", cache.Len())
	}
	if q := backend.Queries[0]; !q.End.Equal(time.Date(2017, time.August, 10, 0, 5, 0, 0, time.UTC)) {
		t.Errorf("unexpected window end %v", q.End)
	}
}

func TestSummaryUseCase_PassThrough(t *testing.T) {
	source := &mocks.MockSummarySource{
		Intents: &domain.IntentSummary{Count: []domain.IntentBucket{{Name: "HelloWorldIntent", Count: 2, Origin: domain.OriginAmazonAlexa}}},
		Stats:   &domain.SourceStats{Source: "s", Stats: domain.TotalStat{TotalEvents: 9}},
	}
	uc := NewSummaryUseCase(source, summary.NewMerger(summary.DefaultSeries), testMetrics(), testLogger(), time.Hour)

	intents, err := uc.IntentSummary(context.Background(), domain.SummaryQuery{Source: "s"})
	if err != nil || len(intents.Count) != 1 {
		t.Errorf("unexpected intents %+v, %v", intents, err)
	}
	stats, err := uc.SourceStats(context.Background(), domain.SummaryQuery{Source: "s"})
	if err != nil || stats.Stats.TotalEvents != 9 {
		t.Errorf("unexpected stats %+v, %v", stats, err)
	}

	source.Err = domain.ErrUnsupported
	if _, err := uc.SourceStats(context.Background(), domain.SummaryQuery{Source: "s"}); !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}
