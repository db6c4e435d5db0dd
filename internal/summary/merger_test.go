package summary

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/V4T54L/voicewatch/internal/domain"
)

var t0 = time.Date(2017, time.August, 10, 14, 0, 0, 0, time.UTC)

func bucket(t time.Time, count int64) domain.TimeBucket {
	return domain.TimeBucket{Date: t.Format(time.RFC3339), Count: count}
}

func TestMerger_Merge(t *testing.T) {
	t.Run("Round Trip", func(t *testing.T) {
		m := NewMerger(DefaultSeries)
		points, err := m.Merge(
			Series{Name: domain.SeriesTotal, Buckets: []domain.TimeBucket{bucket(t0, 5)}},
			Series{Name: string(domain.OriginAmazonAlexa), Buckets: []domain.TimeBucket{bucket(t0, 3)}},
		)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(points) != 1 {
			t.Fatalf("expected 1 point, got %d", len(points))
		}
		p := points[0]
		if !p.Time.Equal(t0) {
			t.Errorf("expected time %v, got %v", t0, p.Time)
		}
		want := map[string]int64{domain.SeriesTotal: 5, "Amazon.Alexa": 3, "Google.Home": 0}
		for name, v := range want {
			if p.Values[name] != v {
				t.Errorf("%s: expected %d, got %d", name, v, p.Values[name])
			}
		}
	})

	t.Run("Aligns To The Hour And Sorts", func(t *testing.T) {
		m := NewMerger(DefaultSeries)
		points, err := m.Merge(
			Series{Name: domain.SeriesTotal, Buckets: []domain.TimeBucket{
				{Date: "2017-08-10T16:45:10.123Z", Count: 2},
				{Date: "2017-08-10T14:59:59Z", Count: 4},
			}},
			Series{Name: string(domain.OriginGoogleHome), Buckets: []domain.TimeBucket{
				{Date: "2017-08-10 14:05:00", Count: 1},
			}},
		)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(points) != 2 {
			t.Fatalf("expected 2 points, got %d", len(points))
		}
		if !points[0].Time.Equal(t0) || !points[1].Time.Equal(t0.Add(2*time.Hour)) {
			t.Errorf("unexpected times %v, %v", points[0].Time, points[1].Time)
		}
		if points[0].Values[domain.SeriesTotal] != 4 || points[0].Values["Google.Home"] != 1 {
			t.Errorf("unexpected first point %+v", points[0].Values)
		}
		if points[1].Values["Google.Home"] != 0 {
			t.Errorf("expected unseen series to be 0, got %+v", points[1].Values)
		}
	})

	t.Run("Duplicate Policy", func(t *testing.T) {
		dup := Series{Name: domain.SeriesTotal, Buckets: []domain.TimeBucket{
			{Date: "2017-08-10T14:10:00Z", Count: 2},
			{Date: "2017-08-10T14:50:00Z", Count: 3},
		}}

		summed, err := NewMerger(DefaultSeries).Merge(dup)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if summed[0].Values[domain.SeriesTotal] != 5 {
			t.Errorf("expected sum 5, got %d", summed[0].Values[domain.SeriesTotal])
		}

		last, err := NewMerger(DefaultSeries, WithDuplicatePolicy(LastWins)).Merge(dup)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if last[0].Values[domain.SeriesTotal] != 3 {
			t.Errorf("expected last value 3, got %d", last[0].Values[domain.SeriesTotal])
		}
	})

	t.Run("Location", func(t *testing.T) {
		kolkata := time.FixedZone("IST", 5*3600+1800)
		points, err := NewMerger(DefaultSeries, WithLocation(kolkata)).Merge(
			Series{Name: domain.SeriesTotal, Buckets: []domain.TimeBucket{{Date: "2017-08-10T14:10:00Z", Count: 1}}},
		)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := time.Date(2017, time.August, 10, 19, 0, 0, 0, kolkata)
		if !points[0].Time.Equal(want) {
			t.Errorf("expected %v, got %v", want, points[0].Time)
		}
	})

	t.Run("Invalid Bucket Time", func(t *testing.T) {
		_, err := NewMerger(DefaultSeries).Merge(
			Series{Name: domain.SeriesTotal, Buckets: []domain.TimeBucket{{Date: "Invalid Date", Count: 1}}},
		)
		if !errors.Is(err, ErrInvalidBucketTime) {
			t.Errorf("expected ErrInvalidBucketTime, got %v", err)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		points, err := NewMerger(DefaultSeries).Merge(SeriesOf(&domain.TimeSummary{})...)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(points) != 0 {
			t.Errorf("expected no points, got %d", len(points))
		}
	})
}

func TestMerger_FillDays(t *testing.T) {
	start := time.Date(2017, time.August, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)

	points := NewMerger(DefaultSeries).FillDays(start, end)
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for i, p := range points {
		if want := start.AddDate(0, 0, i); !p.Time.Equal(want) {
			t.Errorf("point %d: expected %v, got %v", i, want, p.Time)
		}
		for _, name := range DefaultSeries {
			if v, ok := p.Values[name]; !ok || v != 0 {
				t.Errorf("point %d: expected %s to be 0, got %d (present %v)", i, name, v, ok)
			}
		}
	}

	if got := NewMerger(DefaultSeries).FillDays(end, start); len(got) != 0 {
		t.Errorf("expected no points for an inverted range, got %d", len(got))
	}
}

func TestPoint_MarshalJSON(t *testing.T) {
	p := Point{Time: t0, Values: map[string]int64{"total": 5, "Amazon.Alexa": 3}}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if decoded["time"] != "2017-08-10T14:00:00Z" {
		t.Errorf("unexpected time %v", decoded["time"])
	}
	if decoded["total"] != float64(5) || decoded["Amazon.Alexa"] != float64(3) {
		t.Errorf("unexpected values %v", decoded)
	}
}

func TestParseDuplicatePolicy(t *testing.T) {
	if p, err := ParseDuplicatePolicy("last"); err != nil || p != LastWins {
		t.Errorf("expected LastWins, got %v, %v", p, err)
	}
	if p, err := ParseDuplicatePolicy(""); err != nil || p != Sum {
		t.Errorf("expected Sum, got %v, %v", p, err)
	}
	if _, err := ParseDuplicatePolicy("max"); err == nil {
		t.Error("expected an error for an unknown policy")
	}
}
