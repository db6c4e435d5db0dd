// Package summary folds the bucket sequences of a time summary into chart points.
package summary

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/V4T54L/voicewatch/internal/domain"
)

// ErrInvalidBucketTime is returned when a bucket date cannot be parsed.
var ErrInvalidBucketTime = errors.New("invalid bucket time")

// DefaultSeries are the series of a source time summary: all events plus one per origin.
var DefaultSeries = []string{
	domain.SeriesTotal,
	string(domain.OriginAmazonAlexa),
	string(domain.OriginGoogleHome),
}

// DuplicatePolicy decides what happens when one series has two buckets in the same hour.
type DuplicatePolicy int

const (
	// Sum adds the counts together.
	Sum DuplicatePolicy = iota
	// LastWins keeps the count of the bucket processed last.
	LastWins
)

// ParseDuplicatePolicy accepts "sum" and "last".
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "", "sum":
		return Sum, nil
	case "last":
		return LastWins, nil
	default:
		return Sum, fmt.Errorf("unknown duplicate policy %q", s)
	}
}

// Series is a named bucket sequence.
type Series struct {
	Name    string
	Buckets []domain.TimeBucket
}

// SeriesOf splits a time summary into the default series.
func SeriesOf(ts *domain.TimeSummary) []Series {
	if ts == nil {
		return nil
	}
	return []Series{
		{Name: domain.SeriesTotal, Buckets: ts.Buckets},
		{Name: string(domain.OriginAmazonAlexa), Buckets: ts.AmazonBuckets},
		{Name: string(domain.OriginGoogleHome), Buckets: ts.GoogleBuckets},
	}
}

// Point is one chart record: an hour and the count of every series in it.
type Point struct {
	Time   time.Time
	Values map[string]int64
}

// MarshalJSON flattens the point into {"time": ..., "<series>": count, ...}.
func (p Point) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Values)+1)
	for name, v := range p.Values {
		m[name] = v
	}
	m["time"] = p.Time
	return json.Marshal(m)
}

// Option configures a Merger.
type Option func(*Merger)

// WithDuplicatePolicy sets how same-hour buckets of one series are combined.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(m *Merger) { m.policy = p }
}

// WithLocation sets the location hours and days are aligned in.
func WithLocation(loc *time.Location) Option {
	return func(m *Merger) {
		if loc != nil {
			m.loc = loc
		}
	}
}

// Merger joins bucket sequences on their hour. It holds no state between calls and
// is safe for concurrent use.
type Merger struct {
	names  []string
	policy DuplicatePolicy
	loc    *time.Location
}

// NewMerger returns a merger whose points always carry the given series.
func NewMerger(names []string, opts ...Option) *Merger {
	m := &Merger{
		names:  slices.Clone(names),
		policy: Sum,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge aligns every bucket to the start of its hour and returns one point per hour,
// sorted ascending. Series not seen at an hour are 0.
func (m *Merger) Merge(series ...Series) ([]Point, error) {
	byHour := make(map[int64]*Point)

	for _, s := range series {
		seen := make(map[int64]bool)
		for _, b := range s.Buckets {
			t, err := m.parse(b.Date)
			if err != nil {
				return nil, fmt.Errorf("series %s: %w", s.Name, err)
			}
			hour := m.truncateHour(t)
			key := hour.UnixNano()

			p, ok := byHour[key]
			if !ok {
				p = m.newPoint(hour)
				byHour[key] = p
			}
			if seen[key] && m.policy == Sum {
				p.Values[s.Name] += b.Count
			} else {
				p.Values[s.Name] = b.Count
			}
			seen[key] = true
		}
	}

	points := make([]Point, 0, len(byHour))
	for _, p := range byHour {
		points = append(points, *p)
	}
	slices.SortFunc(points, func(a, b Point) int {
		return a.Time.Compare(b.Time)
	})
	return points, nil
}

// FillDays returns one zero point per day starting at start, for every day before end.
func (m *Merger) FillDays(start, end time.Time) []Point {
	var points []Point
	for d := start.In(m.loc); d.Before(end); d = d.AddDate(0, 0, 1) {
		points = append(points, *m.newPoint(d))
	}
	return points
}

func (m *Merger) newPoint(t time.Time) *Point {
	p := &Point{Time: t, Values: make(map[string]int64, len(m.names))}
	for _, name := range m.names {
		p.Values[name] = 0
	}
	return p
}

func (m *Merger) truncateHour(t time.Time) time.Time {
	t = t.In(m.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, m.loc)
}

// Layouts tried in order. The zoneless ones are read in the merger location.
var bucketLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (m *Merger) parse(s string) (time.Time, error) {
	for _, layout := range bucketLayouts {
		if t, err := time.ParseInLocation(layout, s, m.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidBucketTime, s)
}
