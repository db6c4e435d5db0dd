package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/V4T54L/voicewatch/internal/adapter/metrics"
	"github.com/V4T54L/voicewatch/internal/conversation"
	"github.com/V4T54L/voicewatch/internal/conversation/conversationtest"
	"github.com/V4T54L/voicewatch/internal/domain"
	"github.com/V4T54L/voicewatch/internal/filter"
	"github.com/V4T54L/voicewatch/internal/summary"
	"github.com/V4T54L/voicewatch/internal/usecase"
)

// mockLister is a mock implementation of ConversationLister.
type mockLister struct {
	ListFunc func(ctx context.Context, q usecase.ConversationQuery) (*usecase.ConversationPage, error)
	last     usecase.ConversationQuery
}

func (m *mockLister) List(ctx context.Context, q usecase.ConversationQuery) (*usecase.ConversationPage, error) {
	m.last = q
	return m.ListFunc(ctx, q)
}

// mockSummaries is a mock implementation of SummaryProvider.
type mockSummaries struct {
	Points  []summary.Point
	Intents *domain.IntentSummary
	Stats   *domain.SourceStats
	Err     error
	last    domain.SummaryQuery
}

func (m *mockSummaries) TimeSummary(_ context.Context, q domain.SummaryQuery) ([]summary.Point, error) {
	m.last = q
	return m.Points, m.Err
}

func (m *mockSummaries) IntentSummary(_ context.Context, q domain.SummaryQuery) (*domain.IntentSummary, error) {
	m.last = q
	return m.Intents, m.Err
}

func (m *mockSummaries) SourceStats(_ context.Context, q domain.SummaryQuery) (*domain.SourceStats, error) {
	m.last = q
	return m.Stats, m.Err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(h *DashboardHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/v1/sources/{source}", func(r chi.Router) {
		r.Get("/conversations", h.Conversations)
		r.Get("/time-summary", h.TimeSummary)
		r.Get("/intents", h.Intents)
		r.Get("/stats", h.Stats)
	})
	return r
}

func sampleConversations(t *testing.T) []*conversation.Conversation {
	t.Helper()
	convos, _ := conversation.FromLogs([]domain.LogRecord{
		conversationtest.AlexaIntentRequest(),
		conversationtest.AlexaResponse(),
	})
	if len(convos) != 1 {
		t.Fatalf("expected 1 sample conversation, got %d", len(convos))
	}
	return convos
}

func TestDashboardHandler_Conversations(t *testing.T) {
	convos := sampleConversations(t)

	tests := []struct {
		name           string
		query          string
		listErr        error
		expectedStatus int
		checkQuery     func(t *testing.T, q usecase.ConversationQuery)
	}{
		{
			name:           "Success",
			query:          "?origin=alexa&limit=10&start=2017-08-10T00:00:00Z&end=2017-08-11T00:00:00Z",
			expectedStatus: http.StatusOK,
			checkQuery: func(t *testing.T, q usecase.ConversationQuery) {
				if q.Source != "happy-xisting" {
					t.Errorf("expected source happy-xisting, got %q", q.Source)
				}
				if q.Limit != 10 {
					t.Errorf("expected limit 10, got %d", q.Limit)
				}
				if !q.Start.Equal(time.Date(2017, 8, 10, 0, 0, 0, 0, time.UTC)) {
					t.Errorf("unexpected start %v", q.Start)
				}
				c, ok := q.Filter.(*filter.Composite)
				if !ok {
					t.Fatalf("expected a composite filter, got %T", q.Filter)
				}
				if _, ok := c.Get(filter.KindOrigin); !ok {
					t.Error("expected an origin filter")
				}
			},
		},
		{
			name:           "Invalid level",
			query:          "?level=LOUD",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid limit",
			query:          "?limit=-1",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Source not found",
			listErr:        domain.ErrNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Upstream failure",
			listErr:        fmt.Errorf("%w: status 500", domain.ErrUpstream),
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := &mockLister{
				ListFunc: func(ctx context.Context, q usecase.ConversationQuery) (*usecase.ConversationPage, error) {
					if tt.listErr != nil {
						return nil, tt.listErr
					}
					return &usecase.ConversationPage{Conversations: convos, Fetched: 3, Skipped: 1, Start: q.Start, End: q.End}, nil
				},
			}
			h := NewDashboardHandler(lister, &mockSummaries{}, metrics.NewWith(prometheus.NewRegistry()), testLogger())

			req := httptest.NewRequest(http.MethodGet, "/v1/sources/happy-xisting/conversations"+tt.query, nil)
			rr := httptest.NewRecorder()
			newTestRouter(h).ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
			if tt.checkQuery != nil {
				tt.checkQuery(t, lister.last)
			}
			if rr.Code != http.StatusOK {
				return
			}

			var body struct {
				Source        string           `json:"source"`
				Fetched       int              `json:"fetched"`
				Skipped       int              `json:"skipped"`
				Count         int              `json:"count"`
				Filters       []map[string]any `json:"filters"`
				Conversations []map[string]any `json:"conversations"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Count != 1 || len(body.Conversations) != 1 {
				t.Fatalf("expected 1 conversation, got %d", body.Count)
			}
			if body.Fetched != 3 || body.Skipped != 1 {
				t.Errorf("unexpected counters fetched=%d skipped=%d", body.Fetched, body.Skipped)
			}
			if got := body.Conversations[0]["origin"]; got != string(domain.OriginAmazonAlexa) {
				t.Errorf("expected origin %s, got %v", domain.OriginAmazonAlexa, got)
			}
			if got := body.Conversations[0]["intent"]; got != "HelloWorldIntent" {
				t.Errorf("expected intent HelloWorldIntent, got %v", got)
			}
			if len(body.Filters) != 2 {
				t.Errorf("expected date and origin filters, got %v", body.Filters)
			}
			for _, f := range body.Filters {
				params, _ := f["params"].(map[string]any)
				switch f["kind"] {
				case string(filter.KindOrigin):
					if params["origin"] != string(domain.OriginAmazonAlexa) {
						t.Errorf("expected origin params, got %v", f)
					}
				case string(filter.KindDate):
					if params["start"] != "2017-08-10T00:00:00Z" || params["end"] != "2017-08-11T00:00:00Z" {
						t.Errorf("expected date params, got %v", f)
					}
				}
			}
		})
	}
}

func TestDashboardHandler_TimeSummary(t *testing.T) {
	hour := time.Date(2017, 8, 10, 12, 0, 0, 0, time.UTC)
	summaries := &mockSummaries{Points: []summary.Point{
		{Time: hour, Values: map[string]int64{domain.SeriesTotal: 3, string(domain.OriginAmazonAlexa): 2, string(domain.OriginGoogleHome): 1}},
	}}
	h := NewDashboardHandler(&mockLister{}, summaries, metrics.NewWith(prometheus.NewRegistry()), testLogger())

	t.Run("Success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/sources/s1/time-summary?fill_gaps=true&start=2017-08-10T00:00:00Z", nil)
		rr := httptest.NewRecorder()
		newTestRouter(h).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
		}
		if !summaries.last.FillGaps || summaries.last.Source != "s1" {
			t.Errorf("unexpected summary query %+v", summaries.last)
		}

		var body struct {
			Series []string         `json:"series"`
			Points []map[string]any `json:"points"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if len(body.Points) != 1 {
			t.Fatalf("expected 1 point, got %d", len(body.Points))
		}
		if body.Points[0][domain.SeriesTotal] != float64(3) {
			t.Errorf("expected total 3, got %v", body.Points[0][domain.SeriesTotal])
		}
		if len(body.Series) != len(summary.DefaultSeries) {
			t.Errorf("expected series %v, got %v", summary.DefaultSeries, body.Series)
		}
	})

	t.Run("Inverted window", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/sources/s1/time-summary?start=2017-08-11T00:00:00Z&end=2017-08-10T00:00:00Z", nil)
		rr := httptest.NewRecorder()
		newTestRouter(h).ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
		}
	})

	t.Run("Bad bucket time", func(t *testing.T) {
		failing := &mockSummaries{Err: fmt.Errorf("%w: nope", summary.ErrInvalidBucketTime)}
		h := NewDashboardHandler(&mockLister{}, failing, metrics.NewWith(prometheus.NewRegistry()), testLogger())
		rr := httptest.NewRecorder()
		newTestRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/sources/s1/time-summary", nil))
		if rr.Code != http.StatusBadGateway {
			t.Errorf("expected status %d, got %d", http.StatusBadGateway, rr.Code)
		}
	})
}

func TestDashboardHandler_IntentsAndStats(t *testing.T) {
	summaries := &mockSummaries{
		Intents: &domain.IntentSummary{Count: []domain.IntentBucket{{Name: "HelloWorldIntent", Count: 4, Origin: domain.OriginAmazonAlexa}}},
		Stats:   &domain.SourceStats{Source: "s1", Stats: domain.TotalStat{TotalEvents: 9}},
	}
	h := NewDashboardHandler(&mockLister{}, summaries, metrics.NewWith(prometheus.NewRegistry()), testLogger())

	t.Run("Intents", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newTestRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/sources/s1/intents", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
		}
		var body domain.IntentSummary
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if len(body.Count) != 1 || body.Count[0].Count != 4 {
			t.Errorf("unexpected intents %+v", body)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newTestRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/sources/s1/stats", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
		}
		var body domain.SourceStats
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body.Stats.TotalEvents != 9 {
			t.Errorf("expected 9 events, got %d", body.Stats.TotalEvents)
		}
	})

	t.Run("Unsupported backend", func(t *testing.T) {
		h := NewDashboardHandler(&mockLister{}, &mockSummaries{Err: domain.ErrUnsupported}, metrics.NewWith(prometheus.NewRegistry()), testLogger())
		rr := httptest.NewRecorder()
		newTestRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/sources/s1/stats", nil))
		if rr.Code != http.StatusNotImplemented {
			t.Errorf("expected status %d, got %d", http.StatusNotImplemented, rr.Code)
		}
	})
}
