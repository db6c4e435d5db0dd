package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/V4T54L/voicewatch/internal/adapter/metrics"
	"github.com/V4T54L/voicewatch/internal/conversation"
	"github.com/V4T54L/voicewatch/internal/domain"
	"github.com/V4T54L/voicewatch/internal/filter"
	"github.com/V4T54L/voicewatch/internal/summary"
	"github.com/V4T54L/voicewatch/internal/usecase"
)

const maxLimit = 1000

// ConversationLister is the part of usecase.ConversationsUseCase the handler needs.
type ConversationLister interface {
	List(ctx context.Context, q usecase.ConversationQuery) (*usecase.ConversationPage, error)
}

// SummaryProvider is the part of usecase.SummaryUseCase the handler needs.
type SummaryProvider interface {
	TimeSummary(ctx context.Context, q domain.SummaryQuery) ([]summary.Point, error)
	IntentSummary(ctx context.Context, q domain.SummaryQuery) (*domain.IntentSummary, error)
	SourceStats(ctx context.Context, q domain.SummaryQuery) (*domain.SourceStats, error)
}

// DashboardHandler serves the conversation explorer and source summary views.
type DashboardHandler struct {
	conversations ConversationLister
	summaries     SummaryProvider
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(conversations ConversationLister, summaries SummaryProvider, m *metrics.Metrics, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		conversations: conversations,
		summaries:     summaries,
		metrics:       m,
		logger:        logger.With("component", "dashboard_handler"),
	}
}

// ConversationsResponse is the body of the conversations endpoint.
type ConversationsResponse struct {
	Source        string                       `json:"source"`
	Start         time.Time                    `json:"start"`
	End           time.Time                    `json:"end"`
	Fetched       int                          `json:"fetched"`
	Skipped       int                          `json:"skipped"`
	Count         int                          `json:"count"`
	Filters       []FilterState                `json:"filters"`
	Conversations []*conversation.Conversation `json:"conversations"`
}

// FilterState echoes an active filter so the UI can redisplay it.
type FilterState struct {
	Kind   filter.Kind   `json:"kind"`
	Filter filter.Filter `json:"params"`
}

// TimeSummaryResponse is the body of the time summary endpoint.
type TimeSummaryResponse struct {
	Source string          `json:"source"`
	Series []string        `json:"series"`
	Points []summary.Point `json:"points"`
}

// Conversations handles GET /v1/sources/{source}/conversations.
func (h *DashboardHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	q := r.URL.Query()

	composite, err := filter.ParseQuery(q)
	if err != nil {
		h.fail(w, r, err, err.Error())
		return
	}
	limit, err := limitParam(q.Get("limit"))
	if err != nil {
		h.fail(w, r, err, err.Error())
		return
	}

	// The date filter doubles as the fetch window.
	query := usecase.ConversationQuery{Source: source, Limit: limit, Filter: composite}
	if f, ok := composite.Get(filter.KindDate); ok {
		date := f.(filter.DateFilter)
		query.Start, query.End = date.Start, date.End
	}

	page, err := h.conversations.List(r.Context(), query)
	if err != nil {
		h.fail(w, r, err, "failed to list conversations")
		return
	}

	states := make([]FilterState, 0, composite.Len())
	for _, f := range composite.Filters() {
		states = append(states, FilterState{Kind: f.Kind(), Filter: f})
	}

	h.ok(w, r, ConversationsResponse{
		Source:        source,
		Start:         page.Start,
		End:           page.End,
		Fetched:       page.Fetched,
		Skipped:       page.Skipped,
		Count:         len(page.Conversations),
		Filters:       states,
		Conversations: page.Conversations,
	})
}

// TimeSummary handles GET /v1/sources/{source}/time-summary.
func (h *DashboardHandler) TimeSummary(w http.ResponseWriter, r *http.Request) {
	q, err := summaryQuery(r)
	if err != nil {
		h.fail(w, r, err, err.Error())
		return
	}

	points, err := h.summaries.TimeSummary(r.Context(), q)
	if err != nil {
		h.fail(w, r, err, "failed to build time summary")
		return
	}

	h.ok(w, r, TimeSummaryResponse{Source: q.Source, Series: summary.DefaultSeries, Points: points})
}

// Intents handles GET /v1/sources/{source}/intents.
func (h *DashboardHandler) Intents(w http.ResponseWriter, r *http.Request) {
	q, err := summaryQuery(r)
	if err != nil {
		h.fail(w, r, err, err.Error())
		return
	}

	intents, err := h.summaries.IntentSummary(r.Context(), q)
	if err != nil {
		h.fail(w, r, err, "failed to fetch intent summary")
		return
	}
	h.ok(w, r, intents)
}

// Stats handles GET /v1/sources/{source}/stats.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	q, err := summaryQuery(r)
	if err != nil {
		h.fail(w, r, err, err.Error())
		return
	}

	stats, err := h.summaries.SourceStats(r.Context(), q)
	if err != nil {
		h.fail(w, r, err, "failed to fetch source stats")
		return
	}
	h.ok(w, r, stats)
}

func (h *DashboardHandler) ok(w http.ResponseWriter, r *http.Request, payload any) {
	h.metrics.APIRequests.WithLabelValues(routePattern(r), strconv.Itoa(http.StatusOK)).Inc()
	respondWithJSON(w, h.logger, http.StatusOK, payload)
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	h.metrics.APIRequests.WithLabelValues(routePattern(r), strconv.Itoa(statusFor(err))).Inc()
	writeError(w, h.logger, err, msg)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func limitParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxLimit {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", filter.ErrInvalidQuery, maxLimit)
	}
	return limit, nil
}

func summaryQuery(r *http.Request) (domain.SummaryQuery, error) {
	q := r.URL.Query()
	sq := domain.SummaryQuery{Source: chi.URLParam(r, "source")}

	for name, dst := range map[string]*time.Time{"start": &sq.Start, "end": &sq.End} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return sq, fmt.Errorf("%w: %s must be an RFC 3339 time", filter.ErrInvalidQuery, name)
		}
		*dst = t
	}
	if !sq.Start.IsZero() && !sq.End.IsZero() && sq.End.Before(sq.Start) {
		return sq, fmt.Errorf("%w: end is before start", filter.ErrInvalidQuery)
	}

	if raw := q.Get("fill_gaps"); raw != "" {
		fill, err := strconv.ParseBool(raw)
		if err != nil {
			return sq, fmt.Errorf("%w: fill_gaps must be a boolean", filter.ErrInvalidQuery)
		}
		sq.FillGaps = fill
	}
	return sq, nil
}
