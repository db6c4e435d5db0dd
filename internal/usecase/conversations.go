package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/V4T54L/voicewatch/internal/adapter/metrics"
	"github.com/V4T54L/voicewatch/internal/conversation"
	"github.com/V4T54L/voicewatch/internal/domain"
	"github.com/V4T54L/voicewatch/internal/filter"
)

// ConversationQuery selects the conversations of a source.
type ConversationQuery struct {
	Source string
	Start  time.Time
	End    time.Time
	Limit  int
	Filter filter.Matcher
}

// ConversationPage is the result of a conversation listing.
type ConversationPage struct {
	Conversations []*conversation.Conversation
	Fetched       int
	Skipped       int
	Start         time.Time
	End           time.Time
}

// ConversationsUseCase fetches logs, rebuilds conversations and filters them.
type ConversationsUseCase struct {
	logs     domain.LogSource
	metrics  *metrics.Metrics
	logger   *slog.Logger
	lookback time.Duration
	limit    int
	align    time.Duration
	now      func() time.Time
}

// NewConversationsUseCase creates a new ConversationsUseCase. lookback and limit apply
// when a query leaves the window start or the limit open. logs is expected to be
// redacted already (see pii.Source).
func NewConversationsUseCase(logs domain.LogSource, m *metrics.Metrics, logger *slog.Logger, lookback time.Duration, limit int) *ConversationsUseCase {
	return &ConversationsUseCase{
		logs:     logs,
		metrics:  m,
		logger:   logger.With("component", "conversations"),
		lookback: lookback,
		limit:    limit,
		now:      time.Now,
	}
}

// AlignDefaultEnd rounds an open window end up to a multiple of d, so repeated
// default queries within d share one cache key. d <= 0 disables alignment.
func (uc *ConversationsUseCase) AlignDefaultEnd(d time.Duration) {
	uc.align = d
}

// List returns the conversations of the window that pass q.Filter, newest logs first
// as returned by the backend.
func (uc *ConversationsUseCase) List(ctx context.Context, q ConversationQuery) (*ConversationPage, error) {
	// 1. Resolve the window
	end := q.End
	if end.IsZero() {
		end = defaultEnd(uc.now(), uc.align)
	}
	start := q.Start
	if start.IsZero() {
		start = end.Add(-uc.lookback)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = uc.limit
	}

	// 2. Fetch
	records, err := uc.logs.ListLogs(ctx, domain.LogQuery{Source: q.Source, Start: start, End: end, Limit: limit})
	if err != nil {
		uc.metrics.UpstreamErrors.WithLabelValues("logs").Inc()
		uc.logger.Error("failed to fetch logs", "error", err, "source", q.Source)
		return nil, err
	}

	// 3. Rebuild and filter
	convos, skipped := conversation.FromLogs(records)
	if len(skipped) > 0 {
		uc.logger.Debug("skipped transactions without response", "count", len(skipped), "source", q.Source)
	}
	built := len(convos)
	if q.Filter != nil {
		convos = filter.Apply(convos, q.Filter)
	}

	uc.metrics.ConversationsBuilt.Add(float64(built))
	uc.metrics.ConversationsSkipped.Add(float64(len(skipped)))
	uc.metrics.ConversationsMatched.Add(float64(len(convos)))

	if convos == nil {
		convos = []*conversation.Conversation{}
	}
	return &ConversationPage{
		Conversations: convos,
		Fetched:       len(records),
		Skipped:       len(skipped),
		Start:         start,
		End:           end,
	}, nil
}

// defaultEnd is now rounded up to the next multiple of align.
func defaultEnd(now time.Time, align time.Duration) time.Time {
	now = now.UTC()
	if align <= 0 {
		return now
	}
	if t := now.Truncate(align); !t.Equal(now) {
		return t.Add(align)
	}
	return now
}
