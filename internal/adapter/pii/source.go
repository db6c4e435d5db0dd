package pii

import (
	"context"

	"github.com/V4T54L/voicewatch/internal/domain"
)

// Source redacts the records of a wrapped LogSource. It sits between the backend and
// the query cache so credentials never reach Redis.
type Source struct {
	logs     domain.LogSource
	redactor *Redactor
}

// NewSource wraps logs with the redactor.
func NewSource(logs domain.LogSource, r *Redactor) *Source {
	return &Source{logs: logs, redactor: r}
}

// ListLogs implements domain.LogSource.
func (s *Source) ListLogs(ctx context.Context, q domain.LogQuery) ([]domain.LogRecord, error) {
	records, err := s.logs.ListLogs(ctx, q)
	if err != nil {
		return nil, err
	}
	if n := s.redactor.RedactAll(records); n > 0 {
		s.redactor.logger.Debug("redacted log payloads", "count", n, "source", q.Source)
	}
	return records, nil
}
