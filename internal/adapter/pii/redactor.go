package pii

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/V4T54L/voicewatch/internal/domain"
)

const RedactedPlaceholder = "[REDACTED]"

// Redactor blanks platform credentials (access tokens, consent tokens) in log payloads
// before they are handed to the dashboard.
type Redactor struct {
	fieldsToRedact map[string]struct{}
	logger         *slog.Logger
}

// NewRedactor creates a Redactor for the given payload keys.
func NewRedactor(fields []string, logger *slog.Logger) *Redactor {
	fieldSet := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if field != "" {
			fieldSet[field] = struct{}{}
		}
	}
	return &Redactor{
		fieldsToRedact: fieldSet,
		logger:         logger.With("component", "redactor"),
	}
}

// Redact replaces the configured keys at any depth of the record payload. It reports
// whether anything was replaced. Payloads that are not JSON objects or arrays are left as is.
func (r *Redactor) Redact(record *domain.LogRecord) (bool, error) {
	if len(r.fieldsToRedact) == 0 || len(record.Payload) == 0 {
		return false, nil
	}
	trimmed := bytes.TrimSpace(record.Payload)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return false, nil
	}

	// Numbers stay json.Number so large ids survive the round trip.
	dec := json.NewDecoder(bytes.NewReader(record.Payload))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		r.logger.Warn("failed to unmarshal payload for redaction", "error", err, "log_id", record.ID)
		return false, err
	}
	if _, err := dec.Token(); err != io.EOF {
		err = fmt.Errorf("unexpected data after payload: %v", err)
		r.logger.Warn("failed to unmarshal payload for redaction", "error", err, "log_id", record.ID)
		return false, err
	}

	if !r.walk(payload) {
		return false, nil
	}

	modified, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("failed to marshal payload after redaction", "error", err, "log_id", record.ID)
		return false, err
	}
	record.Payload = modified
	return true, nil
}

// RedactAll redacts a batch in place. Records whose payload cannot be processed are
// kept unchanged.
func (r *Redactor) RedactAll(records []domain.LogRecord) int {
	redacted := 0
	for i := range records {
		ok, err := r.Redact(&records[i])
		if err != nil {
			continue
		}
		if ok {
			redacted++
		}
	}
	return redacted
}

func (r *Redactor) walk(v any) bool {
	redacted := false
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			if _, ok := r.fieldsToRedact[k]; ok {
				node[k] = RedactedPlaceholder
				redacted = true
				continue
			}
			if r.walk(child) {
				redacted = true
			}
		}
	case []any:
		for _, child := range node {
			if r.walk(child) {
				redacted = true
			}
		}
	}
	return redacted
}
