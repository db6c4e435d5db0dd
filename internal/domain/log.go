package domain

import (
	"encoding/json"
	"slices"
	"time"
)

// Log levels reported by the logless SDKs.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Tags used by the SDKs to mark the platform request and response of a transaction.
const (
	TagRequest  = "request"
	TagResponse = "response"
)

// LogRecord is one platform event as returned by the log service.
// Payload is kept raw; it is usually an object but can be a bare string.
type LogRecord struct {
	ID            string          `json:"id"`
	Payload       json.RawMessage `json:"payload"`
	Stack         string          `json:"stack,omitempty"`
	Level         string          `json:"log_type"`
	Source        string          `json:"source"`
	TransactionID string          `json:"transaction_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Tags          []string        `json:"tags"`
}

// HasTag reports whether the record carries the given tag.
func (l LogRecord) HasTag(tag string) bool {
	return slices.Contains(l.Tags, tag)
}

// Clone returns a deep copy so callers cannot mutate shared payload or tag storage.
func (l LogRecord) Clone() LogRecord {
	c := l
	if l.Payload != nil {
		c.Payload = slices.Clone(l.Payload)
	}
	if l.Tags != nil {
		c.Tags = slices.Clone(l.Tags)
	}
	return c
}

// Output is a console line written by the skill while handling a transaction.
type Output struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
	Level         string    `json:"level"`
	Message       string    `json:"message"`
}

// StackTrace is an uncaught error reported for a transaction.
type StackTrace struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
	Message       string    `json:"message"`
	Raw           string    `json:"raw"`
}
