package conversation

import (
	"encoding/json"
	"time"

	"github.com/V4T54L/voicewatch/internal/domain"
	"github.com/V4T54L/voicewatch/internal/pkg/color"
)

// View is the serialisable snapshot of a conversation and its derived attributes.
type View struct {
	ID                 string              `json:"id"`
	TransactionID      string              `json:"transaction_id"`
	Source             string              `json:"source"`
	Timestamp          time.Time           `json:"timestamp"`
	Origin             domain.Origin       `json:"origin"`
	SessionID          *string             `json:"session_id,omitempty"`
	ApplicationID      *string             `json:"application_id,omitempty"`
	UserID             *string             `json:"user_id,omitempty"`
	Intent             *string             `json:"intent,omitempty"`
	RequestPayloadType *string             `json:"request_payload_type,omitempty"`
	OutputSpeechText   *string             `json:"output_speech_text,omitempty"`
	HasError           bool                `json:"has_error"`
	HasCrash           bool                `json:"has_crash"`
	UserColors         color.Pair          `json:"user_colors"`
	Request            *domain.LogRecord   `json:"request,omitempty"`
	Response           domain.LogRecord    `json:"response"`
	Outputs            []domain.Output     `json:"outputs"`
	StackTraces        []domain.StackTrace `json:"stack_traces"`
}

func optional(s string, ok bool) *string {
	if !ok {
		return nil
	}
	return &s
}

// View evaluates every derived attribute once.
func (c *Conversation) View() View {
	v := View{
		ID:                 c.ID(),
		TransactionID:      c.TransactionID(),
		Source:             c.Source(),
		Timestamp:          c.Timestamp(),
		Origin:             c.Origin(),
		SessionID:          optional(c.SessionID()),
		ApplicationID:      optional(c.ApplicationID()),
		UserID:             optional(c.UserID()),
		Intent:             optional(c.Intent()),
		RequestPayloadType: optional(c.RequestPayloadType()),
		OutputSpeechText:   optional(c.OutputSpeechText()),
		HasError:           c.HasError(),
		HasCrash:           c.HasCrash(),
		UserColors:         c.UserColors(),
		Response:           c.Response(),
		Outputs:            c.Outputs(),
		StackTraces:        c.StackTraces(),
	}
	if req, ok := c.Request(); ok {
		v.Request = &req
	}
	return v
}

// MarshalJSON encodes the View of the conversation.
func (c *Conversation) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.View())
}
