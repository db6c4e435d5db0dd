// Package conversation rebuilds voice assistant conversations from raw platform logs.
package conversation

import (
	"slices"
	"time"

	"github.com/V4T54L/voicewatch/internal/domain"
	"github.com/V4T54L/voicewatch/internal/pkg/color"
)

const intentRequestType = "IntentRequest"

// InvalidConversationError is returned by New when the records cannot form a conversation.
type InvalidConversationError struct {
	Reason string
}

func (e *InvalidConversationError) Error() string {
	return "invalid conversation: " + e.Reason
}

// Properties are the records a conversation is built from. Response is required.
type Properties struct {
	Request     *domain.LogRecord
	Response    *domain.LogRecord
	Outputs     []domain.Output
	StackTraces []domain.StackTrace
}

// Conversation pairs the platform request and response of one transaction with the
// outputs and stack traces logged while handling it. Every attribute is derived from
// the wrapped records on read; a Conversation is never modified after New.
type Conversation struct {
	request     *domain.LogRecord
	response    domain.LogRecord
	outputs     []domain.Output
	stackTraces []domain.StackTrace
}

// New copies the given records into a Conversation.
func New(props Properties) (*Conversation, error) {
	if props.Response == nil {
		return nil, &InvalidConversationError{Reason: "a response record is required"}
	}

	c := &Conversation{
		response:    props.Response.Clone(),
		outputs:     slices.Clone(props.Outputs),
		stackTraces: slices.Clone(props.StackTraces),
	}
	if props.Request != nil {
		req := props.Request.Clone()
		c.request = &req
	}
	if c.outputs == nil {
		c.outputs = []domain.Output{}
	}
	if c.stackTraces == nil {
		c.stackTraces = []domain.StackTrace{}
	}
	return c, nil
}

// Request returns a copy of the request record, if there is one.
func (c *Conversation) Request() (domain.LogRecord, bool) {
	if c.request == nil {
		return domain.LogRecord{}, false
	}
	return c.request.Clone(), true
}

// Response returns a copy of the response record.
func (c *Conversation) Response() domain.LogRecord {
	return c.response.Clone()
}

// Outputs returns a copy of the attached outputs.
func (c *Conversation) Outputs() []domain.Output {
	return slices.Clone(c.outputs)
}

// StackTraces returns a copy of the attached stack traces.
func (c *Conversation) StackTraces() []domain.StackTrace {
	return slices.Clone(c.stackTraces)
}

func (c *Conversation) requestPayload() []byte {
	if c.request == nil {
		return nil
	}
	return c.request.Payload
}

// ID is the request id, or the response id for conversations without a request.
func (c *Conversation) ID() string {
	if c.request != nil {
		return c.request.ID
	}
	return c.response.ID
}

// Timestamp is the request time, or the response time for conversations without a request.
func (c *Conversation) Timestamp() time.Time {
	if c.request != nil {
		return c.request.Timestamp
	}
	return c.response.Timestamp
}

// TransactionID correlates all records of the conversation.
func (c *Conversation) TransactionID() string {
	return c.response.TransactionID
}

// Source is the log source the conversation was recorded by.
func (c *Conversation) Source() string {
	return c.response.Source
}

// SessionID is read from session.sessionId of the request payload.
func (c *Conversation) SessionID() (string, bool) {
	return stringAt(c.requestPayload(), "session", "sessionId")
}

// ApplicationID prefers context.System.application over the older session.application.
func (c *Conversation) ApplicationID() (string, bool) {
	return firstString(c.requestPayload(),
		[]string{"context", "System", "application", "applicationId"},
		[]string{"session", "application", "applicationId"},
	)
}

// UserID prefers context.System.user over the older session.user.
func (c *Conversation) UserID() (string, bool) {
	return firstString(c.requestPayload(),
		[]string{"context", "System", "user", "userId"},
		[]string{"session", "user", "userId"},
	)
}

// Intent is the name of the requested intent.
func (c *Conversation) Intent() (string, bool) {
	return stringAt(c.requestPayload(), "request", "intent", "name")
}

// RequestPayloadType is request.type of the request payload. Intent requests carry
// the intent name as well, e.g. "IntentRequest.HelloWorldIntent".
func (c *Conversation) RequestPayloadType() (string, bool) {
	requestType, ok := stringAt(c.requestPayload(), "request", "type")
	if !ok {
		return "", false
	}
	if requestType == intentRequestType {
		if intent, ok := c.Intent(); ok {
			return requestType + "." + intent, true
		}
	}
	return requestType, true
}

// OutputSpeechText is the text the platform was asked to speak.
func (c *Conversation) OutputSpeechText() (string, bool) {
	return stringAt(c.response.Payload, "response", "outputSpeech", "text")
}

// Origin is the platform that sent the request, inferred from the payload shape.
func (c *Conversation) Origin() domain.Origin {
	return detectOrigin(c.requestPayload(), c.response.Payload)
}

// HasError reports whether any output was logged at ERROR level.
func (c *Conversation) HasError() bool {
	return c.HasOutputType(domain.LevelError)
}

// HasCrash reports whether a stack trace was recorded.
func (c *Conversation) HasCrash() bool {
	return len(c.stackTraces) > 0
}

// HasOutputType reports whether any output has exactly the given level.
// An empty level never matches.
func (c *Conversation) HasOutputType(level string) bool {
	if level == "" {
		return false
	}
	for _, o := range c.outputs {
		if o.Level == level {
			return true
		}
	}
	return false
}

// IsLevel reports whether the request or response record itself has the given level.
func (c *Conversation) IsLevel(level string) bool {
	if level == "" {
		return false
	}
	if c.request != nil && c.request.Level == level {
		return true
	}
	return c.response.Level == level
}

// UserColors derives display colors from the user id.
func (c *Conversation) UserColors() color.Pair {
	userID, ok := c.UserID()
	if !ok {
		return color.Default()
	}
	return color.ForIdentifier(userID)
}
