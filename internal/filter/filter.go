// Package filter implements the predicates used to narrow a list of conversations.
package filter

import (
	"regexp"
	"strings"
	"time"

	"github.com/V4T54L/voicewatch/internal/conversation"
	"github.com/V4T54L/voicewatch/internal/domain"
)

// Kind identifies a filter variant. A Composite holds at most one filter per kind.
type Kind string

const (
	KindLogLevel  Kind = "Log Level"
	KindID        Kind = "ID"
	KindDate      Kind = "Date"
	KindRequest   Kind = "Request"
	KindIntent    Kind = "Intent"
	KindException Kind = "Exception"
	KindOrigin    Kind = "Origin"
	KindUserID    Kind = "UserID"
)

// Matcher is anything that can accept or reject a conversation.
type Matcher interface {
	Match(c *conversation.Conversation) bool
}

// Filter is one parameterised rule. The set of variants is closed; only the types in
// this package implement it. Match never panics, including for a nil conversation.
type Filter interface {
	Matcher
	Kind() Kind
	isFilter()
}

// substring matches a literal term anywhere in a value.
type substring struct {
	term string
	re   *regexp.Regexp
}

func newSubstring(term string, foldCase bool) substring {
	return substring{term: term, re: compileLiteral(term, foldCase)}
}

func compileLiteral(term string, foldCase bool) *regexp.Regexp {
	pattern := regexp.QuoteMeta(term)
	if foldCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		// Invalid UTF-8 cannot be compiled; match its replacement-character form.
		return compileLiteral(strings.ToValidUTF8(term, "\uFFFD"), foldCase)
	}
	return re
}

// matches reuses the compiled pattern unless term changed after construction.
func (s substring) matches(term, value string, foldCase bool) bool {
	re := s.re
	if re == nil || s.term != term {
		re = compileLiteral(term, foldCase)
	}
	return re.MatchString(value)
}

// LogLevelFilter keeps conversations whose request, response or any output was
// logged at Level. A blank level matches everything.
type LogLevelFilter struct {
	Level string `json:"level"`
}

func NewLogLevelFilter(level string) LogLevelFilter {
	return LogLevelFilter{Level: level}
}

func (LogLevelFilter) Kind() Kind { return KindLogLevel }
func (LogLevelFilter) isFilter()  {}

func (f LogLevelFilter) Match(c *conversation.Conversation) bool {
	level := strings.TrimSpace(f.Level)
	if level == "" {
		return true
	}
	if c == nil {
		return false
	}
	return c.IsLevel(level) || c.HasOutputType(level)
}

// IDFilter keeps conversations whose id contains ID, case-sensitively.
type IDFilter struct {
	ID string `json:"id"`

	match substring
}

func NewIDFilter(id string) IDFilter {
	return IDFilter{ID: id, match: newSubstring(id, false)}
}

func (IDFilter) Kind() Kind { return KindID }
func (IDFilter) isFilter()  {}

func (f IDFilter) Match(c *conversation.Conversation) bool {
	if c == nil {
		return false
	}
	if f.ID == "" {
		return true
	}
	return f.match.matches(f.ID, c.ID(), false)
}

// DateFilter keeps conversations with Start <= timestamp <= End. A zero bound is open.
type DateFilter struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewDateFilter(start, end time.Time) DateFilter {
	return DateFilter{Start: start, End: end}
}

func (DateFilter) Kind() Kind { return KindDate }
func (DateFilter) isFilter()  {}

func (f DateFilter) Match(c *conversation.Conversation) bool {
	if c == nil {
		return false
	}
	ts := c.Timestamp()
	if !f.Start.IsZero() && ts.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && ts.After(f.End) {
		return false
	}
	return true
}

// IntentFilter keeps conversations whose intent contains Intent, ignoring case.
type IntentFilter struct {
	Intent string `json:"intent"`

	match substring
}

func NewIntentFilter(intent string) IntentFilter {
	return IntentFilter{Intent: intent, match: newSubstring(intent, true)}
}

func (IntentFilter) Kind() Kind { return KindIntent }
func (IntentFilter) isFilter()  {}

func (f IntentFilter) Match(c *conversation.Conversation) bool {
	if f.Intent == "" {
		return true
	}
	if c == nil {
		return false
	}
	intent, ok := c.Intent()
	if !ok {
		return false
	}
	return f.match.matches(f.Intent, intent, true)
}

// UserIDFilter keeps conversations whose user id contains UserID, ignoring case.
// With an empty UserID and UndefinedOnly set, only conversations without a user id
// are kept.
type UserIDFilter struct {
	UserID        string `json:"user_id"`
	UndefinedOnly bool   `json:"undefined_user_only"`

	match substring
}

func NewUserIDFilter(userID string, undefinedOnly bool) UserIDFilter {
	return UserIDFilter{UserID: userID, UndefinedOnly: undefinedOnly, match: newSubstring(userID, true)}
}

func (UserIDFilter) Kind() Kind { return KindUserID }
func (UserIDFilter) isFilter()  {}

func (f UserIDFilter) Match(c *conversation.Conversation) bool {
	if f.UserID == "" {
		if !f.UndefinedOnly {
			return true
		}
		if c == nil {
			return false
		}
		_, defined := c.UserID()
		return !defined
	}
	if c == nil {
		return false
	}
	userID, ok := c.UserID()
	if !ok {
		return false
	}
	return f.match.matches(f.UserID, userID, true)
}

// RequestFilter keeps conversations whose request payload type contains Request,
// ignoring case.
type RequestFilter struct {
	Request string `json:"request"`

	match substring
}

func NewRequestFilter(request string) RequestFilter {
	return RequestFilter{Request: request, match: newSubstring(request, true)}
}

func (RequestFilter) Kind() Kind { return KindRequest }
func (RequestFilter) isFilter()  {}

func (f RequestFilter) Match(c *conversation.Conversation) bool {
	if f.Request == "" {
		return true
	}
	if c == nil {
		return false
	}
	requestType, ok := c.RequestPayloadType()
	if !ok {
		return false
	}
	return f.match.matches(f.Request, requestType, true)
}

// ExceptionFilter keeps conversations that crashed.
type ExceptionFilter struct{}

func NewExceptionFilter() ExceptionFilter {
	return ExceptionFilter{}
}

func (ExceptionFilter) Kind() Kind { return KindException }
func (ExceptionFilter) isFilter()  {}

func (ExceptionFilter) Match(c *conversation.Conversation) bool {
	return c != nil && c.HasCrash()
}

// OriginFilter keeps conversations from one platform. An empty Origin matches all.
type OriginFilter struct {
	Origin domain.Origin `json:"origin"`
}

func NewOriginFilter(origin domain.Origin) OriginFilter {
	return OriginFilter{Origin: origin}
}

func (OriginFilter) Kind() Kind { return KindOrigin }
func (OriginFilter) isFilter()  {}

func (f OriginFilter) Match(c *conversation.Conversation) bool {
	if f.Origin == "" {
		return true
	}
	if c == nil {
		return false
	}
	return c.Origin() == f.Origin
}
