package filter

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/V4T54L/voicewatch/internal/domain"
)

// ErrInvalidQuery is returned by ParseQuery for malformed parameters.
var ErrInvalidQuery = errors.New("invalid filter query")

// ParseQuery builds a composite from dashboard query parameters:
//
//	level, id, intent, user_id, undefined_user_only, request, exception, origin, start, end
//
// Absent or empty parameters add no filter. start and end are RFC 3339 instants.
func ParseQuery(q url.Values) (*Composite, error) {
	c := NewComposite()

	if level := strings.TrimSpace(q.Get("level")); level != "" {
		level = strings.ToUpper(level)
		switch level {
		case domain.LevelDebug, domain.LevelInfo, domain.LevelWarn, domain.LevelError:
		default:
			return nil, fmt.Errorf("%w: unknown level %q", ErrInvalidQuery, level)
		}
		c.Set(NewLogLevelFilter(level))
	}

	for _, name := range []string{"id", "intent", "request", "user_id"} {
		if !utf8.ValidString(q.Get(name)) {
			return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidQuery, name)
		}
	}

	if id := q.Get("id"); id != "" {
		c.Set(NewIDFilter(id))
	}
	if intent := q.Get("intent"); intent != "" {
		c.Set(NewIntentFilter(intent))
	}
	if request := q.Get("request"); request != "" {
		c.Set(NewRequestFilter(request))
	}

	undefinedOnly, err := boolParam(q, "undefined_user_only")
	if err != nil {
		return nil, err
	}
	if userID := q.Get("user_id"); userID != "" || undefinedOnly {
		c.Set(NewUserIDFilter(userID, undefinedOnly))
	}

	exception, err := boolParam(q, "exception")
	if err != nil {
		return nil, err
	}
	if exception {
		c.Set(NewExceptionFilter())
	}

	if raw := q.Get("origin"); raw != "" {
		origin, ok := domain.ParseOrigin(raw)
		if !ok {
			return nil, fmt.Errorf("%w: unknown origin %q", ErrInvalidQuery, raw)
		}
		c.Set(NewOriginFilter(origin))
	}

	start, err := timeParam(q, "start")
	if err != nil {
		return nil, err
	}
	end, err := timeParam(q, "end")
	if err != nil {
		return nil, err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return nil, fmt.Errorf("%w: end is before start", ErrInvalidQuery)
	}
	if !start.IsZero() || !end.IsZero() {
		c.Set(NewDateFilter(start, end))
	}

	return c, nil
}

func boolParam(q url.Values, name string) (bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", ErrInvalidQuery, name)
	}
	return v, nil
}

func timeParam(q url.Values, name string) (time.Time, error) {
	raw := q.Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be an RFC 3339 time", ErrInvalidQuery, name)
	}
	return t, nil
}
