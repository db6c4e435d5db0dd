package conversation

import (
	"github.com/valyala/fastjson"

	"github.com/V4T54L/voicewatch/internal/domain"
)

var parsers fastjson.ParserPool

// withObject parses raw and hands the root to fn. fn is not called for payloads that
// are empty, malformed or anything other than a JSON object.
func withObject(raw []byte, fn func(root *fastjson.Value)) {
	if len(raw) == 0 {
		return
	}
	p := parsers.Get()
	defer parsers.Put(p)

	root, err := p.ParseBytes(raw)
	if err != nil || root.Type() != fastjson.TypeObject {
		return
	}
	fn(root)
}

// stringAt returns the string stored under the key path. Values of any other type
// count as absent.
func stringAt(raw []byte, keys ...string) (string, bool) {
	var (
		s  string
		ok bool
	)
	withObject(raw, func(root *fastjson.Value) {
		s, ok = stringOf(root.Get(keys...))
	})
	return s, ok
}

func stringOf(v *fastjson.Value) (string, bool) {
	if v == nil || v.Type() != fastjson.TypeString {
		return "", false
	}
	b, err := v.StringBytes()
	if err != nil {
		return "", false
	}
	return string(b), true
}

// firstString tries each key path in order and returns the first string found.
func firstString(raw []byte, paths ...[]string) (string, bool) {
	var (
		s  string
		ok bool
	)
	withObject(raw, func(root *fastjson.Value) {
		for _, path := range paths {
			if s, ok = stringOf(root.Get(path...)); ok {
				return
			}
		}
	})
	return s, ok
}

// isObjectAt reports whether the key path leads to a JSON object.
func isObjectAt(root *fastjson.Value, keys ...string) bool {
	v := root.Get(keys...)
	return v != nil && v.Type() == fastjson.TypeObject
}

// Keys that only the Dialogflow/API.AI and Actions SDK webhooks send.
var googleRequestMarkers = [][]string{
	{"originalRequest"},
	{"originalDetectIntentRequest"},
	{"queryResult"},
	{"result"},
}

var googleResponseMarkers = [][]string{
	{"speech"},
	{"fulfillmentText"},
	{"expectUserResponse"},
	{"payload", "google"},
	{"data", "google"},
}

func detectOrigin(request, response []byte) domain.Origin {
	origin := domain.OriginUnknown
	withObject(request, func(root *fastjson.Value) {
		for _, m := range googleRequestMarkers {
			if root.Exists(m...) {
				origin = domain.OriginGoogleHome
				return
			}
		}
		if isObjectAt(root, "request") && (isObjectAt(root, "session") || isObjectAt(root, "context")) {
			origin = domain.OriginAmazonAlexa
		}
	})
	if origin != domain.OriginUnknown {
		return origin
	}

	withObject(response, func(root *fastjson.Value) {
		for _, m := range googleResponseMarkers {
			if root.Exists(m...) {
				origin = domain.OriginGoogleHome
				return
			}
		}
		if isObjectAt(root, "response") && root.Exists("version") {
			origin = domain.OriginAmazonAlexa
		}
	})
	return origin
}

// textOf renders a payload as plain text: JSON strings are unquoted, anything else
// is returned verbatim.
func textOf(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	p := parsers.Get()
	defer parsers.Put(p)

	v, err := p.ParseBytes(raw)
	if err != nil {
		return string(raw)
	}
	if s, ok := stringOf(v); ok {
		return s
	}
	return string(raw)
}
