package domain

// Origin is the voice platform that produced a conversation.
type Origin string

const (
	OriginAmazonAlexa Origin = "Amazon.Alexa"
	OriginGoogleHome  Origin = "Google.Home"
	OriginUnknown     Origin = "Unknown"
)

// ParseOrigin maps user supplied names onto an Origin. The second value is false
// for anything it does not recognise.
func ParseOrigin(s string) (Origin, bool) {
	switch s {
	case string(OriginAmazonAlexa), "amazon", "alexa", "Amazon":
		return OriginAmazonAlexa, true
	case string(OriginGoogleHome), "google", "home", "Google":
		return OriginGoogleHome, true
	case string(OriginUnknown), "unknown":
		return OriginUnknown, true
	default:
		return "", false
	}
}
