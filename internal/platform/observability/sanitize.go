package observability

import (
	"strings"
	"unicode"
)

// Log field limits. Routes are the longest values we emit; user identifiers
// are capped tighter since they may carry account data.
const (
	routeFieldLimit  = 180
	methodFieldLimit = 10
	userFieldLimit   = 64
)

// scrub strips control characters so header-derived values cannot forge log
// lines, then truncates to limit runes.
func scrub(value string, limit int) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t':
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)

	runes := []rune(cleaned)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return cleaned
}

// SanitizeRoute prepares a matched route pattern for logging and metrics.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return scrub(route, routeFieldLimit)
}

// SanitizeMethod prepares an HTTP method for logging.
func SanitizeMethod(method string) string {
	return scrub(method, methodFieldLimit)
}

// SanitizeUserID caps user identifiers before they reach log output.
func SanitizeUserID(uid string) string {
	if uid == "" {
		return ""
	}
	return scrub(uid, userFieldLimit)
}
