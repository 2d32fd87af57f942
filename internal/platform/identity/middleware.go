// Package identity resolves the calling customer from request headers. The
// checkout API sits behind a gateway that authenticates the session and
// forwards the resolved account as X-User-ID.
package identity

import (
	"net/http"
	"strings"

	"github.com/sante-plus/api/internal/platform/httpx"
	"github.com/sante-plus/api/internal/platform/requestctx"
)

// HeaderName carries the account identifier resolved by the gateway.
const HeaderName = "X-User-ID"

const maxUserIDLength = 128

// Middleware extracts the caller identity and stores it on the request
// context. Requests without a valid identity are rejected with 401.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := normaliseUserID(r.Header.Get(HeaderName))
			if !ok {
				httpx.WriteError(r.Context(), w,
					httpx.NewError("unauthenticated", "missing or invalid user identity", http.StatusUnauthorized))
				return
			}
			ctx := requestctx.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func normaliseUserID(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || len(trimmed) > maxUserIDLength {
		return "", false
	}
	for _, r := range trimmed {
		if !isIdentifierRune(r) {
			return "", false
		}
	}
	return trimmed, true
}

func isIdentifierRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_' || r == ':' || r == '.' || r == '@':
		return true
	}
	return false
}
