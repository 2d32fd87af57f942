package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sante-plus/api/internal/platform/requestctx"
)

func TestMiddlewareStoresUserID(t *testing.T) {
	var captured string
	handler := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestctx.UserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(HeaderName, "user-42")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if captured != "user-42" {
		t.Fatalf("expected user-42 in context, got %q", captured)
	}
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	handler := Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run without identity")
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestMiddlewareRejectsMalformedIdentity(t *testing.T) {
	for _, value := range []string{"  ", "bad id", "évil", "a\nb"} {
		handler := Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatalf("handler should not run for identity %q", value)
		}))

		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set(HeaderName, value)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("identity %q: expected 401, got %d", value, rr.Code)
		}
	}
}
