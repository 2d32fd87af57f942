package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "github.com/sante-plus/api/internal/domain"
	"github.com/sante-plus/api/internal/platform/identity"
)

func TestRouterUnknownRoute(t *testing.T) {
	server := httptest.NewServer(NewRouter())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/api/v1/nope")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["error"] != errorNotFoundCode {
		t.Fatalf("expected %q error code, got %v", errorNotFoundCode, payload["error"])
	}
}

func TestRouterUnwiredGroupReturnsNotImplemented(t *testing.T) {
	server := httptest.NewServer(NewRouter(WithIdentityMiddleware(identity.Middleware())))
	t.Cleanup(server.Close)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/v1/cart", "user-1", "")
	if resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", resp.StatusCode)
	}
}

func TestHealthzBypassesIdentity(t *testing.T) {
	server := httptest.NewServer(NewRouter(WithIdentityMiddleware(identity.Middleware())))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 without identity header, got %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["status"] != domain.HealthStatusOK {
		t.Fatalf("expected ok status, got %v", payload["status"])
	}
}

func TestReadyzReportsFailingCheck(t *testing.T) {
	health := NewHealthHandlers(
		WithHealthClock(func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }),
		WithReadinessCheck("firestore", func(context.Context) error { return nil }),
		WithReadinessCheck("pubsub", func(context.Context) error { return errors.New("broker unreachable") }),
	)
	server := httptest.NewServer(NewRouter(WithHealthHandlers(health)))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/readyz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}

	var payload struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != domain.HealthStatusError {
		t.Fatalf("expected error status, got %q", payload.Status)
	}
	if payload.Checks["firestore"] != domain.HealthStatusOK {
		t.Fatalf("expected firestore ok, got %q", payload.Checks["firestore"])
	}
	if payload.Checks["pubsub"] == domain.HealthStatusOK {
		t.Fatal("expected pubsub check to fail")
	}
}

func TestReadyzAllHealthy(t *testing.T) {
	health := NewHealthHandlers(
		WithReadinessCheck("firestore", func(context.Context) error { return nil }),
	)
	server := httptest.NewServer(NewRouter(WithHealthHandlers(health)))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/readyz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
