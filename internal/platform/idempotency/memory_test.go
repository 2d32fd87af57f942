package idempotency

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestMemoryStoreReserveLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := fixedTime

	first, err := store.Reserve(ctx, "key-1|user-a", "fp-1", now, time.Hour)
	if err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if first.State != ReservationStateNew {
		t.Fatalf("expected new reservation, got %v", first.State)
	}

	second, err := store.Reserve(ctx, "key-1|user-a", "fp-1", now, time.Hour)
	if err != nil {
		t.Fatalf("second reserve: %v", err)
	}
	if second.State != ReservationStatePending {
		t.Fatalf("expected pending reservation, got %v", second.State)
	}

	resp := Response{
		Status:  http.StatusCreated,
		Headers: http.Header{"Content-Type": {"application/json"}},
		Body:    []byte(`{"orderNumber":"CMD-20260315-0001"}`),
	}
	if err := store.SaveResponse(ctx, "key-1|user-a", "fp-1", resp, now, time.Hour); err != nil {
		t.Fatalf("save response: %v", err)
	}

	third, err := store.Reserve(ctx, "key-1|user-a", "fp-1", now, time.Hour)
	if err != nil {
		t.Fatalf("third reserve: %v", err)
	}
	if third.State != ReservationStateCompleted {
		t.Fatalf("expected completed reservation, got %v", third.State)
	}
	if third.Record.ResponseStatus != http.StatusCreated {
		t.Fatalf("expected stored status 201, got %d", third.Record.ResponseStatus)
	}
	if string(third.Record.ResponseBody) != string(resp.Body) {
		t.Fatalf("unexpected stored body %s", third.Record.ResponseBody)
	}
}

func TestMemoryStoreRejectsFingerprintReuse(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Reserve(ctx, "key-1|user-a", "fp-1", fixedTime, time.Hour); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := store.Reserve(ctx, "key-1|user-a", "fp-2", fixedTime, time.Hour); !errors.Is(err, ErrFingerprintMismatch) {
		t.Fatalf("expected ErrFingerprintMismatch, got %v", err)
	}
	if err := store.SaveResponse(ctx, "key-1|user-a", "fp-2", Response{Status: http.StatusOK}, fixedTime, time.Hour); !errors.Is(err, ErrFingerprintMismatch) {
		t.Fatalf("expected ErrFingerprintMismatch on save, got %v", err)
	}
}

func TestMemoryStoreExpiredKeyIsReusable(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Reserve(ctx, "key-1|user-a", "fp-1", fixedTime, time.Minute); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	later := fixedTime.Add(2 * time.Minute)
	reservation, err := store.Reserve(ctx, "key-1|user-a", "fp-2", later, time.Minute)
	if err != nil {
		t.Fatalf("reserve after expiry: %v", err)
	}
	if reservation.State != ReservationStateNew {
		t.Fatalf("expected expired key to be reusable, got %v", reservation.State)
	}
}

func TestMemoryStoreDropsTransportHeaders(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	resp := Response{
		Status: http.StatusCreated,
		Headers: http.Header{
			"Content-Type":   {"application/json"},
			"Content-Length": {"42"},
			"Connection":     {"keep-alive"},
		},
	}
	if err := store.SaveResponse(ctx, "key-1|user-a", "fp-1", resp, fixedTime, time.Hour); err != nil {
		t.Fatalf("save response: %v", err)
	}

	reservation, err := store.Reserve(ctx, "key-1|user-a", "fp-1", fixedTime, time.Hour)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	headers := reservation.Record.ResponseHeaders
	if _, found := headers["Content-Type"]; !found {
		t.Fatal("expected Content-Type to be stored")
	}
	if _, found := headers["Content-Length"]; found {
		t.Fatal("expected Content-Length to be dropped")
	}
	if _, found := headers["Connection"]; found {
		t.Fatal("expected Connection to be dropped")
	}
}

func TestMemoryStoreCleanupExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Reserve(ctx, "key-1|user-a", "fp-1", fixedTime, time.Minute); err != nil {
		t.Fatalf("reserve key-1: %v", err)
	}
	if _, err := store.Reserve(ctx, "key-2|user-a", "fp-2", fixedTime, time.Hour); err != nil {
		t.Fatalf("reserve key-2: %v", err)
	}

	removed, err := store.CleanupExpired(ctx, fixedTime.Add(30*time.Minute), 10)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed record, got %d", removed)
	}

	reservation, err := store.Reserve(ctx, "key-2|user-a", "fp-2", fixedTime.Add(30*time.Minute), time.Hour)
	if err != nil {
		t.Fatalf("reserve surviving key: %v", err)
	}
	if reservation.State != ReservationStatePending {
		t.Fatalf("expected surviving key to stay pending, got %v", reservation.State)
	}
}

func TestMemoryStoreReleaseAllowsRetry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Reserve(ctx, "key-1|user-a", "fp-1", fixedTime, time.Hour); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := store.Release(ctx, "key-1|user-a", "fp-1"); err != nil {
		t.Fatalf("release: %v", err)
	}

	reservation, err := store.Reserve(ctx, "key-1|user-a", "fp-1", fixedTime, time.Hour)
	if err != nil {
		t.Fatalf("reserve after release: %v", err)
	}
	if reservation.State != ReservationStateNew {
		t.Fatalf("expected released key to be reusable, got %v", reservation.State)
	}
}
