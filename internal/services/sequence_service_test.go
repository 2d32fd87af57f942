package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSequenceServiceFormatsOrderNumber(t *testing.T) {
	var requestedID string
	repo := &stubCounterRepository{next: 42}
	sequences, err := NewSequenceService(SequenceServiceDeps{
		Repository: counterRepoFunc(func(_ context.Context, counterID string) (int64, error) {
			requestedID = counterID
			return repo.Next(context.Background(), counterID)
		}),
		Clock: func() time.Time { return time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("unexpected error constructing sequence service: %v", err)
	}

	number, err := sequences.NextOrderNumber(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if number != "CMD-20260315-0042" {
		t.Fatalf("unexpected order number %q", number)
	}
	if requestedID != "orders:20260315" {
		t.Fatalf("expected daily counter id, got %q", requestedID)
	}
}

func TestSequenceServiceUnavailable(t *testing.T) {
	sequences, err := NewSequenceService(SequenceServiceDeps{
		Repository: &stubCounterRepository{err: errors.New("backend down")},
	})
	if err != nil {
		t.Fatalf("unexpected error constructing sequence service: %v", err)
	}

	if _, err := sequences.NextOrderNumber(context.Background()); !errors.Is(err, ErrSequenceUnavailable) {
		t.Fatalf("expected ErrSequenceUnavailable, got %v", err)
	}
}

type counterRepoFunc func(ctx context.Context, counterID string) (int64, error)

func (f counterRepoFunc) Next(ctx context.Context, counterID string) (int64, error) {
	return f(ctx, counterID)
}
