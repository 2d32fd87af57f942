package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps replay records in process memory. It backs local
// development and tests, and serves as the degraded-mode store when
// Firestore is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Record
}

// NewMemoryStore constructs an empty in-memory replay store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Record)}
}

// Reserve claims the key for this fingerprint, treating an expired entry the
// same as an absent one.
func (s *MemoryStore) Reserve(_ context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := recordID(key)
	entry, found := s.entries[id]
	if !found || entry.Expired(now) {
		entry = pendingRecord(key, fingerprint, now, ttl)
		s.entries[id] = entry
		return Reservation{State: ReservationStateNew, Record: entry}, nil
	}

	if entry.Fingerprint != fingerprint {
		return Reservation{}, ErrFingerprintMismatch
	}
	if entry.Status == StatusCompleted {
		return Reservation{State: ReservationStateCompleted, Record: entry}, nil
	}
	return Reservation{State: ReservationStatePending, Record: entry}, nil
}

// SaveResponse captures the handler output so later submissions with the same
// key replay it.
func (s *MemoryStore) SaveResponse(_ context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := recordID(key)
	entry, found := s.entries[id]
	if found && entry.Fingerprint != fingerprint {
		return ErrFingerprintMismatch
	}
	if !found {
		entry = Record{Key: key, Fingerprint: fingerprint, CreatedAt: now}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	entry.Status = StatusCompleted
	entry.ResponseStatus = resp.Status
	entry.ResponseHeaders = storableHeaders(resp.Headers)
	entry.ResponseBody = nil
	if len(resp.Body) > 0 {
		entry.ResponseBody = append([]byte(nil), resp.Body...)
	}
	entry.UpdatedAt = now
	entry.ExpiresAt = now.Add(ttl)
	s.entries[id] = entry

	return nil
}

// CleanupExpired drops entries past their retention window, at most limit of
// them, and reports how many were removed.
func (s *MemoryStore) CleanupExpired(_ context.Context, now time.Time, limit int) (int, error) {
	now = now.UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}

	removed := 0
	for id, entry := range s.entries {
		if removed >= limit {
			break
		}
		if entry.Expired(now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Release frees the key so the client can retry after a failed capture.
func (s *MemoryStore) Release(_ context.Context, key, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, recordID(key))
	return nil
}

func pendingRecord(key, fingerprint string, now time.Time, ttl time.Duration) Record {
	return Record{
		Key:         key,
		Fingerprint: fingerprint,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}
