// Package idempotency makes the payment submission endpoint safe to retry.
// A client that resends the same Idempotency-Key gets the stored receipt back
// instead of being charged twice.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"
)

// DefaultTTL bounds how long a stored receipt can be replayed. Past it the
// key becomes reusable, which matches how long clients are expected to retry
// a payment submission.
const DefaultTTL = 24 * time.Hour

// Status tracks a replay record through its lifecycle.
type Status string

const (
	// StatusPending marks a key whose first request is still being processed.
	StatusPending Status = "pending"
	// StatusCompleted marks a key whose response has been captured for replay.
	StatusCompleted Status = "completed"
)

// ReservationState is the verdict of a Reserve call.
type ReservationState int

const (
	// ReservationStateNew lets the caller proceed; the key was free.
	ReservationStateNew ReservationState = iota
	// ReservationStateCompleted means the stored response should be replayed.
	ReservationStateCompleted
	// ReservationStatePending means a concurrent request holds the key.
	ReservationStatePending
)

// Reservation carries the reserve verdict and, when completed, the record to
// replay.
type Reservation struct {
	State  ReservationState
	Record Record
}

// Record is the persisted replay state for one payment submission key.
type Record struct {
	Key             string
	Fingerprint     string
	Status          Status
	ResponseStatus  int
	ResponseHeaders map[string][]string
	ResponseBody    []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       time.Time
}

// Expired reports whether the record's retention window has lapsed at now.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Response is the handler output captured for later replays.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Store persists payment replay reservations and their captured responses.
type Store interface {
	Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error)
	SaveResponse(ctx context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error
	Release(ctx context.Context, key, fingerprint string) error
	CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

// ErrFingerprintMismatch is returned when a key is reused for a different
// payment submission. Replaying a response for a changed request would hide
// a client bug, so the caller gets a conflict instead.
var ErrFingerprintMismatch = errors.New("idempotency: key reserved for different request fingerprint")

// recordID derives the storage identifier for a key. Keys arrive scoped per
// user (key + user identity), so hashing keeps arbitrary client input out of
// document names while preserving the per-user scope.
func recordID(key string) string {
	return hashHex([]byte(strings.TrimSpace(key)))
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// transportHeaders lists response headers that describe the original
// connection rather than the payment result. Storing them would corrupt
// replays served over a different connection.
var transportHeaders = map[string]struct{}{
	"Content-Length":      {},
	"Date":                {},
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailers":            {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

// storableHeaders copies the response headers worth replaying, dropping the
// transport-level ones. Returns nil when nothing remains.
func storableHeaders(header http.Header) map[string][]string {
	if len(header) == 0 {
		return nil
	}
	kept := make(map[string][]string, len(header))
	for name, values := range header {
		canonical := http.CanonicalHeaderKey(name)
		if _, skip := transportHeaders[canonical]; skip {
			continue
		}
		kept[canonical] = append([]string(nil), values...)
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// replayHeader rebuilds an http.Header from a stored record's header map.
func replayHeader(values map[string][]string) http.Header {
	header := make(http.Header, len(values))
	for name, vals := range values {
		header[name] = append([]string(nil), vals...)
	}
	return header
}
