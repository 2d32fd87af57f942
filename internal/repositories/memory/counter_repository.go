package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/sante-plus/api/internal/repositories"
)

// CounterRepository is the in-memory counterpart of the Firestore counter
// repository. Values reset on process restart.
type CounterRepository struct {
	mu     sync.Mutex
	values map[string]int64
}

var _ repositories.CounterRepository = (*CounterRepository)(nil)

// NewCounterRepository constructs an empty in-memory counter repository.
func NewCounterRepository() *CounterRepository {
	return &CounterRepository{values: make(map[string]int64)}
}

// Next increments and returns the counter value. A missing counter starts at one.
func (r *CounterRepository) Next(_ context.Context, counterID string) (int64, error) {
	id := strings.TrimSpace(counterID)
	if id == "" {
		return 0, &Error{op: "memory.counters.next: counter id is required"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[id]++
	return r.values[id], nil
}
