package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	platform "github.com/sante-plus/api/internal/platform/firestore"
	"github.com/sante-plus/api/internal/repositories"
)

const counterCollection = "counters"

type counterDocument struct {
	CurrentValue int64     `firestore:"currentValue"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

// CounterRepository implements repositories.CounterRepository backed by
// Firestore transactions.
type CounterRepository struct {
	provider *platform.Provider
	base     *platform.BaseRepository[counterDocument]
}

var _ repositories.CounterRepository = (*CounterRepository)(nil)

// NewCounterRepository constructs a Firestore-backed counter repository.
func NewCounterRepository(provider *platform.Provider) *CounterRepository {
	return &CounterRepository{
		provider: provider,
		base:     platform.NewBaseRepository[counterDocument](provider, counterCollection),
	}
}

// Next atomically increments the counter identified by counterID and returns
// the new value. A missing counter starts at one.
func (r *CounterRepository) Next(ctx context.Context, counterID string) (int64, error) {
	id := strings.TrimSpace(counterID)
	if id == "" {
		return 0, platform.WrapError("counters.next", errors.New("firestore: counter id is required"))
	}

	now := time.Now().UTC()
	var nextValue int64

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}

		snapshot, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			nextValue = 1
			return tx.Set(ref, counterDocument{CurrentValue: 1, UpdatedAt: now})
		}
		if err != nil {
			return err
		}

		var doc counterDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return err
		}
		nextValue = doc.CurrentValue + 1
		return tx.Set(ref, counterDocument{CurrentValue: nextValue, UpdatedAt: now})
	})
	if err != nil {
		return 0, platform.WrapError("counters.next", err)
	}
	return nextValue, nil
}
