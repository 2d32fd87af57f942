package firestore

import (
	"context"
	"errors"
	"strings"

	domain "github.com/sante-plus/api/internal/domain"
	platform "github.com/sante-plus/api/internal/platform/firestore"
	"github.com/sante-plus/api/internal/repositories"
)

// OrderRepository keeps the single latest order per user. Each successful
// checkout overwrites the slot; the stored record is never mutated in place.
type OrderRepository struct {
	base *platform.BaseRepository[orderDocument]
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository constructs a Firestore-backed latest-order repository.
func NewOrderRepository(provider *platform.Provider) *OrderRepository {
	return &OrderRepository{
		base: platform.NewBaseRepository[orderDocument](provider, orderCollection),
	}
}

// SaveLatestOrder overwrites the user's latest order slot.
func (r *OrderRepository) SaveLatestOrder(ctx context.Context, order domain.Order) error {
	id := strings.TrimSpace(order.UserID)
	if id == "" {
		return platform.WrapError("latestOrders.set", errors.New("firestore: user id is required"))
	}
	_, err := r.base.Set(ctx, id, encodeOrder(order))
	return err
}

// GetLatestOrder fetches the user's most recent order.
func (r *OrderRepository) GetLatestOrder(ctx context.Context, userID string) (domain.Order, error) {
	id := strings.TrimSpace(userID)
	if id == "" {
		return domain.Order{}, platform.WrapError("latestOrders.get", errors.New("firestore: user id is required"))
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrder(id, doc.Data), nil
}
