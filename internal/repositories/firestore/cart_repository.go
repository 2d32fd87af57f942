package firestore

import (
	"context"
	"errors"
	"strings"

	domain "github.com/sante-plus/api/internal/domain"
	platform "github.com/sante-plus/api/internal/platform/firestore"
	"github.com/sante-plus/api/internal/repositories"
)

// CartRepository stores one cart document per user.
type CartRepository struct {
	base *platform.BaseRepository[cartDocument]
}

var _ repositories.CartRepository = (*CartRepository)(nil)

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *platform.Provider) *CartRepository {
	return &CartRepository{
		base: platform.NewBaseRepository[cartDocument](provider, cartCollection),
	}
}

// GetCart fetches the cart for the given user.
func (r *CartRepository) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	id := strings.TrimSpace(userID)
	if id == "" {
		return domain.Cart{}, platform.WrapError("carts.get", errors.New("firestore: user id is required"))
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Cart{}, err
	}
	return decodeCart(id, doc.Data), nil
}

// SaveCart upserts the full cart document.
func (r *CartRepository) SaveCart(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	id := strings.TrimSpace(cart.UserID)
	if id == "" {
		return domain.Cart{}, platform.WrapError("carts.set", errors.New("firestore: user id is required"))
	}
	if _, err := r.base.Set(ctx, id, encodeCart(cart)); err != nil {
		return domain.Cart{}, err
	}
	cart.ID = id
	return cart, nil
}

// DeleteCart removes the cart document. Deleting a missing cart is not an error.
func (r *CartRepository) DeleteCart(ctx context.Context, userID string) error {
	id := strings.TrimSpace(userID)
	if id == "" {
		return platform.WrapError("carts.delete", errors.New("firestore: user id is required"))
	}
	return r.base.Delete(ctx, id)
}
