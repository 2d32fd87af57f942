package firestore

import (
	"context"
	"errors"
	"strings"

	fs "cloud.google.com/go/firestore"

	domain "github.com/sante-plus/api/internal/domain"
	platform "github.com/sante-plus/api/internal/platform/firestore"
	"github.com/sante-plus/api/internal/repositories"
)

// Registry wires the Firestore-backed repositories around a shared provider.
type Registry struct {
	provider *platform.Provider

	carts  *CartRepository
	states *CheckoutStateRepository
	orders *OrderRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry constructs the registry. The provider connection is established
// lazily on first use.
func NewRegistry(provider *platform.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry: provider is required")
	}
	return &Registry{
		provider: provider,
		carts:    NewCartRepository(provider),
		states:   NewCheckoutStateRepository(provider),
		orders:   NewOrderRepository(provider),
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	return r.provider.Close(ctx)
}

// Carts returns the cart repository.
func (r *Registry) Carts() repositories.CartRepository { return r.carts }

// CheckoutStates returns the checkout state repository.
func (r *Registry) CheckoutStates() repositories.CheckoutStateRepository { return r.states }

// Orders returns the latest-order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// FinalizeCheckout writes the order record and deletes the user's cart and
// checkout state in one transaction, so a crash mid-checkout can never leave
// an order without a cleared pipeline or vice versa.
func (r *Registry) FinalizeCheckout(ctx context.Context, order domain.Order) error {
	userID := strings.TrimSpace(order.UserID)
	if userID == "" {
		return platform.WrapError("checkout.finalize", errors.New("firestore: user id is required"))
	}

	orderRef, err := r.orders.base.DocumentRef(ctx, userID)
	if err != nil {
		return err
	}
	cartRef, err := r.carts.base.DocumentRef(ctx, userID)
	if err != nil {
		return err
	}
	stateRef, err := r.states.base.DocumentRef(ctx, userID)
	if err != nil {
		return err
	}

	doc := encodeOrder(order)
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *fs.Transaction) error {
		if err := tx.Set(orderRef, doc); err != nil {
			return err
		}
		if err := tx.Delete(cartRef); err != nil {
			return err
		}
		return tx.Delete(stateRef)
	})
}
