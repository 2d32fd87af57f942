package repositories

import (
	"context"

	domain "github.com/sante-plus/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Carts() CartRepository
	CheckoutStates() CheckoutStateRepository
	Orders() OrderRepository

	// FinalizeCheckout writes the order record and clears the user's cart and
	// checkout state in a single atomic step. Nothing is mutated when it fails.
	FinalizeCheckout(ctx context.Context, order domain.Order) error
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CartRepository owns cart persistence. The full item list is written on every mutation.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (domain.Cart, error)
	SaveCart(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	DeleteCart(ctx context.Context, userID string) error
}

// CheckoutStateRepository persists the step controller position per user.
type CheckoutStateRepository interface {
	GetState(ctx context.Context, userID string) (domain.CheckoutState, error)
	SaveState(ctx context.Context, state domain.CheckoutState) (domain.CheckoutState, error)
	DeleteState(ctx context.Context, userID string) error
}

// OrderRepository stores the latest order per user. The slot is overwritten by
// each successful checkout; the record itself is never mutated.
type OrderRepository interface {
	SaveLatestOrder(ctx context.Context, order domain.Order) error
	GetLatestOrder(ctx context.Context, userID string) (domain.Order, error)
}

// CounterRepository hands out monotonically increasing sequence values. Used
// for human-readable order numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string) (int64, error)
}

// IsNotFound reports whether err categorises as a missing document.
func IsNotFound(err error) bool {
	repoErr, ok := asRepositoryError(err)
	return ok && repoErr.IsNotFound()
}

// IsUnavailable reports whether err categorises as a transient backend outage.
func IsUnavailable(err error) bool {
	repoErr, ok := asRepositoryError(err)
	return ok && repoErr.IsUnavailable()
}
