package repositories

import (
	"context"

	domain "github.com/sante-plus/api/internal/domain"
)

// FallbackLogger receives degradation events from the fallback decorators.
type FallbackLogger func(ctx context.Context, event string, fields map[string]any)

// FallbackCartRepository mirrors cart writes into a secondary (in-memory)
// repository and serves from it when the primary store is unavailable. Primary
// outages therefore degrade checkout to in-memory state for the interaction
// instead of failing it outright.
type FallbackCartRepository struct {
	primary CartRepository
	mirror  CartRepository
	logger  FallbackLogger
}

// NewFallbackCartRepository decorates primary with an in-memory mirror.
func NewFallbackCartRepository(primary, mirror CartRepository, logger FallbackLogger) *FallbackCartRepository {
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &FallbackCartRepository{primary: primary, mirror: mirror, logger: logger}
}

// GetCart reads from the primary store, falling back to the mirror on outage.
func (r *FallbackCartRepository) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	cart, err := r.primary.GetCart(ctx, userID)
	if err == nil {
		_, _ = r.mirror.SaveCart(ctx, cart)
		return cart, nil
	}
	if !IsUnavailable(err) {
		return domain.Cart{}, err
	}
	r.logger(ctx, "cart.storage_degraded", map[string]any{
		"op":     "get",
		"userID": userID,
		"error":  err.Error(),
	})
	return r.mirror.GetCart(ctx, userID)
}

// SaveCart writes through to both stores; a primary outage is non-fatal.
func (r *FallbackCartRepository) SaveCart(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	saved, err := r.primary.SaveCart(ctx, cart)
	if err == nil {
		_, _ = r.mirror.SaveCart(ctx, saved)
		return saved, nil
	}
	if !IsUnavailable(err) {
		return domain.Cart{}, err
	}
	r.logger(ctx, "cart.storage_degraded", map[string]any{
		"op":     "save",
		"userID": cart.UserID,
		"error":  err.Error(),
	})
	return r.mirror.SaveCart(ctx, cart)
}

// DeleteCart removes the cart from both stores.
func (r *FallbackCartRepository) DeleteCart(ctx context.Context, userID string) error {
	_ = r.mirror.DeleteCart(ctx, userID)
	err := r.primary.DeleteCart(ctx, userID)
	if err == nil || !IsUnavailable(err) {
		return err
	}
	r.logger(ctx, "cart.storage_degraded", map[string]any{
		"op":     "delete",
		"userID": userID,
		"error":  err.Error(),
	})
	return nil
}

// FallbackStateRepository applies the same degradation strategy to checkout state.
type FallbackStateRepository struct {
	primary CheckoutStateRepository
	mirror  CheckoutStateRepository
	logger  FallbackLogger
}

// NewFallbackStateRepository decorates primary with an in-memory mirror.
func NewFallbackStateRepository(primary, mirror CheckoutStateRepository, logger FallbackLogger) *FallbackStateRepository {
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &FallbackStateRepository{primary: primary, mirror: mirror, logger: logger}
}

// GetState reads from the primary store, falling back to the mirror on outage.
func (r *FallbackStateRepository) GetState(ctx context.Context, userID string) (domain.CheckoutState, error) {
	state, err := r.primary.GetState(ctx, userID)
	if err == nil {
		_, _ = r.mirror.SaveState(ctx, state)
		return state, nil
	}
	if !IsUnavailable(err) {
		return domain.CheckoutState{}, err
	}
	r.logger(ctx, "checkout.storage_degraded", map[string]any{
		"op":     "get",
		"userID": userID,
		"error":  err.Error(),
	})
	return r.mirror.GetState(ctx, userID)
}

// SaveState writes through to both stores; a primary outage is non-fatal.
func (r *FallbackStateRepository) SaveState(ctx context.Context, state domain.CheckoutState) (domain.CheckoutState, error) {
	saved, err := r.primary.SaveState(ctx, state)
	if err == nil {
		_, _ = r.mirror.SaveState(ctx, saved)
		return saved, nil
	}
	if !IsUnavailable(err) {
		return domain.CheckoutState{}, err
	}
	r.logger(ctx, "checkout.storage_degraded", map[string]any{
		"op":     "save",
		"userID": state.UserID,
		"error":  err.Error(),
	})
	return r.mirror.SaveState(ctx, state)
}

// DeleteState removes the state from both stores.
func (r *FallbackStateRepository) DeleteState(ctx context.Context, userID string) error {
	_ = r.mirror.DeleteState(ctx, userID)
	err := r.primary.DeleteState(ctx, userID)
	if err == nil || !IsUnavailable(err) {
		return err
	}
	r.logger(ctx, "checkout.storage_degraded", map[string]any{
		"op":     "delete",
		"userID": userID,
		"error":  err.Error(),
	})
	return nil
}

var (
	_ CartRepository          = (*FallbackCartRepository)(nil)
	_ CheckoutStateRepository = (*FallbackStateRepository)(nil)
)
