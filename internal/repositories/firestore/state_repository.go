package firestore

import (
	"context"
	"errors"
	"strings"

	domain "github.com/sante-plus/api/internal/domain"
	platform "github.com/sante-plus/api/internal/platform/firestore"
	"github.com/sante-plus/api/internal/repositories"
)

// CheckoutStateRepository stores one checkout-state document per user.
type CheckoutStateRepository struct {
	base *platform.BaseRepository[checkoutStateDocument]
}

var _ repositories.CheckoutStateRepository = (*CheckoutStateRepository)(nil)

// NewCheckoutStateRepository constructs a Firestore-backed checkout state repository.
func NewCheckoutStateRepository(provider *platform.Provider) *CheckoutStateRepository {
	return &CheckoutStateRepository{
		base: platform.NewBaseRepository[checkoutStateDocument](provider, stateCollection),
	}
}

// GetState fetches the checkout state for the given user.
func (r *CheckoutStateRepository) GetState(ctx context.Context, userID string) (domain.CheckoutState, error) {
	id := strings.TrimSpace(userID)
	if id == "" {
		return domain.CheckoutState{}, platform.WrapError("checkoutStates.get", errors.New("firestore: user id is required"))
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.CheckoutState{}, err
	}
	return decodeState(id, doc.Data), nil
}

// SaveState upserts the full checkout state document.
func (r *CheckoutStateRepository) SaveState(ctx context.Context, state domain.CheckoutState) (domain.CheckoutState, error) {
	id := strings.TrimSpace(state.UserID)
	if id == "" {
		return domain.CheckoutState{}, platform.WrapError("checkoutStates.set", errors.New("firestore: user id is required"))
	}
	if _, err := r.base.Set(ctx, id, encodeState(state)); err != nil {
		return domain.CheckoutState{}, err
	}
	return state, nil
}

// DeleteState removes the checkout state document. Missing documents are ignored.
func (r *CheckoutStateRepository) DeleteState(ctx context.Context, userID string) error {
	id := strings.TrimSpace(userID)
	if id == "" {
		return platform.WrapError("checkoutStates.delete", errors.New("firestore: user id is required"))
	}
	return r.base.Delete(ctx, id)
}
