package repositories

import (
	"context"
	"errors"
	"testing"

	domain "github.com/sante-plus/api/internal/domain"
)

type outageError struct{ unavailable bool }

func (e *outageError) Error() string       { return "storage error" }
func (e *outageError) IsNotFound() bool    { return false }
func (e *outageError) IsConflict() bool    { return false }
func (e *outageError) IsUnavailable() bool { return e.unavailable }

type mapCartRepository struct {
	carts map[string]domain.Cart
	err   error
}

func newMapCartRepository() *mapCartRepository {
	return &mapCartRepository{carts: make(map[string]domain.Cart)}
}

func (r *mapCartRepository) GetCart(_ context.Context, userID string) (domain.Cart, error) {
	if r.err != nil {
		return domain.Cart{}, r.err
	}
	cart, ok := r.carts[userID]
	if !ok {
		return domain.Cart{}, &outageError{}
	}
	return cart, nil
}

func (r *mapCartRepository) SaveCart(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	if r.err != nil {
		return domain.Cart{}, r.err
	}
	r.carts[cart.UserID] = cart
	return cart, nil
}

func (r *mapCartRepository) DeleteCart(_ context.Context, userID string) error {
	if r.err != nil {
		return r.err
	}
	delete(r.carts, userID)
	return nil
}

func TestFallbackCartMirrorsPrimaryReads(t *testing.T) {
	primary := newMapCartRepository()
	mirror := newMapCartRepository()
	primary.carts["user-1"] = domain.Cart{ID: "user-1", UserID: "user-1", Currency: "XOF"}

	repo := NewFallbackCartRepository(primary, mirror, nil)

	cart, err := repo.GetCart(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if cart.Currency != "XOF" {
		t.Fatalf("unexpected cart %+v", cart)
	}
	if _, ok := mirror.carts["user-1"]; !ok {
		t.Fatal("expected the read to refresh the mirror")
	}
}

func TestFallbackCartServesMirrorDuringOutage(t *testing.T) {
	primary := newMapCartRepository()
	mirror := newMapCartRepository()
	mirror.carts["user-1"] = domain.Cart{ID: "user-1", UserID: "user-1"}
	primary.err = &outageError{unavailable: true}

	var events []string
	repo := NewFallbackCartRepository(primary, mirror, func(_ context.Context, event string, _ map[string]any) {
		events = append(events, event)
	})

	cart, err := repo.GetCart(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected mirror to serve the cart, got %v", err)
	}
	if cart.ID != "user-1" {
		t.Fatalf("unexpected cart %+v", cart)
	}
	if len(events) != 1 || events[0] != "cart.storage_degraded" {
		t.Fatalf("expected one degradation event, got %v", events)
	}
}

func TestFallbackCartWritesMirrorDuringOutage(t *testing.T) {
	primary := newMapCartRepository()
	mirror := newMapCartRepository()
	primary.err = &outageError{unavailable: true}

	repo := NewFallbackCartRepository(primary, mirror, nil)

	saved, err := repo.SaveCart(context.Background(), domain.Cart{ID: "user-1", UserID: "user-1"})
	if err != nil {
		t.Fatalf("expected save to degrade to the mirror, got %v", err)
	}
	if saved.UserID != "user-1" {
		t.Fatalf("unexpected cart %+v", saved)
	}
	if _, ok := mirror.carts["user-1"]; !ok {
		t.Fatal("expected the cart in the mirror")
	}

	if err := repo.DeleteCart(context.Background(), "user-1"); err != nil {
		t.Fatalf("expected delete to tolerate the outage, got %v", err)
	}
	if _, ok := mirror.carts["user-1"]; ok {
		t.Fatal("expected the mirror entry deleted")
	}
}

func TestFallbackCartPassesThroughOtherErrors(t *testing.T) {
	primary := newMapCartRepository()
	mirror := newMapCartRepository()
	notFound := &outageError{}
	primary.err = notFound

	repo := NewFallbackCartRepository(primary, mirror, nil)

	_, err := repo.GetCart(context.Background(), "user-1")
	if !errors.Is(err, notFound) {
		t.Fatalf("expected the primary error back, got %v", err)
	}
}

type mapStateRepository struct {
	states map[string]domain.CheckoutState
	err    error
}

func newMapStateRepository() *mapStateRepository {
	return &mapStateRepository{states: make(map[string]domain.CheckoutState)}
}

func (r *mapStateRepository) GetState(_ context.Context, userID string) (domain.CheckoutState, error) {
	if r.err != nil {
		return domain.CheckoutState{}, r.err
	}
	state, ok := r.states[userID]
	if !ok {
		return domain.CheckoutState{}, &outageError{}
	}
	return state, nil
}

func (r *mapStateRepository) SaveState(_ context.Context, state domain.CheckoutState) (domain.CheckoutState, error) {
	if r.err != nil {
		return domain.CheckoutState{}, r.err
	}
	r.states[state.UserID] = state
	return state, nil
}

func (r *mapStateRepository) DeleteState(_ context.Context, userID string) error {
	if r.err != nil {
		return r.err
	}
	delete(r.states, userID)
	return nil
}

func TestFallbackStateServesMirrorDuringOutage(t *testing.T) {
	primary := newMapStateRepository()
	mirror := newMapStateRepository()
	mirror.states["user-1"] = domain.CheckoutState{UserID: "user-1", Step: domain.StepShipping}
	primary.err = &outageError{unavailable: true}

	repo := NewFallbackStateRepository(primary, mirror, nil)

	state, err := repo.GetState(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected mirror to serve the state, got %v", err)
	}
	if state.Step != domain.StepShipping {
		t.Fatalf("unexpected state %+v", state)
	}

	saved, err := repo.SaveState(context.Background(), domain.CheckoutState{UserID: "user-1", Step: domain.StepPayment})
	if err != nil {
		t.Fatalf("expected save to degrade, got %v", err)
	}
	if saved.Step != domain.StepPayment {
		t.Fatalf("unexpected state %+v", saved)
	}
}
