// Package memory provides in-memory repository implementations used by tests,
// local development, and the degraded-persistence fallback path.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	domain "github.com/sante-plus/api/internal/domain"
	"github.com/sante-plus/api/internal/repositories"
)

// Error implements repositories.RepositoryError for the in-memory registry.
type Error struct {
	op       string
	notFound bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.notFound {
		return fmt.Sprintf("%s: not found", e.op)
	}
	return e.op
}

// IsNotFound reports whether the error represents a missing document.
func (e *Error) IsNotFound() bool { return e != nil && e.notFound }

// IsConflict always reports false; the memory registry has no optimistic locking.
func (e *Error) IsConflict() bool { return false }

// IsUnavailable always reports false; the memory registry cannot be down.
func (e *Error) IsUnavailable() bool { return false }

func notFound(op string) error {
	return &Error{op: op, notFound: true}
}

// Registry holds all checkout state in process memory behind a single mutex.
type Registry struct {
	mu     sync.Mutex
	carts  map[string]domain.Cart
	states map[string]domain.CheckoutState
	orders map[string]domain.Order
}

// NewRegistry constructs an empty in-memory registry.
func NewRegistry() *Registry {
	return &Registry{
		carts:  make(map[string]domain.Cart),
		states: make(map[string]domain.CheckoutState),
		orders: make(map[string]domain.Order),
	}
}

// Close implements repositories.Registry.
func (r *Registry) Close(context.Context) error { return nil }

// Carts implements repositories.Registry.
func (r *Registry) Carts() repositories.CartRepository { return (*cartRepository)(r) }

// CheckoutStates implements repositories.Registry.
func (r *Registry) CheckoutStates() repositories.CheckoutStateRepository {
	return (*stateRepository)(r)
}

// Orders implements repositories.Registry.
func (r *Registry) Orders() repositories.OrderRepository { return (*orderRepository)(r) }

// FinalizeCheckout writes the order and clears cart and checkout state atomically.
func (r *Registry) FinalizeCheckout(_ context.Context, order domain.Order) error {
	userID := strings.TrimSpace(order.UserID)
	if userID == "" {
		return &Error{op: "memory.finalize: user id is required"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[userID] = cloneOrder(order)
	delete(r.carts, userID)
	delete(r.states, userID)
	return nil
}

type cartRepository Registry

func (r *cartRepository) GetCart(_ context.Context, userID string) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[strings.TrimSpace(userID)]
	if !ok {
		return domain.Cart{}, notFound("memory.carts.get")
	}
	return cloneCart(cart), nil
}

func (r *cartRepository) SaveCart(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	userID := strings.TrimSpace(cart.UserID)
	if userID == "" {
		return domain.Cart{}, &Error{op: "memory.carts.save: user id is required"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[userID] = cloneCart(cart)
	return cloneCart(cart), nil
}

func (r *cartRepository) DeleteCart(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, strings.TrimSpace(userID))
	return nil
}

type stateRepository Registry

func (r *stateRepository) GetState(_ context.Context, userID string) (domain.CheckoutState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[strings.TrimSpace(userID)]
	if !ok {
		return domain.CheckoutState{}, notFound("memory.states.get")
	}
	return cloneState(state), nil
}

func (r *stateRepository) SaveState(_ context.Context, state domain.CheckoutState) (domain.CheckoutState, error) {
	userID := strings.TrimSpace(state.UserID)
	if userID == "" {
		return domain.CheckoutState{}, &Error{op: "memory.states.save: user id is required"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[userID] = cloneState(state)
	return cloneState(state), nil
}

func (r *stateRepository) DeleteState(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, strings.TrimSpace(userID))
	return nil
}

type orderRepository Registry

func (r *orderRepository) SaveLatestOrder(_ context.Context, order domain.Order) error {
	userID := strings.TrimSpace(order.UserID)
	if userID == "" {
		return &Error{op: "memory.orders.save: user id is required"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[userID] = cloneOrder(order)
	return nil
}

func (r *orderRepository) GetLatestOrder(_ context.Context, userID string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[strings.TrimSpace(userID)]
	if !ok {
		return domain.Order{}, notFound("memory.orders.get")
	}
	return cloneOrder(order), nil
}

func cloneCart(cart domain.Cart) domain.Cart {
	dup := cart
	if cart.Items != nil {
		dup.Items = make([]domain.CartItem, len(cart.Items))
		copy(dup.Items, cart.Items)
		for i := range dup.Items {
			if dup.Items[i].PrescriptionID != nil {
				id := *dup.Items[i].PrescriptionID
				dup.Items[i].PrescriptionID = &id
			}
			if dup.Items[i].UpdatedAt != nil {
				ts := *dup.Items[i].UpdatedAt
				dup.Items[i].UpdatedAt = &ts
			}
		}
	}
	if cart.Estimate != nil {
		estimate := *cart.Estimate
		dup.Estimate = &estimate
	}
	return dup
}

func cloneState(state domain.CheckoutState) domain.CheckoutState {
	dup := state
	if state.ShippingInfo != nil {
		info := *state.ShippingInfo
		dup.ShippingInfo = &info
	}
	return dup
}

func cloneOrder(order domain.Order) domain.Order {
	dup := order
	if order.Items != nil {
		dup.Items = make([]domain.OrderLineItem, len(order.Items))
		copy(dup.Items, order.Items)
		for i := range dup.Items {
			if dup.Items[i].PrescriptionID != nil {
				id := *dup.Items[i].PrescriptionID
				dup.Items[i].PrescriptionID = &id
			}
		}
	}
	return dup
}

var _ repositories.Registry = (*Registry)(nil)
