package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/sante-plus/api/internal/domain"
	"github.com/sante-plus/api/internal/repositories"
)

var (
	errCheckoutRepositoryRequired = errors.New("checkout service: repository is required")
	errCheckoutCartsRequired      = errors.New("checkout service: cart service is required")
	errCheckoutPricerRequired     = errors.New("checkout service: pricer is required")
	errCheckoutClockRequired      = errors.New("checkout service: clock is required")
)

const maxCouponLength = 40

// ErrCheckoutInvalidInput indicates the caller supplied invalid input.
var ErrCheckoutInvalidInput = errors.New("checkout service: invalid input")

// ErrCheckoutUnavailable indicates the checkout backend cannot fulfil the request.
var ErrCheckoutUnavailable = errors.New("checkout service: unavailable")

// ErrCheckoutEmptyCart indicates checkout cannot begin because the cart holds no items.
var ErrCheckoutEmptyCart = errors.New("checkout service: cart is empty")

// ErrCheckoutInvalidTransition indicates the requested step change is not
// permitted from the current step.
var ErrCheckoutInvalidTransition = errors.New("checkout service: invalid step transition")

// ShippingValidationError reports the blank required shipping fields.
type ShippingValidationError struct {
	Missing []string
}

// Error implements the error interface.
func (e *ShippingValidationError) Error() string {
	return fmt.Sprintf("checkout service: incomplete shipping info [%s]", strings.Join(e.Missing, ", "))
}

// Unwrap classifies the error as invalid input.
func (e *ShippingValidationError) Unwrap() error { return ErrCheckoutInvalidInput }

type cartReader interface {
	GetOrCreateCart(ctx context.Context, userID string) (Cart, error)
}

// CheckoutServiceDeps wires the step controller dependencies.
type CheckoutServiceDeps struct {
	Repository repositories.CheckoutStateRepository
	Carts      cartReader
	Pricer     CartPricer
	Clock      func() time.Time
	Logger     func(context.Context, string, map[string]any)
}

type checkoutService struct {
	repo   repositories.CheckoutStateRepository
	carts  cartReader
	pricer CartPricer
	now    func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewCheckoutService constructs a CheckoutService enforcing dependency validation.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Repository == nil {
		return nil, errCheckoutRepositoryRequired
	}
	if deps.Carts == nil {
		return nil, errCheckoutCartsRequired
	}
	if deps.Pricer == nil {
		return nil, errCheckoutPricerRequired
	}
	if deps.Clock == nil {
		return nil, errCheckoutClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &checkoutService{
		repo:   deps.Repository,
		carts:  deps.Carts,
		pricer: deps.Pricer,
		now:    func() time.Time { return deps.Clock().UTC() },
		logger: logger,
	}, nil
}

// GetState returns the current step joined with the live pricing breakdown.
// Users without persisted state are reported at the cart step.
func (s *checkoutService) GetState(ctx context.Context, userID string) (CheckoutView, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return CheckoutView{}, ErrCheckoutInvalidInput
	}
	state, _, err := s.loadState(ctx, uid)
	if err != nil {
		return CheckoutView{}, err
	}
	return s.view(ctx, state)
}

// BeginCheckout moves cart → shipping. An empty cart is rejected and nothing
// is persisted on rejection.
func (s *checkoutService) BeginCheckout(ctx context.Context, userID string) (CheckoutView, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return CheckoutView{}, ErrCheckoutInvalidInput
	}

	state, _, err := s.loadState(ctx, uid)
	if err != nil {
		return CheckoutView{}, err
	}
	if state.Step != domain.StepCart {
		return CheckoutView{}, ErrCheckoutInvalidTransition
	}

	cart, err := s.carts.GetOrCreateCart(ctx, uid)
	if err != nil {
		return CheckoutView{}, ErrCheckoutUnavailable
	}
	if len(cart.Items) == 0 {
		return CheckoutView{}, ErrCheckoutEmptyCart
	}

	state.Step = domain.StepShipping
	return s.save(ctx, state, "checkout.begun")
}

// StepBack moves payment → shipping or shipping → cart. Captured data is kept.
func (s *checkoutService) StepBack(ctx context.Context, userID string) (CheckoutView, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return CheckoutView{}, ErrCheckoutInvalidInput
	}

	state, exists, err := s.loadState(ctx, uid)
	if err != nil {
		return CheckoutView{}, err
	}
	if !exists {
		return CheckoutView{}, ErrCheckoutInvalidTransition
	}

	switch state.Step {
	case domain.StepPayment:
		state.Step = domain.StepShipping
	case domain.StepShipping:
		state.Step = domain.StepCart
	default:
		return CheckoutView{}, ErrCheckoutInvalidTransition
	}
	return s.save(ctx, state, "checkout.stepped_back")
}

// SubmitShipping validates the address and method, then moves shipping → payment.
func (s *checkoutService) SubmitShipping(ctx context.Context, cmd SubmitShippingCommand) (CheckoutView, error) {
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return CheckoutView{}, ErrCheckoutInvalidInput
	}

	state, exists, err := s.loadState(ctx, uid)
	if err != nil {
		return CheckoutView{}, err
	}
	if !exists || state.Step != domain.StepShipping {
		return CheckoutView{}, ErrCheckoutInvalidTransition
	}

	info := normaliseShippingInfo(cmd.Info)
	if missing := info.MissingFields(); len(missing) > 0 {
		return CheckoutView{}, &ShippingValidationError{Missing: missing}
	}
	if !domain.KnownShippingMethod(cmd.Method) {
		return CheckoutView{}, ErrCheckoutInvalidInput
	}

	state.ShippingInfo = &info
	state.ShippingMethod = cmd.Method
	state.Step = domain.StepPayment
	return s.save(ctx, state, "checkout.shipping_submitted")
}

// ApplyCoupon stores the submitted code as free text. Whether it grants a
// discount is decided by the pricing calculator alone.
func (s *checkoutService) ApplyCoupon(ctx context.Context, userID, code string) (CheckoutView, error) {
	uid := strings.TrimSpace(userID)
	trimmed := strings.TrimSpace(code)
	if uid == "" || trimmed == "" || len(trimmed) > maxCouponLength {
		return CheckoutView{}, ErrCheckoutInvalidInput
	}

	state, _, err := s.loadState(ctx, uid)
	if err != nil {
		return CheckoutView{}, err
	}
	state.CouponCode = trimmed
	return s.save(ctx, state, "checkout.coupon_applied")
}

// RemoveCoupon clears any stored coupon code.
func (s *checkoutService) RemoveCoupon(ctx context.Context, userID string) (CheckoutView, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return CheckoutView{}, ErrCheckoutInvalidInput
	}

	state, exists, err := s.loadState(ctx, uid)
	if err != nil {
		return CheckoutView{}, err
	}
	if !exists || state.CouponCode == "" {
		return s.view(ctx, state)
	}
	state.CouponCode = ""
	return s.save(ctx, state, "checkout.coupon_removed")
}

func (s *checkoutService) loadState(ctx context.Context, userID string) (CheckoutState, bool, error) {
	state, err := s.repo.GetState(ctx, userID)
	if err != nil {
		if isRepoNotFound(err) {
			now := s.now()
			return CheckoutState{
				UserID:    userID,
				Step:      domain.StepCart,
				CreatedAt: now,
				UpdatedAt: now,
			}, false, nil
		}
		return CheckoutState{}, false, ErrCheckoutUnavailable
	}
	return state, true, nil
}

func (s *checkoutService) save(ctx context.Context, state CheckoutState, event string) (CheckoutView, error) {
	state.UpdatedAt = s.now()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = state.UpdatedAt
	}
	saved, err := s.repo.SaveState(ctx, state)
	if err != nil {
		return CheckoutView{}, ErrCheckoutUnavailable
	}
	s.logger(ctx, event, map[string]any{
		"userID": state.UserID,
		"step":   string(saved.Step),
	})
	return s.view(ctx, saved)
}

func (s *checkoutService) view(ctx context.Context, state CheckoutState) (CheckoutView, error) {
	cart, err := s.carts.GetOrCreateCart(ctx, state.UserID)
	if err != nil {
		return CheckoutView{}, ErrCheckoutUnavailable
	}
	breakdown, err := s.pricer.Calculate(ctx, PriceCartCommand{
		Items:          cart.Items,
		ShippingMethod: state.ShippingMethod,
		CouponCode:     state.CouponCode,
	})
	if err != nil {
		return CheckoutView{}, ErrCheckoutUnavailable
	}
	return CheckoutView{
		State:          state,
		Pricing:        breakdown,
		FormattedTotal: domain.FormatAmount(breakdown.Total, breakdown.Currency),
	}, nil
}

func normaliseShippingInfo(info ShippingInfo) ShippingInfo {
	return ShippingInfo{
		FullName:      strings.TrimSpace(info.FullName),
		StreetAddress: strings.TrimSpace(info.StreetAddress),
		City:          strings.TrimSpace(info.City),
		PostalCode:    strings.TrimSpace(info.PostalCode),
		Country:       strings.TrimSpace(info.Country),
		Phone:         strings.TrimSpace(info.Phone),
	}
}
