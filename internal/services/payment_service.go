package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/sante-plus/api/internal/domain"
	"github.com/sante-plus/api/internal/payments"
	"github.com/sante-plus/api/internal/repositories"
)

var (
	errPaymentRegistryRequired = errors.New("payment service: registry is required")
	errPaymentPricerRequired   = errors.New("payment service: pricer is required")
	errPaymentManagerRequired  = errors.New("payment service: payment manager is required")
	errPaymentClockRequired    = errors.New("payment service: clock is required")
)

// ErrPaymentInvalidInput indicates the payment submission carried invalid data.
var ErrPaymentInvalidInput = errors.New("payment service: invalid input")

// ErrPaymentUnavailable indicates the checkout backend cannot fulfil the request.
var ErrPaymentUnavailable = errors.New("payment service: unavailable")

// ErrPaymentWrongStep indicates the user is not at the payment step.
var ErrPaymentWrongStep = errors.New("payment service: checkout is not at the payment step")

// ErrPaymentEmptyCart indicates the cart emptied out before payment.
var ErrPaymentEmptyCart = errors.New("payment service: cart is empty")

// ErrPaymentDeclined indicates the instrument holder cancelled or the issuer
// declined. The checkout state is left untouched so the user can retry.
var ErrPaymentDeclined = errors.New("payment service: payment declined")

// PaymentAuthorizer routes a payment request to the processor for its method.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, method domain.PaymentMethod, req payments.Request) (payments.Authorization, error)
}

// PaymentServiceDeps wires the order finalisation dependencies. Publisher is
// optional; order creation never fails on a notification outage.
type PaymentServiceDeps struct {
	Registry        repositories.Registry
	Pricer          CartPricer
	Payments        PaymentAuthorizer
	Publisher       OrderEventPublisher
	OrderNumbers    OrderNumberSource
	Clock           func() time.Time
	Logger          func(context.Context, string, map[string]any)
	IDGenerator     func() string
	Carrier         string
	CarrierIntl     string
	TrackingURLBase string
}

type paymentService struct {
	registry     repositories.Registry
	pricer       CartPricer
	payments     PaymentAuthorizer
	publisher    OrderEventPublisher
	orderNumbers OrderNumberSource
	now          func() time.Time
	logger       func(context.Context, string, map[string]any)
	newID        func() string
	carrier      string
	carrierIntl  string
	trackingURL  string
}

// NewPaymentService constructs a PaymentService enforcing dependency validation.
func NewPaymentService(deps PaymentServiceDeps) (PaymentService, error) {
	if deps.Registry == nil {
		return nil, errPaymentRegistryRequired
	}
	if deps.Pricer == nil {
		return nil, errPaymentPricerRequired
	}
	if deps.Payments == nil {
		return nil, errPaymentManagerRequired
	}
	if deps.Clock == nil {
		return nil, errPaymentClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	carrier := strings.TrimSpace(deps.Carrier)
	carrierIntl := strings.TrimSpace(deps.CarrierIntl)
	if carrierIntl == "" {
		carrierIntl = carrier
	}

	return &paymentService{
		registry:     deps.Registry,
		pricer:       deps.Pricer,
		payments:     deps.Payments,
		publisher:    deps.Publisher,
		orderNumbers: deps.OrderNumbers,
		now:          func() time.Time { return deps.Clock().UTC() },
		logger:       logger,
		newID:        idGen,
		carrier:      carrier,
		carrierIntl:  carrierIntl,
		trackingURL:  strings.TrimSpace(deps.TrackingURLBase),
	}, nil
}

// ProcessPayment authorises the instrument, snapshots cart and pricing into an
// order record, and atomically swaps it in for the cart and checkout state.
// A declined authorisation leaves everything as it was.
func (s *paymentService) ProcessPayment(ctx context.Context, cmd ProcessPaymentCommand) (PaymentReceipt, error) {
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" || !domain.KnownPaymentMethod(cmd.Method) {
		return PaymentReceipt{}, ErrPaymentInvalidInput
	}

	state, err := s.registry.CheckoutStates().GetState(ctx, uid)
	if err != nil {
		if isRepoNotFound(err) {
			return PaymentReceipt{}, ErrPaymentWrongStep
		}
		return PaymentReceipt{}, ErrPaymentUnavailable
	}
	if state.Step != domain.StepPayment || state.ShippingInfo == nil {
		return PaymentReceipt{}, ErrPaymentWrongStep
	}

	cart, err := s.registry.Carts().GetCart(ctx, uid)
	if err != nil {
		if isRepoNotFound(err) {
			return PaymentReceipt{}, ErrPaymentEmptyCart
		}
		return PaymentReceipt{}, ErrPaymentUnavailable
	}
	if len(cart.Items) == 0 {
		return PaymentReceipt{}, ErrPaymentEmptyCart
	}

	breakdown, err := s.pricer.Calculate(ctx, PriceCartCommand{
		Items:          cart.Items,
		ShippingMethod: state.ShippingMethod,
		CouponCode:     state.CouponCode,
	})
	if err != nil {
		return PaymentReceipt{}, ErrPaymentUnavailable
	}

	auth, err := s.payments.Authorize(ctx, cmd.Method, payments.Request{
		UserID:   uid,
		Amount:   breakdown.Total,
		Currency: breakdown.Currency,
		Details:  cmd.Details,
	})
	if err != nil {
		return PaymentReceipt{}, translatePaymentError(err)
	}

	order := s.buildOrder(ctx, uid, cart, state, breakdown, auth)
	if err := s.registry.FinalizeCheckout(ctx, order); err != nil {
		return PaymentReceipt{}, ErrPaymentUnavailable
	}

	s.logger(ctx, "order.placed", map[string]any{
		"userID":      uid,
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"status":      string(order.Status),
		"method":      string(order.PaymentMethod),
		"total":       order.Totals.Total,
	})
	s.publishOrderPlaced(ctx, order)

	return PaymentReceipt{
		Order:          order,
		FormattedTotal: domain.FormatAmount(order.Totals.Total, order.Currency),
	}, nil
}

func (s *paymentService) buildOrder(ctx context.Context, userID string, cart Cart, state CheckoutState, breakdown PricingBreakdown, auth payments.Authorization) Order {
	now := s.now()

	items := make([]domain.OrderLineItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, domain.OrderLineItem{
			ProductID:            line.ProductID,
			Name:                 line.Name,
			UnitPrice:            line.UnitPrice,
			Quantity:             line.Quantity,
			Total:                line.UnitPrice * int64(line.Quantity),
			RequiresPrescription: line.RequiresPrescription,
			PrescriptionID:       line.PrescriptionID,
		})
	}

	coupon := ""
	if breakdown.CouponApplied {
		coupon = state.CouponCode
	}

	carrier, deliveryDays := s.carrier, 0
	if breakdown.ShippingQuote != nil {
		carrier, deliveryDays = s.deliveryPlan(state.ShippingMethod, state.ShippingInfo.Country, breakdown.ShippingQuote.DeliveryDays)
	}

	trackingNumber := s.newID()
	order := Order{
		ID:             s.newID(),
		OrderNumber:    s.nextOrderNumber(ctx, now),
		TrackingNumber: trackingNumber,
		Carrier:        carrier,
		UserID:         userID,
		Status:         auth.Status,
		Currency:       breakdown.Currency,
		Totals: domain.OrderTotals{
			Subtotal: breakdown.Subtotal,
			Discount: breakdown.Discount,
			Shipping: breakdown.Shipping,
			Total:    breakdown.Total,
		},
		Items:             items,
		ShippingInfo:      *state.ShippingInfo,
		ShippingMethod:    state.ShippingMethod,
		PaymentMethod:     auth.Method,
		PaymentLabel:      auth.Method.Label(),
		CouponCode:        coupon,
		OrderDate:         now,
		EstimatedDelivery: now.AddDate(0, 0, deliveryDays),
		CreatedAt:         now,
	}
	if s.trackingURL != "" {
		order.TrackingURL = s.trackingURL + trackingNumber
	}
	return order
}

// internationalTransitDays is the customs and line-haul allowance added on
// top of the shipping tier's delay for destinations outside Senegal.
const internationalTransitDays = 7

// deliveryPlan derives the carrier and transit time from the shipping method
// and destination country. Pickup orders are collected at a partner pharmacy,
// so the destination never extends them; home deliveries abroad go to the
// international carrier with the customs allowance added.
func (s *paymentService) deliveryPlan(method domain.ShippingMethod, country string, baseDays int) (string, int) {
	if method == domain.ShippingPickup || isDomesticCountry(country) {
		return s.carrier, baseDays
	}
	return s.carrierIntl, baseDays + internationalTransitDays
}

func isDomesticCountry(country string) bool {
	normalised := strings.ToLower(strings.TrimSpace(country))
	normalised = strings.ReplaceAll(normalised, "é", "e")
	switch normalised {
	case "", "sn", "senegal":
		return true
	}
	return false
}

// publishOrderPlaced is best effort. A broker outage must not undo an order
// that is already persisted.
func (s *paymentService) publishOrderPlaced(ctx context.Context, order Order) {
	if s.publisher == nil {
		return
	}
	message := OrderPlacedMessage{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Status:        string(order.Status),
		PaymentMethod: string(order.PaymentMethod),
		Currency:      order.Currency,
		Total:         order.Totals.Total,
		ItemCount:     len(order.Items),
		PlacedAt:      order.OrderDate,
	}
	if _, err := s.publisher.PublishOrderPlaced(ctx, message); err != nil {
		s.logger(ctx, "order.publish_failed", map[string]any{
			"orderID": order.ID,
			"error":   err.Error(),
		})
	}
}

func translatePaymentError(err error) error {
	switch {
	case errors.Is(err, payments.ErrCancelled):
		return ErrPaymentDeclined
	case errors.Is(err, payments.ErrInvalidDetails), errors.Is(err, payments.ErrUnsupportedMethod):
		return ErrPaymentInvalidInput
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return ErrPaymentUnavailable
	}
}

// nextOrderNumber asks the sequence service for a number and falls back to a
// random suffix when the counter backend is down. An order must never fail on
// numbering alone.
func (s *paymentService) nextOrderNumber(ctx context.Context, now time.Time) string {
	if s.orderNumbers != nil {
		number, err := s.orderNumbers.NextOrderNumber(ctx)
		if err == nil {
			return number
		}
		s.logger(ctx, "order.sequence_failed", map[string]any{"error": err.Error()})
	}
	return fmt.Sprintf("CMD-%s-%04d", now.Format("20060102"), rand.IntN(10000))
}
