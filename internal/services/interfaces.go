// Package services contains the checkout pipeline business logic. Services
// receive their dependencies through Deps structs and return sentinel errors
// the HTTP layer translates into status codes.
package services

import (
	"context"
	"time"

	domain "github.com/sante-plus/api/internal/domain"
	"github.com/sante-plus/api/internal/payments"
)

// Domain aliases keep service signatures terse.
type (
	Cart             = domain.Cart
	CartItem         = domain.CartItem
	CartEstimate     = domain.CartEstimate
	CheckoutState    = domain.CheckoutState
	ShippingInfo     = domain.ShippingInfo
	PricingBreakdown = domain.PricingBreakdown
	ShippingQuote    = domain.ShippingQuote
	Order            = domain.Order
)

// AddCartItemCommand adds a catalogue product to the cart. The product fields
// are a snapshot supplied by the caller; the catalogue service owns the source
// of truth.
type AddCartItemCommand struct {
	UserID         string
	Product        domain.Product
	Quantity       int
	PrescriptionID *string
}

// UpdateCartItemCommand sets the quantity of an existing line. A quantity
// below one removes the line.
type UpdateCartItemCommand struct {
	UserID   string
	ItemID   string
	Quantity int
}

// CartService owns cart state and its pricing estimate.
type CartService interface {
	GetOrCreateCart(ctx context.Context, userID string) (Cart, error)
	AddItem(ctx context.Context, cmd AddCartItemCommand) (Cart, error)
	UpdateItemQuantity(ctx context.Context, cmd UpdateCartItemCommand) (Cart, error)
	RemoveItem(ctx context.Context, userID, itemID string) (Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// PriceCartCommand asks the pricing calculator for a full breakdown.
type PriceCartCommand struct {
	Items          []CartItem
	ShippingMethod domain.ShippingMethod
	CouponCode     string
}

// PricingService computes totals. It is pure: no repository access, no clock.
type PricingService interface {
	Calculate(ctx context.Context, cmd PriceCartCommand) (PricingBreakdown, error)
	ShippingQuotes() []ShippingQuote
}

// CheckoutView joins the persisted step state with the live pricing breakdown.
type CheckoutView struct {
	State          CheckoutState
	Pricing        PricingBreakdown
	FormattedTotal string
}

// SubmitShippingCommand carries the shipping step submission.
type SubmitShippingCommand struct {
	UserID string
	Info   ShippingInfo
	Method domain.ShippingMethod
}

// CheckoutService drives the linear step controller
// (cart → shipping → payment → confirmation).
type CheckoutService interface {
	GetState(ctx context.Context, userID string) (CheckoutView, error)
	BeginCheckout(ctx context.Context, userID string) (CheckoutView, error)
	StepBack(ctx context.Context, userID string) (CheckoutView, error)
	SubmitShipping(ctx context.Context, cmd SubmitShippingCommand) (CheckoutView, error)
	ApplyCoupon(ctx context.Context, userID, code string) (CheckoutView, error)
	RemoveCoupon(ctx context.Context, userID string) (CheckoutView, error)
}

// ProcessPaymentCommand finalises the checkout with the chosen instrument.
type ProcessPaymentCommand struct {
	UserID  string
	Method  domain.PaymentMethod
	Details payments.Details
}

// PaymentReceipt is returned once the order record has been written.
type PaymentReceipt struct {
	Order          Order
	FormattedTotal string
}

// PaymentService processes the payment step and produces the order record.
type PaymentService interface {
	ProcessPayment(ctx context.Context, cmd ProcessPaymentCommand) (PaymentReceipt, error)
}

// OrderService serves the confirmation page.
type OrderService interface {
	LatestOrder(ctx context.Context, userID string) (Order, error)
}

// OrderPlacedMessage is the payload published when an order is created.
type OrderPlacedMessage struct {
	OrderID       string    `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	UserID        string    `json:"userId"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"paymentMethod"`
	Currency      string    `json:"currency"`
	Total         int64     `json:"total"`
	ItemCount     int       `json:"itemCount"`
	PlacedAt      time.Time `json:"placedAt"`
}

// OrderEventPublisher pushes order lifecycle events to the notification surface.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, message OrderPlacedMessage) (string, error)
}
