package domain

import (
	"time"
)

// Product captures the catalogue snapshot attached to a cart line. The product
// catalogue itself is owned by an external service; only the fields the
// checkout pipeline needs are copied here.
type Product struct {
	ID                   string
	Name                 string
	Price                int64
	RequiresPrescription bool
	InStock              bool
}

// CartItem stores a single product line within a cart.
type CartItem struct {
	ID                   string
	ProductID            string
	Name                 string
	UnitPrice            int64
	Quantity             int
	RequiresPrescription bool
	PrescriptionID       *string
	AddedAt              time.Time
	UpdatedAt            *time.Time
}

// Cart aggregates the mutable shopping cart state for a user.
type Cart struct {
	ID        string
	UserID    string
	Currency  string
	Items     []CartItem
	Estimate  *CartEstimate
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalQuantity sums the line quantities of the cart.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.Items {
		if item.Quantity > 0 {
			total += item.Quantity
		}
	}
	return total
}

// CartEstimate summarizes totals calculated for the cart.
type CartEstimate struct {
	Subtotal int64
	Discount int64
	Shipping int64
	Total    int64
}

// CheckoutStep enumerates the linear checkout pipeline states.
type CheckoutStep string

const (
	// StepCart is the initial step where the cart is still editable.
	StepCart CheckoutStep = "cart"
	// StepShipping collects the delivery address and shipping method.
	StepShipping CheckoutStep = "shipping"
	// StepPayment collects the payment method and finalises the order.
	StepPayment CheckoutStep = "payment"
	// StepConfirmation is reached once an order record has been created.
	StepConfirmation CheckoutStep = "confirmation"
)

// ShippingInfo is the delivery address captured during the shipping step.
// All fields are required before the pipeline may advance to payment.
type ShippingInfo struct {
	FullName      string
	StreetAddress string
	City          string
	PostalCode    string
	Country       string
	Phone         string
}

// MissingFields lists the blank required fields, in display order.
func (s ShippingInfo) MissingFields() []string {
	var missing []string
	check := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}
	check("fullName", s.FullName)
	check("streetAddress", s.StreetAddress)
	check("city", s.City)
	check("postalCode", s.PostalCode)
	check("country", s.Country)
	check("phone", s.Phone)
	return missing
}

// ShippingMethod enumerates the fixed-price delivery tiers.
type ShippingMethod string

const (
	// ShippingStandard is the default home delivery tier.
	ShippingStandard ShippingMethod = "standard"
	// ShippingExpress is the priority delivery tier.
	ShippingExpress ShippingMethod = "express"
	// ShippingPickup is collection from a partner pharmacy.
	ShippingPickup ShippingMethod = "pickup"
)

// KnownShippingMethod reports whether the method is one of the supported tiers.
func KnownShippingMethod(method ShippingMethod) bool {
	switch method {
	case ShippingStandard, ShippingExpress, ShippingPickup:
		return true
	}
	return false
}

// CheckoutState persists the step controller position together with the data
// captured along the way. It is deleted the instant an order is created.
type CheckoutState struct {
	UserID         string
	Step           CheckoutStep
	ShippingInfo   *ShippingInfo
	ShippingMethod ShippingMethod
	CouponCode     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PaymentMethod enumerates the supported payment instruments.
type PaymentMethod string

const (
	// PaymentCard is a debit/credit card payment, optionally 3-D Secure gated.
	PaymentCard PaymentMethod = "card"
	// PaymentInsurance bills the order against a health insurance policy.
	PaymentInsurance PaymentMethod = "insurance"
	// PaymentPayPal is a PayPal wallet payment.
	PaymentPayPal PaymentMethod = "paypal"
	// PaymentMobile is a mobile-money payment confirmed by one-time code.
	PaymentMobile PaymentMethod = "mobile"
	// PaymentTransfer is a bank transfer settled after order creation.
	PaymentTransfer PaymentMethod = "transfer"
	// PaymentCOD is cash on delivery.
	PaymentCOD PaymentMethod = "cod"
)

// KnownPaymentMethod reports whether the method is one of the supported instruments.
func KnownPaymentMethod(method PaymentMethod) bool {
	switch method {
	case PaymentCard, PaymentInsurance, PaymentPayPal, PaymentMobile, PaymentTransfer, PaymentCOD:
		return true
	}
	return false
}

// Label returns the customer-facing French label for the payment method.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentCard:
		return "Carte bancaire"
	case PaymentInsurance:
		return "Assurance santé"
	case PaymentPayPal:
		return "PayPal"
	case PaymentMobile:
		return "Mobile Money"
	case PaymentTransfer:
		return "Virement bancaire"
	case PaymentCOD:
		return "Paiement à la livraison"
	}
	return string(m)
}

// OrderStatus enumerates valid lifecycle states for orders.
type OrderStatus string

const (
	// OrderStatusProcessing indicates payment succeeded and fulfilment can begin.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusPending indicates the order awaits an out-of-band settlement (bank transfer).
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed indicates the order is confirmed with payment due on delivery.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusShipped indicates the order has been handed to the carrier.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered indicates the order reached the customer.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled indicates the order was cancelled before fulfilment.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderTotals holds rolled-up monetary fields in the smallest currency unit.
type OrderTotals struct {
	Subtotal int64
	Discount int64
	Shipping int64
	Total    int64
}

// OrderLineItem mirrors a cart item at the time of checkout.
type OrderLineItem struct {
	ProductID            string
	Name                 string
	UnitPrice            int64
	Quantity             int
	Total                int64
	RequiresPrescription bool
	PrescriptionID       *string
}

// Order is the immutable record produced once checkout succeeds. It snapshots
// the cart, shipping information, and pricing at the moment of payment.
type Order struct {
	ID                string
	OrderNumber       string
	TrackingNumber    string
	TrackingURL       string
	Carrier           string
	UserID            string
	Status            OrderStatus
	Currency          string
	Totals            OrderTotals
	Items             []OrderLineItem
	ShippingInfo      ShippingInfo
	ShippingMethod    ShippingMethod
	PaymentMethod     PaymentMethod
	PaymentLabel      string
	CouponCode        string
	OrderDate         time.Time
	EstimatedDelivery time.Time
	CreatedAt         time.Time
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusError indicates the service or a critical dependency is unavailable.
	HealthStatusError = "error"
)
