package domain

// PricingBreakdown captures the aggregated monetary results of pricing a cart
// for a given shipping method and coupon code.
type PricingBreakdown struct {
	Currency      string
	Subtotal      int64
	Discount      int64
	Shipping      int64
	Total         int64
	CouponApplied bool
	Items         []ItemPricingBreakdown
	Discounts     []DiscountBreakdown
	ShippingQuote *ShippingQuote
}

// ItemPricingBreakdown stores the per-line pricing outputs.
type ItemPricingBreakdown struct {
	ItemID    string
	ProductID string
	UnitPrice int64
	Quantity  int
	Total     int64
}

// DiscountBreakdown lists an individual discount adjustment applied to the cart.
type DiscountBreakdown struct {
	Code        string
	Description string
	Amount      int64
}

// ShippingQuote records the selected shipping option and its derived estimate.
type ShippingQuote struct {
	Method       ShippingMethod
	Label        string
	Amount       int64
	DeliveryDays int
}

// Estimate projects the breakdown onto the compact cart estimate shape.
func (p PricingBreakdown) Estimate() CartEstimate {
	return CartEstimate{
		Subtotal: p.Subtotal,
		Discount: p.Discount,
		Shipping: p.Shipping,
		Total:    p.Total,
	}
}
