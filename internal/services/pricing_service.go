package services

import (
	"context"
	"errors"
	"strings"

	domain "github.com/sante-plus/api/internal/domain"
)

// ErrPricingInvalidInput indicates the pricing command carried invalid data.
var ErrPricingInvalidInput = errors.New("pricing service: invalid input")

var errPricingRatesRequired = errors.New("pricing service: shipping rates are required")

// ShippingRate fixes the cost and delivery delay of one shipping tier.
type ShippingRate struct {
	Amount       int64
	DeliveryDays int
	Label        string
}

// PricingServiceDeps carries the pricing rules. All amounts are minor units
// of a zero-decimal currency.
type PricingServiceDeps struct {
	Currency   string
	CouponCode string
	Rates      map[domain.ShippingMethod]ShippingRate
}

type pricingService struct {
	currency string
	coupon   string
	rates    map[domain.ShippingMethod]ShippingRate
}

// NewPricingService constructs the pure pricing calculator.
func NewPricingService(deps PricingServiceDeps) (PricingService, error) {
	currency := strings.ToUpper(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	if len(deps.Rates) == 0 {
		return nil, errPricingRatesRequired
	}
	rates := make(map[domain.ShippingMethod]ShippingRate, len(deps.Rates))
	for method, rate := range deps.Rates {
		if !domain.KnownShippingMethod(method) || rate.Amount < 0 || rate.DeliveryDays <= 0 {
			return nil, errPricingRatesRequired
		}
		rates[method] = rate
	}
	return &pricingService{
		currency: currency,
		coupon:   strings.TrimSpace(deps.CouponCode),
		rates:    rates,
	}, nil
}

// Calculate prices the cart: subtotal is the sum of line totals, the discount
// is a tenth of the subtotal when the coupon equals the configured literal
// (exact match, case-sensitive), shipping is the flat rate of the selected
// method, and total = subtotal + shipping - discount.
func (s *pricingService) Calculate(_ context.Context, cmd PriceCartCommand) (PricingBreakdown, error) {
	breakdown := PricingBreakdown{
		Currency: s.currency,
		Items:    make([]domain.ItemPricingBreakdown, 0, len(cmd.Items)),
	}

	for _, item := range cmd.Items {
		if item.Quantity < 1 {
			return PricingBreakdown{}, ErrPricingInvalidInput
		}
		if item.UnitPrice < 0 {
			return PricingBreakdown{}, ErrPricingInvalidInput
		}
		line := item.UnitPrice * int64(item.Quantity)
		breakdown.Subtotal += line
		breakdown.Items = append(breakdown.Items, domain.ItemPricingBreakdown{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Total:     line,
		})
	}

	if s.coupon != "" && strings.TrimSpace(cmd.CouponCode) == s.coupon {
		breakdown.Discount = breakdown.Subtotal / 10
		breakdown.CouponApplied = true
		if breakdown.Discount > 0 {
			breakdown.Discounts = append(breakdown.Discounts, domain.DiscountBreakdown{
				Code:        s.coupon,
				Description: "Remise fidélité 10%",
				Amount:      breakdown.Discount,
			})
		}
	}

	if cmd.ShippingMethod != "" {
		rate, ok := s.rates[cmd.ShippingMethod]
		if !ok {
			return PricingBreakdown{}, ErrPricingInvalidInput
		}
		breakdown.Shipping = rate.Amount
		breakdown.ShippingQuote = &domain.ShippingQuote{
			Method:       cmd.ShippingMethod,
			Label:        rate.Label,
			Amount:       rate.Amount,
			DeliveryDays: rate.DeliveryDays,
		}
	}

	breakdown.Total = breakdown.Subtotal + breakdown.Shipping - breakdown.Discount
	return breakdown, nil
}

// ShippingQuotes lists the available tiers ordered by price.
func (s *pricingService) ShippingQuotes() []ShippingQuote {
	quotes := make([]ShippingQuote, 0, len(s.rates))
	for _, method := range []domain.ShippingMethod{domain.ShippingStandard, domain.ShippingPickup, domain.ShippingExpress} {
		rate, ok := s.rates[method]
		if !ok {
			continue
		}
		quotes = append(quotes, ShippingQuote{
			Method:       method,
			Label:        rate.Label,
			Amount:       rate.Amount,
			DeliveryDays: rate.DeliveryDays,
		})
	}
	return quotes
}
