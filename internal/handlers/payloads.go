package handlers

import (
	"strings"

	domain "github.com/sante-plus/api/internal/domain"
	"github.com/sante-plus/api/internal/services"
)

type cartItemPayload struct {
	ID                   string `json:"id"`
	ProductID            string `json:"productId"`
	Name                 string `json:"name"`
	UnitPrice            int64  `json:"unitPrice"`
	Quantity             int    `json:"quantity"`
	RequiresPrescription bool   `json:"requiresPrescription"`
	PrescriptionID       string `json:"prescriptionId,omitempty"`
	AddedAt              string `json:"addedAt,omitempty"`
	UpdatedAt            string `json:"updatedAt,omitempty"`
}

type estimatePayload struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

type cartPayload struct {
	ID         string            `json:"id"`
	UserID     string            `json:"userId"`
	Currency   string            `json:"currency"`
	ItemsCount int               `json:"itemsCount"`
	Items      []cartItemPayload `json:"items"`
	Estimate   *estimatePayload  `json:"estimate,omitempty"`
	UpdatedAt  string            `json:"updatedAt,omitempty"`
}

type cartResponse struct {
	Cart cartPayload `json:"cart"`
}

func buildCartPayload(cart services.Cart) cartPayload {
	payload := cartPayload{
		ID:         strings.TrimSpace(cart.ID),
		UserID:     strings.TrimSpace(cart.UserID),
		Currency:   strings.ToUpper(strings.TrimSpace(cart.Currency)),
		ItemsCount: len(cart.Items),
		Items:      make([]cartItemPayload, 0, len(cart.Items)),
		UpdatedAt:  formatTime(cart.UpdatedAt),
	}
	for _, item := range cart.Items {
		entry := cartItemPayload{
			ID:                   item.ID,
			ProductID:            item.ProductID,
			Name:                 item.Name,
			UnitPrice:            item.UnitPrice,
			Quantity:             item.Quantity,
			RequiresPrescription: item.RequiresPrescription,
			AddedAt:              formatTime(item.AddedAt),
			UpdatedAt:            formatTimePtr(item.UpdatedAt),
		}
		if item.PrescriptionID != nil {
			entry.PrescriptionID = *item.PrescriptionID
		}
		payload.Items = append(payload.Items, entry)
	}
	if cart.Estimate != nil {
		payload.Estimate = &estimatePayload{
			Subtotal: cart.Estimate.Subtotal,
			Discount: cart.Estimate.Discount,
			Shipping: cart.Estimate.Shipping,
			Total:    cart.Estimate.Total,
		}
	}
	return payload
}

type shippingInfoPayload struct {
	FullName      string `json:"fullName"`
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
	Phone         string `json:"phone"`
}

func buildShippingInfoPayload(info domain.ShippingInfo) shippingInfoPayload {
	return shippingInfoPayload{
		FullName:      info.FullName,
		StreetAddress: info.StreetAddress,
		City:          info.City,
		PostalCode:    info.PostalCode,
		Country:       info.Country,
		Phone:         info.Phone,
	}
}

type shippingQuotePayload struct {
	Method       string `json:"method"`
	Label        string `json:"label"`
	Amount       int64  `json:"amount"`
	DeliveryDays int    `json:"deliveryDays"`
}

type discountPayload struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

type pricingLinePayload struct {
	ItemID    string `json:"itemId"`
	ProductID string `json:"productId"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Total     int64  `json:"total"`
}

type pricingPayload struct {
	Currency      string                `json:"currency"`
	Subtotal      int64                 `json:"subtotal"`
	Discount      int64                 `json:"discount"`
	Shipping      int64                 `json:"shipping"`
	Total         int64                 `json:"total"`
	CouponApplied bool                  `json:"couponApplied"`
	Items         []pricingLinePayload  `json:"items"`
	Discounts     []discountPayload     `json:"discounts,omitempty"`
	ShippingQuote *shippingQuotePayload `json:"shippingQuote,omitempty"`
}

func buildPricingPayload(breakdown services.PricingBreakdown) pricingPayload {
	payload := pricingPayload{
		Currency:      breakdown.Currency,
		Subtotal:      breakdown.Subtotal,
		Discount:      breakdown.Discount,
		Shipping:      breakdown.Shipping,
		Total:         breakdown.Total,
		CouponApplied: breakdown.CouponApplied,
		Items:         make([]pricingLinePayload, 0, len(breakdown.Items)),
	}
	for _, line := range breakdown.Items {
		payload.Items = append(payload.Items, pricingLinePayload{
			ItemID:    line.ItemID,
			ProductID: line.ProductID,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Total:     line.Total,
		})
	}
	for _, discount := range breakdown.Discounts {
		payload.Discounts = append(payload.Discounts, discountPayload{
			Code:        discount.Code,
			Description: discount.Description,
			Amount:      discount.Amount,
		})
	}
	if breakdown.ShippingQuote != nil {
		payload.ShippingQuote = buildShippingQuotePayload(*breakdown.ShippingQuote)
	}
	return payload
}

func buildShippingQuotePayload(quote services.ShippingQuote) *shippingQuotePayload {
	return &shippingQuotePayload{
		Method:       string(quote.Method),
		Label:        quote.Label,
		Amount:       quote.Amount,
		DeliveryDays: quote.DeliveryDays,
	}
}

type checkoutViewPayload struct {
	Step            string                 `json:"step"`
	ShippingInfo    *shippingInfoPayload   `json:"shippingInfo,omitempty"`
	ShippingMethod  string                 `json:"shippingMethod,omitempty"`
	CouponCode      string                 `json:"couponCode,omitempty"`
	Pricing         pricingPayload         `json:"pricing"`
	FormattedTotal  string                 `json:"formattedTotal"`
	ShippingOptions []shippingQuotePayload `json:"shippingOptions,omitempty"`
}

type checkoutResponse struct {
	Checkout checkoutViewPayload `json:"checkout"`
}

func buildCheckoutViewPayload(view services.CheckoutView, options []services.ShippingQuote) checkoutViewPayload {
	payload := checkoutViewPayload{
		Step:           string(view.State.Step),
		ShippingMethod: string(view.State.ShippingMethod),
		CouponCode:     view.State.CouponCode,
		Pricing:        buildPricingPayload(view.Pricing),
		FormattedTotal: view.FormattedTotal,
	}
	if view.State.ShippingInfo != nil {
		info := buildShippingInfoPayload(*view.State.ShippingInfo)
		payload.ShippingInfo = &info
	}
	for _, quote := range options {
		payload.ShippingOptions = append(payload.ShippingOptions, *buildShippingQuotePayload(quote))
	}
	return payload
}

type orderLinePayload struct {
	ProductID            string `json:"productId"`
	Name                 string `json:"name"`
	UnitPrice            int64  `json:"unitPrice"`
	Quantity             int    `json:"quantity"`
	Total                int64  `json:"total"`
	RequiresPrescription bool   `json:"requiresPrescription"`
	PrescriptionID       string `json:"prescriptionId,omitempty"`
}

type orderPayload struct {
	ID                string              `json:"id"`
	OrderNumber       string              `json:"orderNumber"`
	TrackingNumber    string              `json:"trackingNumber,omitempty"`
	TrackingURL       string              `json:"trackingUrl,omitempty"`
	Carrier           string              `json:"carrier,omitempty"`
	Status            string              `json:"status"`
	Currency          string              `json:"currency"`
	Totals            estimatePayload     `json:"totals"`
	FormattedTotal    string              `json:"formattedTotal,omitempty"`
	Items             []orderLinePayload  `json:"items"`
	ShippingInfo      shippingInfoPayload `json:"shippingInfo"`
	ShippingMethod    string              `json:"shippingMethod"`
	PaymentMethod     string              `json:"paymentMethod"`
	PaymentLabel      string              `json:"paymentLabel"`
	CouponCode        string              `json:"couponCode,omitempty"`
	OrderDate         string              `json:"orderDate"`
	EstimatedDelivery string              `json:"estimatedDelivery"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

func buildOrderPayload(order services.Order, formattedTotal string) orderPayload {
	payload := orderPayload{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		TrackingNumber: order.TrackingNumber,
		TrackingURL:    order.TrackingURL,
		Carrier:        order.Carrier,
		Status:         string(order.Status),
		Currency:       order.Currency,
		Totals: estimatePayload{
			Subtotal: order.Totals.Subtotal,
			Discount: order.Totals.Discount,
			Shipping: order.Totals.Shipping,
			Total:    order.Totals.Total,
		},
		FormattedTotal:    formattedTotal,
		Items:             make([]orderLinePayload, 0, len(order.Items)),
		ShippingInfo:      buildShippingInfoPayload(order.ShippingInfo),
		ShippingMethod:    string(order.ShippingMethod),
		PaymentMethod:     string(order.PaymentMethod),
		PaymentLabel:      order.PaymentLabel,
		CouponCode:        order.CouponCode,
		OrderDate:         formatTime(order.OrderDate),
		EstimatedDelivery: formatTime(order.EstimatedDelivery),
	}
	for _, line := range order.Items {
		entry := orderLinePayload{
			ProductID:            line.ProductID,
			Name:                 line.Name,
			UnitPrice:            line.UnitPrice,
			Quantity:             line.Quantity,
			Total:                line.Total,
			RequiresPrescription: line.RequiresPrescription,
		}
		if line.PrescriptionID != nil {
			entry.PrescriptionID = *line.PrescriptionID
		}
		payload.Items = append(payload.Items, entry)
	}
	return payload
}
