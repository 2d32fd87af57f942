// Package firestore persists checkout state in Cloud Firestore, one document
// per user in each collection.
package firestore

import (
	"strings"
	"time"

	domain "github.com/sante-plus/api/internal/domain"
)

const (
	cartCollection  = "carts"
	stateCollection = "checkoutStates"
	orderCollection = "latestOrders"
)

type cartDocument struct {
	Currency  string             `firestore:"currency"`
	Items     []cartItemDocument `firestore:"items"`
	CreatedAt time.Time          `firestore:"createdAt"`
	UpdatedAt time.Time          `firestore:"updatedAt"`
}

type cartItemDocument struct {
	ID                   string     `firestore:"id"`
	ProductID            string     `firestore:"productId"`
	Name                 string     `firestore:"name"`
	UnitPrice            int64      `firestore:"unitPrice"`
	Quantity             int        `firestore:"quantity"`
	RequiresPrescription bool       `firestore:"requiresPrescription"`
	PrescriptionID       string     `firestore:"prescriptionId,omitempty"`
	AddedAt              time.Time  `firestore:"addedAt"`
	UpdatedAt            *time.Time `firestore:"updatedAt,omitempty"`
}

type checkoutStateDocument struct {
	Step           string                `firestore:"step"`
	ShippingInfo   *shippingInfoDocument `firestore:"shippingInfo,omitempty"`
	ShippingMethod string                `firestore:"shippingMethod,omitempty"`
	CouponCode     string                `firestore:"couponCode,omitempty"`
	CreatedAt      time.Time             `firestore:"createdAt"`
	UpdatedAt      time.Time             `firestore:"updatedAt"`
}

type shippingInfoDocument struct {
	FullName      string `firestore:"fullName"`
	StreetAddress string `firestore:"streetAddress"`
	City          string `firestore:"city"`
	PostalCode    string `firestore:"postalCode"`
	Country       string `firestore:"country"`
	Phone         string `firestore:"phone"`
}

type orderDocument struct {
	ID                string              `firestore:"id"`
	OrderNumber       string              `firestore:"orderNumber"`
	TrackingNumber    string              `firestore:"trackingNumber"`
	TrackingURL       string              `firestore:"trackingUrl"`
	Carrier           string              `firestore:"carrier"`
	Status            string              `firestore:"status"`
	Currency          string              `firestore:"currency"`
	Subtotal          int64               `firestore:"subtotal"`
	Discount          int64               `firestore:"discount"`
	Shipping          int64               `firestore:"shipping"`
	Total             int64               `firestore:"total"`
	Items             []orderItemDocument `firestore:"items"`
	ShippingInfo      shippingInfoDocument `firestore:"shippingInfo"`
	ShippingMethod    string              `firestore:"shippingMethod"`
	PaymentMethod     string              `firestore:"paymentMethod"`
	PaymentLabel      string              `firestore:"paymentLabel"`
	CouponCode        string              `firestore:"couponCode,omitempty"`
	OrderDate         time.Time           `firestore:"orderDate"`
	EstimatedDelivery time.Time           `firestore:"estimatedDelivery"`
	CreatedAt         time.Time           `firestore:"createdAt"`
}

type orderItemDocument struct {
	ProductID            string `firestore:"productId"`
	Name                 string `firestore:"name"`
	UnitPrice            int64  `firestore:"unitPrice"`
	Quantity             int    `firestore:"quantity"`
	Total                int64  `firestore:"total"`
	RequiresPrescription bool   `firestore:"requiresPrescription"`
	PrescriptionID       string `firestore:"prescriptionId,omitempty"`
}

func encodeCart(cart domain.Cart) cartDocument {
	doc := cartDocument{
		Currency:  strings.ToUpper(strings.TrimSpace(cart.Currency)),
		Items:     make([]cartItemDocument, 0, len(cart.Items)),
		CreatedAt: cart.CreatedAt.UTC(),
		UpdatedAt: cart.UpdatedAt.UTC(),
	}
	for _, item := range cart.Items {
		entry := cartItemDocument{
			ID:                   item.ID,
			ProductID:            item.ProductID,
			Name:                 item.Name,
			UnitPrice:            item.UnitPrice,
			Quantity:             item.Quantity,
			RequiresPrescription: item.RequiresPrescription,
			AddedAt:              item.AddedAt.UTC(),
		}
		if item.PrescriptionID != nil {
			entry.PrescriptionID = strings.TrimSpace(*item.PrescriptionID)
		}
		if item.UpdatedAt != nil {
			ts := item.UpdatedAt.UTC()
			entry.UpdatedAt = &ts
		}
		doc.Items = append(doc.Items, entry)
	}
	return doc
}

func decodeCart(userID string, doc cartDocument) domain.Cart {
	cart := domain.Cart{
		ID:        userID,
		UserID:    userID,
		Currency:  strings.ToUpper(strings.TrimSpace(doc.Currency)),
		Items:     make([]domain.CartItem, 0, len(doc.Items)),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, entry := range doc.Items {
		item := domain.CartItem{
			ID:                   entry.ID,
			ProductID:            entry.ProductID,
			Name:                 entry.Name,
			UnitPrice:            entry.UnitPrice,
			Quantity:             entry.Quantity,
			RequiresPrescription: entry.RequiresPrescription,
			AddedAt:              entry.AddedAt,
			UpdatedAt:            entry.UpdatedAt,
		}
		if trimmed := strings.TrimSpace(entry.PrescriptionID); trimmed != "" {
			item.PrescriptionID = &trimmed
		}
		cart.Items = append(cart.Items, item)
	}
	return cart
}

func encodeState(state domain.CheckoutState) checkoutStateDocument {
	doc := checkoutStateDocument{
		Step:           string(state.Step),
		ShippingMethod: string(state.ShippingMethod),
		CouponCode:     strings.TrimSpace(state.CouponCode),
		CreatedAt:      state.CreatedAt.UTC(),
		UpdatedAt:      state.UpdatedAt.UTC(),
	}
	if state.ShippingInfo != nil {
		info := encodeShippingInfo(*state.ShippingInfo)
		doc.ShippingInfo = &info
	}
	return doc
}

func decodeState(userID string, doc checkoutStateDocument) domain.CheckoutState {
	state := domain.CheckoutState{
		UserID:         userID,
		Step:           domain.CheckoutStep(doc.Step),
		ShippingMethod: domain.ShippingMethod(doc.ShippingMethod),
		CouponCode:     doc.CouponCode,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
	if doc.ShippingInfo != nil {
		info := decodeShippingInfo(*doc.ShippingInfo)
		state.ShippingInfo = &info
	}
	return state
}

func encodeShippingInfo(info domain.ShippingInfo) shippingInfoDocument {
	return shippingInfoDocument{
		FullName:      info.FullName,
		StreetAddress: info.StreetAddress,
		City:          info.City,
		PostalCode:    info.PostalCode,
		Country:       info.Country,
		Phone:         info.Phone,
	}
}

func decodeShippingInfo(doc shippingInfoDocument) domain.ShippingInfo {
	return domain.ShippingInfo{
		FullName:      doc.FullName,
		StreetAddress: doc.StreetAddress,
		City:          doc.City,
		PostalCode:    doc.PostalCode,
		Country:       doc.Country,
		Phone:         doc.Phone,
	}
}

func encodeOrder(order domain.Order) orderDocument {
	doc := orderDocument{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		TrackingNumber:    order.TrackingNumber,
		TrackingURL:       order.TrackingURL,
		Carrier:           order.Carrier,
		Status:            string(order.Status),
		Currency:          order.Currency,
		Subtotal:          order.Totals.Subtotal,
		Discount:          order.Totals.Discount,
		Shipping:          order.Totals.Shipping,
		Total:             order.Totals.Total,
		Items:             make([]orderItemDocument, 0, len(order.Items)),
		ShippingInfo:      encodeShippingInfo(order.ShippingInfo),
		ShippingMethod:    string(order.ShippingMethod),
		PaymentMethod:     string(order.PaymentMethod),
		PaymentLabel:      order.PaymentLabel,
		CouponCode:        order.CouponCode,
		OrderDate:         order.OrderDate.UTC(),
		EstimatedDelivery: order.EstimatedDelivery.UTC(),
		CreatedAt:         order.CreatedAt.UTC(),
	}
	for _, item := range order.Items {
		entry := orderItemDocument{
			ProductID:            item.ProductID,
			Name:                 item.Name,
			UnitPrice:            item.UnitPrice,
			Quantity:             item.Quantity,
			Total:                item.Total,
			RequiresPrescription: item.RequiresPrescription,
		}
		if item.PrescriptionID != nil {
			entry.PrescriptionID = strings.TrimSpace(*item.PrescriptionID)
		}
		doc.Items = append(doc.Items, entry)
	}
	return doc
}

func decodeOrder(userID string, doc orderDocument) domain.Order {
	order := domain.Order{
		ID:                doc.ID,
		OrderNumber:       doc.OrderNumber,
		TrackingNumber:    doc.TrackingNumber,
		TrackingURL:       doc.TrackingURL,
		Carrier:           doc.Carrier,
		UserID:            userID,
		Status:            domain.OrderStatus(doc.Status),
		Currency:          doc.Currency,
		Totals: domain.OrderTotals{
			Subtotal: doc.Subtotal,
			Discount: doc.Discount,
			Shipping: doc.Shipping,
			Total:    doc.Total,
		},
		Items:             make([]domain.OrderLineItem, 0, len(doc.Items)),
		ShippingInfo:      decodeShippingInfo(doc.ShippingInfo),
		ShippingMethod:    domain.ShippingMethod(doc.ShippingMethod),
		PaymentMethod:     domain.PaymentMethod(doc.PaymentMethod),
		PaymentLabel:      doc.PaymentLabel,
		CouponCode:        doc.CouponCode,
		OrderDate:         doc.OrderDate,
		EstimatedDelivery: doc.EstimatedDelivery,
		CreatedAt:         doc.CreatedAt,
	}
	for _, entry := range doc.Items {
		item := domain.OrderLineItem{
			ProductID:            entry.ProductID,
			Name:                 entry.Name,
			UnitPrice:            entry.UnitPrice,
			Quantity:             entry.Quantity,
			Total:                entry.Total,
			RequiresPrescription: entry.RequiresPrescription,
		}
		if trimmed := strings.TrimSpace(entry.PrescriptionID); trimmed != "" {
			item.PrescriptionID = &trimmed
		}
		order.Items = append(order.Items, item)
	}
	return order
}
