package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "github.com/sante-plus/api/internal/domain"
	"github.com/sante-plus/api/internal/platform/identity"
	"github.com/sante-plus/api/internal/services"
)

func newOrderTestServer(t *testing.T, orders services.OrderService) *httptest.Server {
	t.Helper()
	router := NewRouter(
		WithIdentityMiddleware(identity.Middleware()),
		WithOrderRoutes(NewOrderHandlers(orders).Routes),
	)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func TestLatestOrder(t *testing.T) {
	placed := time.Date(2026, 3, 15, 16, 0, 0, 0, time.UTC)
	orders := &stubOrderService{
		latestFunc: func(_ context.Context, userID string) (services.Order, error) {
			return domain.Order{
				ID:          "order-1",
				OrderNumber: "CMD-20260315-0007",
				UserID:      userID,
				Status:      domain.OrderStatusConfirmed,
				Currency:    "XOF",
				Totals:      domain.OrderTotals{Subtotal: 10000, Shipping: 3999, Total: 13999},
				Items: []domain.OrderLineItem{
					{ProductID: "med-1", Name: "Paracétamol 500mg", UnitPrice: 2500, Quantity: 2, Total: 5000},
				},
				ShippingMethod: domain.ShippingStandard,
				PaymentMethod:  domain.PaymentCOD,
				PaymentLabel:   "Paiement à la livraison",
				OrderDate:      placed,
			}, nil
		},
	}
	server := newOrderTestServer(t, orders)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/v1/orders/latest", "user-1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload orderResponse
	decodeBody(t, resp, &payload)
	if payload.Order.OrderNumber != "CMD-20260315-0007" {
		t.Fatalf("unexpected order number %q", payload.Order.OrderNumber)
	}
	if payload.Order.Status != "confirmed" {
		t.Fatalf("expected confirmed status, got %q", payload.Order.Status)
	}
	if payload.Order.FormattedTotal == "" {
		t.Fatal("expected formatted total")
	}
	if payload.Order.PaymentLabel != "Paiement à la livraison" {
		t.Fatalf("unexpected payment label %q", payload.Order.PaymentLabel)
	}
}

func TestLatestOrderNotFound(t *testing.T) {
	orders := &stubOrderService{
		latestFunc: func(context.Context, string) (services.Order, error) {
			return services.Order{}, services.ErrOrderNotFound
		},
	}
	server := newOrderTestServer(t, orders)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/v1/orders/latest", "user-1", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

type stubOrderService struct {
	latestFunc func(ctx context.Context, userID string) (services.Order, error)
}

func (s *stubOrderService) LatestOrder(ctx context.Context, userID string) (services.Order, error) {
	if s.latestFunc != nil {
		return s.latestFunc(ctx, userID)
	}
	return services.Order{}, errors.New("not implemented")
}
