package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	domain "github.com/sante-plus/api/internal/domain"
	"github.com/sante-plus/api/internal/platform/identity"
	"github.com/sante-plus/api/internal/services"
)

func newCheckoutTestServer(t *testing.T, checkout services.CheckoutService, pricing services.PricingService, payment services.PaymentService, opts ...CheckoutOption) *httptest.Server {
	t.Helper()
	router := NewRouter(
		WithIdentityMiddleware(identity.Middleware()),
		WithCheckoutRoutes(NewCheckoutHandlers(checkout, pricing, payment, opts...).Routes),
	)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func shippingView(step domain.CheckoutStep) services.CheckoutView {
	return services.CheckoutView{
		State: domain.CheckoutState{
			UserID: "user-1",
			Step:   step,
		},
		Pricing:        domain.PricingBreakdown{Currency: "XOF", Subtotal: 10000, Total: 10000},
		FormattedTotal: "10 000 F CFA",
	}
}

func TestGetCheckoutState(t *testing.T) {
	checkout := &stubCheckoutService{
		getFunc: func(_ context.Context, userID string) (services.CheckoutView, error) {
			return shippingView(domain.StepCart), nil
		},
	}
	server := newCheckoutTestServer(t, checkout, nil, nil)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/v1/checkout", "user-1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload checkoutResponse
	decodeBody(t, resp, &payload)
	if payload.Checkout.Step != "cart" {
		t.Fatalf("expected cart step, got %q", payload.Checkout.Step)
	}
	if payload.Checkout.Pricing.Total != 10000 {
		t.Fatalf("expected total 10000, got %d", payload.Checkout.Pricing.Total)
	}
}

func TestBeginCheckoutEmptyCartMapsTo422(t *testing.T) {
	checkout := &stubCheckoutService{
		beginFunc: func(context.Context, string) (services.CheckoutView, error) {
			return services.CheckoutView{}, services.ErrCheckoutEmptyCart
		},
	}
	server := newCheckoutTestServer(t, checkout, nil, nil)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/checkout", "user-1", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestShippingStepIncludesOptions(t *testing.T) {
	checkout := &stubCheckoutService{
		beginFunc: func(context.Context, string) (services.CheckoutView, error) {
			return shippingView(domain.StepShipping), nil
		},
	}
	pricing := &stubPricingService{
		quotesFunc: func() []services.ShippingQuote {
			return []services.ShippingQuote{
				{Method: domain.ShippingStandard, Label: "Livraison standard", Amount: 3999, DeliveryDays: 5},
				{Method: domain.ShippingPickup, Label: "Retrait en pharmacie", Amount: 4999, DeliveryDays: 1},
				{Method: domain.ShippingExpress, Label: "Livraison express", Amount: 7999, DeliveryDays: 2},
			}
		},
	}
	server := newCheckoutTestServer(t, checkout, pricing, nil)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/checkout", "user-1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload checkoutResponse
	decodeBody(t, resp, &payload)
	if len(payload.Checkout.ShippingOptions) != 3 {
		t.Fatalf("expected 3 shipping options, got %d", len(payload.Checkout.ShippingOptions))
	}
	if payload.Checkout.ShippingOptions[0].Amount != 3999 {
		t.Fatalf("expected standard first, got %+v", payload.Checkout.ShippingOptions[0])
	}
}

func TestSubmitShippingDecodesRequest(t *testing.T) {
	var captured services.SubmitShippingCommand
	checkout := &stubCheckoutService{
		shippingFunc: func(_ context.Context, cmd services.SubmitShippingCommand) (services.CheckoutView, error) {
			captured = cmd
			return shippingView(domain.StepPayment), nil
		},
	}
	server := newCheckoutTestServer(t, checkout, nil, nil)

	body := `{"shippingInfo":{"fullName":"Awa Ndiaye","streetAddress":"12 avenue Bourguiba","city":"Dakar","postalCode":"11000","country":"Sénégal","phone":"+221771234567"},"method":"express"}`
	resp := doJSON(t, http.MethodPut, server.URL+"/api/v1/checkout/shipping", "user-1", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if captured.Method != domain.ShippingExpress {
		t.Fatalf("expected express method, got %q", captured.Method)
	}
	if captured.Info.City != "Dakar" {
		t.Fatalf("unexpected info %+v", captured.Info)
	}
}

func TestSubmitShippingValidationErrorListsMissingFields(t *testing.T) {
	checkout := &stubCheckoutService{
		shippingFunc: func(context.Context, services.SubmitShippingCommand) (services.CheckoutView, error) {
			return services.CheckoutView{}, &services.ShippingValidationError{Missing: []string{"city", "phone"}}
		},
	}
	server := newCheckoutTestServer(t, checkout, nil, nil)

	resp := doJSON(t, http.MethodPut, server.URL+"/api/v1/checkout/shipping", "user-1", `{"shippingInfo":{},"method":"standard"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	missing, ok := payload["missing"].([]any)
	if !ok || len(missing) != 2 {
		t.Fatalf("expected missing field list, got %v", payload["missing"])
	}
}

func TestStepBackConflict(t *testing.T) {
	checkout := &stubCheckoutService{
		backFunc: func(context.Context, string) (services.CheckoutView, error) {
			return services.CheckoutView{}, services.ErrCheckoutInvalidTransition
		},
	}
	server := newCheckoutTestServer(t, checkout, nil, nil)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/checkout/back", "user-1", "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestCouponRoundTrip(t *testing.T) {
	var applied string
	checkout := &stubCheckoutService{
		applyFunc: func(_ context.Context, _ string, code string) (services.CheckoutView, error) {
			applied = code
			return shippingView(domain.StepCart), nil
		},
		removeCouponFunc: func(context.Context, string) (services.CheckoutView, error) {
			return shippingView(domain.StepCart), nil
		},
	}
	server := newCheckoutTestServer(t, checkout, nil, nil)

	resp := doJSON(t, http.MethodPut, server.URL+"/api/v1/checkout/coupon", "user-1", `{"code":"SANTE10"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 applying coupon, got %d", resp.StatusCode)
	}
	if applied != "SANTE10" {
		t.Fatalf("expected code forwarded, got %q", applied)
	}

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/v1/checkout/coupon", "user-1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 removing coupon, got %d", resp.StatusCode)
	}
}

func TestProcessPaymentReturnsOrder(t *testing.T) {
	var captured services.ProcessPaymentCommand
	payment := &stubPaymentService{
		processFunc: func(_ context.Context, cmd services.ProcessPaymentCommand) (services.PaymentReceipt, error) {
			captured = cmd
			return services.PaymentReceipt{
				Order: domain.Order{
					ID:          "order-1",
					OrderNumber: "CMD-20260315-0007",
					UserID:      cmd.UserID,
					Status:      domain.OrderStatusProcessing,
					Currency:    "XOF",
					Totals:      domain.OrderTotals{Subtotal: 10000, Shipping: 3999, Total: 13999},
				},
				FormattedTotal: "13 999 F CFA",
			}, nil
		},
	}
	server := newCheckoutTestServer(t, &stubCheckoutService{}, nil, payment)

	body := `{"method":"card","details":{"cardNumber":"4242 4242 4242 4242","cardHolder":"Awa Ndiaye","cardExpiry":"04/27","cardCvv":"321"}}`
	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/checkout/payment", "user-1", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if captured.Method != domain.PaymentCard {
		t.Fatalf("expected card method, got %q", captured.Method)
	}
	if captured.Details.CardHolder != "Awa Ndiaye" {
		t.Fatalf("unexpected details %+v", captured.Details)
	}

	var payload orderResponse
	decodeBody(t, resp, &payload)
	if payload.Order.OrderNumber != "CMD-20260315-0007" {
		t.Fatalf("unexpected order number %q", payload.Order.OrderNumber)
	}
	if payload.Order.Totals.Total != 13999 {
		t.Fatalf("expected total 13999, got %d", payload.Order.Totals.Total)
	}
}

func TestProcessPaymentDeclineMapsTo402(t *testing.T) {
	payment := &stubPaymentService{
		processFunc: func(context.Context, services.ProcessPaymentCommand) (services.PaymentReceipt, error) {
			return services.PaymentReceipt{}, services.ErrPaymentDeclined
		},
	}
	server := newCheckoutTestServer(t, &stubCheckoutService{}, nil, payment)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/checkout/payment", "user-1", `{"method":"card","details":{}}`)
	if resp.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", resp.StatusCode)
	}
}

func TestProcessPaymentWrongStepMapsTo409(t *testing.T) {
	payment := &stubPaymentService{
		processFunc: func(context.Context, services.ProcessPaymentCommand) (services.PaymentReceipt, error) {
			return services.PaymentReceipt{}, services.ErrPaymentWrongStep
		},
	}
	server := newCheckoutTestServer(t, &stubCheckoutService{}, nil, payment)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/checkout/payment", "user-1", `{"method":"cod","details":{}}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestPaymentMiddlewareWrapsPaymentRoute(t *testing.T) {
	middlewareHits := 0
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			middlewareHits++
			next.ServeHTTP(w, r)
		})
	}
	payment := &stubPaymentService{
		processFunc: func(context.Context, services.ProcessPaymentCommand) (services.PaymentReceipt, error) {
			return services.PaymentReceipt{Order: domain.Order{ID: "order-1"}}, nil
		},
	}
	checkout := &stubCheckoutService{
		getFunc: func(context.Context, string) (services.CheckoutView, error) {
			return shippingView(domain.StepCart), nil
		},
	}
	server := newCheckoutTestServer(t, checkout, nil, payment, WithPaymentMiddleware(mw))

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/checkout/payment", "user-1", `{"method":"cod","details":{}}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if middlewareHits != 1 {
		t.Fatalf("expected payment middleware hit once, got %d", middlewareHits)
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/api/v1/checkout", "user-1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if middlewareHits != 1 {
		t.Fatal("expected payment middleware to guard only the payment route")
	}
}

type stubCheckoutService struct {
	getFunc          func(ctx context.Context, userID string) (services.CheckoutView, error)
	beginFunc        func(ctx context.Context, userID string) (services.CheckoutView, error)
	backFunc         func(ctx context.Context, userID string) (services.CheckoutView, error)
	shippingFunc     func(ctx context.Context, cmd services.SubmitShippingCommand) (services.CheckoutView, error)
	applyFunc        func(ctx context.Context, userID, code string) (services.CheckoutView, error)
	removeCouponFunc func(ctx context.Context, userID string) (services.CheckoutView, error)
}

func (s *stubCheckoutService) GetState(ctx context.Context, userID string) (services.CheckoutView, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, userID)
	}
	return services.CheckoutView{}, errors.New("not implemented")
}

func (s *stubCheckoutService) BeginCheckout(ctx context.Context, userID string) (services.CheckoutView, error) {
	if s.beginFunc != nil {
		return s.beginFunc(ctx, userID)
	}
	return services.CheckoutView{}, errors.New("not implemented")
}

func (s *stubCheckoutService) StepBack(ctx context.Context, userID string) (services.CheckoutView, error) {
	if s.backFunc != nil {
		return s.backFunc(ctx, userID)
	}
	return services.CheckoutView{}, errors.New("not implemented")
}

func (s *stubCheckoutService) SubmitShipping(ctx context.Context, cmd services.SubmitShippingCommand) (services.CheckoutView, error) {
	if s.shippingFunc != nil {
		return s.shippingFunc(ctx, cmd)
	}
	return services.CheckoutView{}, errors.New("not implemented")
}

func (s *stubCheckoutService) ApplyCoupon(ctx context.Context, userID, code string) (services.CheckoutView, error) {
	if s.applyFunc != nil {
		return s.applyFunc(ctx, userID, code)
	}
	return services.CheckoutView{}, errors.New("not implemented")
}

func (s *stubCheckoutService) RemoveCoupon(ctx context.Context, userID string) (services.CheckoutView, error) {
	if s.removeCouponFunc != nil {
		return s.removeCouponFunc(ctx, userID)
	}
	return services.CheckoutView{}, errors.New("not implemented")
}

type stubPricingService struct {
	calculateFunc func(ctx context.Context, cmd services.PriceCartCommand) (services.PricingBreakdown, error)
	quotesFunc    func() []services.ShippingQuote
}

func (s *stubPricingService) Calculate(ctx context.Context, cmd services.PriceCartCommand) (services.PricingBreakdown, error) {
	if s.calculateFunc != nil {
		return s.calculateFunc(ctx, cmd)
	}
	return services.PricingBreakdown{}, errors.New("not implemented")
}

func (s *stubPricingService) ShippingQuotes() []services.ShippingQuote {
	if s.quotesFunc != nil {
		return s.quotesFunc()
	}
	return nil
}

type stubPaymentService struct {
	processFunc func(ctx context.Context, cmd services.ProcessPaymentCommand) (services.PaymentReceipt, error)
}

func (s *stubPaymentService) ProcessPayment(ctx context.Context, cmd services.ProcessPaymentCommand) (services.PaymentReceipt, error) {
	if s.processFunc != nil {
		return s.processFunc(ctx, cmd)
	}
	return services.PaymentReceipt{}, errors.New("not implemented")
}
