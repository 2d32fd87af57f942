package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/sante-plus/api/internal/domain"
	"github.com/sante-plus/api/internal/payments"
	"github.com/sante-plus/api/internal/platform/httpx"
	"github.com/sante-plus/api/internal/services"
)

// CheckoutHandlers drives the step controller and the payment endpoint.
type CheckoutHandlers struct {
	checkout services.CheckoutService
	pricing  services.PricingService
	payments services.PaymentService

	// paymentMiddleware guards POST /payment, typically with the
	// idempotency-key middleware.
	paymentMiddleware func(http.Handler) http.Handler
}

// CheckoutOption customises the checkout handler set.
type CheckoutOption func(*CheckoutHandlers)

// WithPaymentMiddleware wraps the payment endpoint with the given middleware.
func WithPaymentMiddleware(mw func(http.Handler) http.Handler) CheckoutOption {
	return func(h *CheckoutHandlers) {
		h.paymentMiddleware = mw
	}
}

// NewCheckoutHandlers constructs the checkout handler set.
func NewCheckoutHandlers(checkout services.CheckoutService, pricing services.PricingService, payment services.PaymentService, opts ...CheckoutOption) *CheckoutHandlers {
	h := &CheckoutHandlers{
		checkout: checkout,
		pricing:  pricing,
		payments: payment,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes wires the /checkout endpoints onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getState)
	r.Post("/", h.begin)
	r.Post("/back", h.stepBack)
	r.Put("/shipping", h.submitShipping)
	r.Put("/coupon", h.applyCoupon)
	r.Delete("/coupon", h.removeCoupon)
	if h.paymentMiddleware != nil {
		r.With(h.paymentMiddleware).Post("/payment", h.processPayment)
	} else {
		r.Post("/payment", h.processPayment)
	}
}

func (h *CheckoutHandlers) getState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	view, err := h.checkout.GetState(ctx, userID)
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	h.writeView(w, http.StatusOK, view)
}

func (h *CheckoutHandlers) begin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	view, err := h.checkout.BeginCheckout(ctx, userID)
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	h.writeView(w, http.StatusOK, view)
}

func (h *CheckoutHandlers) stepBack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	view, err := h.checkout.StepBack(ctx, userID)
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	h.writeView(w, http.StatusOK, view)
}

type submitShippingRequest struct {
	ShippingInfo shippingInfoPayload `json:"shippingInfo"`
	Method       string              `json:"method"`
}

func (h *CheckoutHandlers) submitShipping(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req submitShippingRequest
	if !decodeJSONBody(r, w, &req) {
		return
	}

	view, err := h.checkout.SubmitShipping(ctx, services.SubmitShippingCommand{
		UserID: userID,
		Info: domain.ShippingInfo{
			FullName:      req.ShippingInfo.FullName,
			StreetAddress: req.ShippingInfo.StreetAddress,
			City:          req.ShippingInfo.City,
			PostalCode:    req.ShippingInfo.PostalCode,
			Country:       req.ShippingInfo.Country,
			Phone:         req.ShippingInfo.Phone,
		},
		Method: domain.ShippingMethod(strings.TrimSpace(req.Method)),
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	h.writeView(w, http.StatusOK, view)
}

type couponRequest struct {
	Code string `json:"code"`
}

func (h *CheckoutHandlers) applyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req couponRequest
	if !decodeJSONBody(r, w, &req) {
		return
	}

	view, err := h.checkout.ApplyCoupon(ctx, userID, req.Code)
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	h.writeView(w, http.StatusOK, view)
}

func (h *CheckoutHandlers) removeCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	view, err := h.checkout.RemoveCoupon(ctx, userID)
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	h.writeView(w, http.StatusOK, view)
}

type processPaymentRequest struct {
	Method  string `json:"method"`
	Details struct {
		CardNumber        string `json:"cardNumber"`
		CardHolder        string `json:"cardHolder"`
		CardExpiry        string `json:"cardExpiry"`
		CardCVV           string `json:"cardCvv"`
		MobileNumber      string `json:"mobileNumber"`
		InsuranceMemberID string `json:"insuranceMemberId"`
		PayPalEmail       string `json:"paypalEmail"`
	} `json:"details"`
}

func (h *CheckoutHandlers) processPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req processPaymentRequest
	if !decodeJSONBody(r, w, &req) {
		return
	}

	receipt, err := h.payments.ProcessPayment(ctx, services.ProcessPaymentCommand{
		UserID: userID,
		Method: domain.PaymentMethod(strings.TrimSpace(req.Method)),
		Details: payments.Details{
			CardNumber:        req.Details.CardNumber,
			CardHolder:        req.Details.CardHolder,
			CardExpiry:        req.Details.CardExpiry,
			CardCVV:           req.Details.CardCVV,
			MobileNumber:      req.Details.MobileNumber,
			InsuranceMemberID: req.Details.InsuranceMemberID,
			PayPalEmail:       req.Details.PayPalEmail,
		},
	})
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, orderResponse{
		Order: buildOrderPayload(receipt.Order, receipt.FormattedTotal),
	})
}

// writeView attaches the shipping options so clients can render the shipping
// step without a second round trip.
func (h *CheckoutHandlers) writeView(w http.ResponseWriter, status int, view services.CheckoutView) {
	var options []services.ShippingQuote
	if h.pricing != nil && view.State.Step == domain.StepShipping {
		options = h.pricing.ShippingQuotes()
	}
	writeJSONResponse(w, status, checkoutResponse{Checkout: buildCheckoutViewPayload(view, options)})
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	var validation *services.ShippingValidationError
	switch {
	case errors.As(err, &validation):
		httpx.WriteError(ctx, w, httpx.
			NewError("incomplete_shipping_info", "shipping information is incomplete", http.StatusUnprocessableEntity).
			WithDetails(map[string]any{"missing": validation.Missing}))
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("empty_cart", "cannot begin checkout with an empty cart", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrCheckoutInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_step_transition", "requested step change is not allowed", http.StatusConflict))
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "checkout request failed", http.StatusInternalServerError))
	}
}

func writePaymentError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPaymentDeclined):
		httpx.WriteError(ctx, w, httpx.NewError("payment_declined", "payment was declined or cancelled", http.StatusPaymentRequired))
	case errors.Is(err, services.ErrPaymentWrongStep):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_step_transition", "checkout is not at the payment step", http.StatusConflict))
	case errors.Is(err, services.ErrPaymentEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("empty_cart", "cart is empty", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrPaymentInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrPaymentUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("payment_service_unavailable", "payment service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("payment_error", "payment request failed", http.StatusInternalServerError))
	}
}
