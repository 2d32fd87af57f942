package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/sante-plus/api/internal/domain"
	"github.com/sante-plus/api/internal/platform/httpx"
	"github.com/sante-plus/api/internal/services"
)

// OrderHandlers serves the confirmation page data.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs the order handler set.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes wires the /orders endpoints onto the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/latest", h.latestOrder)
}

func (h *OrderHandlers) latestOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	order, err := h.orders.LatestOrder(ctx, userID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	formatted := domain.FormatAmount(order.Totals.Total, order.Currency)
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order, formatted)})
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "no order has been placed yet", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "order request failed", http.StatusInternalServerError))
	}
}
