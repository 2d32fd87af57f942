package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sante-plus/api/internal/repositories"
)

var errOrderRepositoryRequired = errors.New("order service: repository is required")

// ErrOrderInvalidInput indicates the caller supplied invalid input.
var ErrOrderInvalidInput = errors.New("order service: invalid input")

// ErrOrderNotFound indicates the user has not placed an order yet.
var ErrOrderNotFound = errors.New("order service: not found")

// ErrOrderUnavailable indicates the order backend cannot fulfil the request.
var ErrOrderUnavailable = errors.New("order service: unavailable")

// OrderServiceDeps wires the order lookup dependencies.
type OrderServiceDeps struct {
	Repository repositories.OrderRepository
	Logger     func(context.Context, string, map[string]any)
}

type orderService struct {
	repo   repositories.OrderRepository
	logger func(context.Context, string, map[string]any)
}

// NewOrderService constructs an OrderService enforcing dependency validation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Repository == nil {
		return nil, errOrderRepositoryRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &orderService{repo: deps.Repository, logger: logger}, nil
}

// LatestOrder returns the most recent order placed by the user.
func (s *orderService) LatestOrder(ctx context.Context, userID string) (Order, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return Order{}, ErrOrderInvalidInput
	}
	order, err := s.repo.GetLatestOrder(ctx, uid)
	if err != nil {
		if isRepoNotFound(err) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, ErrOrderUnavailable
	}
	return order, nil
}
