package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/sante-plus/api/internal/domain"
)

func TestOrderServiceLatestOrder(t *testing.T) {
	placed := time.Date(2026, 3, 15, 16, 0, 0, 0, time.UTC)
	repo := &stubOrderRepository{
		getFunc: func(_ context.Context, userID string) (domain.Order, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user id %q", userID)
			}
			return domain.Order{
				ID:          "order-1",
				OrderNumber: "CMD-20260315-0007",
				UserID:      "user-1",
				Status:      domain.OrderStatusProcessing,
				OrderDate:   placed,
			}, nil
		},
	}

	service, err := NewOrderService(OrderServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("unexpected error constructing order service: %v", err)
	}

	order, err := service.LatestOrder(context.Background(), " user-1 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.OrderNumber != "CMD-20260315-0007" {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}
}

func TestOrderServiceLatestOrderNotFound(t *testing.T) {
	repo := &stubOrderRepository{
		getFunc: func(context.Context, string) (domain.Order, error) {
			return domain.Order{}, &stubRepoError{notFound: true}
		},
	}

	service, err := NewOrderService(OrderServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("unexpected error constructing order service: %v", err)
	}

	if _, err := service.LatestOrder(context.Background(), "user-1"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderServiceLatestOrderRequiresUser(t *testing.T) {
	service, err := NewOrderService(OrderServiceDeps{Repository: &stubOrderRepository{}})
	if err != nil {
		t.Fatalf("unexpected error constructing order service: %v", err)
	}

	if _, err := service.LatestOrder(context.Background(), "   "); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
	}
}

type stubOrderRepository struct {
	getFunc  func(ctx context.Context, userID string) (domain.Order, error)
	saveFunc func(ctx context.Context, order domain.Order) error
}

func (s *stubOrderRepository) GetLatestOrder(ctx context.Context, userID string) (domain.Order, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, userID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepository) SaveLatestOrder(ctx context.Context, order domain.Order) error {
	if s.saveFunc != nil {
		return s.saveFunc(ctx, order)
	}
	return nil
}
