package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sante-plus/api/internal/repositories"
)

// ErrSequenceUnavailable indicates the counter backend cannot hand out a value.
var ErrSequenceUnavailable = errors.New("sequence service: unavailable")

var errSequenceRepositoryRequired = errors.New("sequence service: repository is required")

const orderNumberPrefix = "CMD"

// OrderNumberSource hands out customer-facing order numbers.
type OrderNumberSource interface {
	NextOrderNumber(ctx context.Context) (string, error)
}

// SequenceServiceDeps wires the counter backing order number generation.
type SequenceServiceDeps struct {
	Repository repositories.CounterRepository
	Clock      func() time.Time
}

type sequenceService struct {
	repo repositories.CounterRepository
	now  func() time.Time
}

// NewSequenceService constructs the order number generator. Numbers follow
// the CMD-YYYYMMDD-NNNN pattern with a sequence that restarts daily.
func NewSequenceService(deps SequenceServiceDeps) (OrderNumberSource, error) {
	if deps.Repository == nil {
		return nil, errSequenceRepositoryRequired
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &sequenceService{
		repo: deps.Repository,
		now:  func() time.Time { return clock().UTC() },
	}, nil
}

// NextOrderNumber returns the next order number for today.
func (s *sequenceService) NextOrderNumber(ctx context.Context) (string, error) {
	day := s.now().Format("20060102")
	value, err := s.repo.Next(ctx, "orders:"+day)
	if err != nil {
		return "", ErrSequenceUnavailable
	}
	return fmt.Sprintf("%s-%s-%04d", orderNumberPrefix, day, value), nil
}
