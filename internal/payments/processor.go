// Package payments contains the per-method payment processors and the manager
// that routes authorization attempts to them. Settlements happen out of band;
// a processor only validates the instrument and decides the initial order
// status.
package payments

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/sante-plus/api/internal/domain"
)

var (
	// ErrUnsupportedMethod is returned when no processor handles the requested method.
	ErrUnsupportedMethod = errors.New("payments: unsupported payment method")
	// ErrInvalidDetails is returned when the submitted instrument fails validation.
	ErrInvalidDetails = errors.New("payments: invalid payment details")
	// ErrCancelled is returned when the customer abandons a confirmation step.
	ErrCancelled = errors.New("payments: authorization cancelled")
)

// Details carries the method-specific fields submitted at the payment step.
// Only the fields relevant to the chosen method are read.
type Details struct {
	CardNumber string
	CardHolder string
	CardExpiry string
	CardCVV    string

	MobileNumber string

	InsuranceMemberID string
	PayPalEmail       string
}

// Request describes a single authorization attempt.
type Request struct {
	UserID   string
	Amount   int64
	Currency string
	Details  Details
}

// Authorization is the outcome of a successful authorization attempt.
type Authorization struct {
	Method domain.PaymentMethod
	// Status is the initial order status implied by the method: bank
	// transfers settle later, cash on delivery is confirmed immediately,
	// everything else starts processing.
	Status    domain.OrderStatus
	Reference string
}

// Processor authorizes payments for exactly one method.
type Processor interface {
	Method() domain.PaymentMethod
	Authorize(ctx context.Context, req Request) (Authorization, error)
}

// Manager routes authorization attempts to the processor registered for the
// requested method.
type Manager struct {
	processors map[domain.PaymentMethod]Processor
}

// NewManager constructs a Manager over the supplied processors.
func NewManager(processors ...Processor) (*Manager, error) {
	if len(processors) == 0 {
		return nil, errors.New("payments: at least one processor is required")
	}
	registered := make(map[domain.PaymentMethod]Processor, len(processors))
	for _, proc := range processors {
		if proc == nil {
			return nil, errors.New("payments: nil processor registration")
		}
		method := proc.Method()
		if !domain.KnownPaymentMethod(method) {
			return nil, fmt.Errorf("payments: unknown method %q", method)
		}
		if _, exists := registered[method]; exists {
			return nil, fmt.Errorf("payments: duplicate processor for method %q", method)
		}
		registered[method] = proc
	}
	return &Manager{processors: registered}, nil
}

// Supports reports whether a processor is registered for the method.
func (m *Manager) Supports(method domain.PaymentMethod) bool {
	if m == nil {
		return false
	}
	_, ok := m.processors[method]
	return ok
}

// Authorize validates the request against the processor for the method.
func (m *Manager) Authorize(ctx context.Context, method domain.PaymentMethod, req Request) (Authorization, error) {
	if m == nil || len(m.processors) == 0 {
		return Authorization{}, errors.New("payments: manager is not initialised")
	}
	proc, ok := m.processors[method]
	if !ok {
		return Authorization{}, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
	if req.Amount <= 0 {
		return Authorization{}, fmt.Errorf("%w: amount must be positive", ErrInvalidDetails)
	}
	auth, err := proc.Authorize(ctx, req)
	if err != nil {
		return Authorization{}, err
	}
	auth.Method = method
	return auth, nil
}
