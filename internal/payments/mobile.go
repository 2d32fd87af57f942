package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "github.com/sante-plus/api/internal/domain"
)

// CodeSender dispatches the one-time confirmation code to the customer's
// mobile wallet. The code is informational: the wallet operator settles the
// payment asynchronously and the order proceeds without verifying it here.
type CodeSender interface {
	SendCode(ctx context.Context, phoneNumber string) error
}

// CodeSenderFunc adapts ordinary functions to CodeSender.
type CodeSenderFunc func(ctx context.Context, phoneNumber string) error

// SendCode invokes the wrapped function.
func (f CodeSenderFunc) SendCode(ctx context.Context, phoneNumber string) error {
	return f(ctx, phoneNumber)
}

// MobileProcessor authorizes mobile-money payments. A confirmation code is
// sent to the wallet and the processor waits a configured settlement delay
// before reporting success.
type MobileProcessor struct {
	sender CodeSender
	delay  time.Duration
	newRef func() string
	sleep  func(ctx context.Context, d time.Duration) error
}

// MobileOption customises the MobileProcessor.
type MobileOption func(*MobileProcessor)

// WithCodeSender installs the wallet code dispatch port.
func WithCodeSender(sender CodeSender) MobileOption {
	return func(p *MobileProcessor) {
		p.sender = sender
	}
}

// WithSettlementDelay overrides the wait applied after sending the code.
func WithSettlementDelay(delay time.Duration) MobileOption {
	return func(p *MobileProcessor) {
		if delay >= 0 {
			p.delay = delay
		}
	}
}

// NewMobileProcessor constructs a mobile-money processor.
func NewMobileProcessor(newRef func() string, opts ...MobileOption) (*MobileProcessor, error) {
	if newRef == nil {
		return nil, fmt.Errorf("payments: mobile processor requires a reference generator")
	}
	proc := &MobileProcessor{
		newRef: newRef,
		delay:  2 * time.Second,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(proc)
		}
	}
	return proc, nil
}

// Method implements Processor.
func (p *MobileProcessor) Method() domain.PaymentMethod { return domain.PaymentMobile }

// Authorize implements Processor.
func (p *MobileProcessor) Authorize(ctx context.Context, req Request) (Authorization, error) {
	phone := strings.TrimSpace(req.Details.MobileNumber)
	if err := validatePhoneNumber(phone); err != nil {
		return Authorization{}, err
	}

	if p.sender != nil {
		if err := p.sender.SendCode(ctx, phone); err != nil {
			return Authorization{}, fmt.Errorf("payments: send mobile code: %w", err)
		}
	}

	if p.delay > 0 {
		if err := p.sleep(ctx, p.delay); err != nil {
			return Authorization{}, err
		}
	}

	return Authorization{
		Status:    domain.OrderStatusProcessing,
		Reference: p.newRef(),
	}, nil
}

func validatePhoneNumber(phone string) error {
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-':
		default:
			return fmt.Errorf("%w: phone number", ErrInvalidDetails)
		}
	}
	if digits < 8 || digits > 15 {
		return fmt.Errorf("%w: phone number length", ErrInvalidDetails)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
