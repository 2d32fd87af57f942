package payments

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	domain "github.com/sante-plus/api/internal/domain"
)

// Challenge describes the pending card authorization presented to the
// customer during strong authentication.
type Challenge struct {
	UserID   string
	Amount   int64
	Currency string
	CardLast string
}

// Confirmer is the 3-D Secure port. Implementations present the challenge to
// the customer and report whether they approved it.
type Confirmer interface {
	Confirm(ctx context.Context, challenge Challenge) (bool, error)
}

// ConfirmerFunc adapts ordinary functions to Confirmer.
type ConfirmerFunc func(ctx context.Context, challenge Challenge) (bool, error)

// Confirm invokes the wrapped function.
func (f ConfirmerFunc) Confirm(ctx context.Context, challenge Challenge) (bool, error) {
	return f(ctx, challenge)
}

// CardProcessor validates card details and, when configured, gates the
// authorization behind a 3-D Secure confirmation.
type CardProcessor struct {
	confirmer  Confirmer
	require3DS bool
	newRef     func() string
	clock      func() time.Time
}

// CardOption customises the CardProcessor.
type CardOption func(*CardProcessor)

// WithConfirmer installs the 3-D Secure confirmation port.
func WithConfirmer(confirmer Confirmer) CardOption {
	return func(p *CardProcessor) {
		p.confirmer = confirmer
	}
}

// WithRequire3DS toggles the confirmation step.
func WithRequire3DS(required bool) CardOption {
	return func(p *CardProcessor) {
		p.require3DS = required
	}
}

// WithCardClock overrides the time source used for expiry checks.
func WithCardClock(clock func() time.Time) CardOption {
	return func(p *CardProcessor) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// NewCardProcessor constructs a card processor. newRef generates the payment
// reference attached to authorized orders.
func NewCardProcessor(newRef func() string, opts ...CardOption) (*CardProcessor, error) {
	if newRef == nil {
		return nil, fmt.Errorf("payments: card processor requires a reference generator")
	}
	proc := &CardProcessor{
		newRef:     newRef,
		require3DS: true,
		clock:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(proc)
		}
	}
	return proc, nil
}

// Method implements Processor.
func (p *CardProcessor) Method() domain.PaymentMethod { return domain.PaymentCard }

// Authorize implements Processor.
func (p *CardProcessor) Authorize(ctx context.Context, req Request) (Authorization, error) {
	number := normaliseCardNumber(req.Details.CardNumber)
	if err := validateCardNumber(number); err != nil {
		return Authorization{}, err
	}
	if strings.TrimSpace(req.Details.CardHolder) == "" {
		return Authorization{}, fmt.Errorf("%w: card holder is required", ErrInvalidDetails)
	}
	if err := validateExpiry(req.Details.CardExpiry, p.clock().UTC()); err != nil {
		return Authorization{}, err
	}
	if err := validateCVV(req.Details.CardCVV); err != nil {
		return Authorization{}, err
	}

	if p.require3DS && p.confirmer != nil {
		approved, err := p.confirmer.Confirm(ctx, Challenge{
			UserID:   req.UserID,
			Amount:   req.Amount,
			Currency: req.Currency,
			CardLast: lastFour(number),
		})
		if err != nil {
			return Authorization{}, fmt.Errorf("payments: card confirmation: %w", err)
		}
		if !approved {
			return Authorization{}, ErrCancelled
		}
	}

	return Authorization{
		Status:    domain.OrderStatusProcessing,
		Reference: p.newRef(),
	}, nil
}

func normaliseCardNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r != ' ' && r != '-' {
			return raw
		}
	}
	return b.String()
}

func validateCardNumber(number string) error {
	if len(number) < 12 || len(number) > 19 {
		return fmt.Errorf("%w: card number length", ErrInvalidDetails)
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return fmt.Errorf("%w: card number must be numeric", ErrInvalidDetails)
		}
		digit := int(c - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	if sum%10 != 0 {
		return fmt.Errorf("%w: card number checksum", ErrInvalidDetails)
	}
	return nil
}

// validateExpiry accepts MM/YY or MM/YYYY and rejects cards expired before
// the current month.
func validateExpiry(raw string, now time.Time) error {
	parts := strings.SplitN(strings.TrimSpace(raw), "/", 2)
	if len(parts) != 2 {
		return fmt.Errorf("%w: expiry must be MM/YY", ErrInvalidDetails)
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || month < 1 || month > 12 {
		return fmt.Errorf("%w: expiry month", ErrInvalidDetails)
	}
	yearPart := strings.TrimSpace(parts[1])
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return fmt.Errorf("%w: expiry year", ErrInvalidDetails)
	}
	if len(yearPart) == 2 {
		year += 2000
	}
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return fmt.Errorf("%w: card expired", ErrInvalidDetails)
	}
	return nil
}

func validateCVV(raw string) error {
	cvv := strings.TrimSpace(raw)
	if len(cvv) < 3 || len(cvv) > 4 {
		return fmt.Errorf("%w: security code length", ErrInvalidDetails)
	}
	for _, r := range cvv {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: security code must be numeric", ErrInvalidDetails)
		}
	}
	return nil
}

func lastFour(number string) string {
	if len(number) <= 4 {
		return number
	}
	return number[len(number)-4:]
}
