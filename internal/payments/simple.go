package payments

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/sante-plus/api/internal/domain"
)

// InsuranceProcessor bills the order against a health insurance policy. The
// claim itself is filed by the billing back office after the order is placed.
type InsuranceProcessor struct {
	newRef func() string
}

// NewInsuranceProcessor constructs the insurance processor.
func NewInsuranceProcessor(newRef func() string) (*InsuranceProcessor, error) {
	if newRef == nil {
		return nil, fmt.Errorf("payments: insurance processor requires a reference generator")
	}
	return &InsuranceProcessor{newRef: newRef}, nil
}

// Method implements Processor.
func (p *InsuranceProcessor) Method() domain.PaymentMethod { return domain.PaymentInsurance }

// Authorize implements Processor.
func (p *InsuranceProcessor) Authorize(_ context.Context, req Request) (Authorization, error) {
	member := strings.TrimSpace(req.Details.InsuranceMemberID)
	if member == "" {
		return Authorization{}, fmt.Errorf("%w: insurance member id is required", ErrInvalidDetails)
	}
	return Authorization{
		Status:    domain.OrderStatusProcessing,
		Reference: p.newRef(),
	}, nil
}

// PayPalProcessor authorizes wallet payments against the customer's PayPal
// account email.
type PayPalProcessor struct {
	newRef func() string
}

// NewPayPalProcessor constructs the PayPal processor.
func NewPayPalProcessor(newRef func() string) (*PayPalProcessor, error) {
	if newRef == nil {
		return nil, fmt.Errorf("payments: paypal processor requires a reference generator")
	}
	return &PayPalProcessor{newRef: newRef}, nil
}

// Method implements Processor.
func (p *PayPalProcessor) Method() domain.PaymentMethod { return domain.PaymentPayPal }

// Authorize implements Processor.
func (p *PayPalProcessor) Authorize(_ context.Context, req Request) (Authorization, error) {
	email := strings.TrimSpace(req.Details.PayPalEmail)
	if email == "" || !strings.Contains(email, "@") {
		return Authorization{}, fmt.Errorf("%w: paypal account email", ErrInvalidDetails)
	}
	return Authorization{
		Status:    domain.OrderStatusProcessing,
		Reference: p.newRef(),
	}, nil
}

// TransferProcessor records bank transfer orders. The transfer settles out of
// band, so the order stays pending until reconciliation confirms it.
type TransferProcessor struct {
	newRef func() string
}

// NewTransferProcessor constructs the bank transfer processor.
func NewTransferProcessor(newRef func() string) (*TransferProcessor, error) {
	if newRef == nil {
		return nil, fmt.Errorf("payments: transfer processor requires a reference generator")
	}
	return &TransferProcessor{newRef: newRef}, nil
}

// Method implements Processor.
func (p *TransferProcessor) Method() domain.PaymentMethod { return domain.PaymentTransfer }

// Authorize implements Processor.
func (p *TransferProcessor) Authorize(context.Context, Request) (Authorization, error) {
	return Authorization{
		Status:    domain.OrderStatusPending,
		Reference: p.newRef(),
	}, nil
}

// CODProcessor confirms cash-on-delivery orders immediately; payment is
// collected by the courier.
type CODProcessor struct {
	newRef func() string
}

// NewCODProcessor constructs the cash-on-delivery processor.
func NewCODProcessor(newRef func() string) (*CODProcessor, error) {
	if newRef == nil {
		return nil, fmt.Errorf("payments: cod processor requires a reference generator")
	}
	return &CODProcessor{newRef: newRef}, nil
}

// Method implements Processor.
func (p *CODProcessor) Method() domain.PaymentMethod { return domain.PaymentCOD }

// Authorize implements Processor.
func (p *CODProcessor) Authorize(context.Context, Request) (Authorization, error) {
	return Authorization{
		Status:    domain.OrderStatusConfirmed,
		Reference: p.newRef(),
	}, nil
}
