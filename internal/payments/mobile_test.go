package payments

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMobileProcessorSendsCode(t *testing.T) {
	var sentTo string
	sender := CodeSenderFunc(func(_ context.Context, phone string) error {
		sentTo = phone
		return nil
	})
	proc, err := NewMobileProcessor(staticRef("ref"), WithCodeSender(sender), WithSettlementDelay(0))
	if err != nil {
		t.Fatalf("new mobile processor: %v", err)
	}

	auth, err := proc.Authorize(context.Background(), Request{
		Amount:  5000,
		Details: Details{MobileNumber: "+221 77 123 45 67"},
	})
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if sentTo != "+221 77 123 45 67" {
		t.Fatalf("expected code sent to submitted number, got %q", sentTo)
	}
	if auth.Reference != "ref" {
		t.Fatalf("unexpected reference %q", auth.Reference)
	}
}

func TestMobileProcessorRejectsBadNumber(t *testing.T) {
	proc, err := NewMobileProcessor(staticRef("ref"), WithSettlementDelay(0))
	if err != nil {
		t.Fatalf("new mobile processor: %v", err)
	}

	for _, phone := range []string{"", "12345", "telephone", "+2a1771234567"} {
		_, err := proc.Authorize(context.Background(), Request{
			Amount:  5000,
			Details: Details{MobileNumber: phone},
		})
		if !errors.Is(err, ErrInvalidDetails) {
			t.Errorf("phone %q: expected ErrInvalidDetails, got %v", phone, err)
		}
	}
}

func TestMobileProcessorSendFailureAborts(t *testing.T) {
	sender := CodeSenderFunc(func(context.Context, string) error {
		return errors.New("gateway down")
	})
	proc, err := NewMobileProcessor(staticRef("ref"), WithCodeSender(sender), WithSettlementDelay(0))
	if err != nil {
		t.Fatalf("new mobile processor: %v", err)
	}

	if _, err := proc.Authorize(context.Background(), Request{
		Amount:  5000,
		Details: Details{MobileNumber: "+221771234567"},
	}); err == nil {
		t.Fatal("expected error when code dispatch fails")
	}
}

func TestMobileProcessorHonoursContextDuringDelay(t *testing.T) {
	proc, err := NewMobileProcessor(staticRef("ref"), WithSettlementDelay(time.Minute))
	if err != nil {
		t.Fatalf("new mobile processor: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = proc.Authorize(ctx, Request{
		Amount:  5000,
		Details: Details{MobileNumber: "+221771234567"},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
