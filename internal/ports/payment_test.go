package ports

import (
	"context"
	"testing"
	"time"

	"airline-booking-system/internal/domain"
)

func TestDevMockPaymentGateway_CreateCheckoutIsIdempotent(t *testing.T) {
	g := NewDevMockPaymentGateway(0)
	req := CreateCheckoutRequest{Amount: domain.MustMoney(100, domain.EUR), BookingReference: "ABC123"}

	first, err := g.CreateCheckout(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}
	second, err := g.CreateCheckout(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateCheckout (retry): %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected idempotent checkout id, got %s then %s", first.ID, second.ID)
	}
}

func TestDevMockPaymentGateway_GetCheckoutStatus_PendingUntilSettled(t *testing.T) {
	g := NewDevMockPaymentGateway(20 * time.Millisecond)
	req := CreateCheckoutRequest{Amount: domain.MustMoney(50, domain.EUR), BookingReference: "PEND01"}

	checkout, err := g.CreateCheckout(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}

	status, err := g.GetCheckoutStatus(context.Background(), checkout.ID)
	if err != nil {
		t.Fatalf("GetCheckoutStatus: %v", err)
	}
	if status.State != CheckoutPending {
		t.Fatalf("expected pending before settle delay, got %s", status.State)
	}

	time.Sleep(25 * time.Millisecond)
	status, err = g.GetCheckoutStatus(context.Background(), checkout.ID)
	if err != nil {
		t.Fatalf("GetCheckoutStatus after delay: %v", err)
	}
	if status.State == CheckoutPending {
		t.Fatalf("expected settled status after delay, still pending")
	}
}

func TestDevMockPaymentGateway_GetCheckoutStatus_UnknownID(t *testing.T) {
	g := NewDevMockPaymentGateway(0)
	_, err := g.GetCheckoutStatus(context.Background(), "chk_does-not-exist")
	if err != domain.ErrCheckoutNotFound {
		t.Fatalf("expected ErrCheckoutNotFound, got %v", err)
	}
}
