// Package ports defines the Payment Gateway and Notification Gateway
// boundaries (spec §6/C8) plus dev-mock adapters, generalized from the
// teacher's simulated payment step in
// internal/services/booking_service.go (processPaymentAsync,
// simulatePaymentSuccess, generatePaymentReferenceID) into injectable
// interfaces an implementation can satisfy with a real SDK client later —
// the real SDKs themselves are out of scope for this module.
package ports

import (
	"context"
	"time"

	"airline-booking-system/internal/domain"
)

// CheckoutCustomer identifies the payer for a checkout session.
type CheckoutCustomer struct {
	Email      string
	ExternalID string
}

// CreateCheckoutRequest is the input to PaymentGateway.CreateCheckout (spec
// §6). BookingReference is the PNR; used to derive the idempotency key.
type CreateCheckoutRequest struct {
	Amount           domain.Money
	Customer         CheckoutCustomer
	BookingReference string
	BookingID        string
	SuccessURL       string
	CancelURL        string
}

// Checkout is the result of a successful CreateCheckout call.
type Checkout struct {
	ID          string
	CheckoutURL string
	ExpiresAt   time.Time
}

// CheckoutState is the tag of a CheckoutStatus.
type CheckoutState string

const (
	CheckoutPending   CheckoutState = "pending"
	CheckoutCompleted CheckoutState = "completed"
	CheckoutExpired   CheckoutState = "expired"
	CheckoutFailed    CheckoutState = "failed"
	CheckoutDeclined  CheckoutState = "declined"
)

// PaymentConfirmation is populated when CheckoutStatus.State == CheckoutCompleted.
type PaymentConfirmation struct {
	CheckoutID    string
	TransactionID string
	PaidAt        time.Time
	Amount        domain.Money
}

// CheckoutStatus is the result of PaymentGateway.GetCheckoutStatus (spec §6).
type CheckoutStatus struct {
	State        CheckoutState
	Confirmation *PaymentConfirmation // set iff State == CheckoutCompleted
	FailedReason string               // set iff State == CheckoutFailed
}

// PaymentGateway is the payment boundary the saga (C3) drives. Real
// implementations wrap whatever SDK a payment processor provides;
// NewDevMockPaymentGateway below is the only concrete implementation this
// module ships.
type PaymentGateway interface {
	// CreateCheckout must be idempotent keyed by req.BookingReference: a
	// retried call with the same reference returns the same Checkout
	// rather than opening a second session.
	CreateCheckout(ctx context.Context, req CreateCheckoutRequest) (*Checkout, error)
	GetCheckoutStatus(ctx context.Context, checkoutID string) (*CheckoutStatus, error)
}

// devMockCheckout is the in-memory state the dev-mock keeps per checkout.
type devMockCheckout struct {
	status  CheckoutStatus
	created time.Time
}

// DevMockPaymentGateway is a deterministic stand-in for a real payment
// processor, generalizing the teacher's simulatePaymentSuccess (90%
// success rate keyed off a timestamp) into an idempotent, pollable
// checkout lifecycle: CreateCheckout immediately decides the eventual
// outcome from a deterministic hash of the booking reference, and
// GetCheckoutStatus reports it as completed only after a short simulated
// processing delay has elapsed, so callers genuinely exercise the
// pending → completed/declined poll loop.
type DevMockPaymentGateway struct {
	byReference map[string]*devMockCheckout
	byCheckout  map[string]string // checkoutID -> reference
	delay       time.Duration
}

// NewDevMockPaymentGateway constructs a gateway whose checkouts report
// pending for settleAfter before resolving.
func NewDevMockPaymentGateway(settleAfter time.Duration) *DevMockPaymentGateway {
	return &DevMockPaymentGateway{
		byReference: make(map[string]*devMockCheckout),
		byCheckout:  make(map[string]string),
		delay:       settleAfter,
	}
}

func (g *DevMockPaymentGateway) CreateCheckout(ctx context.Context, req CreateCheckoutRequest) (*Checkout, error) {
	if existing, ok := g.byReference[req.BookingReference]; ok {
		return &Checkout{ID: g.checkoutIDFor(req.BookingReference), CheckoutURL: mockCheckoutURL(req.BookingReference), ExpiresAt: existing.created.Add(30 * time.Minute)}, nil
	}

	checkoutID := "chk_" + req.BookingReference
	now := time.Now()
	declined := simulateDeclined(req.BookingReference)

	status := CheckoutStatus{State: CheckoutPending}
	if declined {
		status = CheckoutStatus{State: CheckoutDeclined}
	} else {
		status = CheckoutStatus{State: CheckoutCompleted, Confirmation: &PaymentConfirmation{
			CheckoutID:    checkoutID,
			TransactionID: "txn_" + req.BookingReference,
			PaidAt:        now.Add(g.delay),
			Amount:        req.Amount,
		}}
	}

	g.byReference[req.BookingReference] = &devMockCheckout{status: status, created: now}
	g.byCheckout[checkoutID] = req.BookingReference

	return &Checkout{ID: checkoutID, CheckoutURL: mockCheckoutURL(req.BookingReference), ExpiresAt: now.Add(30 * time.Minute)}, nil
}

func (g *DevMockPaymentGateway) GetCheckoutStatus(ctx context.Context, checkoutID string) (*CheckoutStatus, error) {
	ref, ok := g.byCheckout[checkoutID]
	if !ok {
		return nil, domain.ErrCheckoutNotFound
	}
	entry := g.byReference[ref]
	if time.Since(entry.created) < g.delay {
		return &CheckoutStatus{State: CheckoutPending}, nil
	}
	st := entry.status
	return &st, nil
}

func (g *DevMockPaymentGateway) checkoutIDFor(reference string) string {
	return "chk_" + reference
}

func mockCheckoutURL(reference string) string {
	return "https://payments.dev.invalid/checkout/" + reference
}

// simulateDeclined deterministically declines one in ten references,
// generalizing simulatePaymentSuccess's 90%-success coin flip into a
// reproducible function of the booking reference rather than wall-clock
// time, so dev-mock behavior is stable across retries.
func simulateDeclined(reference string) bool {
	var sum int
	for _, r := range reference {
		sum += int(r)
	}
	return sum%10 == 0
}
