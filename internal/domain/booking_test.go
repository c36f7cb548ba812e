package domain

import (
	"errors"
	"testing"
	"time"
)

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	pnr, err := NewPnrCode("AB12CD")
	if err != nil {
		t.Fatalf("NewPnrCode: %v", err)
	}
	b, err := NewHeldBooking(
		"booking-1",
		pnr,
		[]Passenger{{ID: "p1", Name: "Jordan Rivera"}},
		[]BookingSegment{{FlightID: "FL-1", Cabin: Economy, Price: MustMoney(100, EUR)}},
		time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		30*time.Minute,
	)
	if err != nil {
		t.Fatalf("NewHeldBooking: %v", err)
	}
	return b
}

func TestBooking_HeldToConfirmed(t *testing.T) {
	b := newTestBooking(t)

	if err := b.Confirm("txn-1"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if b.Status != BookingConfirmed {
		t.Fatalf("expected Confirmed, got %s", b.Status)
	}
	if b.ExpiresAt != nil {
		t.Fatal("expected ExpiresAt cleared on confirm")
	}
}

func TestBooking_TerminalStatesRejectFurtherTransitions(t *testing.T) {
	cases := []func(*Booking) error{
		func(b *Booking) error { return b.Confirm("x") },
		func(b *Booking) error { return b.Cancel("x") },
		func(b *Booking) error { return b.Expire() },
	}

	for _, transition := range cases {
		b := newTestBooking(t)
		if err := b.Confirm("txn-1"); err != nil {
			t.Fatalf("Confirm: %v", err)
		}
		if err := transition(b); !errors.Is(err, ErrInvalidBookingState) {
			t.Fatalf("expected ErrInvalidBookingState from terminal state, got %v", err)
		}
	}
}

func TestBooking_CancelAndExpireAreMutuallyExclusive(t *testing.T) {
	b := newTestBooking(t)
	if err := b.Cancel("payment declined"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if b.Status != BookingCancelled {
		t.Fatalf("expected Cancelled, got %s", b.Status)
	}
	if err := b.Expire(); !errors.Is(err, ErrInvalidBookingState) {
		t.Fatalf("expected ErrInvalidBookingState, got %v", err)
	}
}

func TestBooking_IsExpiredAt(t *testing.T) {
	b := newTestBooking(t)
	before := b.ExpiresAt.Add(-time.Minute)
	after := b.ExpiresAt.Add(time.Minute)

	if b.IsExpiredAt(before) {
		t.Fatal("should not be expired before ExpiresAt")
	}
	if !b.IsExpiredAt(after) {
		t.Fatal("should be expired after ExpiresAt")
	}
}

func TestBooking_ConfirmAfterClearAppendsOneEvent(t *testing.T) {
	b := newTestBooking(t)
	b.ClearPendingEvents()

	if err := b.Confirm("txn-1"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	events := b.PendingEvents()
	if len(events) != 1 || events[0].EventType() != EventBookingConfirmed {
		t.Fatalf("expected exactly one BookingConfirmed event, got %v", events)
	}
}
