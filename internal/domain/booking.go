package domain

import (
	"fmt"
	"time"
)

// BookingStatus is the tagged union of a Booking's lifecycle state (spec
// §4.3). Transitions are methods on Booking, never direct field writes, so
// an invalid transition can never be expressed at a call site.
type BookingStatus string

const (
	BookingHeld      BookingStatus = "Held"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
	BookingExpired   BookingStatus = "Expired"
)

// Terminal reports whether status allows no further transitions.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingConfirmed, BookingCancelled, BookingExpired:
		return true
	default:
		return false
	}
}

// Passenger is one traveller on a Booking.
type Passenger struct {
	ID    string
	Name  string
	Email string
	DOB   time.Time
	Type  string // adult, child, infant
}

// BookingSegment is one flight leg of a Booking.
type BookingSegment struct {
	FlightID   string
	Cabin      CabinClass
	Price      Money
	SeatNumber *string // optional seat-number carry-through (spec §1 scope)
}

// Booking is the aggregate root for a reservation (spec §3). PnrCode is
// immutable after creation; Status only changes through the transition
// methods below.
type Booking struct {
	ID            string
	PnrCode       PnrCode
	Status        BookingStatus
	Passengers    []Passenger
	Segments      []BookingSegment
	Version       int64
	CreatedAt     time.Time
	ExpiresAt     *time.Time // present only while Held
	pendingEvents []DomainEvent
}

// NewHeldBooking constructs a fresh Booking in the Held state, per spec
// §4.3 step 2. Requires at least one passenger and one segment.
func NewHeldBooking(id string, pnr PnrCode, passengers []Passenger, segments []BookingSegment, createdAt time.Time, holdDuration time.Duration) (*Booking, error) {
	if len(passengers) == 0 {
		return nil, fmt.Errorf("%w: booking requires at least one passenger", ErrDataIntegrity)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: booking requires at least one segment", ErrDataIntegrity)
	}
	expires := createdAt.Add(holdDuration)
	b := &Booking{
		ID:         id,
		PnrCode:    pnr,
		Status:     BookingHeld,
		Passengers: append([]Passenger(nil), passengers...),
		Segments:   append([]BookingSegment(nil), segments...),
		CreatedAt:  createdAt,
		ExpiresAt:  &expires,
	}
	flightIDs := make([]string, len(segments))
	for i, s := range segments {
		flightIDs[i] = s.FlightID
	}
	b.pendingEvents = append(b.pendingEvents, NewBookingCreatedEvent(id, pnr, flightIDs))
	return b, nil
}

// Confirm transitions Held -> Confirmed. Returns ErrInvalidBookingState
// from any other status.
func (b *Booking) Confirm(transactionID string) error {
	if b.Status != BookingHeld {
		return fmt.Errorf("%w: cannot confirm booking in state %s", ErrInvalidBookingState, b.Status)
	}
	b.Status = BookingConfirmed
	b.ExpiresAt = nil
	b.pendingEvents = append(b.pendingEvents, NewBookingConfirmedEvent(b.ID, b.PnrCode, transactionID))
	return nil
}

// Cancel transitions Held -> Cancelled with a reason. Returns
// ErrInvalidBookingState from any other status.
func (b *Booking) Cancel(reason string) error {
	if b.Status != BookingHeld {
		return fmt.Errorf("%w: cannot cancel booking in state %s", ErrInvalidBookingState, b.Status)
	}
	b.Status = BookingCancelled
	b.ExpiresAt = nil
	b.pendingEvents = append(b.pendingEvents, NewBookingCancelledEvent(b.ID, b.PnrCode, reason))
	return nil
}

// Expire transitions Held -> Expired, driven by the sweeper (spec §4.4).
func (b *Booking) Expire() error {
	if b.Status != BookingHeld {
		return fmt.Errorf("%w: cannot expire booking in state %s", ErrInvalidBookingState, b.Status)
	}
	b.Status = BookingExpired
	b.ExpiresAt = nil
	b.pendingEvents = append(b.pendingEvents, NewBookingExpiredEvent(b.ID, b.PnrCode))
	return nil
}

// IsExpiredAt reports whether this Held booking's hold has lapsed as of t.
func (b *Booking) IsExpiredAt(t time.Time) bool {
	return b.Status == BookingHeld && b.ExpiresAt != nil && b.ExpiresAt.Before(t)
}

// TotalPrice sums the price of every segment. Fails on currency mismatch
// across segments (spec §8 invariant 6).
func (b *Booking) TotalPrice(currency Currency) (Money, error) {
	total := ZeroMoney(currency)
	var err error
	for _, seg := range b.Segments {
		total, err = total.Add(seg.Price)
		if err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

// PendingEvents returns a copy of events appended since the last clear.
func (b *Booking) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(b.pendingEvents))
	copy(out, b.pendingEvents)
	return out
}

// ClearPendingEvents empties the pending-events list; called by the
// repository inside the unit-of-work transaction after a successful save.
func (b *Booking) ClearPendingEvents() {
	b.pendingEvents = nil
}
