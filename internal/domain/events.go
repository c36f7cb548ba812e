package domain

import "time"

// Event type tags. Stable strings, never a language runtime type name
// (spec §9 Design Notes — these survive minification/process boundaries
// and are what gets persisted in event_outbox.event_type).
const (
	EventSeatsHeld        = "SeatsHeld"
	EventSeatsReleased    = "SeatsReleased"
	EventBookingCreated   = "BookingCreated"
	EventBookingConfirmed = "BookingConfirmed"
	EventBookingCancelled = "BookingCancelled"
	EventBookingExpired   = "BookingExpired"
	EventTicketIssued     = "TicketIssued"
)

// DomainEvent is anything an aggregate can append to its pendingEvents
// list. EventType is the stable tag persisted to the outbox; AggregateID
// identifies which aggregate produced it.
type DomainEvent interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

type baseEvent struct {
	eventType   string
	aggregateID string
	occurredAt  time.Time
}

func (e baseEvent) EventType() string     { return e.eventType }
func (e baseEvent) AggregateID() string   { return e.aggregateID }
func (e baseEvent) OccurredAt() time.Time { return e.occurredAt }

// SeatsHeldEvent is emitted by FlightInventory.HoldSeats.
type SeatsHeldEvent struct {
	baseEvent
	Cabin      CabinClass
	SeatsHeld  int
	TotalPrice Money
}

func NewSeatsHeldEvent(flightID string, cabin CabinClass, n int, total Money) SeatsHeldEvent {
	return SeatsHeldEvent{
		baseEvent:  baseEvent{eventType: EventSeatsHeld, aggregateID: flightID, occurredAt: now()},
		Cabin:      cabin,
		SeatsHeld:  n,
		TotalPrice: total,
	}
}

// SeatsReleasedEvent is emitted by FlightInventory.ReleaseSeats.
type SeatsReleasedEvent struct {
	baseEvent
	Cabin         CabinClass
	SeatsReleased int
}

func NewSeatsReleasedEvent(flightID string, cabin CabinClass, n int) SeatsReleasedEvent {
	return SeatsReleasedEvent{
		baseEvent:     baseEvent{eventType: EventSeatsReleased, aggregateID: flightID, occurredAt: now()},
		Cabin:         cabin,
		SeatsReleased: n,
	}
}

// BookingCreatedEvent is emitted when a Booking is first persisted as Held.
type BookingCreatedEvent struct {
	baseEvent
	PnrCode   PnrCode
	FlightIDs []string
}

func NewBookingCreatedEvent(bookingID string, pnr PnrCode, flightIDs []string) BookingCreatedEvent {
	return BookingCreatedEvent{
		baseEvent: baseEvent{eventType: EventBookingCreated, aggregateID: bookingID, occurredAt: now()},
		PnrCode:   pnr,
		FlightIDs: flightIDs,
	}
}

// BookingConfirmedEvent is emitted on the Held -> Confirmed transition.
type BookingConfirmedEvent struct {
	baseEvent
	PnrCode       PnrCode
	TransactionID string
}

func NewBookingConfirmedEvent(bookingID string, pnr PnrCode, transactionID string) BookingConfirmedEvent {
	return BookingConfirmedEvent{
		baseEvent:     baseEvent{eventType: EventBookingConfirmed, aggregateID: bookingID, occurredAt: now()},
		PnrCode:       pnr,
		TransactionID: transactionID,
	}
}

// BookingCancelledEvent is emitted on the Held -> Cancelled transition.
type BookingCancelledEvent struct {
	baseEvent
	PnrCode PnrCode
	Reason  string
}

func NewBookingCancelledEvent(bookingID string, pnr PnrCode, reason string) BookingCancelledEvent {
	return BookingCancelledEvent{
		baseEvent: baseEvent{eventType: EventBookingCancelled, aggregateID: bookingID, occurredAt: now()},
		PnrCode:   pnr,
		Reason:    reason,
	}
}

// BookingExpiredEvent is emitted on the Held -> Expired transition.
type BookingExpiredEvent struct {
	baseEvent
	PnrCode PnrCode
}

func NewBookingExpiredEvent(bookingID string, pnr PnrCode) BookingExpiredEvent {
	return BookingExpiredEvent{
		baseEvent: baseEvent{eventType: EventBookingExpired, aggregateID: bookingID, occurredAt: now()},
		PnrCode:   pnr,
	}
}

// TicketIssuedEvent is emitted once a Ticket is constructed for a
// Confirmed booking.
type TicketIssuedEvent struct {
	baseEvent
	TicketNumber string
	PnrCode      PnrCode
}

func NewTicketIssuedEvent(bookingID, ticketNumber string, pnr PnrCode) TicketIssuedEvent {
	return TicketIssuedEvent{
		baseEvent:    baseEvent{eventType: EventTicketIssued, aggregateID: bookingID, occurredAt: now()},
		TicketNumber: ticketNumber,
		PnrCode:      pnr,
	}
}

// now is a var so tests can pin event timestamps deterministically.
var now = time.Now
