package ports

import (
	"context"

	"airline-booking-system/internal/domain"
)

// NotificationRecipient is who a ticket notification is sent to.
type NotificationRecipient struct {
	Email string
	Name  string
}

// TicketCoupon is one leg's delivery payload (spec §6).
type TicketCoupon struct {
	FlightID   string
	SeatNumber *string
	Status     string
}

// TicketPayload is the minimum ticket data a notification send needs (spec
// §6): ticketNumber, pnrCode, passengerName, per-coupon details.
type TicketPayload struct {
	TicketNumber  string
	PnrCode       string
	PassengerName string
	Coupons       []TicketCoupon
}

// SendResult is the outcome of a successful NotificationGateway.SendTicket.
type SendResult struct {
	MessageID string
}

// NotificationGateway is the notification boundary (spec §6). Failures are
// reported via the sentinel errors in internal/domain
// (ErrNotificationUnavailable, ErrNotificationAuth, ErrInvalidRecipient) or
// *domain.NotificationRateLimitError.
type NotificationGateway interface {
	SendTicket(ctx context.Context, ticket TicketPayload, recipient NotificationRecipient) (*SendResult, error)
}

// DevMockNotificationGateway is a deterministic stand-in: every
// well-formed recipient succeeds, matching the teacher's stance that
// notification delivery in this module is best-effort and outbox-backed
// rather than the source of truth (spec §4.3 step 7).
type DevMockNotificationGateway struct{}

func NewDevMockNotificationGateway() *DevMockNotificationGateway {
	return &DevMockNotificationGateway{}
}

func (g *DevMockNotificationGateway) SendTicket(ctx context.Context, ticket TicketPayload, recipient NotificationRecipient) (*SendResult, error) {
	if recipient.Email == "" {
		return nil, domain.ErrInvalidRecipient
	}
	return &SendResult{MessageID: "msg_" + ticket.TicketNumber}, nil
}
