package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"airline-booking-system/internal/domain"
	"airline-booking-system/internal/outboxtx"
	"airline-booking-system/pkg/database"
)

// TicketRepository persists domain.Ticket values. A ticket is issued
// exactly once per Confirmed booking and never mutated thereafter, so this
// repository only needs an insert (spec §3/§4.3 step 7).
type TicketRepository struct {
	db *database.DB
}

func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

type couponDTO struct {
	FlightID   string              `json:"flightId"`
	SeatNumber *string             `json:"seatNumber,omitempty"`
	Status     domain.CouponStatus `json:"status"`
}

// Create inserts ticket, appending a TicketIssued outbox row atomically.
// bookingID is the owning Booking's aggregate id (Ticket itself carries no
// booking id field, only the PNR it mirrors). Callers should invoke this
// from inside the same UnitOfWork transaction as the booking's
// Confirm-save.
func (r *TicketRepository) Create(ctx context.Context, bookingID string, ticket domain.Ticket) error {
	coupons := make([]couponDTO, len(ticket.Coupons))
	for i, c := range ticket.Coupons {
		coupons[i] = couponDTO{FlightID: c.FlightID, SeatNumber: c.SeatNumber, Status: c.Status}
	}
	couponsJSON, err := json.Marshal(coupons)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDataIntegrity, err)
	}

	q := outboxtx.QuerierFromContext(ctx, r.db.DB)
	_, err = q.ExecContext(ctx, `
		INSERT INTO tickets (ticket_number, pnr_code, status, passenger_id, passenger_name, coupons, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ticket.TicketNumber, ticket.PnrCode.String(), ticket.Status, ticket.PassengerID, ticket.PassengerName, couponsJSON, ticket.IssuedAt)
	if err != nil {
		return fmt.Errorf("%w: create ticket %s: %v", domain.ErrPersistenceFailure, ticket.TicketNumber, err)
	}

	ev := domain.NewTicketIssuedEvent(bookingID, ticket.TicketNumber, ticket.PnrCode)
	return appendOutboxEvents(ctx, q, "Ticket", ticket.TicketNumber, []domain.DomainEvent{ev})
}
