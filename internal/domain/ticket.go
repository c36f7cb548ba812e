package domain

import (
	"fmt"
	"time"
)

// CouponStatus mirrors a segment's fulfilment state on a Ticket.
type CouponStatus string

const (
	CouponOpen CouponStatus = "OPEN"
	CouponUsed CouponStatus = "USED"
)

// Coupon is the ticket-side mirror of a BookingSegment.
type Coupon struct {
	FlightID   string
	SeatNumber *string
	Status     CouponStatus
}

// Ticket is issued exactly once per Confirmed booking (spec §3).
type Ticket struct {
	TicketNumber    string // 13 digits
	PnrCode         PnrCode
	Status          string
	PassengerID     string
	PassengerName   string
	Coupons         []Coupon
	IssuedAt        time.Time
}

// NewTicket builds a Ticket whose coupons mirror the booking's segments, as
// required by spec §4.3 step 7.
func NewTicket(ticketNumber string, pnr PnrCode, passenger Passenger, segments []BookingSegment, issuedAt time.Time) Ticket {
	coupons := make([]Coupon, len(segments))
	for i, seg := range segments {
		coupons[i] = Coupon{
			FlightID:   seg.FlightID,
			SeatNumber: seg.SeatNumber,
			Status:     CouponOpen,
		}
	}
	return Ticket{
		TicketNumber:  ticketNumber,
		PnrCode:       pnr,
		Status:        "ISSUED",
		PassengerID:   passenger.ID,
		PassengerName: passenger.Name,
		Coupons:       coupons,
		IssuedAt:      issuedAt,
	}
}

// NewTicketNumber derives a 13-digit ticket number from a PNR and issue
// time, matching the teacher's hash-of-identifiers-into-a-fixed-format
// idiom used for generatePaymentReferenceID.
func NewTicketNumber(pnr PnrCode, issuedAt time.Time) string {
	return fmt.Sprintf("%013d", (hashString(pnr.String())^uint64(issuedAt.UnixNano()))%1e13)
}

func hashString(s string) uint64 {
	var h uint64 = 14695981039346656037
	for _, c := range s {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return h
}
