package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"airline-booking-system/internal/domain"
	"airline-booking-system/internal/saga"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// BookingSaga is the narrow view of saga.Saga the HTTP layer drives. This
// allows the handlers to be unit tested against a fake instead of the
// real saga's payment/notification dependencies.
type BookingSaga interface {
	BookFlight(ctx context.Context, cmd saga.BookFlightCommand) (*saga.BookFlightResult, error)
	ConfirmBooking(ctx context.Context, bookingID, transactionID string) (*domain.Booking, error)
}

// BookingLookup is the narrow read contract the handler needs for
// fetching a previously created booking.
type BookingLookup interface {
	FindByID(ctx context.Context, id string) (*domain.Booking, error)
	FindByPnr(ctx context.Context, pnr domain.PnrCode) (*domain.Booking, error)
}

// BookingHandler handles booking-related HTTP requests.
type BookingHandler struct {
	saga    BookingSaga
	lookups BookingLookup
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(saga BookingSaga, lookups BookingLookup) *BookingHandler {
	return &BookingHandler{saga: saga, lookups: lookups}
}

// passengerRequest is the wire shape of a BookFlight request's passenger.
type passengerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	DOB   string `json:"dob"` // YYYY-MM-DD
	Type  string `json:"type"`
}

// bookFlightRequest is the wire shape of a BookFlight request (spec §4.3
// "Operation: bookFlight" — a single flight leg, single passenger; spec §1
// scope).
type bookFlightRequest struct {
	FlightID   string           `json:"flightId"`
	Cabin      string           `json:"cabin"`
	Passenger  passengerRequest `json:"passenger"`
	SeatNumber *string          `json:"seatNumber,omitempty"`
	SuccessURL string           `json:"successUrl"`
	CancelURL  string           `json:"cancelUrl"`
}

// bookFlightResponse is the wire shape of a successful BookFlight reply.
type bookFlightResponse struct {
	Booking     *domain.Booking `json:"booking"`
	CheckoutURL string          `json:"checkoutUrl"`
}

// BookFlight handles the saga's entry point: hold seats, persist a Held
// booking, drive payment to completion, confirm-or-compensate.
func (h *BookingHandler) BookFlight(w http.ResponseWriter, r *http.Request) {
	var req bookFlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if req.FlightID == "" || req.Passenger.Email == "" {
		http.Error(w, "flightId and passenger.email are required", http.StatusBadRequest)
		return
	}

	dob, err := time.Parse("2006-01-02", req.Passenger.DOB)
	if err != nil {
		http.Error(w, "invalid passenger.dob, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	cmd := saga.BookFlightCommand{
		FlightID: req.FlightID,
		Cabin:    domain.CabinClass(req.Cabin),
		Passenger: domain.Passenger{
			ID:    uuid.NewString(),
			Name:  req.Passenger.Name,
			Email: req.Passenger.Email,
			DOB:   dob,
			Type:  req.Passenger.Type,
		},
		SeatNumber: req.SeatNumber,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	}

	result, err := h.saga.BookFlight(r.Context(), cmd)
	if err != nil {
		writeBookingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(bookFlightResponse{Booking: result.Booking, CheckoutURL: result.CheckoutURL})
}

// confirmBookingRequest is the wire shape of a confirmBooking request
// (spec §4.3 "Operation: confirmBooking").
type confirmBookingRequest struct {
	TransactionID string `json:"transactionId"`
}

// ConfirmBooking handles the idempotent webhook-style confirm entrypoint.
func (h *BookingHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID := vars["id"]

	var req confirmBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if req.TransactionID == "" {
		http.Error(w, "transactionId is required", http.StatusBadRequest)
		return
	}

	booking, err := h.saga.ConfirmBooking(r.Context(), bookingID, req.TransactionID)
	if err != nil {
		writeBookingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(booking)
}

// GetBooking handles getting a booking by ID.
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	booking, err := h.lookups.FindByID(r.Context(), id)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	if booking == nil {
		http.Error(w, "booking not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(booking)
}

// GetBookingByPnr handles looking a booking up by its PNR code.
func (h *BookingHandler) GetBookingByPnr(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pnr, err := domain.NewPnrCode(vars["pnr"])
	if err != nil {
		http.Error(w, "invalid pnr", http.StatusBadRequest)
		return
	}

	booking, err := h.lookups.FindByPnr(r.Context(), pnr)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	if booking == nil {
		http.Error(w, "booking not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(booking)
}

// writeBookingError maps the saga/domain error taxonomy (spec §7) onto
// HTTP status codes.
func writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrFlightFull),
		errors.Is(err, domain.ErrFlightNotFound),
		errors.Is(err, domain.ErrBookingNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidBookingState),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrDataIntegrity):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrPaymentDeclined):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, domain.ErrOptimisticLockConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrPaymentUnavailable),
		errors.Is(err, domain.ErrNotificationUnavailable),
		errors.Is(err, domain.ErrExternalServiceTimeout):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
