package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"airline-booking-system/internal/domain"
	"airline-booking-system/internal/saga"

	"github.com/gorilla/mux"
)

type mockBookingSaga struct {
	bookResp   *saga.BookFlightResult
	bookErr    error
	confirmed  *domain.Booking
	confirmErr error
}

func (m *mockBookingSaga) BookFlight(ctx context.Context, cmd saga.BookFlightCommand) (*saga.BookFlightResult, error) {
	return m.bookResp, m.bookErr
}

func (m *mockBookingSaga) ConfirmBooking(ctx context.Context, bookingID, transactionID string) (*domain.Booking, error) {
	return m.confirmed, m.confirmErr
}

type mockBookingLookup struct {
	byID  *domain.Booking
	byPnr *domain.Booking
	err   error
}

func (m *mockBookingLookup) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	return m.byID, m.err
}

func (m *mockBookingLookup) FindByPnr(ctx context.Context, pnr domain.PnrCode) (*domain.Booking, error) {
	return m.byPnr, m.err
}

func testBooking(t *testing.T) *domain.Booking {
	t.Helper()
	pnr, err := domain.NewPnrCode("ABC123")
	if err != nil {
		t.Fatalf("NewPnrCode: %v", err)
	}
	b, err := domain.NewHeldBooking("booking-1", pnr,
		[]domain.Passenger{{ID: "pax-1", Name: "Jane Doe", Email: "jane@example.com"}},
		[]domain.BookingSegment{{FlightID: "FL-100", Cabin: domain.Economy, Price: domain.MustMoney(199.00, domain.USD)}},
		time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("NewHeldBooking: %v", err)
	}
	return b
}

func TestBookFlight_InvalidJSON(t *testing.T) {
	h := NewBookingHandler(&mockBookingSaga{}, &mockBookingLookup{})

	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString(`not-json`))
	rec := httptest.NewRecorder()
	h.BookFlight(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestBookFlight_MissingRequiredFields(t *testing.T) {
	h := NewBookingHandler(&mockBookingSaga{}, &mockBookingLookup{})

	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString(`{"cabin":"ECONOMY"}`))
	rec := httptest.NewRecorder()
	h.BookFlight(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestBookFlight_Success(t *testing.T) {
	booking := testBooking(t)
	mockSaga := &mockBookingSaga{bookResp: &saga.BookFlightResult{Booking: booking, CheckoutURL: "https://pay.example.com/co-1"}}
	h := NewBookingHandler(mockSaga, &mockBookingLookup{})

	body := `{"flightId":"FL-100","cabin":"ECONOMY","passenger":{"name":"Jane Doe","email":"jane@example.com","dob":"1990-01-01","type":"adult"}}`
	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.BookFlight(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBookFlight_FlightFullMapsTo404(t *testing.T) {
	mockSaga := &mockBookingSaga{bookErr: domain.ErrFlightFull}
	h := NewBookingHandler(mockSaga, &mockBookingLookup{})

	body := `{"flightId":"FL-100","cabin":"ECONOMY","passenger":{"name":"Jane Doe","email":"jane@example.com","dob":"1990-01-01","type":"adult"}}`
	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.BookFlight(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestConfirmBooking_MissingTransactionID(t *testing.T) {
	h := NewBookingHandler(&mockBookingSaga{}, &mockBookingLookup{})

	router := mux.NewRouter()
	router.HandleFunc("/bookings/{id}/confirm", h.ConfirmBooking).Methods("POST")

	req := httptest.NewRequest(http.MethodPost, "/bookings/booking-1/confirm", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestConfirmBooking_Success(t *testing.T) {
	booking := testBooking(t)
	if err := booking.Confirm("txn-1"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	h := NewBookingHandler(&mockBookingSaga{confirmed: booking}, &mockBookingLookup{})

	router := mux.NewRouter()
	router.HandleFunc("/bookings/{id}/confirm", h.ConfirmBooking).Methods("POST")

	req := httptest.NewRequest(http.MethodPost, "/bookings/booking-1/confirm", bytes.NewBufferString(`{"transactionId":"txn-1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetBooking_NotFound(t *testing.T) {
	h := NewBookingHandler(&mockBookingSaga{}, &mockBookingLookup{byID: nil})

	router := mux.NewRouter()
	router.HandleFunc("/bookings/{id}", h.GetBooking).Methods("GET")

	req := httptest.NewRequest(http.MethodGet, "/bookings/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetBookingByPnr_InvalidPnr(t *testing.T) {
	h := NewBookingHandler(&mockBookingSaga{}, &mockBookingLookup{})

	router := mux.NewRouter()
	router.HandleFunc("/bookings/pnr/{pnr}", h.GetBookingByPnr).Methods("GET")

	req := httptest.NewRequest(http.MethodGet, "/bookings/pnr/bad", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
