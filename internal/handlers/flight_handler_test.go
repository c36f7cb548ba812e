package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"airline-booking-system/internal/domain"

	"github.com/gorilla/mux"
)

type mockAvailabilityReader struct {
	inv *domain.FlightInventory
	err error
}

func (m *mockAvailabilityReader) GetAvailability(ctx context.Context, flightID string) (*domain.FlightInventory, error) {
	return m.inv, m.err
}

func testFlightInventory(t *testing.T) *domain.FlightInventory {
	t.Helper()
	inv, err := domain.NewFlightInventory("FL-100", map[domain.CabinClass]domain.SeatBucket{
		domain.Economy: {Available: 120, Capacity: 150, Price: domain.MustMoney(199.00, domain.USD)},
	}, 3)
	if err != nil {
		t.Fatalf("NewFlightInventory: %v", err)
	}
	return inv
}

func TestGetAvailability_Success(t *testing.T) {
	h := NewFlightHandler(&mockAvailabilityReader{inv: testFlightInventory(t)})

	router := mux.NewRouter()
	router.HandleFunc("/flights/{id}/availability", h.GetAvailability).Methods("GET")

	req := httptest.NewRequest(http.MethodGet, "/flights/FL-100/availability", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetAvailability_FlightNotFound(t *testing.T) {
	h := NewFlightHandler(&mockAvailabilityReader{err: domain.ErrFlightNotFound})

	router := mux.NewRouter()
	router.HandleFunc("/flights/{id}/availability", h.GetAvailability).Methods("GET")

	req := httptest.NewRequest(http.MethodGet, "/flights/FL-999/availability", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
