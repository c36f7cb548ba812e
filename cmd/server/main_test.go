package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"airline-booking-system/internal/domain"
	"airline-booking-system/internal/handlers"
	"airline-booking-system/internal/saga"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type dummyAvailabilityReader struct{}

func (d *dummyAvailabilityReader) GetAvailability(ctx context.Context, flightID string) (*domain.FlightInventory, error) {
	return nil, domain.ErrFlightNotFound
}

type dummyBookingSaga struct{}

func (d *dummyBookingSaga) BookFlight(ctx context.Context, cmd saga.BookFlightCommand) (*saga.BookFlightResult, error) {
	return nil, domain.ErrFlightNotFound
}

func (d *dummyBookingSaga) ConfirmBooking(ctx context.Context, bookingID, transactionID string) (*domain.Booking, error) {
	return nil, domain.ErrBookingNotFound
}

type dummyBookingLookup struct{}

func (d *dummyBookingLookup) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	return nil, nil
}

func (d *dummyBookingLookup) FindByPnr(ctx context.Context, pnr domain.PnrCode) (*domain.Booking, error) {
	return nil, nil
}

func TestHealthEndpoint(t *testing.T) {
	flightHandler := handlers.NewFlightHandler(&dummyAvailabilityReader{})
	bookingHandler := handlers.NewBookingHandler(&dummyBookingSaga{}, &dummyBookingLookup{})
	log := zap.NewNop().Sugar()

	router := setupRoutes(flightHandler, bookingHandler, prometheus.NewRegistry(), log)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	flightHandler := handlers.NewFlightHandler(&dummyAvailabilityReader{})
	bookingHandler := handlers.NewBookingHandler(&dummyBookingSaga{}, &dummyBookingLookup{})
	log := zap.NewNop().Sugar()

	router := setupRoutes(flightHandler, bookingHandler, prometheus.NewRegistry(), log)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
}
