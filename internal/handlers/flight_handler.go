package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"airline-booking-system/internal/domain"

	"github.com/gorilla/mux"
)

// AvailabilityReader is the narrow view of the inventory engine (or its
// cache-fronted wrapper) this handler reads from.
type AvailabilityReader interface {
	GetAvailability(ctx context.Context, flightID string) (*domain.FlightInventory, error)
}

// FlightHandler handles flight-availability HTTP requests.
type FlightHandler struct {
	availability AvailabilityReader
}

// NewFlightHandler creates a new flight handler.
func NewFlightHandler(availability AvailabilityReader) *FlightHandler {
	return &FlightHandler{availability: availability}
}

// cabinAvailability is the wire shape of one cabin's seat bucket.
type cabinAvailability struct {
	Cabin     string `json:"cabin"`
	Available int    `json:"available"`
	Capacity  int    `json:"capacity"`
	Price     string `json:"price"`
}

// availabilityResponse is the wire shape of a GetAvailability reply.
type availabilityResponse struct {
	FlightID string              `json:"flightId"`
	Version  int64               `json:"version"`
	Cabins   []cabinAvailability `json:"cabins"`
}

// GetAvailability handles getting a flight's current per-cabin seat
// availability (spec §4.1 read path).
func (h *FlightHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	flightID := vars["id"]

	inv, err := h.availability.GetAvailability(r.Context(), flightID)
	if err != nil {
		writeFlightError(w, err)
		return
	}

	resp := availabilityResponse{FlightID: inv.FlightID, Version: inv.Version}
	for cabin, bucket := range inv.Cabins() {
		resp.Cabins = append(resp.Cabins, cabinAvailability{
			Cabin:     string(cabin),
			Available: bucket.Available,
			Capacity:  bucket.Capacity,
			Price:     bucket.Price.String(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeFlightError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrFlightNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
