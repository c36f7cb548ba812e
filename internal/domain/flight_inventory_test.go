package domain

import (
	"errors"
	"testing"
)

func newTestInventory(t *testing.T, available, capacity int) *FlightInventory {
	t.Helper()
	inv, err := NewFlightInventory("FL-CONC-1", map[CabinClass]SeatBucket{
		Economy: {Available: available, Capacity: capacity, Price: MustMoney(100, EUR)},
	}, 1)
	if err != nil {
		t.Fatalf("NewFlightInventory: %v", err)
	}
	return inv
}

func TestFlightInventory_HoldReleaseRoundTrip(t *testing.T) {
	inv := newTestInventory(t, 5, 100)

	if _, err := inv.HoldSeats(Economy, 2); err != nil {
		t.Fatalf("HoldSeats: %v", err)
	}
	bucket, _ := inv.Bucket(Economy)
	if bucket.Available != 3 {
		t.Fatalf("expected 3 available after hold, got %d", bucket.Available)
	}

	if err := inv.ReleaseSeats(Economy, 2); err != nil {
		t.Fatalf("ReleaseSeats: %v", err)
	}
	bucket, _ = inv.Bucket(Economy)
	if bucket.Available != 5 {
		t.Fatalf("expected 5 available after round-trip, got %d", bucket.Available)
	}
}

func TestFlightInventory_HoldSeatsFlightFull(t *testing.T) {
	inv := newTestInventory(t, 1, 100)

	if _, err := inv.HoldSeats(Economy, 2); !errors.Is(err, ErrFlightFull) {
		t.Fatalf("expected ErrFlightFull, got %v", err)
	}
	bucket, _ := inv.Bucket(Economy)
	if bucket.Available != 1 {
		t.Fatalf("failed hold must not mutate snapshot, got available=%d", bucket.Available)
	}
}

func TestFlightInventory_ReleaseOverCapacity(t *testing.T) {
	inv := newTestInventory(t, 99, 100)

	if err := inv.ReleaseSeats(Economy, 5); !errors.Is(err, ErrOverCapacity) {
		t.Fatalf("expected ErrOverCapacity, got %v", err)
	}
}

func TestFlightInventory_InvalidAmount(t *testing.T) {
	inv := newTestInventory(t, 5, 100)

	if _, err := inv.HoldSeats(Economy, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for n=0, got %v", err)
	}
	if err := inv.ReleaseSeats(Economy, -1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for n=-1, got %v", err)
	}
}

func TestFlightInventory_UnknownCabin(t *testing.T) {
	inv := newTestInventory(t, 5, 100)

	if _, err := inv.HoldSeats(Business, 1); !errors.Is(err, ErrFlightNotFound) {
		t.Fatalf("expected ErrFlightNotFound for unsold cabin, got %v", err)
	}
}

func TestFlightInventory_HoldAppendsExactlyOnePendingEvent(t *testing.T) {
	inv := newTestInventory(t, 5, 100)

	if _, err := inv.HoldSeats(Economy, 1); err != nil {
		t.Fatalf("HoldSeats: %v", err)
	}
	events := inv.PendingEvents()
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 pending event, got %d", len(events))
	}
	if events[0].EventType() != EventSeatsHeld {
		t.Fatalf("expected SeatsHeld event, got %s", events[0].EventType())
	}

	inv.ClearPendingEvents()
	if len(inv.PendingEvents()) != 0 {
		t.Fatal("expected pending events cleared")
	}
}

func TestFlightInventory_NeverOversellsCapacity(t *testing.T) {
	inv := newTestInventory(t, 1, 100)

	successes := 0
	for i := 0; i < 10; i++ {
		if _, err := inv.HoldSeats(Economy, 1); err == nil {
			successes++
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly 1 successful hold of the last seat, got %d", successes)
	}
	bucket, _ := inv.Bucket(Economy)
	if bucket.Available != 0 {
		t.Fatalf("expected 0 available, got %d", bucket.Available)
	}
	if bucket.Available < 0 {
		t.Fatal("available must never go negative")
	}
}
