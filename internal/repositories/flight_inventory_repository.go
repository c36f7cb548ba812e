// Package repositories adapts the domain aggregates onto Postgres, grounded
// on the teacher's flight_repository.go/booking_repository.go (same
// query-building and rowsAffected-gated OCC idiom), generalized to the
// per-cabin JSONB availability layout and routed through the transactional
// outbox (spec §4.2/§4.6).
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"airline-booking-system/internal/domain"
	"airline-booking-system/internal/outboxtx"
	"airline-booking-system/pkg/database"
)

// FlightInventoryRepository persists domain.FlightInventory aggregates.
type FlightInventoryRepository struct {
	db *database.DB
}

func NewFlightInventoryRepository(db *database.DB) *FlightInventoryRepository {
	return &FlightInventoryRepository{db: db}
}

// GetByFlightID loads the current snapshot. Returns domain.ErrFlightNotFound
// if no row exists for flightID.
func (r *FlightInventoryRepository) GetByFlightID(ctx context.Context, flightID string) (*domain.FlightInventory, error) {
	q := outboxtx.QuerierFromContext(ctx, r.db.DB)

	var availabilityJSON string
	var version int64
	err := q.QueryRowContext(ctx, `
		SELECT availability, version
		FROM flight_inventory
		WHERE flight_id = $1
	`, flightID).Scan(&availabilityJSON, &version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrFlightNotFound
		}
		return nil, fmt.Errorf("%w: get flight inventory %s: %v", domain.ErrPersistenceFailure, flightID, err)
	}

	buckets, err := decodeAvailability(availabilityJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataIntegrity, err)
	}
	return domain.NewFlightInventory(flightID, buckets, version)
}

// Save writes inv using expectedVersion as the OCC compare-and-swap token,
// and then appends inv's pending events to the outbox with separate INSERT
// statements on the same querier: the ambient transaction when there is one,
// otherwise each statement commits on its own. Callers that need the update
// and its events atomic should invoke Save from inside a
// outboxtx.UnitOfWork.Transaction.
func (r *FlightInventoryRepository) Save(ctx context.Context, inv *domain.FlightInventory, expectedVersion int64) (*domain.FlightInventory, error) {
	availabilityJSON, err := encodeAvailability(inv.Cabins())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataIntegrity, err)
	}

	q := outboxtx.QuerierFromContext(ctx, r.db.DB)

	result, err := q.ExecContext(ctx, `
		UPDATE flight_inventory
		SET availability = $1, version = version + 1
		WHERE flight_id = $2 AND version = $3
	`, availabilityJSON, inv.FlightID, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: save flight inventory %s: %v", domain.ErrPersistenceFailure, inv.FlightID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	if rows == 0 {
		current, getErr := r.GetByFlightID(ctx, inv.FlightID)
		actual := expectedVersion
		if getErr == nil {
			actual = current.Version
		}
		return nil, &domain.OptimisticLockError{Aggregate: "FlightInventory", ID: inv.FlightID, Expected: expectedVersion, Actual: actual}
	}

	if err := appendOutboxEvents(ctx, q, "FlightInventory", inv.FlightID, inv.PendingEvents()); err != nil {
		return nil, err
	}
	inv.ClearPendingEvents()

	persisted, err := domain.NewFlightInventory(inv.FlightID, inv.Cabins(), expectedVersion+1)
	if err != nil {
		return nil, err
	}
	return persisted, nil
}

// Seed inserts a brand-new flight inventory row (used by flight onboarding,
// not part of the booking hot path).
func (r *FlightInventoryRepository) Seed(ctx context.Context, inv *domain.FlightInventory) error {
	availabilityJSON, err := encodeAvailability(inv.Cabins())
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDataIntegrity, err)
	}
	q := outboxtx.QuerierFromContext(ctx, r.db.DB)
	_, err = q.ExecContext(ctx, `
		INSERT INTO flight_inventory (flight_id, availability, version)
		VALUES ($1, $2, $3)
	`, inv.FlightID, availabilityJSON, inv.Version)
	if err != nil {
		return fmt.Errorf("%w: seed flight inventory %s: %v", domain.ErrPersistenceFailure, inv.FlightID, err)
	}
	return nil
}

func encodeAvailability(buckets map[domain.CabinClass]domain.SeatBucket) (string, error) {
	b, err := json.Marshal(buckets)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeAvailability(raw string) (map[domain.CabinClass]domain.SeatBucket, error) {
	var buckets map[domain.CabinClass]domain.SeatBucket
	if err := json.Unmarshal([]byte(raw), &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}
