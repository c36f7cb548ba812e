package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"airline-booking-system/internal/domain"
	"airline-booking-system/internal/outboxtx"
	"airline-booking-system/pkg/database"
)

// BookingRepository persists domain.Booking aggregates, full-replacing the
// passengers/segments JSON payload on every save (spec §3 — a booking's
// passenger/segment list never grows independently of a full re-save).
type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type passengerDTO struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	DOB   time.Time `json:"dob"`
	Type  string    `json:"type"`
}

type segmentDTO struct {
	FlightID   string            `json:"flightId"`
	Cabin      domain.CabinClass `json:"cabin"`
	Price      domain.Money      `json:"price"`
	SeatNumber *string           `json:"seatNumber,omitempty"`
}

// Create inserts a brand-new booking row (the Held-state insert in spec
// §4.3 step 2) and appends its pending events to the outbox in the same
// transaction. Call from inside outboxtx.UnitOfWork.Transaction so it's
// atomic with the inventory hold's Save.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	passengersJSON, segmentsJSON, err := encodeBooking(b)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDataIntegrity, err)
	}

	q := outboxtx.QuerierFromContext(ctx, r.db.DB)
	_, err = q.ExecContext(ctx, `
		INSERT INTO bookings (id, pnr_code, status, passengers, segments, version, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, b.ID, b.PnrCode.String(), string(b.Status), passengersJSON, segmentsJSON, int64(1), b.CreatedAt, b.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%w: create booking %s: %v", domain.ErrPersistenceFailure, b.ID, err)
	}

	if err := appendOutboxEvents(ctx, q, "Booking", b.ID, b.PendingEvents()); err != nil {
		return err
	}
	b.ClearPendingEvents()
	b.Version = 1
	return nil
}

// Save version-checks and full-replaces a booking's mutable fields (status,
// expiry), appending pending events in the same transaction, mirroring the
// teacher's UpdateFlight rowsAffected-gated OCC idiom.
func (r *BookingRepository) Save(ctx context.Context, b *domain.Booking, expectedVersion int64) error {
	passengersJSON, segmentsJSON, err := encodeBooking(b)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDataIntegrity, err)
	}

	q := outboxtx.QuerierFromContext(ctx, r.db.DB)
	result, err := q.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1, passengers = $2, segments = $3, expires_at = $4, version = version + 1
		WHERE id = $5 AND version = $6
	`, string(b.Status), passengersJSON, segmentsJSON, b.ExpiresAt, b.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("%w: save booking %s: %v", domain.ErrPersistenceFailure, b.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	if rows == 0 {
		current, getErr := r.FindByID(ctx, b.ID)
		actual := expectedVersion
		if getErr == nil && current != nil {
			actual = current.Version
		}
		return &domain.OptimisticLockError{Aggregate: "Booking", ID: b.ID, Expected: expectedVersion, Actual: actual}
	}

	if err := appendOutboxEvents(ctx, q, "Booking", b.ID, b.PendingEvents()); err != nil {
		return err
	}
	b.ClearPendingEvents()
	b.Version = expectedVersion + 1
	return nil
}

// FindByID returns (nil, nil) on a miss, following the nil-pointer lookup
// convention decided for this module (see DESIGN.md Open Question 1).
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	q := outboxtx.QuerierFromContext(ctx, r.db.DB)
	row := q.QueryRowContext(ctx, `
		SELECT id, pnr_code, status, passengers, segments, version, created_at, expires_at
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

// FindByPnr returns (nil, nil) on a miss.
func (r *BookingRepository) FindByPnr(ctx context.Context, pnr domain.PnrCode) (*domain.Booking, error) {
	q := outboxtx.QuerierFromContext(ctx, r.db.DB)
	row := q.QueryRowContext(ctx, `
		SELECT id, pnr_code, status, passengers, segments, version, created_at, expires_at
		FROM bookings
		WHERE pnr_code = $1
	`, pnr.String())
	return scanBooking(row)
}

// FindExpired returns up to limit Held bookings whose hold lapsed as of
// asOf, oldest first, for the sweeper's bounded page size (spec §4.4/C6).
func (r *BookingRepository) FindExpired(ctx context.Context, asOf time.Time, limit int) ([]*domain.Booking, error) {
	q := outboxtx.QuerierFromContext(ctx, r.db.DB)
	rows, err := q.QueryContext(ctx, `
		SELECT id, pnr_code, status, passengers, segments, version, created_at, expires_at
		FROM bookings
		WHERE status = $1 AND expires_at IS NOT NULL AND expires_at < $2
		ORDER BY expires_at ASC
		LIMIT $3
	`, string(domain.BookingHeld), asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: find expired bookings: %v", domain.ErrPersistenceFailure, err)
	}
	defer rows.Close()

	var out []*domain.Booking
	for rows.Next() {
		b, err := scanBookingRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// FindByPassengerID returns every booking that includes a passenger with
// the given ID, ordered newest-first (spec §5 booking lookup).
func (r *BookingRepository) FindByPassengerID(ctx context.Context, passengerID string) ([]*domain.Booking, error) {
	q := outboxtx.QuerierFromContext(ctx, r.db.DB)
	rows, err := q.QueryContext(ctx, `
		SELECT id, pnr_code, status, passengers, segments, version, created_at, expires_at
		FROM bookings
		WHERE passengers @> $1
		ORDER BY created_at DESC
	`, fmt.Sprintf(`[{"id": %q}]`, passengerID))
	if err != nil {
		return nil, fmt.Errorf("%w: find bookings by passenger %s: %v", domain.ErrPersistenceFailure, passengerID, err)
	}
	defer rows.Close()

	var out []*domain.Booking
	for rows.Next() {
		b, err := scanBookingRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row *sql.Row) (*domain.Booking, error) {
	b, err := scanBookingRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func scanBookingRow(row rowScanner) (*domain.Booking, error) {
	var id, pnrStr, status, passengersJSON, segmentsJSON string
	var version int64
	var createdAt time.Time
	var expiresAt sql.NullTime

	if err := row.Scan(&id, &pnrStr, &status, &passengersJSON, &segmentsJSON, &version, &createdAt, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scan booking: %v", domain.ErrPersistenceFailure, err)
	}

	pnr, err := domain.NewPnrCode(pnrStr)
	if err != nil {
		return nil, fmt.Errorf("%w: stored pnr %q invalid: %v", domain.ErrDataIntegrity, pnrStr, err)
	}

	var passengerDTOs []passengerDTO
	if err := json.Unmarshal([]byte(passengersJSON), &passengerDTOs); err != nil {
		return nil, fmt.Errorf("%w: unmarshal passengers: %v", domain.ErrDataIntegrity, err)
	}
	var segmentDTOs []segmentDTO
	if err := json.Unmarshal([]byte(segmentsJSON), &segmentDTOs); err != nil {
		return nil, fmt.Errorf("%w: unmarshal segments: %v", domain.ErrDataIntegrity, err)
	}

	passengers := make([]domain.Passenger, len(passengerDTOs))
	for i, p := range passengerDTOs {
		passengers[i] = domain.Passenger{ID: p.ID, Name: p.Name, Email: p.Email, DOB: p.DOB, Type: p.Type}
	}
	segments := make([]domain.BookingSegment, len(segmentDTOs))
	for i, s := range segmentDTOs {
		segments[i] = domain.BookingSegment{FlightID: s.FlightID, Cabin: s.Cabin, Price: s.Price, SeatNumber: s.SeatNumber}
	}

	var expires *time.Time
	if expiresAt.Valid {
		t := expiresAt.Time
		expires = &t
	}

	// Rehydration path: build the aggregate fields directly rather than
	// going through NewHeldBooking, which would append a second
	// BookingCreatedEvent.
	b := &domain.Booking{
		ID:         id,
		PnrCode:    pnr,
		Status:     domain.BookingStatus(status),
		Passengers: passengers,
		Segments:   segments,
		Version:    version,
		CreatedAt:  createdAt,
		ExpiresAt:  expires,
	}
	return b, nil
}

func encodeBooking(b *domain.Booking) (passengersJSON, segmentsJSON string, err error) {
	passengerDTOs := make([]passengerDTO, len(b.Passengers))
	for i, p := range b.Passengers {
		passengerDTOs[i] = passengerDTO{ID: p.ID, Name: p.Name, Email: p.Email, DOB: p.DOB, Type: p.Type}
	}
	segmentDTOs := make([]segmentDTO, len(b.Segments))
	for i, s := range b.Segments {
		segmentDTOs[i] = segmentDTO{FlightID: s.FlightID, Cabin: s.Cabin, Price: s.Price, SeatNumber: s.SeatNumber}
	}

	pj, err := json.Marshal(passengerDTOs)
	if err != nil {
		return "", "", err
	}
	sj, err := json.Marshal(segmentDTOs)
	if err != nil {
		return "", "", err
	}
	return string(pj), string(sj), nil
}
