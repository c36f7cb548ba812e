package repositories

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"airline-booking-system/internal/domain"
	"airline-booking-system/pkg/database"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockBookingRepo(t *testing.T) (*BookingRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	wrapped := &database.DB{DB: db}

	cleanup := func() {
		db.Close()
	}

	return NewBookingRepository(wrapped), mock, cleanup
}

func testBooking(t *testing.T) *domain.Booking {
	t.Helper()
	pnr, err := domain.NewPnrCode("ABC123")
	if err != nil {
		t.Fatalf("NewPnrCode: %v", err)
	}
	passengers := []domain.Passenger{{ID: "pax-1", Name: "Ada Lovelace", Email: "ada@example.com", Type: "adult"}}
	segments := []domain.BookingSegment{{FlightID: "FL-1", Cabin: domain.Economy, Price: domain.MustMoney(100, domain.EUR)}}
	b, err := domain.NewHeldBooking("bk-1", pnr, passengers, segments, time.Now(), 30*time.Minute)
	if err != nil {
		t.Fatalf("NewHeldBooking: %v", err)
	}
	return b
}

func TestBookingRepository_Create_Success(t *testing.T) {
	repo, mock, cleanup := newMockBookingRepo(t)
	defer cleanup()

	b := testBooking(t)

	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO bookings (id, pnr_code, status, passengers, segments, version, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)).
		WithArgs(b.ID, b.PnrCode.String(), string(domain.BookingHeld), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(1), b.CreatedAt, b.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO event_outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at, retry_count)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
	`)).
		WithArgs(sqlmock.AnyArg(), "Booking", b.ID, domain.EventBookingCreated, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Version != 1 {
		t.Fatalf("expected version 1 after create, got %d", b.Version)
	}
	if len(b.PendingEvents()) != 0 {
		t.Fatalf("expected pending events cleared after create")
	}
}

func TestBookingRepository_Save_OptimisticLockConflict(t *testing.T) {
	repo, mock, cleanup := newMockBookingRepo(t)
	defer cleanup()

	b := testBooking(t)
	if err := b.Confirm("txn-1"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE bookings
		SET status = $1, passengers = $2, segments = $3, expires_at = $4, version = version + 1
		WHERE id = $5 AND version = $6
	`)).
		WithArgs(string(domain.BookingConfirmed), sqlmock.AnyArg(), sqlmock.AnyArg(), b.ExpiresAt, b.ID, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, pnr_code, status, passengers, segments, version, created_at, expires_at
		FROM bookings
		WHERE id = $1
	`)).
		WithArgs(b.ID).
		WillReturnError(sql.ErrNoRows)

	err := repo.Save(context.Background(), b, 1)
	if err == nil {
		t.Fatalf("expected OptimisticLockError, got nil")
	}
	if _, ok := err.(*domain.OptimisticLockError); !ok {
		t.Fatalf("expected *domain.OptimisticLockError, got %v", err)
	}
}

func TestBookingRepository_FindByPnr_NotFoundReturnsNilNil(t *testing.T) {
	repo, mock, cleanup := newMockBookingRepo(t)
	defer cleanup()

	pnr, _ := domain.NewPnrCode("ZZZZZZ")

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, pnr_code, status, passengers, segments, version, created_at, expires_at
		FROM bookings
		WHERE pnr_code = $1
	`)).
		WithArgs(pnr.String()).
		WillReturnError(sql.ErrNoRows)

	b, err := repo.FindByPnr(context.Background(), pnr)
	if err != nil {
		t.Fatalf("expected nil error on miss, got %v", err)
	}
	if b != nil {
		t.Fatalf("expected nil booking on miss, got %+v", b)
	}
}

func TestBookingRepository_FindByID_Success(t *testing.T) {
	repo, mock, cleanup := newMockBookingRepo(t)
	defer cleanup()

	now := time.Now()
	passengersJSON := `[{"id":"pax-1","name":"Ada Lovelace","email":"ada@example.com","dob":"0001-01-01T00:00:00Z","type":"adult"}]`
	segmentsJSON := `[{"flightId":"FL-1","cabin":"ECONOMY","price":{"amount":"100","currency":"EUR"}}]`

	rows := sqlmock.NewRows([]string{"id", "pnr_code", "status", "passengers", "segments", "version", "created_at", "expires_at"}).
		AddRow("bk-1", "ABC123", "Held", passengersJSON, segmentsJSON, int64(1), now, now.Add(30*time.Minute))

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, pnr_code, status, passengers, segments, version, created_at, expires_at
		FROM bookings
		WHERE id = $1
	`)).
		WithArgs("bk-1").
		WillReturnRows(rows)

	b, err := repo.FindByID(context.Background(), "bk-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if b == nil {
		t.Fatalf("expected booking, got nil")
	}
	if b.Status != domain.BookingHeld {
		t.Fatalf("expected Held status, got %s", b.Status)
	}
	if len(b.Passengers) != 1 || b.Passengers[0].ID != "pax-1" {
		t.Fatalf("unexpected passengers: %+v", b.Passengers)
	}
}
