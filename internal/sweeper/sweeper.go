// Package sweeper implements the expiration sweeper (spec §4.4/C6): a
// ticker-driven reclaimer of seats and bookings left behind by a saga that
// never reached a terminal state, generalized from the teacher's
// time.Sleep-driven async pattern in internal/services/booking_service.go
// and the per-item isolated-transaction sweep shown in
// other_examples/5a59507e_abhinandanwadwa-overbookr__internal-workers-expire_holds.go.
package sweeper

import (
	"context"
	"errors"
	"time"

	"airline-booking-system/internal/domain"

	"go.uber.org/zap"
)

// InventoryReleaser is the narrow view of the C2 engine the sweeper drives.
type InventoryReleaser interface {
	ReleaseSeats(ctx context.Context, flightID string, cabin domain.CabinClass, n int) (*ReleaseOutcome, error)
}

// ReleaseOutcome mirrors saga.ReleaseOutcome/inventory.ReleaseResult
// structurally; kept local so this package doesn't need to import the
// engine or the saga package just to describe a release's outcome.
type ReleaseOutcome struct {
	SeatsReleased int
}

// BookingRepository is the narrow persistence contract the sweeper needs.
type BookingRepository interface {
	FindExpired(ctx context.Context, asOf time.Time, limit int) ([]*domain.Booking, error)
	Save(ctx context.Context, b *domain.Booking, expectedVersion int64) error
}

// UnitOfWork runs work atomically (C4).
type UnitOfWork interface {
	Transaction(ctx context.Context, work func(ctx context.Context) error) error
}

// Config tunes the sweeper's cadence and page size (spec §4.4).
type Config struct {
	Interval  time.Duration // default 60s
	PageSize  int           // default 100
}

func DefaultConfig() Config {
	return Config{Interval: 60 * time.Second, PageSize: 100}
}

// Sweeper periodically moves expired Held bookings to Expired and releases their
// seats (spec §4.4).
type Sweeper struct {
	inventory InventoryReleaser
	bookings  BookingRepository
	uow       UnitOfWork
	cfg       Config
	log       *zap.SugaredLogger
	now       func() time.Time
}

func New(inventory InventoryReleaser, bookings BookingRepository, uow UnitOfWork, cfg Config, log *zap.SugaredLogger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultConfig().PageSize
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Sweeper{inventory: inventory, bookings: bookings, uow: uow, cfg: cfg, log: log, now: time.Now}
}

// Run blocks, ticking at cfg.Interval until ctx is cancelled. Each tick calls
// Tick once; a tick's own errors are logged, never fatal to the loop.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				s.log.Errorw("sweeper tick failed", "error", err)
			}
		}
	}
}

// Tick runs one sweep: query Held bookings past their hold expiry, and
// reclaim each in isolation so one bad booking never blocks the rest of the
// page (spec §4.4 step 2).
func (s *Sweeper) Tick(ctx context.Context) error {
	expired, err := s.bookings.FindExpired(ctx, s.now(), s.cfg.PageSize)
	if err != nil {
		return err
	}
	for _, booking := range expired {
		if err := s.reclaim(ctx, booking); err != nil {
			s.log.Errorw("failed to reclaim expired booking, will retry next tick", "bookingId", booking.ID, "error", err)
		}
	}
	return nil
}

// reclaim releases every segment's seat and transitions the booking to
// Expired, persisting under UoW (spec §4.4 step 2). Seat release is
// attempted for every segment even if one fails, so a single flight's OCC
// conflict doesn't leave the rest of a multi-segment booking's seats held.
func (s *Sweeper) reclaim(ctx context.Context, booking *domain.Booking) error {
	var releaseErr error
	for _, seg := range booking.Segments {
		if _, err := s.inventory.ReleaseSeats(ctx, seg.FlightID, seg.Cabin, 1); err != nil && !errors.Is(err, domain.ErrOverCapacity) {
			releaseErr = err
		}
	}

	if err := booking.Expire(); err != nil {
		return err
	}
	expectedVersion := booking.Version
	if err := s.uow.Transaction(ctx, func(ctx context.Context) error {
		return s.bookings.Save(ctx, booking, expectedVersion)
	}); err != nil {
		return err
	}
	return releaseErr
}
