// Package saga implements the Booking Saga (spec §4.3/C3): hold seats,
// persist a Held booking, drive a payment checkout to completion, and
// confirm-or-compensate, generalized from the teacher's
// internal/services/booking_service.go CreateBooking flow (lock → validate
// → persist → async payment → status update) into the full saga the spec
// describes.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"airline-booking-system/internal/domain"
	"airline-booking-system/internal/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryHolder is the narrow view of the C2 engine the saga drives.
type InventoryHolder interface {
	HoldSeats(ctx context.Context, flightID string, cabin domain.CabinClass, n int) (*HoldOutcome, error)
	ReleaseSeats(ctx context.Context, flightID string, cabin domain.CabinClass, n int) (*ReleaseOutcome, error)
}

// HoldOutcome and ReleaseOutcome mirror internal/inventory's HoldResult and
// ReleaseResult structurally; the saga depends on this small shape instead
// of importing internal/inventory directly so it can be tested against a
// fake without dragging in the engine's queue/worker machinery.
type HoldOutcome struct {
	UnitPrice  domain.Money
	TotalPrice domain.Money
}

type ReleaseOutcome struct {
	SeatsReleased int
}

// BookingRepository is the narrow persistence contract the saga needs.
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	Save(ctx context.Context, b *domain.Booking, expectedVersion int64) error
	FindByID(ctx context.Context, id string) (*domain.Booking, error)
	PnrLookup
}

// TicketRepository persists an issued ticket inside the confirm transaction.
type TicketRepository interface {
	Create(ctx context.Context, bookingID string, ticket domain.Ticket) error
}

// UnitOfWork runs work atomically (C4).
type UnitOfWork interface {
	Transaction(ctx context.Context, work func(ctx context.Context) error) error
}

// Config tunes saga timeouts and retry budgets (spec §4.3/§5).
type Config struct {
	HoldDuration            time.Duration // default 30m
	CheckoutPollInterval    time.Duration // default 2s
	CheckoutPollMaxDuration time.Duration // default = HoldDuration
	PaymentAttemptTimeout   time.Duration // default 30s
	PaymentMaxAttempts      int           // default 3
	NotificationTimeout     time.Duration // default 10s
	NotificationMaxAttempts int           // default 3
	ConfirmOCCMaxRetries    int           // default 3
}

func DefaultConfig() Config {
	return Config{
		HoldDuration:            30 * time.Minute,
		CheckoutPollInterval:    2 * time.Second,
		CheckoutPollMaxDuration: 30 * time.Minute,
		PaymentAttemptTimeout:   30 * time.Second,
		PaymentMaxAttempts:      3,
		NotificationTimeout:     10 * time.Second,
		NotificationMaxAttempts: 3,
		ConfirmOCCMaxRetries:    3,
	}
}

// BookFlightCommand is the saga's entry command (spec §4.3 "Operation:
// bookFlight").
type BookFlightCommand struct {
	FlightID    string
	Cabin       domain.CabinClass
	Passenger   domain.Passenger
	SeatNumber  *string
	SuccessURL  string
	CancelURL   string
}

// BookFlightResult is what bookFlight returns on success.
type BookFlightResult struct {
	Booking     *domain.Booking
	CheckoutURL string
}

// Saga wires C2/C4/C5/C8 together into the booking flow.
type Saga struct {
	inventory    InventoryHolder
	bookings     BookingRepository
	tickets      TicketRepository
	uow          UnitOfWork
	payment      ports.PaymentGateway
	notification ports.NotificationGateway
	pnrGen       *PnrGenerator
	cfg          Config
	log          *zap.SugaredLogger
}

func New(
	inventory InventoryHolder,
	bookings BookingRepository,
	tickets TicketRepository,
	uow UnitOfWork,
	payment ports.PaymentGateway,
	notification ports.NotificationGateway,
	cfg Config,
	log *zap.SugaredLogger,
) *Saga {
	if cfg.HoldDuration <= 0 {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Saga{
		inventory:    inventory,
		bookings:     bookings,
		tickets:      tickets,
		uow:          uow,
		payment:      payment,
		notification: notification,
		pnrGen:       NewPnrGenerator(bookings),
		cfg:          cfg,
		log:          log,
	}
}

// BookFlight implements spec §4.3 steps 1-8.
func (s *Saga) BookFlight(ctx context.Context, cmd BookFlightCommand) (*BookFlightResult, error) {
	hold, err := s.inventory.HoldSeats(ctx, cmd.FlightID, cmd.Cabin, 1)
	if err != nil {
		return nil, fmt.Errorf("hold seats: %w", err)
	}

	pnr, err := s.pnrGen.Generate(ctx)
	if err != nil {
		s.releaseBestEffort(ctx, cmd.FlightID, cmd.Cabin)
		return nil, err
	}

	bookingID := uuid.NewString()
	segment := domain.BookingSegment{FlightID: cmd.FlightID, Cabin: cmd.Cabin, Price: hold.UnitPrice, SeatNumber: cmd.SeatNumber}
	booking, err := domain.NewHeldBooking(bookingID, pnr, []domain.Passenger{cmd.Passenger}, []domain.BookingSegment{segment}, time.Now(), s.cfg.HoldDuration)
	if err != nil {
		s.releaseBestEffort(ctx, cmd.FlightID, cmd.Cabin)
		return nil, err
	}

	if err := s.uow.Transaction(ctx, func(ctx context.Context) error {
		return s.bookings.Create(ctx, booking)
	}); err != nil {
		s.releaseBestEffort(ctx, cmd.FlightID, cmd.Cabin)
		return nil, fmt.Errorf("%w: persist held booking: %v", domain.ErrPersistenceFailure, err)
	}

	checkout, err := s.createCheckoutWithRetry(ctx, ports.CreateCheckoutRequest{
		Amount:           hold.TotalPrice,
		Customer:         ports.CheckoutCustomer{Email: cmd.Passenger.Email, ExternalID: cmd.Passenger.ID},
		BookingReference: pnr.String(),
		BookingID:        bookingID,
		SuccessURL:       cmd.SuccessURL,
		CancelURL:        cmd.CancelURL,
	})
	if err != nil {
		s.compensate(ctx, booking, cmd.FlightID, cmd.Cabin, "payment checkout failed: "+err.Error())
		return nil, err
	}

	status, err := s.pollCheckout(ctx, checkout.ID)
	if err != nil {
		s.compensate(ctx, booking, cmd.FlightID, cmd.Cabin, "payment polling failed: "+err.Error())
		return nil, err
	}

	switch status.State {
	case ports.CheckoutCompleted:
		if err := s.confirmAndIssueTicket(ctx, booking, status.Confirmation.TransactionID); err != nil {
			return nil, err
		}
		return &BookFlightResult{Booking: booking, CheckoutURL: checkout.CheckoutURL}, nil
	default:
		reason := declineReason(status)
		s.compensate(ctx, booking, cmd.FlightID, cmd.Cabin, reason)
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, reason)
	}
}

// ConfirmBooking is the idempotent webhook-style entrypoint (spec §4.3
// "Operation: confirmBooking").
func (s *Saga) ConfirmBooking(ctx context.Context, bookingID, transactionID string) (*domain.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, domain.ErrBookingNotFound
	}
	if booking.Status == domain.BookingConfirmed {
		return booking, nil
	}
	if booking.Status != domain.BookingHeld {
		return nil, fmt.Errorf("%w: booking %s is %s", domain.ErrInvalidBookingState, bookingID, booking.Status)
	}
	if err := s.confirmAndIssueTicket(ctx, booking, transactionID); err != nil {
		return nil, err
	}
	return booking, nil
}

// confirmAndIssueTicket implements spec §4.3 steps 6-7: confirm with OCC
// retry (re-reading between attempts), issue the ticket, and best-effort
// notify.
func (s *Saga) confirmAndIssueTicket(ctx context.Context, booking *domain.Booking, transactionID string) error {
	if err := s.confirmWithRetry(ctx, booking, transactionID); err != nil {
		return err
	}

	ticketNumber := domain.NewTicketNumber(booking.PnrCode, time.Now())
	passenger := booking.Passengers[0]
	ticket := domain.NewTicket(ticketNumber, booking.PnrCode, passenger, booking.Segments, time.Now())

	if err := s.uow.Transaction(ctx, func(ctx context.Context) error {
		return s.tickets.Create(ctx, booking.ID, ticket)
	}); err != nil {
		s.log.Errorw("failed to persist ticket after confirm", "bookingId", booking.ID, "error", err)
		return fmt.Errorf("%w: persist ticket: %v", domain.ErrPersistenceFailure, err)
	}

	s.notifyBestEffort(ctx, ticket, passenger)
	return nil
}

// confirmWithRetry performs the Held -> Confirmed transition, retrying on
// optimistic-lock conflict by re-reading the booking between attempts (spec
// §4.3 step 6 / confirmBooking).
func (s *Saga) confirmWithRetry(ctx context.Context, booking *domain.Booking, transactionID string) error {
	current := booking
	for attempt := 0; attempt <= s.cfg.ConfirmOCCMaxRetries; attempt++ {
		if current.Status == domain.BookingConfirmed {
			*booking = *current
			return nil
		}
		if err := current.Confirm(transactionID); err != nil {
			return err
		}

		expectedVersion := current.Version
		err := s.uow.Transaction(ctx, func(ctx context.Context) error {
			return s.bookings.Save(ctx, current, expectedVersion)
		})
		if err == nil {
			*booking = *current
			return nil
		}

		var lockErr *domain.OptimisticLockError
		if errors.As(err, &lockErr) && attempt < s.cfg.ConfirmOCCMaxRetries {
			reloaded, reloadErr := s.bookings.FindByID(ctx, current.ID)
			if reloadErr != nil || reloaded == nil {
				return fmt.Errorf("%w: reload booking %s after conflict: %v", domain.ErrPersistenceFailure, current.ID, reloadErr)
			}
			current = reloaded
			continue
		}
		return err
	}
	return fmt.Errorf("%w: confirm exhausted retries for booking %s", domain.ErrOptimisticLockConflict, booking.ID)
}

// compensate implements spec §4.3 step 5: release seats best-effort, cancel
// the booking, and let the sweeper catch any leftover.
func (s *Saga) compensate(ctx context.Context, booking *domain.Booking, flightID string, cabin domain.CabinClass, reason string) {
	s.releaseBestEffort(ctx, flightID, cabin)

	if err := booking.Cancel(reason); err != nil {
		s.log.Warnw("booking already left Held state before compensation cancel", "bookingId", booking.ID, "status", booking.Status)
		return
	}
	expectedVersion := booking.Version
	err := s.uow.Transaction(ctx, func(ctx context.Context) error {
		return s.bookings.Save(ctx, booking, expectedVersion)
	})
	if err != nil {
		s.log.Errorw("failed to persist compensation cancel, sweeper will reclaim on expiry", "bookingId", booking.ID, "error", err)
	}
}

func (s *Saga) releaseBestEffort(ctx context.Context, flightID string, cabin domain.CabinClass) {
	if _, err := s.inventory.ReleaseSeats(context.Background(), flightID, cabin, 1); err != nil {
		s.log.Errorw("failed to release seats during compensation, sweeper will reclaim on expiry", "flightId", flightID, "error", err)
	}
}

func (s *Saga) notifyBestEffort(ctx context.Context, ticket domain.Ticket, passenger domain.Passenger) {
	coupons := make([]ports.TicketCoupon, len(ticket.Coupons))
	for i, c := range ticket.Coupons {
		coupons[i] = ports.TicketCoupon{FlightID: c.FlightID, SeatNumber: c.SeatNumber, Status: string(c.Status)}
	}
	payload := ports.TicketPayload{
		TicketNumber:  ticket.TicketNumber,
		PnrCode:       ticket.PnrCode.String(),
		PassengerName: passenger.Name,
		Coupons:       coupons,
	}

	backoff := newJitteredBackoff(500*time.Millisecond, 5*time.Second)
	for attempt := 0; attempt < s.cfg.NotificationMaxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, s.cfg.NotificationTimeout)
		_, err := s.notification.SendTicket(sendCtx, payload, ports.NotificationRecipient{Email: passenger.Email, Name: passenger.Name})
		cancel()
		if err == nil {
			return
		}
		var rateLimit *domain.NotificationRateLimitError
		if errors.As(err, &rateLimit) && attempt < s.cfg.NotificationMaxAttempts-1 {
			_ = backoff.sleep(ctx, attempt)
			continue
		}
		if !errors.Is(err, domain.ErrNotificationUnavailable) || attempt == s.cfg.NotificationMaxAttempts-1 {
			s.log.Warnw("ticket notification send failed, outbox delivery remains the durable path", "ticketNumber", ticket.TicketNumber, "error", err)
			return
		}
		_ = backoff.sleep(ctx, attempt)
	}
}

// createCheckoutWithRetry retries transient transport errors up to
// PaymentMaxAttempts times, each bounded by PaymentAttemptTimeout (spec
// §4.3 step 4).
func (s *Saga) createCheckoutWithRetry(ctx context.Context, req ports.CreateCheckoutRequest) (*ports.Checkout, error) {
	backoff := newJitteredBackoff(time.Second, 10*time.Second)
	var lastErr error
	for attempt := 0; attempt < s.cfg.PaymentMaxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.PaymentAttemptTimeout)
		checkout, err := s.payment.CreateCheckout(callCtx, req)
		cancel()
		if err == nil {
			return checkout, nil
		}
		lastErr = err
		if !isRetryablePaymentError(err) || attempt == s.cfg.PaymentMaxAttempts-1 {
			return nil, err
		}
		if sleepErr := backoff.sleep(ctx, attempt); sleepErr != nil {
			return nil, sleepErr
		}
	}
	return nil, lastErr
}

// pollCheckout polls GetCheckoutStatus until a terminal state, bounded by
// CheckoutPollMaxDuration and cancellable via ctx (spec §4.3 step 4).
func (s *Saga) pollCheckout(ctx context.Context, checkoutID string) (*ports.CheckoutStatus, error) {
	deadline := time.Now().Add(s.cfg.CheckoutPollMaxDuration)
	ticker := time.NewTicker(s.cfg.CheckoutPollInterval)
	defer ticker.Stop()

	for {
		status, err := s.payment.GetCheckoutStatus(ctx, checkoutID)
		if err != nil {
			return nil, err
		}
		if status.State != ports.CheckoutPending {
			return status, nil
		}
		if time.Now().After(deadline) {
			return &ports.CheckoutStatus{State: ports.CheckoutExpired}, nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func isRetryablePaymentError(err error) bool {
	return errors.Is(err, domain.ErrPaymentUnavailable) ||
		errors.Is(err, domain.ErrExternalServiceTimeout) ||
		errors.Is(err, domain.ErrExternalServiceServerError)
}

func declineReason(status *ports.CheckoutStatus) string {
	switch status.State {
	case ports.CheckoutDeclined:
		return "payment declined"
	case ports.CheckoutExpired:
		return "payment checkout expired"
	case ports.CheckoutFailed:
		return status.FailedReason
	default:
		return "payment did not complete"
	}
}
