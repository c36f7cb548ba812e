// Package inventory implements the per-flight seat inventory engine (spec
// §4.1 / C2): a bounded coalescing queue with a single background worker,
// a direct fallback path when the queue is saturated, and OCC retry with
// jittered backoff at the store boundary.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"airline-booking-system/internal/domain"

	"go.uber.org/zap"
)

// Repository is the write/read contract the engine needs from persistence
// (a narrowed view of the Inventory Repository port in spec §6).
type Repository interface {
	GetByFlightID(ctx context.Context, flightID string) (*domain.FlightInventory, error)
	// Save persists inv using expectedVersion as the OCC compare-and-swap
	// token. On success it returns the aggregate with Version incremented
	// and pending events cleared. On a version mismatch it returns an
	// *domain.OptimisticLockError.
	Save(ctx context.Context, inv *domain.FlightInventory, expectedVersion int64) (*domain.FlightInventory, error)
}

// HoldResult is the outcome of a successful HoldSeats call (spec §4.1).
type HoldResult struct {
	Snapshot      *domain.FlightInventory
	UnitPrice     domain.Money
	TotalPrice    domain.Money
	SeatsHeld     int
	HoldExpiresAt time.Time
}

// ReleaseResult is the outcome of a successful ReleaseSeats call.
type ReleaseResult struct {
	Snapshot      *domain.FlightInventory
	SeatsReleased int
}

// requestKind distinguishes the two operations the coalescing queue
// carries.
type requestKind int

const (
	kindHold requestKind = iota
	kindRelease
)

type request struct {
	ctx      context.Context
	kind     requestKind
	flightID string
	cabin    domain.CabinClass
	n        int
	done     chan response
}

type response struct {
	hold    *HoldResult
	release *ReleaseResult
	err     error
}

// Config tunes the engine per spec §5/§6.
type Config struct {
	QueueCapacity int           // default 500
	MaxBatchSize  int           // default 50, per §4.1 "1..50 items"
	HoldDuration  time.Duration // default 30 min
	MaxOCCRetries int           // default 10
	BaseBackoff   time.Duration // default 10ms
	MaxBackoff    time.Duration // default 500ms
}

// DefaultConfig returns the defaults named in spec §4.1/§5/§6.
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 500,
		MaxBatchSize:  50,
		HoldDuration:  30 * time.Minute,
		MaxOCCRetries: 10,
		BaseBackoff:   10 * time.Millisecond,
		MaxBackoff:    500 * time.Millisecond,
	}
}

// Engine is the per-process singleton long-lived inventory worker plus the
// direct path that runs on the caller's goroutine when the queue is full
// (spec §4.1/§5).
type Engine struct {
	repo    Repository
	cfg     Config
	log     *zap.SugaredLogger
	metrics Metrics

	queue  chan *request
	stop   chan struct{}
	stopped chan struct{}
}

// NewEngine wires a Repository and Config into a ready-to-Start Engine.
func NewEngine(repo Repository, cfg Config, log *zap.SugaredLogger, metrics Metrics) *Engine {
	if cfg.QueueCapacity < 0 {
		cfg.QueueCapacity = DefaultConfig().QueueCapacity
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultConfig().MaxBatchSize
	}
	if cfg.HoldDuration <= 0 {
		cfg.HoldDuration = DefaultConfig().HoldDuration
	}
	if cfg.MaxOCCRetries <= 0 {
		cfg.MaxOCCRetries = DefaultConfig().MaxOCCRetries
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultConfig().BaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultConfig().MaxBackoff
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Engine{
		repo:    repo,
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		queue:   make(chan *request, cfg.QueueCapacity),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start launches the single background worker loop. Safe to call once per
// Engine; callers should defer Stop for graceful shutdown.
func (e *Engine) Start() {
	go e.runWorker()
}

// Stop signals the worker loop to drain and exit, then blocks until it has.
func (e *Engine) Stop() {
	close(e.stop)
	<-e.stopped
}

// HoldSeats holds n seats of cabin on flightID (spec §4.1 contract).
func (e *Engine) HoldSeats(ctx context.Context, flightID string, cabin domain.CabinClass, n int) (*HoldResult, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: n=%d", domain.ErrInvalidAmount, n)
	}
	req := &request{ctx: ctx, kind: kindHold, flightID: flightID, cabin: cabin, n: n, done: make(chan response, 1)}
	return e.submit(ctx, req)
}

// ReleaseSeats releases n seats of cabin on flightID (spec §4.1 contract).
func (e *Engine) ReleaseSeats(ctx context.Context, flightID string, cabin domain.CabinClass, n int) (*ReleaseResult, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: n=%d", domain.ErrInvalidAmount, n)
	}
	req := &request{ctx: ctx, kind: kindRelease, flightID: flightID, cabin: cabin, n: n, done: make(chan response, 1)}
	resp, err := e.submitRaw(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.release, resp.err
}

// GetAvailability returns the current persisted snapshot for a flight
// (spec §4.1 contract). It bypasses the queue — reads don't need
// coalescing.
func (e *Engine) GetAvailability(ctx context.Context, flightID string) (*domain.FlightInventory, error) {
	inv, err := e.repo.GetByFlightID(ctx, flightID)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// submit is HoldSeats's typed wrapper around submitRaw.
func (e *Engine) submit(ctx context.Context, req *request) (*HoldResult, error) {
	resp, err := e.submitRaw(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.hold, resp.err
}

// submitRaw enqueues req; if the queue is full it falls through to the
// direct path and runs the same fold-and-persist logic inline on the
// caller's goroutine (spec §4.1 "Design").
func (e *Engine) submitRaw(ctx context.Context, req *request) (response, error) {
	select {
	case e.queue <- req:
	default:
		e.metrics.DirectPathTaken()
		e.processBatch(ctx, req.flightID, []*request{req})
	}

	select {
	case resp := <-req.done:
		return resp, resp.err
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}

// runWorker is the single consumer loop: it pulls 1..MaxBatchSize items,
// groups them by flightID and processes each group sequentially (spec
// §4.1 "Design" point 1).
func (e *Engine) runWorker() {
	defer close(e.stopped)
	for {
		select {
		case <-e.stop:
			e.drainRemaining()
			return
		case first := <-e.queue:
			batch := e.drainUpTo(first, e.cfg.MaxBatchSize)
			e.dispatchGroups(batch)
		}
	}
}

func (e *Engine) drainRemaining() {
	for {
		select {
		case req := <-e.queue:
			e.dispatchGroups(e.drainUpTo(req, e.cfg.MaxBatchSize))
		default:
			return
		}
	}
}

// drainUpTo collects first plus up to limit-1 more items currently
// available on the queue without blocking.
func (e *Engine) drainUpTo(first *request, limit int) []*request {
	batch := make([]*request, 0, limit)
	batch = append(batch, first)
	for len(batch) < limit {
		select {
		case r := <-e.queue:
			batch = append(batch, r)
		default:
			return batch
		}
	}
	return batch
}

// dispatchGroups groups a drained batch by flightID and processes each
// group's requests against one freshly read snapshot (spec §4.1 "Coalesced
// batch").
func (e *Engine) dispatchGroups(batch []*request) {
	groups := make(map[string][]*request)
	order := make([]string, 0, len(batch))
	for _, r := range batch {
		if _, ok := groups[r.flightID]; !ok {
			order = append(order, r.flightID)
		}
		groups[r.flightID] = append(groups[r.flightID], r)
	}
	e.metrics.QueueDepthObserved(len(e.queue))
	for _, flightID := range order {
		e.metrics.BatchSizeObserved(len(groups[flightID]))
		e.processBatch(context.Background(), flightID, groups[flightID])
	}
}

// processBatch implements the §4.1 algorithm: load snapshot, fold each
// request in arrival order, persist once, retry the whole batch on OCC
// conflict (reloading the snapshot), and finally deliver completions.
func (e *Engine) processBatch(ctx context.Context, flightID string, reqs []*request) {
	started := time.Now()
	defer func() { e.metrics.HoldLatencyObserved(time.Since(started)) }()

	backoff := newJitteredBackoff(e.cfg.BaseBackoff, e.cfg.MaxBackoff)

	for attempt := 0; attempt <= e.cfg.MaxOCCRetries; attempt++ {
		start, err := e.repo.GetByFlightID(ctx, flightID)
		if err != nil {
			e.failAll(reqs, err)
			return
		}

		running := start.Clone()
		completions := make([]response, len(reqs))
		mutated := false

		for i, r := range reqs {
			switch r.kind {
			case kindHold:
				total, err := running.HoldSeats(r.cabin, r.n)
				if err != nil {
					e.metrics.HoldFailed()
					completions[i] = response{err: err}
					continue
				}
				unitPrice, _ := running.UnitPrice(r.cabin)
				mutated = true
				completions[i] = response{hold: &HoldResult{
					Snapshot:      running,
					UnitPrice:     unitPrice,
					TotalPrice:    total,
					SeatsHeld:     r.n,
					HoldExpiresAt: time.Now().Add(e.cfg.HoldDuration),
				}}
			case kindRelease:
				if err := running.ReleaseSeats(r.cabin, r.n); err != nil {
					e.metrics.ReleaseFailed()
					completions[i] = response{err: err}
					continue
				}
				mutated = true
				completions[i] = response{release: &ReleaseResult{Snapshot: running, SeatsReleased: r.n}}
			}
		}

		if !mutated {
			e.deliver(reqs, completions)
			return
		}

		persisted, err := e.repo.Save(ctx, running, start.Version)
		if err != nil {
			var lockErr *domain.OptimisticLockError
			if errors.As(err, &lockErr) && attempt < e.cfg.MaxOCCRetries {
				e.log.Debugw("inventory batch OCC conflict, retrying", "flightID", flightID, "attempt", attempt)
				backoff.sleep(attempt)
				continue
			}
			e.failAll(reqs, err)
			return
		}

		e.fillSnapshots(completions, persisted)
		held := 0
		for _, c := range completions {
			if c.hold != nil {
				held++
			}
		}
		e.metrics.HoldSucceeded(held)
		e.deliver(reqs, completions)
		return
	}

	e.failAll(reqs, fmt.Errorf("%w: exhausted %d retries for flight %s", domain.ErrOptimisticLockConflict, e.cfg.MaxOCCRetries, flightID))
}

// fillSnapshots replaces each successful completion's Snapshot with the
// persisted aggregate, since running was superseded by the store's
// version bump.
func (e *Engine) fillSnapshots(completions []response, persisted *domain.FlightInventory) {
	for i := range completions {
		if completions[i].hold != nil {
			completions[i].hold.Snapshot = persisted
		}
		if completions[i].release != nil {
			completions[i].release.Snapshot = persisted
		}
	}
}

func (e *Engine) deliver(reqs []*request, completions []response) {
	for i, r := range reqs {
		r.done <- completions[i]
	}
}

func (e *Engine) failAll(reqs []*request, err error) {
	for _, r := range reqs {
		r.done <- response{err: err}
	}
}
