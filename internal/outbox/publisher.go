// Package outbox implements the outbox publisher (spec §4.5/C7): poll
// unpublished event_outbox rows, dispatch each by event type, and mark the
// outcome, generalized from the teacher's bespoke Kafka producer plus the
// poll/dispatch/mark shape of
// other_examples/a0f96cf1_Belac-Technology-flow-catalyst__flowcatalyst-go-internal-outbox-processor.go
// scaled down to this module's single-process scope (no leader election,
// no message-group fan-out — spec §4.5 is a fixed-interval batch poll).
package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Repository is the narrow read/write contract the publisher needs against
// the event_outbox table (spec §4.6's OutboxRepository, C5).
type Repository interface {
	GetUnpublished(ctx context.Context, limit, maxRetries int) ([]Entry, error)
	MarkPublished(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// Entry is the publisher's view of one outbox row. Defined here rather than
// imported from internal/repositories so this package doesn't depend on
// database/sql or the repositories package at all.
type Entry struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	RetryCount    int
}

// Dispatcher sends one entry's payload to its downstream transport (Kafka,
// in this module). Implementations route by eventType internally.
type Dispatcher interface {
	Dispatch(ctx context.Context, entry Entry) error
}

// Config tunes the publisher's cadence, batch size and retry budget (spec
// §4.5 step 3).
type Config struct {
	PollInterval time.Duration // default 5s
	BatchSize    int           // default 100
	MaxRetries   int           // default 3
}

func DefaultConfig() Config {
	return Config{PollInterval: 5 * time.Second, BatchSize: 100, MaxRetries: 3}
}

// Publisher drives the outbox poll/dispatch/mark loop.
type Publisher struct {
	repo       Repository
	dispatcher Dispatcher
	cfg        Config
	metrics    Metrics
	log        *zap.SugaredLogger
}

func New(repo Repository, dispatcher Dispatcher, cfg Config, metrics Metrics, log *zap.SugaredLogger) *Publisher {
	if cfg.PollInterval <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Publisher{repo: repo, dispatcher: dispatcher, cfg: cfg, metrics: metrics, log: log}
}

// Run blocks, polling at cfg.PollInterval until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil {
				p.log.Errorw("outbox publisher tick failed", "error", err)
			}
		}
	}
}

// Tick runs one poll/dispatch/mark cycle (spec §4.5 steps 1-2).
func (p *Publisher) Tick(ctx context.Context) error {
	entries, err := p.repo.GetUnpublished(ctx, p.cfg.BatchSize, p.cfg.MaxRetries)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		p.dispatchOne(ctx, entry)
	}
	return nil
}

func (p *Publisher) dispatchOne(ctx context.Context, entry Entry) {
	if err := p.dispatcher.Dispatch(ctx, entry); err != nil {
		p.metrics.PublishFailed(entry.EventType)
		if markErr := p.repo.MarkFailed(ctx, entry.ID); markErr != nil {
			p.log.Errorw("failed to record dispatch failure", "entryId", entry.ID, "error", markErr)
			return
		}
		if entry.RetryCount+1 >= p.cfg.MaxRetries {
			p.metrics.PublishSkippedRetriesExhausted(entry.EventType)
			p.log.Warnw("outbox entry exhausted retry budget, will be skipped going forward", "entryId", entry.ID, "eventType", entry.EventType)
		} else {
			p.log.Warnw("outbox dispatch failed, will retry", "entryId", entry.ID, "eventType", entry.EventType, "error", err)
		}
		return
	}

	p.metrics.PublishSucceeded(entry.EventType)
	if err := p.repo.MarkPublished(ctx, entry.ID); err != nil {
		p.log.Errorw("dispatch succeeded but failed to mark published, entry will be redelivered", "entryId", entry.ID, "error", err)
	}
}
