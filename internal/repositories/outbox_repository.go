package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"airline-booking-system/internal/domain"
	"airline-booking-system/internal/outboxtx"
	"airline-booking-system/pkg/database"

	"github.com/google/uuid"
)

// OutboxEntry is one row of the event_outbox table, as read back by the
// publisher (spec §4.7/C7).
type OutboxEntry struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	RetryCount    int
}

// OutboxRepository reads and updates the event_outbox table. Writes to it
// happen through appendOutboxEvents, called by the aggregate repositories
// inside the same transaction as their aggregate write (spec §4.2).
type OutboxRepository struct {
	db *database.DB
}

func NewOutboxRepository(db *database.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// GetUnpublished returns up to limit entries that are unpublished and have
// not yet exhausted maxRetries, oldest first (spec §4.5 step 1).
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit, maxRetries int) ([]OutboxEntry, error) {
	q := outboxtx.QuerierFromContext(ctx, r.db.DB)
	rows, err := q.QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at, retry_count
		FROM event_outbox
		WHERE published_at IS NULL AND retry_count < $1
		ORDER BY created_at ASC
		LIMIT $2
	`, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: get unpublished outbox entries: %v", domain.ErrPersistenceFailure, err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt, &e.RetryCount); err != nil {
			return nil, fmt.Errorf("%w: scan outbox entry: %v", domain.ErrPersistenceFailure, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkPublished sets published_at for a successfully dispatched entry.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string) error {
	q := outboxtx.QuerierFromContext(ctx, r.db.DB)
	_, err := q.ExecContext(ctx, `
		UPDATE event_outbox SET published_at = $1 WHERE id = $2
	`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: mark outbox entry %s published: %v", domain.ErrPersistenceFailure, id, err)
	}
	return nil
}

// MarkFailed increments retry_count for an entry whose dispatch failed.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id string) error {
	q := outboxtx.QuerierFromContext(ctx, r.db.DB)
	_, err := q.ExecContext(ctx, `
		UPDATE event_outbox SET retry_count = retry_count + 1 WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("%w: mark outbox entry %s failed: %v", domain.ErrPersistenceFailure, id, err)
	}
	return nil
}

// appendOutboxEvents writes one row per event, using q so it joins whatever
// transaction the caller (an aggregate repository's Save) is already in.
// This is what makes the aggregate write and its events atomic (spec §4.2,
// §8 invariant 3).
func appendOutboxEvents(ctx context.Context, q outboxtx.Querier, aggregateType, aggregateID string, events []domain.DomainEvent) error {
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("%w: marshal %s event: %v", domain.ErrDataIntegrity, ev.EventType(), err)
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO event_outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at, retry_count)
			VALUES ($1, $2, $3, $4, $5, $6, 0)
		`, uuid.NewString(), aggregateType, aggregateID, ev.EventType(), payload, ev.OccurredAt())
		if err != nil {
			return fmt.Errorf("%w: append outbox entry for %s: %v", domain.ErrPersistenceFailure, ev.EventType(), err)
		}
	}
	return nil
}
