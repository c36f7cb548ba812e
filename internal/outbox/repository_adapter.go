package outbox

import (
	"context"

	"airline-booking-system/internal/repositories"
)

// RepositoryAdapter narrows a *repositories.OutboxRepository down to the
// Repository shape the publisher depends on, converting
// repositories.OutboxEntry to this package's own Entry so Publisher never
// has to import the repositories package's database/sql dependency
// directly (mirrors internal/saga's EngineAdapter).
type RepositoryAdapter struct {
	Repo *repositories.OutboxRepository
}

func NewRepositoryAdapter(repo *repositories.OutboxRepository) *RepositoryAdapter {
	return &RepositoryAdapter{Repo: repo}
}

func (a *RepositoryAdapter) GetUnpublished(ctx context.Context, limit, maxRetries int) ([]Entry, error) {
	rows, err := a.Repo.GetUnpublished(ctx, limit, maxRetries)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = Entry{
			ID:            r.ID,
			AggregateType: r.AggregateType,
			AggregateID:   r.AggregateID,
			EventType:     r.EventType,
			Payload:       r.Payload,
			CreatedAt:     r.CreatedAt,
			RetryCount:    r.RetryCount,
		}
	}
	return out, nil
}

func (a *RepositoryAdapter) MarkPublished(ctx context.Context, id string) error {
	return a.Repo.MarkPublished(ctx, id)
}

func (a *RepositoryAdapter) MarkFailed(ctx context.Context, id string) error {
	return a.Repo.MarkFailed(ctx, id)
}
