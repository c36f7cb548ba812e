package sweeper

import (
	"context"

	"airline-booking-system/internal/domain"
	"airline-booking-system/internal/inventory"
)

// EngineAdapter narrows an *inventory.Engine down to the InventoryReleaser
// shape the sweeper depends on, mirroring saga.EngineAdapter so the
// sweeper can be tested against a fake without the engine's queue/worker
// machinery.
type EngineAdapter struct {
	Engine *inventory.Engine
}

func NewEngineAdapter(engine *inventory.Engine) *EngineAdapter {
	return &EngineAdapter{Engine: engine}
}

func (a *EngineAdapter) ReleaseSeats(ctx context.Context, flightID string, cabin domain.CabinClass, n int) (*ReleaseOutcome, error) {
	res, err := a.Engine.ReleaseSeats(ctx, flightID, cabin, n)
	if err != nil {
		return nil, err
	}
	return &ReleaseOutcome{SeatsReleased: res.SeatsReleased}, nil
}
