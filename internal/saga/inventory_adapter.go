package saga

import (
	"context"

	"airline-booking-system/internal/domain"
	"airline-booking-system/internal/inventory"
)

// EngineAdapter narrows an *inventory.Engine down to the InventoryHolder
// shape the saga depends on, so saga tests can substitute a fake without
// pulling in the engine's queue/worker machinery.
type EngineAdapter struct {
	Engine *inventory.Engine
}

func NewEngineAdapter(engine *inventory.Engine) *EngineAdapter {
	return &EngineAdapter{Engine: engine}
}

func (a *EngineAdapter) HoldSeats(ctx context.Context, flightID string, cabin domain.CabinClass, n int) (*HoldOutcome, error) {
	res, err := a.Engine.HoldSeats(ctx, flightID, cabin, n)
	if err != nil {
		return nil, err
	}
	return &HoldOutcome{UnitPrice: res.UnitPrice, TotalPrice: res.TotalPrice}, nil
}

func (a *EngineAdapter) ReleaseSeats(ctx context.Context, flightID string, cabin domain.CabinClass, n int) (*ReleaseOutcome, error) {
	res, err := a.Engine.ReleaseSeats(ctx, flightID, cabin, n)
	if err != nil {
		return nil, err
	}
	return &ReleaseOutcome{SeatsReleased: res.SeatsReleased}, nil
}
