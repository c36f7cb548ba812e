package cache

import (
	"context"

	"airline-booking-system/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Reader is the narrow repository view this package wraps — the same
// read the inventory engine's GetAvailability falls through to on a
// cache miss.
type Reader interface {
	GetByFlightID(ctx context.Context, flightID string) (*domain.FlightInventory, error)
}

// Repository is the full inventory.Repository contract. CachedRepository
// composes over one so it can stand in for the engine's repository
// wholesale: reads go through the cache, writes pass straight through
// and invalidate the entry they just changed.
type Repository interface {
	Reader
	Save(ctx context.Context, inv *domain.FlightInventory, expectedVersion int64) (*domain.FlightInventory, error)
}

// snapshotCache is the narrow view of AvailabilityCache this package
// depends on, so CachedRepository can be tested against a fake without a
// live Redis.
type snapshotCache interface {
	Get(ctx context.Context, flightID string) (*domain.FlightInventory, bool, error)
	Set(ctx context.Context, inv *domain.FlightInventory) error
	Invalidate(ctx context.Context, flightID string) error
}

// CachedRepository sits in front of a Repository: a read cache hit
// returns the stored snapshot directly, a miss is deduplicated across
// concurrent callers by flight ID before falling through to the wrapped
// Repository. Writes pass straight through to the wrapped Repository and
// invalidate the entry they just changed. It satisfies
// inventory.Repository in full, so the engine can be constructed against
// it in place of the bare repository without knowing caching is
// involved — OCC still runs against the underlying store on every write.
type CachedRepository struct {
	repo  Repository
	cache snapshotCache
	group singleflight.Group
	log   *zap.SugaredLogger
}

// NewCachedRepository wraps repo with cache. A nil logger is replaced
// with a no-op one.
func NewCachedRepository(repo Repository, cache *AvailabilityCache, log *zap.SugaredLogger) *CachedRepository {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &CachedRepository{repo: repo, cache: cache, log: log}
}

// GetByFlightID returns flightID's current snapshot, preferring the
// cache. A cache read or write failure is logged and treated as a miss —
// the repository stays authoritative regardless of cache health.
func (r *CachedRepository) GetByFlightID(ctx context.Context, flightID string) (*domain.FlightInventory, error) {
	if inv, hit, err := r.cache.Get(ctx, flightID); err != nil {
		r.log.Warnw("availability cache read failed, falling through", "flightID", flightID, "error", err)
	} else if hit {
		return inv, nil
	}

	v, err, _ := r.group.Do(flightID, func() (interface{}, error) {
		inv, err := r.repo.GetByFlightID(ctx, flightID)
		if err != nil {
			return nil, err
		}
		if cacheErr := r.cache.Set(ctx, inv); cacheErr != nil {
			r.log.Warnw("availability cache write failed", "flightID", flightID, "error", cacheErr)
		}
		return inv, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.FlightInventory), nil
}

// Save writes through to the wrapped Repository, then invalidates the
// cached snapshot regardless of outcome — a stale hit after a write is
// worse than a forced re-read on the next GetByFlightID.
func (r *CachedRepository) Save(ctx context.Context, inv *domain.FlightInventory, expectedVersion int64) (*domain.FlightInventory, error) {
	saved, err := r.repo.Save(ctx, inv, expectedVersion)
	if invalidateErr := r.cache.Invalidate(ctx, inv.FlightID); invalidateErr != nil {
		r.log.Warnw("availability cache invalidate failed", "flightID", inv.FlightID, "error", invalidateErr)
	}
	return saved, err
}
