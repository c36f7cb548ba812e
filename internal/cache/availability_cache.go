// Package cache adapts the teacher's Redis-backed flight cache service to
// the seat inventory aggregate: a TTL'd read-through cache for
// FlightInventory snapshots, plus a singleflight guard so a burst of
// cache misses against the same flight collapses into one repository
// read (spec §4.1/§5 AMBIENT STACK — this never substitutes for the
// engine's OCC; it only softens load on the hot read path).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"airline-booking-system/internal/domain"
	"airline-booking-system/pkg/redis"

	goredis "github.com/go-redis/redis/v8"
)

// inventoryDTO is the wire shape for a cached FlightInventory snapshot.
// FlightInventory keeps its per-cabin map unexported, so the cache talks
// to it only through NewFlightInventory/Cabins rather than reaching into
// the aggregate directly.
type inventoryDTO struct {
	FlightID string                             `json:"flight_id"`
	Version  int64                              `json:"version"`
	Buckets  map[domain.CabinClass]domain.SeatBucket `json:"buckets"`
}

// AvailabilityCache is a TTL'd read-through cache of FlightInventory
// snapshots keyed by flight ID.
type AvailabilityCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewAvailabilityCache builds a cache using the teacher's generic Redis
// client helpers (SetJSON/Get) with ttl as the snapshot's freshness bound.
func NewAvailabilityCache(client *redis.Client, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{redis: client, ttl: ttl}
}

func cacheKey(flightID string) string {
	return fmt.Sprintf("inventory:availability:%s", flightID)
}

// Get returns the cached snapshot for flightID. The second return value
// is false on a cache miss (key absent or expired); callers fall through
// to the repository in that case.
func (c *AvailabilityCache) Get(ctx context.Context, flightID string) (*domain.FlightInventory, bool, error) {
	raw, err := c.redis.Get(ctx, cacheKey(flightID))
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached availability for %s: %w", flightID, err)
	}

	var dto inventoryDTO
	if err := json.Unmarshal([]byte(raw), &dto); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached availability for %s: %w", flightID, err)
	}
	inv, err := domain.NewFlightInventory(dto.FlightID, dto.Buckets, dto.Version)
	if err != nil {
		return nil, false, fmt.Errorf("rebuild cached availability for %s: %w", flightID, err)
	}
	return inv, true, nil
}

// Set stores inv's current snapshot, overwriting whatever was cached
// before.
func (c *AvailabilityCache) Set(ctx context.Context, inv *domain.FlightInventory) error {
	dto := inventoryDTO{
		FlightID: inv.FlightID,
		Version:  inv.Version,
		Buckets:  inv.Cabins(),
	}
	payload, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("marshal availability for %s: %w", inv.FlightID, err)
	}
	return c.redis.SetJSON(ctx, cacheKey(inv.FlightID), string(payload), c.ttl)
}

// Invalidate drops the cached snapshot for flightID, forcing the next
// read to go to the repository. Callers invalidate after a hold/release
// mutates the aggregate so stale seat counts don't linger past the TTL.
func (c *AvailabilityCache) Invalidate(ctx context.Context, flightID string) error {
	return c.redis.Delete(ctx, cacheKey(flightID))
}
