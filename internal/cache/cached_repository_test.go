package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"airline-booking-system/internal/domain"
)

func testInventory(t *testing.T, flightID string, version int64) *domain.FlightInventory {
	t.Helper()
	price := domain.MustMoney(199.00, domain.USD)
	inv, err := domain.NewFlightInventory(flightID, map[domain.CabinClass]domain.SeatBucket{
		domain.Economy: {Available: 10, Capacity: 180, Price: price},
	}, version)
	if err != nil {
		t.Fatalf("NewFlightInventory: %v", err)
	}
	return inv
}

type fakeRepo struct {
	mu    sync.Mutex
	calls int32
	inv   *domain.FlightInventory
}

func (r *fakeRepo) GetByFlightID(ctx context.Context, flightID string) (*domain.FlightInventory, error) {
	atomic.AddInt32(&r.calls, 1)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inv, nil
}

func (r *fakeRepo) Save(ctx context.Context, inv *domain.FlightInventory, expectedVersion int64) (*domain.FlightInventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inv = inv
	return inv, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*domain.FlightInventory
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*domain.FlightInventory{}}
}

func (c *fakeCache) Get(ctx context.Context, flightID string) (*domain.FlightInventory, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inv, ok := c.entries[flightID]
	return inv, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, inv *domain.FlightInventory) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[inv.FlightID] = inv
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, flightID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, flightID)
	return nil
}

func TestCachedRepository_GetByFlightID_MissThenHit(t *testing.T) {
	repo := &fakeRepo{inv: testInventory(t, "FL-1", 1)}
	cache := newFakeCache()
	cr := &CachedRepository{repo: repo, cache: cache}

	inv, err := cr.GetByFlightID(context.Background(), "FL-1")
	if err != nil {
		t.Fatalf("GetByFlightID: %v", err)
	}
	if inv.FlightID != "FL-1" {
		t.Fatalf("unexpected flight ID %q", inv.FlightID)
	}
	if atomic.LoadInt32(&repo.calls) != 1 {
		t.Fatalf("expected 1 repo call on miss, got %d", repo.calls)
	}

	if _, err := cr.GetByFlightID(context.Background(), "FL-1"); err != nil {
		t.Fatalf("GetByFlightID (cached): %v", err)
	}
	if atomic.LoadInt32(&repo.calls) != 1 {
		t.Fatalf("expected cache hit to skip repo, got %d calls", repo.calls)
	}
}

func TestCachedRepository_GetByFlightID_ConcurrentMissesCoalesce(t *testing.T) {
	repo := &fakeRepo{inv: testInventory(t, "FL-2", 1)}
	cache := newFakeCache()
	cr := &CachedRepository{repo: repo, cache: cache}

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := cr.GetByFlightID(context.Background(), "FL-2"); err != nil {
				t.Errorf("GetByFlightID: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls := atomic.LoadInt32(&repo.calls); calls != 1 {
		t.Fatalf("expected coalesced misses to hit the repo once, got %d", calls)
	}
}

func TestCachedRepository_Save_InvalidatesCache(t *testing.T) {
	repo := &fakeRepo{inv: testInventory(t, "FL-3", 1)}
	cache := newFakeCache()
	cr := &CachedRepository{repo: repo, cache: cache}

	if _, err := cr.GetByFlightID(context.Background(), "FL-3"); err != nil {
		t.Fatalf("GetByFlightID: %v", err)
	}
	if _, hit, _ := cache.Get(context.Background(), "FL-3"); !hit {
		t.Fatalf("expected cache to be populated after first read")
	}

	next := testInventory(t, "FL-3", 2)
	if _, err := cr.Save(context.Background(), next, 1); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, hit, _ := cache.Get(context.Background(), "FL-3"); hit {
		t.Fatalf("expected Save to invalidate the cached snapshot")
	}
}
