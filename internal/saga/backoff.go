package saga

import (
	"context"
	"math/rand"
	"time"
)

// jitteredBackoff is the saga's own small exponential-backoff-with-full-jitter
// helper (spec §9 Design Notes), kept separate from internal/inventory's
// identical-shaped helper rather than shared: the two retry loops operate at
// different layers (OCC-conflict retry over a batch vs. transient-transport
// retry over one payment call) and sharing a two-field struct isn't worth a
// new internal package.
type jitteredBackoff struct {
	base time.Duration
	max  time.Duration
}

func newJitteredBackoff(base, max time.Duration) *jitteredBackoff {
	return &jitteredBackoff{base: base, max: max}
}

func (b *jitteredBackoff) duration(attempt int) time.Duration {
	ceiling := b.base << attempt
	if ceiling <= 0 || ceiling > b.max {
		ceiling = b.max
	}
	return time.Duration(rand.Int63n(int64(ceiling) + 1))
}

func (b *jitteredBackoff) sleep(ctx context.Context, attempt int) error {
	select {
	case <-time.After(b.duration(attempt)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
