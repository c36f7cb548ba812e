package saga

import (
	"context"
	"crypto/rand"
	"fmt"

	"airline-booking-system/internal/domain"
)

// maxPnrAttempts bounds the collision-retry loop (spec §4.3 step 2: "bounded
// by a sane cap, e.g., 100 attempts").
const maxPnrAttempts = 100

// PnrLookup is the narrow repository read the generator needs to detect a
// collision.
type PnrLookup interface {
	FindByPnr(ctx context.Context, pnr domain.PnrCode) (*domain.Booking, error)
}

// PnrGenerator draws 6 uniform random characters from domain.PnrAlphabet
// using a cryptographic RNG, generalizing the teacher's
// generatePaymentReferenceID (crypto/rand + format) into a collision-checked
// code generator, per spec §4.3 step 2.
type PnrGenerator struct {
	repo PnrLookup
}

func NewPnrGenerator(repo PnrLookup) *PnrGenerator {
	return &PnrGenerator{repo: repo}
}

// Generate returns a PnrCode with no existing booking, or
// domain.ErrPnrExhausted if maxPnrAttempts collisions occur in a row.
func (g *PnrGenerator) Generate(ctx context.Context) (domain.PnrCode, error) {
	for attempt := 0; attempt < maxPnrAttempts; attempt++ {
		candidate, err := randomPnrString()
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
		}
		pnr, err := domain.NewPnrCode(candidate)
		if err != nil {
			return "", err
		}
		existing, err := g.repo.FindByPnr(ctx, pnr)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return pnr, nil
		}
	}
	return "", domain.ErrPnrExhausted
}

func randomPnrString() (string, error) {
	alphabetLen := len(domain.PnrAlphabet)
	// Bytes at or above the largest multiple of alphabetLen are discarded so
	// every symbol is equally likely.
	limit := 256 - 256%alphabetLen
	buf := make([]byte, domain.PnrLength)
	out := make([]byte, 0, domain.PnrLength)
	for len(out) < domain.PnrLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) < limit && len(out) < domain.PnrLength {
				out = append(out, domain.PnrAlphabet[int(b)%alphabetLen])
			}
		}
	}
	return string(out), nil
}
