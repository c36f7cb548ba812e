package domain

import "fmt"

// PnrAlphabet is the symbol set PNR codes are drawn from (spec §9: 36
// symbols, 6 chars, ~2.1e9 possibilities).
const PnrAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// PnrLength is the fixed length of a PnrCode.
const PnrLength = 6

// PnrCode is a 6-character booking reference drawn from PnrAlphabet.
// Globally unique among non-terminal bookings (enforced by the
// repository, not by this type).
type PnrCode string

// NewPnrCode validates a candidate PNR string.
func NewPnrCode(s string) (PnrCode, error) {
	if len(s) != PnrLength {
		return "", fmt.Errorf("invalid pnr %q: must be %d characters", s, PnrLength)
	}
	for _, r := range s {
		if !isPnrRune(r) {
			return "", fmt.Errorf("invalid pnr %q: contains non-alphabet character %q", s, r)
		}
	}
	return PnrCode(s), nil
}

func isPnrRune(r rune) bool {
	for _, a := range PnrAlphabet {
		if a == r {
			return true
		}
	}
	return false
}

func (p PnrCode) String() string { return string(p) }
