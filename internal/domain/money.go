package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is one of the four currencies this module understands.
type Currency string

const (
	EUR Currency = "EUR"
	USD Currency = "USD"
	GBP Currency = "GBP"
	CHF Currency = "CHF"
)

func (c Currency) valid() bool {
	switch c {
	case EUR, USD, GBP, CHF:
		return true
	default:
		return false
	}
}

// Money is an immutable amount of a currency, held in major units rounded to
// the minor unit (two decimal places). Amount is never negative.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney builds a Money from a decimal amount of major units (e.g. 100.00
// EUR), rounded to the nearest minor unit. amount must be >= 0.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if !currency.valid() {
		return Money{}, fmt.Errorf("%w: %s", ErrCurrencyMismatch, currency)
	}
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("invalid amount: %s is negative", amount)
	}
	return Money{amount: amount.Round(2), currency: currency}, nil
}

// MustMoney is NewMoney for call sites (mostly tests and seed data) that
// know the inputs are valid.
func MustMoney(amount float64, currency Currency) Money {
	m, err := NewMoney(decimal.NewFromFloat(amount), currency)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns the additive identity for a currency.
func ZeroMoney(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }

func (m Money) IsZero() bool { return m.amount.IsZero() }

// Add returns m+o. Fails if the currencies differ.
func (m Money) Add(o Money) (Money, error) {
	if m.currency != o.currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, o.currency)
	}
	return Money{amount: m.amount.Add(o.amount).Round(2), currency: m.currency}, nil
}

// MultiplyInt returns m*n, rounded to the nearest minor unit. n must be >= 0.
func (m Money) MultiplyInt(n int) (Money, error) {
	if n < 0 {
		return Money{}, fmt.Errorf("%w: negative multiplier %d", ErrInvalidAmount, n)
	}
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(n))).Round(2), currency: m.currency}, nil
}

// Equal reports whether two Money values have the same currency and amount.
func (m Money) Equal(o Money) bool {
	return m.currency == o.currency && m.amount.Equal(o.amount)
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

// moneyDTO is the wire shape for Money; the type's fields are unexported so
// repositories round-trip it through this rather than relying on the
// default json reflection, which would see an empty struct.
type moneyDTO struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyDTO{Amount: m.amount, Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var dto moneyDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return err
	}
	m.amount = dto.Amount
	m.currency = dto.Currency
	return nil
}
