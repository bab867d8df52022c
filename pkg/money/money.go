// Package money provides the Money value object used across the engine.
//
// Invariants:
//   - Amount is always stored in the smallest currency unit (e.g., kobo for NGN).
//   - Currency code must be valid ISO 4217 (3 uppercase letters).
//   - All arithmetic operations require matching currencies.
package money

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Amount represents a monetary amount as an integer in the
// smallest currency unit (e.g., cents for USD).
type Amount = int64

// Money represents a monetary value in a specific currency.
type Money struct {
	amount   Amount
	currency Code
}

// New creates a Money value from an amount already expressed in minor units.
func New(amount Amount, currency Code) (Money, error) {
	if !currency.IsValid() {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	return Money{amount: amount, currency: currency}, nil
}

// Must is like New but panics on an invalid currency code. Intended for tests and constants.
func Must(amount Amount, currency Code) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(fmt.Sprintf("money.Must(%d, %s): %v", amount, currency, err))
	}
	return m
}

// Zero returns a zero amount in the given currency.
func Zero(currency Code) Money {
	return Money{currency: currency}
}

// Amount returns the amount in the smallest currency unit.
func (m Money) Amount() Amount {
	return m.amount
}

// Currency returns the currency code.
func (m Money) Currency() Code {
	return m.currency
}

// IsSameCurrency reports whether both values carry the same currency.
func (m Money) IsSameCurrency(other Money) bool {
	return m.currency == other.currency
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool {
	return m.amount == 0
}

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool {
	return m.amount < 0
}

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.amount > 0
}

// Add returns the sum of both values.
// Invariants enforced:
//   - Currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if !m.IsSameCurrency(other) {
		return Money{}, mismatch("add", m, other)
	}
	sum := new(big.Int).Add(big.NewInt(m.amount), big.NewInt(other.amount))
	if !sum.IsInt64() {
		return Money{}, ErrAmountExceedsMaxSafeInt
	}
	return Money{amount: sum.Int64(), currency: m.currency}, nil
}

// Subtract returns m - other. The result can be negative.
// Invariants enforced:
//   - Currencies must match.
func (m Money) Subtract(other Money) (Money, error) {
	if !m.IsSameCurrency(other) {
		return Money{}, mismatch("subtract", m, other)
	}
	diff := new(big.Int).Sub(big.NewInt(m.amount), big.NewInt(other.amount))
	if !diff.IsInt64() {
		return Money{}, ErrAmountExceedsMaxSafeInt
	}
	return Money{amount: diff.Int64(), currency: m.currency}, nil
}

// Compare returns -1, 0 or 1 when m is less than, equal to or greater than other.
func (m Money) Compare(other Money) (int, error) {
	if !m.IsSameCurrency(other) {
		return 0, mismatch("compare", m, other)
	}
	switch {
	case m.amount < other.amount:
		return -1, nil
	case m.amount > other.amount:
		return 1, nil
	default:
		return 0, nil
	}
}

// Min returns the smaller of both values.
func (m Money) Min(other Money) (Money, error) {
	cmp, err := m.Compare(other)
	if err != nil {
		return Money{}, err
	}
	if cmp <= 0 {
		return m, nil
	}
	return other, nil
}

// Clamp bounds the amount to [0, limit]. A discount clamped to the order
// amount can never push the order total below zero.
func (m Money) Clamp(limit Money) (Money, error) {
	if !m.IsSameCurrency(limit) {
		return Money{}, mismatch("clamp", m, limit)
	}
	if m.amount < 0 {
		return Zero(m.currency), nil
	}
	return m.Min(limit)
}

// PercentOf returns floor(amount * percent / 100) using integer arithmetic only.
// Flooring favours the platform on fractional minor units.
func (m Money) PercentOf(percent int64) (Money, error) {
	if percent < 0 || percent > 100 {
		return Money{}, fmt.Errorf("%w: %d", ErrInvalidPercentage, percent)
	}
	product := new(big.Int).Mul(big.NewInt(m.amount), big.NewInt(percent))
	// big.Int.Div is Euclidean, which equals floor for a positive divisor.
	quotient := new(big.Int).Div(product, big.NewInt(100))
	if !quotient.IsInt64() {
		return Money{}, ErrAmountExceedsMaxSafeInt
	}
	return Money{amount: quotient.Int64(), currency: m.currency}, nil
}

// Convert multiplies the amount by rate and expresses the result in the target
// currency. fromDecimals and toDecimals are the minor-unit exponents of both
// currencies; the result is rounded half away from zero to an integer minor
// unit, so -0.5 becomes -1 and 0.5 becomes 1.
func (m Money) Convert(rate decimal.Decimal, to Code, fromDecimals, toDecimals int) (Money, error) {
	if !to.IsValid() {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, to)
	}
	value := decimal.NewFromInt(m.amount).Mul(rate)
	value = value.Shift(int32(toDecimals - fromDecimals))
	rounded := value.Round(0)
	if !rounded.BigInt().IsInt64() {
		return Money{}, ErrAmountExceedsMaxSafeInt
	}
	return Money{amount: rounded.IntPart(), currency: to}, nil
}

// String returns a string representation such as "5000 NGN" (minor units).
func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.amount, m.currency)
}

// MarshalJSON implements json.Marshaler interface.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}{Amount: m.amount, Currency: string(m.currency)})
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (m *Money) UnmarshalJSON(data []byte) error {
	var aux struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	parsed, err := New(aux.Amount, Code(aux.Currency))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func mismatch(op string, a, b Money) error {
	return fmt.Errorf("cannot %s %s and %s: %w", op, a.currency, b.currency, ErrMismatchedCurrencies)
}
