package money

import "errors"

// Common money package errors
var (
	// ErrInvalidCurrency is returned when a currency code is not 3 uppercase letters.
	ErrInvalidCurrency = errors.New("invalid currency code")

	// ErrMismatchedCurrencies is returned when performing operations on money with
	// different currencies
	ErrMismatchedCurrencies = errors.New("mismatched currencies")

	// ErrInvalidPercentage is returned when a percentage is outside 0..100.
	ErrInvalidPercentage = errors.New("percentage must be between 0 and 100")

	// ErrAmountExceedsMaxSafeInt is returned when a result does not fit in int64.
	ErrAmountExceedsMaxSafeInt = errors.New("amount exceeds maximum safe integer value")
)
