package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
)

// Currency and exchange-rate errors
var (
	// ErrInvalidCurrencyCode is returned when a code is not in the currency registry.
	ErrInvalidCurrencyCode = errors.New("invalid currency code")
	// ErrRateNotFound is returned when no active rate covers the requested pair and instant.
	// Callers must never treat it as a rate of 1.
	ErrRateNotFound = errors.New("exchange rate not found")
	// ErrInvalidRate is returned for a non-positive exchange rate.
	ErrInvalidRate = errors.New("exchange rate must be positive")
	// ErrSameCurrencyPair is returned when adding a rate from a currency to itself.
	ErrSameCurrencyPair = errors.New("from and to currencies must differ")
	// ErrInvalidConfiguration is returned for out-of-range display settings.
	ErrInvalidConfiguration = errors.New("invalid currency configuration")
)

// Promotion and promo code errors
var (
	// ErrInvalidWindow is returned when startsAt is not before endsAt.
	ErrInvalidWindow = errors.New("start must be before end")
	// ErrInvalidDiscount is returned for malformed discount terms.
	ErrInvalidDiscount = errors.New("invalid discount")
	// ErrCodeAlreadyExists is returned when a code is already taken within the organization.
	ErrCodeAlreadyExists = errors.New("promo code already exists in organization")
	// ErrPromotionNotFound is returned when a campaign cannot be found.
	ErrPromotionNotFound = errors.New("promotion not found")

	ErrCodeNotFound              = errors.New("promo code not found")
	ErrNotYetActive              = errors.New("promo code is not active yet")
	ErrExpired                   = errors.New("promo code has expired")
	ErrUsageLimitReached         = errors.New("promo code usage limit reached")
	ErrUserUsageLimitReached     = errors.New("promo code usage limit reached for user")
	ErrNotApplicableToEvent      = errors.New("promo code does not apply to this event")
	ErrNotApplicableToTicketType = errors.New("promo code does not apply to these ticket types")
	ErrMinOrderAmountNotMet      = errors.New("order amount is below the promotion minimum")
)
