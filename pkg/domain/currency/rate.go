package currency

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticketcore/promoengine/pkg/domain"
	"github.com/ticketcore/promoengine/pkg/money"
)

// InversePrecision is the number of fractional digits kept for inverse rates.
const InversePrecision = 18

// Source records where a rate came from.
type Source string

const (
	SourceManual Source = "manual"
	SourceAPI    Source = "api"
	SourceSystem Source = "system"
)

// ExchangeRate is one time-versioned rate for an ordered currency pair.
type ExchangeRate struct {
	ID           uuid.UUID       `json:"id"`
	FromCurrency money.Code      `json:"fromCurrency"`
	ToCurrency   money.Code      `json:"toCurrency"`
	Rate         decimal.Decimal `json:"rate"`
	InverseRate  decimal.Decimal `json:"inverseRate"`
	Source       Source          `json:"source"`
	Provider     string          `json:"provider,omitempty"`
	ValidFrom    time.Time       `json:"validFrom"`
	ValidUntil   *time.Time      `json:"validUntil,omitempty"`
	IsActive     bool            `json:"isActive"`
	CreatedBy    uuid.UUID       `json:"createdBy"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// NewExchangeRate builds an active rate. Currency codes must already be
// validated against the registry.
func NewExchangeRate(
	from, to money.Code,
	rate decimal.Decimal,
	source Source,
	provider string,
	validFrom time.Time,
	validUntil *time.Time,
	createdBy uuid.UUID,
	now time.Time,
) (*ExchangeRate, error) {
	if from == to {
		return nil, fmt.Errorf("%w: %s", domain.ErrSameCurrencyPair, from)
	}
	if !rate.IsPositive() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRate, rate)
	}
	if validUntil != nil && !validUntil.After(validFrom) {
		return nil, fmt.Errorf("%w: validUntil %s is not after validFrom %s",
			domain.ErrInvalidWindow, validUntil.Format(time.RFC3339), validFrom.Format(time.RFC3339))
	}
	if source == "" {
		source = SourceManual
	}
	return &ExchangeRate{
		ID:           uuid.New(),
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         rate,
		InverseRate:  decimal.NewFromInt(1).DivRound(rate, InversePrecision),
		Source:       source,
		Provider:     provider,
		ValidFrom:    validFrom,
		ValidUntil:   validUntil,
		IsActive:     true,
		CreatedBy:    createdBy,
		CreatedAt:    now,
	}, nil
}

// CoversInstant reports whether an active rate applies at the given instant.
func (r *ExchangeRate) CoversInstant(at time.Time) bool {
	if !r.IsActive || r.ValidFrom.After(at) {
		return false
	}
	return r.ValidUntil == nil || !r.ValidUntil.Before(at)
}

// Deactivate closes the rate at the given instant.
func (r *ExchangeRate) Deactivate(at time.Time) {
	r.IsActive = false
	r.ValidUntil = &at
}
