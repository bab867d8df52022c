package exchange

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ticketcore/promoengine/pkg/dto"
	"github.com/ticketcore/promoengine/pkg/money"
)

//revive:disable

// AddRateRequest records a manual or provider-sourced rate.
type AddRateRequest struct {
	FromCurrency string          `json:"fromCurrency" validate:"required,len=3,alpha"`
	ToCurrency   string          `json:"toCurrency" validate:"required,len=3,alpha"`
	Rate         decimal.Decimal `json:"rate"`
	Source       string          `json:"source" validate:"omitempty,oneof=manual api system"`
	Provider     string          `json:"provider" validate:"omitempty,max=64"`
	ValidFrom    *time.Time      `json:"validFrom"`
	ValidUntil   *time.Time      `json:"validUntil"`
}

// ConvertRequest converts an amount in minor units of FromCurrency.
type ConvertRequest struct {
	Amount       int64      `json:"amount"`
	FromCurrency string     `json:"fromCurrency" validate:"required,len=3,alpha"`
	ToCurrency   string     `json:"toCurrency" validate:"required,len=3,alpha"`
	At           *time.Time `json:"at"`
}

// RateResponse is the rate that applies to a pair.
type RateResponse struct {
	FromCurrency string          `json:"fromCurrency"`
	ToCurrency   string          `json:"toCurrency"`
	Rate         decimal.Decimal `json:"rate"`
}

// ConversionResponse is the outcome of a conversion.
type ConversionResponse struct {
	Original  money.Money     `json:"original"`
	Converted money.Money     `json:"converted"`
	Rate      decimal.Decimal `json:"rate"`
}

func (r AddRateRequest) toDTO() dto.AddRate {
	return dto.AddRate{
		FromCurrency: r.FromCurrency,
		ToCurrency:   r.ToCurrency,
		Rate:         r.Rate,
		Source:       r.Source,
		Provider:     r.Provider,
		ValidFrom:    r.ValidFrom,
		ValidUntil:   r.ValidUntil,
	}
}

func toCode(raw string) money.Code {
	return money.Code(strings.ToUpper(strings.TrimSpace(raw)))
}
