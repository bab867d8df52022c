package currency

import (
	"strings"

	domaincurrency "github.com/ticketcore/promoengine/pkg/domain/currency"
	"github.com/ticketcore/promoengine/pkg/money"
)

//revive:disable

// UpdateConfigRequest is a partial update of the platform configuration.
// Omitted fields are left unchanged.
type UpdateConfigRequest struct {
	DefaultCurrency        *string  `json:"defaultCurrency" validate:"omitempty,len=3,alpha"`
	SupportedCurrencies    []string `json:"supportedCurrencies" validate:"omitempty,dive,len=3,alpha"`
	MultiCurrencyEnabled   *bool    `json:"multiCurrencyEnabled"`
	CurrencySymbol         *string  `json:"currencySymbol" validate:"omitempty,max=8"`
	CurrencyPosition       *string  `json:"currencyPosition" validate:"omitempty,oneof=before after"`
	DecimalPlaces          *int     `json:"decimalPlaces" validate:"omitempty,min=0,max=4"`
	DecimalSeparator       *string  `json:"decimalSeparator" validate:"omitempty,max=1"`
	ThousandsSeparator     *string  `json:"thousandsSeparator" validate:"omitempty,max=1"`
	ExchangeRatesEnabled   *bool    `json:"exchangeRatesEnabled"`
	AllowOrganizerCurrency *bool    `json:"allowOrganizerCurrency"`
	AutoUpdateRates        *bool    `json:"autoUpdateRates"`
	UpdateFrequency        *string  `json:"updateFrequency" validate:"omitempty,max=32"`
}

// ToggleMultiCurrencyRequest switches multi-currency mode.
type ToggleMultiCurrencyRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// FormatAmountRequest is an amount in minor units to render.
type FormatAmountRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency" validate:"required,len=3,alpha"`
}

// SupportedResponse answers a currency support check.
type SupportedResponse struct {
	Code      string `json:"code"`
	Supported bool   `json:"supported"`
}

// FormattedResponse carries a rendered amount.
type FormattedResponse struct {
	Formatted string `json:"formatted"`
}

func (r UpdateConfigRequest) toPatch() domaincurrency.Patch {
	patch := domaincurrency.Patch{
		MultiCurrencyEnabled:   r.MultiCurrencyEnabled,
		CurrencySymbol:         r.CurrencySymbol,
		DecimalPlaces:          r.DecimalPlaces,
		DecimalSeparator:       r.DecimalSeparator,
		ThousandsSeparator:     r.ThousandsSeparator,
		ExchangeRatesEnabled:   r.ExchangeRatesEnabled,
		AllowOrganizerCurrency: r.AllowOrganizerCurrency,
		AutoUpdateRates:        r.AutoUpdateRates,
		UpdateFrequency:        r.UpdateFrequency,
	}
	if r.DefaultCurrency != nil {
		code := toCode(*r.DefaultCurrency)
		patch.DefaultCurrency = &code
	}
	if r.SupportedCurrencies != nil {
		patch.SupportedCurrencies = make([]money.Code, 0, len(r.SupportedCurrencies))
		for _, c := range r.SupportedCurrencies {
			patch.SupportedCurrencies = append(patch.SupportedCurrencies, toCode(c))
		}
	}
	if r.CurrencyPosition != nil {
		pos := domaincurrency.Position(*r.CurrencyPosition)
		patch.CurrencyPosition = &pos
	}
	return patch
}

func toCode(raw string) money.Code {
	return money.Code(strings.ToUpper(strings.TrimSpace(raw)))
}
