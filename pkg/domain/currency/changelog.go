package currency

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ChangeType classifies a configuration change by its most significant field.
type ChangeType string

const (
	ChangeDefaultCurrency     ChangeType = "default_currency"
	ChangeSupportedCurrencies ChangeType = "supported_currencies"
	ChangeMultiCurrency       ChangeType = "multi_currency"
	ChangeExchangeRates       ChangeType = "exchange_rates"
	ChangeDisplayFormat       ChangeType = "display_format"
	ChangeSettings            ChangeType = "settings"
)

// ChangeLog is an append-only record of a configuration update.
type ChangeLog struct {
	ID         uuid.UUID       `json:"id"`
	ChangeType ChangeType      `json:"changeType"`
	OldValue   json.RawMessage `json:"oldValue"`
	NewValue   json.RawMessage `json:"newValue"`
	ChangedBy  uuid.UUID       `json:"changedBy"`
	IPAddress  string          `json:"ipAddress,omitempty"`
	UserAgent  string          `json:"userAgent,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Diff lists the configuration fields that differ between old and updated,
// ordered from most to least significant, and the resulting change type.
// An empty slice means nothing changed.
func Diff(old, updated Configuration) ([]string, ChangeType) {
	type check struct {
		field   string
		kind    ChangeType
		changed bool
	}
	checks := []check{
		{"defaultCurrency", ChangeDefaultCurrency, old.DefaultCurrency != updated.DefaultCurrency},
		{"supportedCurrencies", ChangeSupportedCurrencies, !sameSet(old.SupportedCurrencies, updated.SupportedCurrencies)},
		{"multiCurrencyEnabled", ChangeMultiCurrency, old.MultiCurrencyEnabled != updated.MultiCurrencyEnabled},
		{"exchangeRatesEnabled", ChangeExchangeRates, old.ExchangeRatesEnabled != updated.ExchangeRatesEnabled},
		{"autoUpdateRates", ChangeExchangeRates, old.AutoUpdateRates != updated.AutoUpdateRates},
		{"updateFrequency", ChangeExchangeRates, old.UpdateFrequency != updated.UpdateFrequency},
		{"currencySymbol", ChangeDisplayFormat, old.CurrencySymbol != updated.CurrencySymbol},
		{"currencyPosition", ChangeDisplayFormat, old.CurrencyPosition != updated.CurrencyPosition},
		{"decimalPlaces", ChangeDisplayFormat, old.DecimalPlaces != updated.DecimalPlaces},
		{"decimalSeparator", ChangeDisplayFormat, old.DecimalSeparator != updated.DecimalSeparator},
		{"thousandsSeparator", ChangeDisplayFormat, old.ThousandsSeparator != updated.ThousandsSeparator},
		{"allowOrganizerCurrency", ChangeSettings, old.AllowOrganizerCurrency != updated.AllowOrganizerCurrency},
	}

	var (
		fields []string
		kind   ChangeType
	)
	for _, c := range checks {
		if !c.changed {
			continue
		}
		if kind == "" {
			kind = c.kind
		}
		fields = append(fields, c.field)
	}
	return fields, kind
}

func sameSet[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if !slices.Contains(b, v) {
			return false
		}
	}
	return true
}
