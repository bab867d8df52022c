// Package currency contains the platform-wide currency configuration, the
// exchange-rate ledger entries and the configuration change log.
package currency

import (
	"fmt"
	"slices"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticketcore/promoengine/pkg/domain"
	"github.com/ticketcore/promoengine/pkg/money"
)

// ConfigurationID is the primary key of the singleton configuration row.
const ConfigurationID = 1

// MaxDecimalPlaces bounds the display precision.
const MaxDecimalPlaces = 4

// Position controls where the currency symbol is rendered.
type Position string

const (
	PositionBefore Position = "before"
	PositionAfter  Position = "after"
)

// IsValid reports whether p is a known position.
func (p Position) IsValid() bool {
	return p == PositionBefore || p == PositionAfter
}

// Configuration is the single platform-wide currency configuration.
type Configuration struct {
	ID                     int          `json:"-"`
	DefaultCurrency        money.Code   `json:"defaultCurrency"`
	SupportedCurrencies    []money.Code `json:"supportedCurrencies"`
	MultiCurrencyEnabled   bool         `json:"multiCurrencyEnabled"`
	CurrencySymbol         string       `json:"currencySymbol"`
	CurrencyPosition       Position     `json:"currencyPosition"`
	DecimalPlaces          int          `json:"decimalPlaces"`
	DecimalSeparator       string       `json:"decimalSeparator"`
	ThousandsSeparator     string       `json:"thousandsSeparator"`
	ExchangeRatesEnabled   bool         `json:"exchangeRatesEnabled"`
	AllowOrganizerCurrency bool         `json:"allowOrganizerCurrency"`
	AutoUpdateRates        bool         `json:"autoUpdateRates"`
	UpdateFrequency        string       `json:"updateFrequency"`
	UpdatedBy              *uuid.UUID   `json:"updatedBy,omitempty"`
	CreatedAt              time.Time    `json:"createdAt"`
	UpdatedAt              time.Time    `json:"updatedAt"`
}

// DefaultConfiguration returns the configuration created on first bootstrap.
func DefaultConfiguration(now time.Time) Configuration {
	return Configuration{
		ID:                   ConfigurationID,
		DefaultCurrency:      money.NGN,
		SupportedCurrencies:  []money.Code{money.NGN, money.USD, money.EUR, money.GBP, money.GHS, money.KES, money.ZAR},
		CurrencySymbol:       "₦",
		CurrencyPosition:     PositionBefore,
		DecimalPlaces:        2,
		DecimalSeparator:     ".",
		ThousandsSeparator:   ",",
		ExchangeRatesEnabled: true,
		UpdateFrequency:      "daily",
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	DefaultCurrency        *money.Code
	SupportedCurrencies    []money.Code
	MultiCurrencyEnabled   *bool
	CurrencySymbol         *string
	CurrencyPosition       *Position
	DecimalPlaces          *int
	DecimalSeparator       *string
	ThousandsSeparator     *string
	ExchangeRatesEnabled   *bool
	AllowOrganizerCurrency *bool
	AutoUpdateRates        *bool
	UpdateFrequency        *string
}

// Codes returns every currency code referenced by the patch.
func (p Patch) Codes() []money.Code {
	codes := slices.Clone(p.SupportedCurrencies)
	if p.DefaultCurrency != nil {
		codes = append(codes, *p.DefaultCurrency)
	}
	return codes
}

// Clone returns a deep copy.
func (c Configuration) Clone() Configuration {
	out := c
	out.SupportedCurrencies = slices.Clone(c.SupportedCurrencies)
	if c.UpdatedBy != nil {
		id := *c.UpdatedBy
		out.UpdatedBy = &id
	}
	return out
}

// Apply returns a copy of c with the patch applied. The default currency is
// always appended to the supported set when missing.
func (c Configuration) Apply(p Patch) Configuration {
	out := c.Clone()
	if p.DefaultCurrency != nil {
		out.DefaultCurrency = *p.DefaultCurrency
	}
	if p.SupportedCurrencies != nil {
		out.SupportedCurrencies = dedupe(p.SupportedCurrencies)
	}
	if p.MultiCurrencyEnabled != nil {
		out.MultiCurrencyEnabled = *p.MultiCurrencyEnabled
	}
	if p.CurrencySymbol != nil {
		out.CurrencySymbol = *p.CurrencySymbol
	}
	if p.CurrencyPosition != nil {
		out.CurrencyPosition = *p.CurrencyPosition
	}
	if p.DecimalPlaces != nil {
		out.DecimalPlaces = *p.DecimalPlaces
	}
	if p.DecimalSeparator != nil {
		out.DecimalSeparator = *p.DecimalSeparator
	}
	if p.ThousandsSeparator != nil {
		out.ThousandsSeparator = *p.ThousandsSeparator
	}
	if p.ExchangeRatesEnabled != nil {
		out.ExchangeRatesEnabled = *p.ExchangeRatesEnabled
	}
	if p.AllowOrganizerCurrency != nil {
		out.AllowOrganizerCurrency = *p.AllowOrganizerCurrency
	}
	if p.AutoUpdateRates != nil {
		out.AutoUpdateRates = *p.AutoUpdateRates
	}
	if p.UpdateFrequency != nil {
		out.UpdateFrequency = *p.UpdateFrequency
	}
	if !out.Supports(out.DefaultCurrency) {
		out.SupportedCurrencies = append(out.SupportedCurrencies, out.DefaultCurrency)
	}
	return out
}

// Validate checks the display settings.
func (c Configuration) Validate() error {
	if !c.CurrencyPosition.IsValid() {
		return fmt.Errorf("%w: currency position %q", domain.ErrInvalidConfiguration, c.CurrencyPosition)
	}
	if c.DecimalPlaces < 0 || c.DecimalPlaces > MaxDecimalPlaces {
		return fmt.Errorf("%w: decimal places %d out of range [0,%d]", domain.ErrInvalidConfiguration, c.DecimalPlaces, MaxDecimalPlaces)
	}
	if c.DecimalSeparator == "" {
		return fmt.Errorf("%w: empty decimal separator", domain.ErrInvalidConfiguration)
	}
	return nil
}

// Supports reports whether code is in the supported set.
func (c Configuration) Supports(code money.Code) bool {
	return slices.Contains(c.SupportedCurrencies, code)
}

// Format renders an amount of minor units with the configured display
// settings. decimals is the currency's minor-unit exponent.
func (c Configuration) Format(m money.Money, symbol string, decimals int) string {
	value := decimal.New(m.Amount(), int32(-decimals)).Round(int32(c.DecimalPlaces))
	neg := value.IsNegative()
	digits := value.Abs().StringFixed(int32(c.DecimalPlaces))

	intPart, fracPart, _ := strings.Cut(digits, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if c.CurrencyPosition == PositionBefore {
		b.WriteString(symbol)
	}
	b.WriteString(groupThousands(intPart, c.ThousandsSeparator))
	if fracPart != "" {
		b.WriteString(c.DecimalSeparator)
		b.WriteString(fracPart)
	}
	if c.CurrencyPosition == PositionAfter {
		b.WriteByte(' ')
		b.WriteString(symbol)
	}
	return b.String()
}

func groupThousands(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func dedupe(codes []money.Code) []money.Code {
	seen := mapset.NewThreadUnsafeSetWithSize[money.Code](len(codes))
	out := make([]money.Code, 0, len(codes))
	for _, c := range codes {
		if seen.Add(c) {
			out = append(out, c)
		}
	}
	return out
}
