package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddRate is a DTO for recording a new exchange rate.
type AddRate struct {
	FromCurrency string
	ToCurrency   string
	Rate         decimal.Decimal
	Source       string     // Optional, defaults to manual
	Provider     string     // Optional
	ValidFrom    *time.Time // Optional, defaults to now
	ValidUntil   *time.Time // Optional, open-ended when nil
}
