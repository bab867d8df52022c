package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CurrencyConfiguration is the singleton configuration row.
type CurrencyConfiguration struct {
	ID                     int              `gorm:"primaryKey;autoIncrement:false"`
	DefaultCurrency        string           `gorm:"type:varchar(3);not null"`
	SupportedCurrencies    JSONList[string] `gorm:"type:jsonb;not null"`
	MultiCurrencyEnabled   bool             `gorm:"not null"`
	CurrencySymbol         string           `gorm:"type:varchar(8);not null"`
	CurrencyPosition       string           `gorm:"type:varchar(8);not null"`
	DecimalPlaces          int              `gorm:"not null"`
	DecimalSeparator       string           `gorm:"type:varchar(4);not null"`
	ThousandsSeparator     string           `gorm:"type:varchar(4);not null"`
	ExchangeRatesEnabled   bool             `gorm:"not null"`
	AllowOrganizerCurrency bool             `gorm:"not null"`
	AutoUpdateRates        bool             `gorm:"not null"`
	UpdateFrequency        string           `gorm:"type:varchar(16);not null"`
	UpdatedBy              *uuid.UUID       `gorm:"type:uuid"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// TableName specifies the table name for the CurrencyConfiguration model.
func (CurrencyConfiguration) TableName() string { return "currency_configurations" }

// CurrencyChangeLog is an append-only configuration history row.
type CurrencyChangeLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChangeType string    `gorm:"type:varchar(32);not null"`
	OldValue   string    `gorm:"type:jsonb"`
	NewValue   string    `gorm:"type:jsonb"`
	ChangedBy  uuid.UUID `gorm:"type:uuid;not null"`
	IPAddress  string    `gorm:"type:varchar(64)"`
	UserAgent  string
	CreatedAt  time.Time `gorm:"index"`
}

// TableName specifies the table name for the CurrencyChangeLog model.
func (CurrencyChangeLog) TableName() string { return "currency_change_logs" }

// ExchangeRate is one time-versioned rate row.
type ExchangeRate struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	FromCurrency string          `gorm:"type:varchar(3);not null;index:idx_exchange_rates_pair"`
	ToCurrency   string          `gorm:"type:varchar(3);not null;index:idx_exchange_rates_pair"`
	Rate         decimal.Decimal `gorm:"type:numeric(36,18);not null"`
	InverseRate  decimal.Decimal `gorm:"type:numeric(36,18);not null"`
	Source       string          `gorm:"type:varchar(16);not null"`
	Provider     string          `gorm:"type:varchar(64)"`
	ValidFrom    time.Time       `gorm:"not null"`
	ValidUntil   *time.Time
	IsActive     bool      `gorm:"not null;index:idx_exchange_rates_pair"`
	CreatedBy    uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time
}

// TableName specifies the table name for the ExchangeRate model.
func (ExchangeRate) TableName() string { return "exchange_rates" }

// Promotion is a campaign row.
type Promotion struct {
	ID             uuid.UUID           `gorm:"type:uuid;primaryKey"`
	OrgID          uuid.UUID           `gorm:"type:uuid;not null;index"`
	Name           string              `gorm:"type:varchar(255);not null"`
	Description    string              `gorm:"type:text"`
	Type           string              `gorm:"type:varchar(16);not null"`
	DiscountType   string              `gorm:"type:varchar(16);not null"`
	DiscountValue  int64               `gorm:"not null"`
	Currency       string              `gorm:"type:varchar(3);not null"`
	MaxUses        int64               `gorm:"not null"`
	MaxUsesPerUser *int64
	StartsAt       time.Time           `gorm:"not null"`
	EndsAt         time.Time           `gorm:"not null"`
	EventIDs       JSONList[uuid.UUID] `gorm:"type:jsonb;not null"`
	TicketTypeIDs  JSONList[uuid.UUID] `gorm:"type:jsonb;not null"`
	MinOrderAmount *int64
	Redemptions    int64 `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for the Promotion model.
func (Promotion) TableName() string { return "promotions" }

// PromoCode is a code row. Codes are unique per organization.
type PromoCode struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrgID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_promo_codes_org_code"`
	PromotionID    *uuid.UUID `gorm:"type:uuid;index"`
	Code           string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_promo_codes_org_code"`
	Kind           string     `gorm:"type:varchar(16);not null"`
	PercentOff     *int64
	AmountOffCents *int64
	Currency       string `gorm:"type:varchar(3);not null"`
	MaxRedemptions *int64
	PerUserLimit   *int64
	StartsAt       *time.Time
	EndsAt         *time.Time
	EventID        *uuid.UUID `gorm:"type:uuid"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for the PromoCode model.
func (PromoCode) TableName() string { return "promo_codes" }

// PromoRedemption is an immutable redemption row.
type PromoRedemption struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PromoID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_promo_redemptions_code_order;index:idx_promo_redemptions_code_user"`
	PromotionID *uuid.UUID `gorm:"type:uuid;index:idx_promo_redemptions_promotion_user"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_promo_redemptions_code_user;index:idx_promo_redemptions_promotion_user"`
	OrderID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_promo_redemptions_code_order"`
	RedeemedAt  time.Time  `gorm:"not null"`
}

// TableName specifies the table name for the PromoRedemption model.
func (PromoRedemption) TableName() string { return "promo_redemptions" }

// JSONList stores a slice in a jsonb column.
type JSONList[T any] []T

// Value implements driver.Valuer.
func (l JSONList[T]) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]T(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *JSONList[T]) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("JSONList: unsupported source type %T", src)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return errors.Join(errors.New("JSONList: invalid json"), err)
	}
	*l = out
	return nil
}
