package dto

import (
	"time"

	"github.com/google/uuid"
)

// PromotionCreate is a DTO for creating a campaign.
type PromotionCreate struct {
	OrgID          uuid.UUID
	Name           string
	Description    string
	Type           string
	DiscountType   string
	DiscountValue  int64
	Currency       string
	MaxUses        int64
	MaxUsesPerUser *int64
	StartsAt       time.Time
	EndsAt         time.Time
	EventIDs       []uuid.UUID
	TicketTypeIDs  []uuid.UUID
	MinOrderAmount *int64
}

// PromotionUpdate is a DTO for partially updating a campaign.
type PromotionUpdate struct {
	Name           *string
	Description    *string
	DiscountType   *string
	DiscountValue  *int64
	Currency       *string
	MaxUses        *int64
	MaxUsesPerUser *int64
	StartsAt       *time.Time
	EndsAt         *time.Time
	EventIDs       []uuid.UUID
	TicketTypeIDs  []uuid.UUID
	MinOrderAmount *int64
}

// PromoCodeCreate is a DTO for creating a promo code.
type PromoCodeCreate struct {
	OrgID          uuid.UUID
	PromotionID    *uuid.UUID
	Code           string
	Kind           string
	PercentOff     *int64
	AmountOffCents *int64
	Currency       string
	MaxRedemptions *int64
	PerUserLimit   *int64
	StartsAt       *time.Time
	EndsAt         *time.Time
	EventID        *uuid.UUID
}

// PromoCodeUpdate is a DTO for partially updating a promo code. The code text
// itself is immutable once created.
type PromoCodeUpdate struct {
	PercentOff     *int64
	AmountOffCents *int64
	Currency       *string
	MaxRedemptions *int64
	PerUserLimit   *int64
	StartsAt       *time.Time
	EndsAt         *time.Time
	EventID        *uuid.UUID
	// ClearDiscount removes both percentOff and amountOffCents before applying
	// the new values, so a code can switch from percentage to fixed.
	ClearDiscount bool
	// The Clear flags below unset the matching optional field. A value for the
	// same field in this update is applied afterwards.
	ClearMaxRedemptions bool
	ClearPerUserLimit   bool
	ClearStartsAt       bool
	ClearEndsAt         bool
	ClearEventID        bool
}

// ValidatePromoCode is a DTO describing a checkout preview.
type ValidatePromoCode struct {
	OrgID         uuid.UUID
	Code          string
	UserID        *uuid.UUID
	EventID       *uuid.UUID
	TicketTypeIDs []uuid.UUID
	OrderAmount   int64
	OrderCurrency string
}
