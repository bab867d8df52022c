// Package promotion models promotion campaigns, the promo codes that redeem
// them and the redemption ledger. Status is always derived, never stored.
package promotion

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/ticketcore/promoengine/pkg/domain"
	"github.com/ticketcore/promoengine/pkg/money"
)

// Type distinguishes discounting campaigns from access-only (unlock) ones.
type Type string

const (
	TypeDiscount Type = "discount"
	TypeAccess   Type = "access"
)

// IsValid reports whether t is a known promotion type.
func (t Type) IsValid() bool {
	return t == TypeDiscount || t == TypeAccess
}

// DiscountType selects how DiscountValue is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Promotion is a campaign owned by one organization.
type Promotion struct {
	ID             uuid.UUID    `json:"id"`
	OrgID          uuid.UUID    `json:"orgId"`
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	Type           Type         `json:"type"`
	DiscountType   DiscountType `json:"discountType"`
	DiscountValue  int64        `json:"discountValue"`
	Currency       money.Code   `json:"currency"`
	MaxUses        int64        `json:"maxUses"`
	MaxUsesPerUser *int64       `json:"maxUsesPerUser,omitempty"`
	StartsAt       time.Time    `json:"startsAt"`
	EndsAt         time.Time    `json:"endsAt"`
	EventIDs       []uuid.UUID  `json:"eventIds"`
	TicketTypeIDs  []uuid.UUID  `json:"ticketTypeIds"`
	MinOrderAmount *int64       `json:"minOrderAmount,omitempty"`
	// Redemptions is an advisory display counter. Caps are always checked
	// against the redemption rows.
	Redemptions int64     `json:"redemptions"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate checks the campaign invariants that do not need the currency registry.
func (p *Promotion) Validate() error {
	if !p.StartsAt.Before(p.EndsAt) {
		return fmt.Errorf("%w: startsAt %s, endsAt %s", domain.ErrInvalidWindow,
			p.StartsAt.Format(time.RFC3339), p.EndsAt.Format(time.RFC3339))
	}
	if !p.Type.IsValid() {
		return fmt.Errorf("%w: type %q", domain.ErrInvalidDiscount, p.Type)
	}
	switch p.DiscountType {
	case DiscountPercentage:
		if p.DiscountValue < 0 || p.DiscountValue > 100 {
			return fmt.Errorf("%w: percentage %d out of range [0,100]", domain.ErrInvalidDiscount, p.DiscountValue)
		}
	case DiscountFixed:
		if p.DiscountValue < 0 {
			return fmt.Errorf("%w: negative fixed amount %d", domain.ErrInvalidDiscount, p.DiscountValue)
		}
	default:
		return fmt.Errorf("%w: discount type %q", domain.ErrInvalidDiscount, p.DiscountType)
	}
	if p.MaxUses < 0 {
		return fmt.Errorf("%w: negative maxUses", domain.ErrInvalidDiscount)
	}
	if p.MaxUsesPerUser != nil && *p.MaxUsesPerUser < 0 {
		return fmt.Errorf("%w: negative maxUsesPerUser", domain.ErrInvalidDiscount)
	}
	return nil
}

// AppliesToEvent reports whether the campaign covers the event. An empty
// EventIDs set covers every event.
func (p *Promotion) AppliesToEvent(eventID *uuid.UUID) bool {
	if len(p.EventIDs) == 0 {
		return true
	}
	return eventID != nil && slices.Contains(p.EventIDs, *eventID)
}

// Status is the derived lifecycle state of a promo code.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusExhausted Status = "EXHAUSTED"
	StatusExpired   Status = "EXPIRED"
)
