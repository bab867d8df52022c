package promotion

import (
	"fmt"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/ticketcore/promoengine/pkg/domain"
	"github.com/ticketcore/promoengine/pkg/money"
)

// PromoCode is a redeemable code, optionally linked to a campaign.
type PromoCode struct {
	ID             uuid.UUID  `json:"id"`
	OrgID          uuid.UUID  `json:"orgId"`
	PromotionID    *uuid.UUID `json:"promotionId,omitempty"`
	Code           string     `json:"code"`
	Kind           Type       `json:"kind"`
	PercentOff     *int64     `json:"percentOff,omitempty"`
	AmountOffCents *int64     `json:"amountOffCents,omitempty"`
	Currency       money.Code `json:"currency"`
	MaxRedemptions *int64     `json:"maxRedemptions,omitempty"`
	PerUserLimit   *int64     `json:"perUserLimit,omitempty"`
	StartsAt       *time.Time `json:"startsAt,omitempty"`
	EndsAt         *time.Time `json:"endsAt,omitempty"`
	EventID        *uuid.UUID `json:"eventId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// NormalizeCode trims and upper-cases a code. Lookups and storage always use
// the normalized form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the code invariants that do not need the store.
func (c *PromoCode) Validate() error {
	if c.Code == "" {
		return fmt.Errorf("%w: empty code", domain.ErrValidation)
	}
	if c.Code != NormalizeCode(c.Code) {
		return fmt.Errorf("%w: code %q is not normalized", domain.ErrValidation, c.Code)
	}
	if c.Kind != "" && !c.Kind.IsValid() {
		return fmt.Errorf("%w: kind %q", domain.ErrInvalidDiscount, c.Kind)
	}
	if c.PercentOff != nil && c.AmountOffCents != nil {
		return fmt.Errorf("%w: only one of percentOff and amountOffCents may be set", domain.ErrInvalidDiscount)
	}
	if c.PercentOff != nil && (*c.PercentOff < 0 || *c.PercentOff > 100) {
		return fmt.Errorf("%w: percentOff %d out of range [0,100]", domain.ErrInvalidDiscount, *c.PercentOff)
	}
	if c.AmountOffCents != nil && *c.AmountOffCents < 0 {
		return fmt.Errorf("%w: negative amountOffCents", domain.ErrInvalidDiscount)
	}
	if c.StartsAt != nil && c.EndsAt != nil && !c.StartsAt.Before(*c.EndsAt) {
		return fmt.Errorf("%w: startsAt %s, endsAt %s", domain.ErrInvalidWindow,
			c.StartsAt.Format(time.RFC3339), c.EndsAt.Format(time.RFC3339))
	}
	if c.MaxRedemptions != nil && *c.MaxRedemptions < 0 {
		return fmt.Errorf("%w: negative maxRedemptions", domain.ErrInvalidDiscount)
	}
	if c.PerUserLimit != nil && *c.PerUserLimit < 0 {
		return fmt.Errorf("%w: negative perUserLimit", domain.ErrInvalidDiscount)
	}
	return nil
}

// Redemption is an immutable record of one code used on one order.
type Redemption struct {
	ID      uuid.UUID `json:"id"`
	PromoID uuid.UUID `json:"promoId"`
	// PromotionID is the campaign the code belonged to when it was redeemed.
	// Campaign caps count by it, so deleting a code does not free capacity.
	PromotionID *uuid.UUID `json:"promotionId,omitempty"`
	UserID      uuid.UUID  `json:"userId"`
	OrderID     uuid.UUID  `json:"orderId"`
	RedeemedAt  time.Time  `json:"redeemedAt"`
}

// Usage holds redemption counts taken from the redemption ledger.
type Usage struct {
	CodeTotal     int64
	CodeByUser    int64
	CampaignTotal int64
	CampaignUser  int64
}

// CheckWindow evaluates the code window and then the campaign window. Both are
// half-open: a code is usable from startsAt up to, not including, endsAt.
func CheckWindow(code *PromoCode, campaign *Promotion, now time.Time) error {
	if err := checkWindow(code.StartsAt, code.EndsAt, now); err != nil {
		return err
	}
	if campaign != nil {
		return checkWindow(&campaign.StartsAt, &campaign.EndsAt, now)
	}
	return nil
}

func checkWindow(startsAt, endsAt *time.Time, now time.Time) error {
	if startsAt != nil && now.Before(*startsAt) {
		return domain.ErrNotYetActive
	}
	if endsAt != nil && !now.Before(*endsAt) {
		return domain.ErrExpired
	}
	return nil
}

// CheckGlobalCap compares the code cap, then the campaign cap, with the ledger.
func CheckGlobalCap(code *PromoCode, campaign *Promotion, usage Usage) error {
	if code.MaxRedemptions != nil && usage.CodeTotal >= *code.MaxRedemptions {
		return domain.ErrUsageLimitReached
	}
	if campaign != nil && campaign.MaxUses > 0 && usage.CampaignTotal >= campaign.MaxUses {
		return domain.ErrUsageLimitReached
	}
	return nil
}

// CheckUserCap compares the per-user limits with the ledger.
func CheckUserCap(code *PromoCode, campaign *Promotion, usage Usage) error {
	if code.PerUserLimit != nil && usage.CodeByUser >= *code.PerUserLimit {
		return domain.ErrUserUsageLimitReached
	}
	if campaign != nil && campaign.MaxUsesPerUser != nil && usage.CampaignUser >= *campaign.MaxUsesPerUser {
		return domain.ErrUserUsageLimitReached
	}
	return nil
}

// CheckScope verifies event pinning and ticket-type restrictions. Ticket types
// are only checked when the caller supplies them; one match is enough.
func CheckScope(code *PromoCode, campaign *Promotion, eventID *uuid.UUID, ticketTypeIDs []uuid.UUID) error {
	if code.EventID != nil && (eventID == nil || *eventID != *code.EventID) {
		return domain.ErrNotApplicableToEvent
	}
	if campaign == nil {
		return nil
	}
	if !campaign.AppliesToEvent(eventID) {
		return domain.ErrNotApplicableToEvent
	}
	if len(campaign.TicketTypeIDs) > 0 && len(ticketTypeIDs) > 0 {
		allowed := mapset.NewThreadUnsafeSet(campaign.TicketTypeIDs...)
		if allowed.Intersect(mapset.NewThreadUnsafeSet(ticketTypeIDs...)).IsEmpty() {
			return domain.ErrNotApplicableToTicketType
		}
	}
	return nil
}

// CheckMinOrder enforces the campaign minimum order amount. The order amount
// must already be in the campaign currency.
func CheckMinOrder(campaign *Promotion, order money.Money) error {
	if campaign == nil || campaign.MinOrderAmount == nil {
		return nil
	}
	if order.Amount() < *campaign.MinOrderAmount {
		return domain.ErrMinOrderAmountNotMet
	}
	return nil
}

// Terms is the resolved discount rule for a code.
type Terms struct {
	Kind     DiscountType
	Value    int64
	Currency money.Code
	// AccessOnly terms never discount.
	AccessOnly bool
}

// ResolveTerms picks the code's own discount, falling back to the linked
// campaign's terms when the code carries neither percentOff nor amountOffCents.
func ResolveTerms(code *PromoCode, campaign *Promotion) Terms {
	switch {
	case code.Kind == TypeAccess:
		return Terms{AccessOnly: true}
	case code.PercentOff != nil:
		return Terms{Kind: DiscountPercentage, Value: *code.PercentOff, Currency: code.Currency}
	case code.AmountOffCents != nil:
		return Terms{Kind: DiscountFixed, Value: *code.AmountOffCents, Currency: code.Currency}
	case campaign != nil && campaign.Type == TypeDiscount:
		return Terms{Kind: campaign.DiscountType, Value: campaign.DiscountValue, Currency: campaign.Currency}
	default:
		return Terms{AccessOnly: true}
	}
}

// DeriveStatus computes the lifecycle state of a code from its windows and the
// redemption counts.
func DeriveStatus(code *PromoCode, campaign *Promotion, usage Usage, now time.Time) Status {
	switch err := CheckWindow(code, campaign, now); err {
	case domain.ErrNotYetActive:
		return StatusPending
	case domain.ErrExpired:
		return StatusExpired
	}
	if CheckGlobalCap(code, campaign, usage) != nil {
		return StatusExhausted
	}
	return StatusActive
}
