package promotion

import (
	"time"

	"github.com/google/uuid"
	"github.com/ticketcore/promoengine/pkg/dto"
	"github.com/ticketcore/promoengine/pkg/money"
	promosvc "github.com/ticketcore/promoengine/pkg/service/promotion"
)

//revive:disable

// CreatePromotionRequest creates a campaign for the organization in the path.
type CreatePromotionRequest struct {
	Name           string      `json:"name" validate:"required,max=255"`
	Description    string      `json:"description" validate:"omitempty,max=2000"`
	Type           string      `json:"type" validate:"omitempty,oneof=discount access"`
	DiscountType   string      `json:"discountType" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue  int64       `json:"discountValue" validate:"gte=0"`
	Currency       string      `json:"currency" validate:"omitempty,len=3,alpha"`
	MaxUses        int64       `json:"maxUses" validate:"gte=0"`
	MaxUsesPerUser *int64      `json:"maxUsesPerUser" validate:"omitempty,gte=0"`
	StartsAt       time.Time   `json:"startsAt" validate:"required"`
	EndsAt         time.Time   `json:"endsAt" validate:"required"`
	EventIDs       []uuid.UUID `json:"eventIds"`
	TicketTypeIDs  []uuid.UUID `json:"ticketTypeIds"`
	MinOrderAmount *int64      `json:"minOrderAmount" validate:"omitempty,gte=0"`
}

// UpdatePromotionRequest partially updates a campaign. Scope lists replace
// the stored ones when present.
type UpdatePromotionRequest struct {
	Name           *string     `json:"name" validate:"omitempty,max=255"`
	Description    *string     `json:"description" validate:"omitempty,max=2000"`
	DiscountType   *string     `json:"discountType" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue  *int64      `json:"discountValue" validate:"omitempty,gte=0"`
	Currency       *string     `json:"currency" validate:"omitempty,len=3,alpha"`
	MaxUses        *int64      `json:"maxUses" validate:"omitempty,gte=0"`
	MaxUsesPerUser *int64      `json:"maxUsesPerUser" validate:"omitempty,gte=0"`
	StartsAt       *time.Time  `json:"startsAt"`
	EndsAt         *time.Time  `json:"endsAt"`
	EventIDs       []uuid.UUID `json:"eventIds"`
	TicketTypeIDs  []uuid.UUID `json:"ticketTypeIds"`
	MinOrderAmount *int64      `json:"minOrderAmount" validate:"omitempty,gte=0"`
}

// CreatePromoCodeRequest creates a code, standalone or linked to a campaign.
type CreatePromoCodeRequest struct {
	PromotionID    *uuid.UUID `json:"promotionId"`
	Code           string     `json:"code" validate:"required,max=64"`
	Kind           string     `json:"kind" validate:"omitempty,oneof=discount access"`
	PercentOff     *int64     `json:"percentOff" validate:"omitempty,gte=0,lte=100"`
	AmountOffCents *int64     `json:"amountOffCents" validate:"omitempty,gte=0"`
	Currency       string     `json:"currency" validate:"omitempty,len=3,alpha"`
	MaxRedemptions *int64     `json:"maxRedemptions" validate:"omitempty,gte=0"`
	PerUserLimit   *int64     `json:"perUserLimit" validate:"omitempty,gte=0"`
	StartsAt       *time.Time `json:"startsAt"`
	EndsAt         *time.Time `json:"endsAt"`
	EventID        *uuid.UUID `json:"eventId"`
}

// UpdatePromoCodeRequest partially updates a code. The code text is immutable.
type UpdatePromoCodeRequest struct {
	PercentOff     *int64     `json:"percentOff" validate:"omitempty,gte=0,lte=100"`
	AmountOffCents *int64     `json:"amountOffCents" validate:"omitempty,gte=0"`
	Currency       *string    `json:"currency" validate:"omitempty,len=3,alpha"`
	MaxRedemptions *int64     `json:"maxRedemptions" validate:"omitempty,gte=0"`
	PerUserLimit   *int64     `json:"perUserLimit" validate:"omitempty,gte=0"`
	StartsAt       *time.Time `json:"startsAt"`
	EndsAt         *time.Time `json:"endsAt"`
	EventID        *uuid.UUID `json:"eventId"`
	ClearDiscount  bool       `json:"clearDiscount"`

	ClearMaxRedemptions bool `json:"clearMaxRedemptions"`
	ClearPerUserLimit   bool `json:"clearPerUserLimit"`
	ClearStartsAt       bool `json:"clearStartsAt"`
	ClearEndsAt         bool `json:"clearEndsAt"`
	ClearEventID        bool `json:"clearEventId"`
}

// ValidatePromoCodeRequest previews a code against an order.
type ValidatePromoCodeRequest struct {
	Code          string      `json:"code" validate:"required,max=64"`
	UserID        *uuid.UUID  `json:"userId"`
	EventID       *uuid.UUID  `json:"eventId"`
	TicketTypeIDs []uuid.UUID `json:"ticketTypeIds"`
	OrderAmount   int64       `json:"orderAmount" validate:"gte=0"`
	OrderCurrency string      `json:"orderCurrency" validate:"omitempty,len=3,alpha"`
}

// RedeemRequest records a redemption. OrderID is the idempotency key.
type RedeemRequest struct {
	UserID  uuid.UUID `json:"userId" validate:"required"`
	OrderID uuid.UUID `json:"orderId" validate:"required"`
}

// ValidationResponse is the checkout preview outcome.
type ValidationResponse struct {
	IsValid     bool        `json:"isValid"`
	PromoCodeID uuid.UUID   `json:"promoCodeId"`
	Code        string      `json:"code"`
	Kind        string      `json:"kind"`
	PromotionID *uuid.UUID  `json:"promotionId,omitempty"`
	Discount    money.Money `json:"discount"`
}

// StatusResponse is the derived lifecycle state of a code.
type StatusResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

func (r CreatePromotionRequest) toDTO(orgID uuid.UUID) dto.PromotionCreate {
	return dto.PromotionCreate{
		OrgID:          orgID,
		Name:           r.Name,
		Description:    r.Description,
		Type:           r.Type,
		DiscountType:   r.DiscountType,
		DiscountValue:  r.DiscountValue,
		Currency:       r.Currency,
		MaxUses:        r.MaxUses,
		MaxUsesPerUser: r.MaxUsesPerUser,
		StartsAt:       r.StartsAt,
		EndsAt:         r.EndsAt,
		EventIDs:       r.EventIDs,
		TicketTypeIDs:  r.TicketTypeIDs,
		MinOrderAmount: r.MinOrderAmount,
	}
}

func (r UpdatePromotionRequest) toDTO() dto.PromotionUpdate {
	return dto.PromotionUpdate{
		Name:           r.Name,
		Description:    r.Description,
		DiscountType:   r.DiscountType,
		DiscountValue:  r.DiscountValue,
		Currency:       r.Currency,
		MaxUses:        r.MaxUses,
		MaxUsesPerUser: r.MaxUsesPerUser,
		StartsAt:       r.StartsAt,
		EndsAt:         r.EndsAt,
		EventIDs:       r.EventIDs,
		TicketTypeIDs:  r.TicketTypeIDs,
		MinOrderAmount: r.MinOrderAmount,
	}
}

func (r CreatePromoCodeRequest) toDTO(orgID uuid.UUID) dto.PromoCodeCreate {
	return dto.PromoCodeCreate{
		OrgID:          orgID,
		PromotionID:    r.PromotionID,
		Code:           r.Code,
		Kind:           r.Kind,
		PercentOff:     r.PercentOff,
		AmountOffCents: r.AmountOffCents,
		Currency:       r.Currency,
		MaxRedemptions: r.MaxRedemptions,
		PerUserLimit:   r.PerUserLimit,
		StartsAt:       r.StartsAt,
		EndsAt:         r.EndsAt,
		EventID:        r.EventID,
	}
}

func (r UpdatePromoCodeRequest) toDTO() dto.PromoCodeUpdate {
	return dto.PromoCodeUpdate{
		PercentOff:     r.PercentOff,
		AmountOffCents: r.AmountOffCents,
		Currency:       r.Currency,
		MaxRedemptions: r.MaxRedemptions,
		PerUserLimit:   r.PerUserLimit,
		StartsAt:       r.StartsAt,
		EndsAt:         r.EndsAt,
		EventID:        r.EventID,
		ClearDiscount:  r.ClearDiscount,

		ClearMaxRedemptions: r.ClearMaxRedemptions,
		ClearPerUserLimit:   r.ClearPerUserLimit,
		ClearStartsAt:       r.ClearStartsAt,
		ClearEndsAt:         r.ClearEndsAt,
		ClearEventID:        r.ClearEventID,
	}
}

func (r ValidatePromoCodeRequest) toDTO(orgID uuid.UUID) dto.ValidatePromoCode {
	return dto.ValidatePromoCode{
		OrgID:         orgID,
		Code:          r.Code,
		UserID:        r.UserID,
		EventID:       r.EventID,
		TicketTypeIDs: r.TicketTypeIDs,
		OrderAmount:   r.OrderAmount,
		OrderCurrency: r.OrderCurrency,
	}
}

func toValidationResponse(res *promosvc.ValidationResult) ValidationResponse {
	return ValidationResponse{
		IsValid:     res.IsValid,
		PromoCodeID: res.PromoCode.ID,
		Code:        res.PromoCode.Code,
		Kind:        string(res.PromoCode.Kind),
		PromotionID: res.PromoCode.PromotionID,
		Discount:    res.Discount,
	}
}
