package promotion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ticketcore/promoengine/pkg/audit"
	iso "github.com/ticketcore/promoengine/pkg/currency"
	"github.com/ticketcore/promoengine/pkg/domain"
	"github.com/ticketcore/promoengine/pkg/domain/promotion"
	"github.com/ticketcore/promoengine/pkg/dto"
	"github.com/ticketcore/promoengine/pkg/money"
	"github.com/ticketcore/promoengine/pkg/repository"
)

// ValidationResult is the outcome of a successful checkout preview.
type ValidationResult struct {
	PromoCode *promotion.PromoCode `json:"promoCode"`
	Promotion *promotion.Promotion `json:"promotion,omitempty"`
	Discount  money.Money          `json:"discount"`
	IsValid   bool                 `json:"isValid"`
}

// RedemptionResult is the outcome of UsePromoCode. Created is false when the
// order had already redeemed the code and the existing row is returned.
type RedemptionResult struct {
	Redemption *promotion.Redemption `json:"redemption"`
	Created    bool                  `json:"created"`
}

// CodeService manages promo codes and validates and redeems them.
type CodeService struct {
	uow       repository.UnitOfWork
	registry  *iso.Registry
	configs   ConfigProvider
	converter Converter
	audit     audit.Sink
	logger    *slog.Logger
	opts      options
}

// NewCodeService creates a promo code service. converter is consulted only for
// fixed discounts whose currency differs from the order currency.
func NewCodeService(
	uow repository.UnitOfWork,
	registry *iso.Registry,
	configs ConfigProvider,
	converter Converter,
	sink audit.Sink,
	logger *slog.Logger,
	opts ...Option,
) *CodeService {
	if registry == nil {
		registry = iso.Default()
	}
	return &CodeService{
		uow:       uow,
		registry:  registry,
		configs:   configs,
		converter: converter,
		audit:     sink,
		logger:    defaultLogger(logger).With("service", "promo-code"),
		opts:      newOptions(opts),
	}
}

// Create stores a new code. The currency defaults to the linked campaign's,
// then to the platform default.
func (s *CodeService) Create(ctx context.Context, in dto.PromoCodeCreate, actor dto.Actor) (*promotion.PromoCode, error) {
	logger := s.logger.With("org_id", in.OrgID, "actor_id", actor.ID)

	fallback, err := fallbackCurrency(ctx, s.configs, in.Currency)
	if err != nil {
		return nil, err
	}
	code, err := resolveCurrency(s.registry, in.Currency, fallback)
	if err != nil {
		return nil, err
	}

	kind := promotion.Type(in.Kind)
	if kind == "" {
		kind = promotion.TypeDiscount
	}
	now := s.opts.now()
	c := &promotion.PromoCode{
		ID:             uuid.New(),
		OrgID:          in.OrgID,
		PromotionID:    in.PromotionID,
		Code:           promotion.NormalizeCode(in.Code),
		Kind:           kind,
		PercentOff:     in.PercentOff,
		AmountOffCents: in.AmountOffCents,
		Currency:       code,
		MaxRedemptions: in.MaxRedemptions,
		PerUserLimit:   in.PerUserLimit,
		StartsAt:       utc(in.StartsAt),
		EndsAt:         utc(in.EndsAt),
		EventID:        in.EventID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := c.Validate(); err != nil {
		logger.Warn("Create promo code rejected", "error", err)
		return nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		if c.PromotionID != nil {
			promotions, err := uow.PromotionRepository()
			if err != nil {
				return err
			}
			campaign, err := promotions.Get(ctx, c.OrgID, *c.PromotionID)
			if err != nil {
				return notFound(err, domain.ErrPromotionNotFound, *c.PromotionID)
			}
			if in.Currency == "" {
				c.Currency = campaign.Currency
			}
		}
		codes, err := uow.PromoCodeRepository()
		if err != nil {
			return err
		}
		if err := codes.Create(ctx, c); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return fmt.Errorf("%w: %s", domain.ErrCodeAlreadyExists, c.Code)
			}
			return err
		}
		return nil
	})
	if err != nil {
		logger.Warn("Create promo code failed", "code", c.Code, "error", err)
		return nil, err
	}

	logger.Info("Promo code created", "promo_code_id", c.ID, "code", c.Code)
	s.record(ctx, logger, actor, audit.ActionPromoCodeCreated, c, nil)
	return c, nil
}

// Update applies a partial update to a code of the organization.
func (s *CodeService) Update(
	ctx context.Context,
	orgID, id uuid.UUID,
	in dto.PromoCodeUpdate,
	actor dto.Actor,
) (*promotion.PromoCode, error) {
	logger := s.logger.With("org_id", orgID, "promo_code_id", id, "actor_id", actor.ID)

	var updated *promotion.PromoCode
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		codes, err := uow.PromoCodeRepository()
		if err != nil {
			return err
		}
		c, err := codes.Get(ctx, orgID, id)
		if err != nil {
			return notFound(err, domain.ErrCodeNotFound, id)
		}
		if err := s.apply(c, in); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		c.UpdatedAt = s.opts.now()
		if err := codes.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		logger.Warn("Update promo code failed", "error", err)
		return nil, err
	}

	logger.Info("Promo code updated", "code", updated.Code)
	s.record(ctx, logger, actor, audit.ActionPromoCodeUpdated, updated, nil)
	return updated, nil
}

func (s *CodeService) apply(c *promotion.PromoCode, in dto.PromoCodeUpdate) error {
	if in.ClearDiscount {
		c.PercentOff, c.AmountOffCents = nil, nil
	}
	if in.ClearMaxRedemptions {
		c.MaxRedemptions = nil
	}
	if in.ClearPerUserLimit {
		c.PerUserLimit = nil
	}
	if in.ClearStartsAt {
		c.StartsAt = nil
	}
	if in.ClearEndsAt {
		c.EndsAt = nil
	}
	if in.ClearEventID {
		c.EventID = nil
	}
	if in.PercentOff != nil {
		c.PercentOff = in.PercentOff
	}
	if in.AmountOffCents != nil {
		c.AmountOffCents = in.AmountOffCents
	}
	if in.Currency != nil {
		code, err := resolveCurrency(s.registry, *in.Currency, c.Currency)
		if err != nil {
			return err
		}
		c.Currency = code
	}
	if in.MaxRedemptions != nil {
		c.MaxRedemptions = in.MaxRedemptions
	}
	if in.PerUserLimit != nil {
		c.PerUserLimit = in.PerUserLimit
	}
	if in.StartsAt != nil {
		c.StartsAt = utc(in.StartsAt)
	}
	if in.EndsAt != nil {
		c.EndsAt = utc(in.EndsAt)
	}
	if in.EventID != nil {
		c.EventID = in.EventID
	}
	return nil
}

// Delete removes a code. Its redemptions are kept.
func (s *CodeService) Delete(ctx context.Context, orgID, id uuid.UUID, actor dto.Actor) error {
	logger := s.logger.With("org_id", orgID, "promo_code_id", id, "actor_id", actor.ID)

	var deleted *promotion.PromoCode
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		codes, err := uow.PromoCodeRepository()
		if err != nil {
			return err
		}
		c, err := codes.Get(ctx, orgID, id)
		if err != nil {
			return notFound(err, domain.ErrCodeNotFound, id)
		}
		if err := codes.Delete(ctx, orgID, id); err != nil {
			return notFound(err, domain.ErrCodeNotFound, id)
		}
		deleted = c
		return nil
	})
	if err != nil {
		logger.Warn("Delete promo code failed", "error", err)
		return err
	}

	logger.Info("Promo code deleted", "code", deleted.Code)
	s.record(ctx, logger, actor, audit.ActionPromoCodeDeleted, deleted, nil)
	return nil
}

// Get returns one code of the organization.
func (s *CodeService) Get(ctx context.Context, orgID, id uuid.UUID) (*promotion.PromoCode, error) {
	codes, err := s.uow.PromoCodeRepository()
	if err != nil {
		return nil, err
	}
	c, err := codes.Get(ctx, orgID, id)
	if err != nil {
		return nil, notFound(err, domain.ErrCodeNotFound, id)
	}
	return c, nil
}

// List returns the organization's codes.
func (s *CodeService) List(ctx context.Context, orgID uuid.UUID) ([]*promotion.PromoCode, error) {
	codes, err := s.uow.PromoCodeRepository()
	if err != nil {
		return nil, err
	}
	return codes.List(ctx, orgID)
}

// Status derives the lifecycle state of a code from its windows and the
// redemption ledger.
func (s *CodeService) Status(ctx context.Context, orgID, id uuid.UUID) (promotion.Status, error) {
	c, err := s.Get(ctx, orgID, id)
	if err != nil {
		return "", err
	}
	campaign, err := s.campaignOf(ctx, s.uow, c, false)
	if err != nil {
		return "", err
	}
	usage, err := s.usage(ctx, s.uow, c, campaign, nil)
	if err != nil {
		return "", err
	}
	return promotion.DeriveStatus(c, campaign, usage, s.opts.now()), nil
}

// Redemptions returns the redemption ledger of a code.
func (s *CodeService) Redemptions(ctx context.Context, orgID, id uuid.UUID) ([]*promotion.Redemption, error) {
	if _, err := s.Get(ctx, orgID, id); err != nil {
		return nil, err
	}
	reds, err := s.uow.RedemptionRepository()
	if err != nil {
		return nil, err
	}
	return reds.ListByCode(ctx, id)
}

// ValidatePromoCode previews a code against an order without consuming it.
// An order without a currency is priced in the platform default currency.
// Checks run in a fixed order and the first failure is returned: existence,
// time window, global cap, per-user cap, scope, then discount computation.
func (s *CodeService) ValidatePromoCode(ctx context.Context, in dto.ValidatePromoCode) (*ValidationResult, error) {
	normalized := promotion.NormalizeCode(in.Code)
	logger := s.logger.With("org_id", in.OrgID, "code", normalized)

	fallback, err := fallbackCurrency(ctx, s.configs, in.OrderCurrency)
	if err != nil {
		return nil, err
	}
	orderCurrency, err := resolveCurrency(s.registry, in.OrderCurrency, fallback)
	if err != nil {
		return nil, err
	}
	if in.OrderAmount < 0 {
		return nil, fmt.Errorf("%w: negative order amount", domain.ErrValidation)
	}
	order, err := money.New(in.OrderAmount, orderCurrency)
	if err != nil {
		return nil, err
	}

	codes, err := s.uow.PromoCodeRepository()
	if err != nil {
		return nil, err
	}
	c, err := codes.FindByCode(ctx, in.OrgID, normalized)
	if err != nil {
		return nil, notFound(err, domain.ErrCodeNotFound, normalized)
	}
	campaign, err := s.campaignOf(ctx, s.uow, c, false)
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	if err := promotion.CheckWindow(c, campaign, now); err != nil {
		logger.Debug("Promo code rejected", "reason", err)
		return nil, err
	}
	usage, err := s.usage(ctx, s.uow, c, campaign, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := promotion.CheckGlobalCap(c, campaign, usage); err != nil {
		logger.Debug("Promo code rejected", "reason", err)
		return nil, err
	}
	if in.UserID != nil {
		if err := promotion.CheckUserCap(c, campaign, usage); err != nil {
			logger.Debug("Promo code rejected", "reason", err, "user_id", *in.UserID)
			return nil, err
		}
	}
	if err := promotion.CheckScope(c, campaign, in.EventID, in.TicketTypeIDs); err != nil {
		logger.Debug("Promo code rejected", "reason", err)
		return nil, err
	}
	if s.opts.enforceMinOrder && campaign != nil && campaign.MinOrderAmount != nil {
		inCampaignCurrency, err := s.convert(ctx, order, campaign.Currency, now)
		if err != nil {
			return nil, err
		}
		if err := promotion.CheckMinOrder(campaign, inCampaignCurrency); err != nil {
			logger.Debug("Promo code rejected", "reason", err)
			return nil, err
		}
	}

	discount, err := s.discount(ctx, promotion.ResolveTerms(c, campaign), order, now)
	if err != nil {
		return nil, err
	}
	return &ValidationResult{PromoCode: c, Promotion: campaign, Discount: discount, IsValid: true}, nil
}

func (s *CodeService) discount(ctx context.Context, terms promotion.Terms, order money.Money, at time.Time) (money.Money, error) {
	switch {
	case terms.AccessOnly:
		return money.Zero(order.Currency()), nil
	case terms.Kind == promotion.DiscountPercentage:
		return order.PercentOf(terms.Value)
	}

	currency := terms.Currency
	if currency == "" {
		currency = order.Currency()
	}
	off, err := money.New(terms.Value, currency)
	if err != nil {
		return money.Money{}, err
	}
	off, err = s.convert(ctx, off, order.Currency(), at)
	if err != nil {
		return money.Money{}, err
	}
	return off.Clamp(order)
}

func (s *CodeService) convert(ctx context.Context, m money.Money, to money.Code, at time.Time) (money.Money, error) {
	if m.Currency() == to {
		return m, nil
	}
	if s.converter == nil {
		return money.Money{}, fmt.Errorf("%w: %s to %s", domain.ErrRateNotFound, m.Currency(), to)
	}
	conv, err := s.converter.Convert(ctx, m, to, at)
	if err != nil {
		return money.Money{}, err
	}
	return conv.Converted, nil
}

// UsePromoCode records that an order redeemed the code. The code row and its
// campaign row stay locked until commit, so concurrent redemptions cannot
// exceed any cap. Redeeming the same order twice returns the first row.
func (s *CodeService) UsePromoCode(ctx context.Context, promoCodeID, userID, orderID uuid.UUID) (*RedemptionResult, error) {
	logger := s.logger.With("promo_code_id", promoCodeID, "user_id", userID, "order_id", orderID)

	var (
		result RedemptionResult
		code   *promotion.PromoCode
	)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		codes, err := uow.PromoCodeRepository()
		if err != nil {
			return err
		}
		c, err := codes.GetForUpdate(ctx, promoCodeID)
		if err != nil {
			return notFound(err, domain.ErrCodeNotFound, promoCodeID)
		}
		code = c
		campaign, err := s.campaignOf(ctx, uow, c, true)
		if err != nil {
			return err
		}

		reds, err := uow.RedemptionRepository()
		if err != nil {
			return err
		}
		existing, err := reds.FindByOrder(ctx, c.ID, orderID)
		switch {
		case err == nil:
			result = RedemptionResult{Redemption: existing}
			return nil
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		now := s.opts.now()
		if err := promotion.CheckWindow(c, campaign, now); err != nil {
			return err
		}
		usage, err := s.usage(ctx, uow, c, campaign, &userID)
		if err != nil {
			return err
		}
		if err := promotion.CheckGlobalCap(c, campaign, usage); err != nil {
			return err
		}
		if err := promotion.CheckUserCap(c, campaign, usage); err != nil {
			return err
		}

		r := &promotion.Redemption{
			ID:         uuid.New(),
			PromoID:    c.ID,
			UserID:     userID,
			OrderID:    orderID,
			RedeemedAt: now,
		}
		if campaign != nil {
			r.PromotionID = &campaign.ID
		}
		if err := reds.Create(ctx, r); err != nil {
			return err
		}
		if campaign != nil {
			promotions, err := uow.PromotionRepository()
			if err != nil {
				return err
			}
			if err := promotions.IncrementRedemptions(ctx, campaign.ID); err != nil {
				return err
			}
		}
		result = RedemptionResult{Redemption: r, Created: true}
		return nil
	})
	if err != nil {
		logger.Warn("UsePromoCode failed", "error", err)
		return nil, err
	}
	if !result.Created {
		logger.Info("Order already redeemed promo code", "redemption_id", result.Redemption.ID)
		return &result, nil
	}

	logger.Info("Promo code redeemed", "redemption_id", result.Redemption.ID, "code", code.Code)
	audit.Emit(ctx, s.audit, logger, audit.Entry{
		ActorID:  userID,
		Action:   audit.ActionPromoCodeRedeemed,
		Target:   "promo_code",
		TargetID: code.ID.String(),
		Metadata: map[string]any{
			"orgId":        code.OrgID,
			"code":         code.Code,
			"orderId":      orderID,
			"redemptionId": result.Redemption.ID,
		},
	})
	return &result, nil
}

// campaignOf loads the campaign linked to c, if any. With lock set the row is
// locked for the rest of the transaction.
func (s *CodeService) campaignOf(
	ctx context.Context,
	uow repository.UnitOfWork,
	c *promotion.PromoCode,
	lock bool,
) (*promotion.Promotion, error) {
	if c.PromotionID == nil {
		return nil, nil
	}
	promotions, err := uow.PromotionRepository()
	if err != nil {
		return nil, err
	}
	var campaign *promotion.Promotion
	if lock {
		campaign, err = promotions.GetForUpdate(ctx, *c.PromotionID)
	} else {
		campaign, err = promotions.GetByID(ctx, *c.PromotionID)
	}
	if err != nil {
		return nil, notFound(err, domain.ErrPromotionNotFound, *c.PromotionID)
	}
	return campaign, nil
}

// usage counts redemptions from the ledger. Per-user counts are only taken
// when userID is set.
func (s *CodeService) usage(
	ctx context.Context,
	uow repository.UnitOfWork,
	c *promotion.PromoCode,
	campaign *promotion.Promotion,
	userID *uuid.UUID,
) (promotion.Usage, error) {
	var u promotion.Usage
	reds, err := uow.RedemptionRepository()
	if err != nil {
		return u, err
	}
	if u.CodeTotal, err = reds.CountByCode(ctx, c.ID); err != nil {
		return u, err
	}
	if userID != nil {
		if u.CodeByUser, err = reds.CountByCodeAndUser(ctx, c.ID, *userID); err != nil {
			return u, err
		}
	}
	if campaign == nil {
		return u, nil
	}
	if u.CampaignTotal, err = reds.CountByPromotion(ctx, campaign.ID); err != nil {
		return u, err
	}
	if userID != nil {
		if u.CampaignUser, err = reds.CountByPromotionAndUser(ctx, campaign.ID, *userID); err != nil {
			return u, err
		}
	}
	return u, nil
}

func (s *CodeService) record(
	ctx context.Context,
	logger *slog.Logger,
	actor dto.Actor,
	action string,
	c *promotion.PromoCode,
	metadata map[string]any,
) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["orgId"] = c.OrgID
	metadata["code"] = c.Code
	audit.Emit(ctx, s.audit, logger, audit.Entry{
		ActorID:   actor.ID,
		Action:    action,
		Target:    "promo_code",
		TargetID:  c.ID.String(),
		Metadata:  metadata,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	})
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
