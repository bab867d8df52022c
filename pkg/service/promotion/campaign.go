package promotion

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ticketcore/promoengine/pkg/audit"
	iso "github.com/ticketcore/promoengine/pkg/currency"
	"github.com/ticketcore/promoengine/pkg/domain"
	"github.com/ticketcore/promoengine/pkg/domain/promotion"
	"github.com/ticketcore/promoengine/pkg/dto"
	"github.com/ticketcore/promoengine/pkg/repository"
)

// CampaignService manages promotion campaigns.
type CampaignService struct {
	uow      repository.UnitOfWork
	registry *iso.Registry
	configs  ConfigProvider
	audit    audit.Sink
	logger   *slog.Logger
	opts     options
}

// NewCampaignService creates a campaign service.
func NewCampaignService(
	uow repository.UnitOfWork,
	registry *iso.Registry,
	configs ConfigProvider,
	sink audit.Sink,
	logger *slog.Logger,
	opts ...Option,
) *CampaignService {
	if registry == nil {
		registry = iso.Default()
	}
	return &CampaignService{
		uow:      uow,
		registry: registry,
		configs:  configs,
		audit:    sink,
		logger:   defaultLogger(logger).With("service", "promotion-campaign"),
		opts:     newOptions(opts),
	}
}

// Create stores a new campaign. The currency defaults to the platform default.
func (s *CampaignService) Create(ctx context.Context, in dto.PromotionCreate, actor dto.Actor) (*promotion.Promotion, error) {
	logger := s.logger.With("org_id", in.OrgID, "actor_id", actor.ID)

	fallback, err := fallbackCurrency(ctx, s.configs, in.Currency)
	if err != nil {
		return nil, err
	}
	code, err := resolveCurrency(s.registry, in.Currency, fallback)
	if err != nil {
		return nil, err
	}

	kind := promotion.Type(in.Type)
	if kind == "" {
		kind = promotion.TypeDiscount
	}
	discountType := promotion.DiscountType(in.DiscountType)
	if discountType == "" && kind == promotion.TypeAccess {
		discountType = promotion.DiscountPercentage
	}

	now := s.opts.now()
	p := &promotion.Promotion{
		ID:             uuid.New(),
		OrgID:          in.OrgID,
		Name:           in.Name,
		Description:    in.Description,
		Type:           kind,
		DiscountType:   discountType,
		DiscountValue:  in.DiscountValue,
		Currency:       code,
		MaxUses:        in.MaxUses,
		MaxUsesPerUser: in.MaxUsesPerUser,
		StartsAt:       in.StartsAt.UTC(),
		EndsAt:         in.EndsAt.UTC(),
		EventIDs:       uniqueIDs(in.EventIDs),
		TicketTypeIDs:  uniqueIDs(in.TicketTypeIDs),
		MinOrderAmount: in.MinOrderAmount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := p.Validate(); err != nil {
		logger.Warn("Create promotion rejected", "error", err)
		return nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.PromotionRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, p)
	})
	if err != nil {
		logger.Error("Create promotion failed", "error", err)
		return nil, err
	}

	logger.Info("Promotion created", "promotion_id", p.ID)
	s.record(ctx, logger, actor, audit.ActionPromotionCreated, p, map[string]any{"name": p.Name})
	return p, nil
}

// Update applies a partial update. The window is validated against the
// merged values.
func (s *CampaignService) Update(
	ctx context.Context,
	orgID, id uuid.UUID,
	in dto.PromotionUpdate,
	actor dto.Actor,
) (*promotion.Promotion, error) {
	logger := s.logger.With("org_id", orgID, "promotion_id", id, "actor_id", actor.ID)

	var updated *promotion.Promotion
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.PromotionRepository()
		if err != nil {
			return err
		}
		p, err := repo.Get(ctx, orgID, id)
		if err != nil {
			return notFound(err, domain.ErrPromotionNotFound, id)
		}
		if err := s.apply(p, in); err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return err
		}
		p.UpdatedAt = s.opts.now()
		if err := repo.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		logger.Warn("Update promotion failed", "error", err)
		return nil, err
	}

	logger.Info("Promotion updated")
	s.record(ctx, logger, actor, audit.ActionPromotionUpdated, updated, nil)
	return updated, nil
}

func (s *CampaignService) apply(p *promotion.Promotion, in dto.PromotionUpdate) error {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.DiscountType != nil {
		p.DiscountType = promotion.DiscountType(*in.DiscountType)
	}
	if in.DiscountValue != nil {
		p.DiscountValue = *in.DiscountValue
	}
	if in.Currency != nil {
		code, err := resolveCurrency(s.registry, *in.Currency, p.Currency)
		if err != nil {
			return err
		}
		p.Currency = code
	}
	if in.MaxUses != nil {
		p.MaxUses = *in.MaxUses
	}
	if in.MaxUsesPerUser != nil {
		p.MaxUsesPerUser = in.MaxUsesPerUser
	}
	if in.StartsAt != nil {
		p.StartsAt = in.StartsAt.UTC()
	}
	if in.EndsAt != nil {
		p.EndsAt = in.EndsAt.UTC()
	}
	if in.EventIDs != nil {
		p.EventIDs = uniqueIDs(in.EventIDs)
	}
	if in.TicketTypeIDs != nil {
		p.TicketTypeIDs = uniqueIDs(in.TicketTypeIDs)
	}
	if in.MinOrderAmount != nil {
		p.MinOrderAmount = in.MinOrderAmount
	}
	return nil
}

// Delete removes a campaign and every code linked to it. Redemptions are kept.
func (s *CampaignService) Delete(ctx context.Context, orgID, id uuid.UUID, actor dto.Actor) error {
	logger := s.logger.With("org_id", orgID, "promotion_id", id, "actor_id", actor.ID)

	var (
		deleted *promotion.Promotion
		codes   int64
	)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		promotions, err := uow.PromotionRepository()
		if err != nil {
			return err
		}
		p, err := promotions.Get(ctx, orgID, id)
		if err != nil {
			return notFound(err, domain.ErrPromotionNotFound, id)
		}
		codeRepo, err := uow.PromoCodeRepository()
		if err != nil {
			return err
		}
		if codes, err = codeRepo.DeleteByPromotion(ctx, id); err != nil {
			return err
		}
		if err := promotions.Delete(ctx, orgID, id); err != nil {
			return notFound(err, domain.ErrPromotionNotFound, id)
		}
		deleted = p
		return nil
	})
	if err != nil {
		logger.Warn("Delete promotion failed", "error", err)
		return err
	}

	logger.Info("Promotion deleted", "codes_deleted", codes)
	s.record(ctx, logger, actor, audit.ActionPromotionDeleted, deleted, map[string]any{"codesDeleted": codes})
	return nil
}

// Get returns one campaign of the organization.
func (s *CampaignService) Get(ctx context.Context, orgID, id uuid.UUID) (*promotion.Promotion, error) {
	repo, err := s.uow.PromotionRepository()
	if err != nil {
		return nil, err
	}
	p, err := repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, notFound(err, domain.ErrPromotionNotFound, id)
	}
	return p, nil
}

// List returns the organization's campaigns.
func (s *CampaignService) List(ctx context.Context, orgID uuid.UUID) ([]*promotion.Promotion, error) {
	repo, err := s.uow.PromotionRepository()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, orgID)
}

func (s *CampaignService) record(
	ctx context.Context,
	logger *slog.Logger,
	actor dto.Actor,
	action string,
	p *promotion.Promotion,
	metadata map[string]any,
) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["orgId"] = p.OrgID
	audit.Emit(ctx, s.audit, logger, audit.Entry{
		ActorID:   actor.ID,
		Action:    action,
		Target:    "promotion",
		TargetID:  p.ID.String(),
		Metadata:  metadata,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	})
}
