package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ticketcore/promoengine/pkg/domain"
	"github.com/ticketcore/promoengine/pkg/domain/promotion"
	"github.com/ticketcore/promoengine/pkg/money"
	"github.com/ticketcore/promoengine/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type promotionRepository struct {
	db *gorm.DB
}

// NewPromotionRepository creates a campaign repository using the provided *gorm.DB.
func NewPromotionRepository(db *gorm.DB) repository.PromotionRepository {
	return &promotionRepository{db: db}
}

// Create implements repository.PromotionRepository.
func (r *promotionRepository) Create(ctx context.Context, p *promotion.Promotion) error {
	m := mapPromotionDomainToModel(p)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

// Update implements repository.PromotionRepository. The redemption counter is
// only ever changed by IncrementRedemptions.
func (r *promotionRepository) Update(ctx context.Context, p *promotion.Promotion) error {
	m := mapPromotionDomainToModel(p)
	res := r.db.WithContext(ctx).
		Model(&Promotion{}).
		Where("id = ? AND org_id = ?", p.ID, p.OrgID).
		Select("*").
		Omit("id", "org_id", "redemptions", "created_at").
		Updates(&m)
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Get implements repository.PromotionRepository.
func (r *promotionRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*promotion.Promotion, error) {
	return r.first(r.db.WithContext(ctx).Where("org_id = ?", orgID), id)
}

// GetByID implements repository.PromotionRepository.
func (r *promotionRepository) GetByID(ctx context.Context, id uuid.UUID) (*promotion.Promotion, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// GetForUpdate implements repository.PromotionRepository.
func (r *promotionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*promotion.Promotion, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *promotionRepository) first(q *gorm.DB, id uuid.UUID) (*promotion.Promotion, error) {
	var m Promotion
	if err := WrapError(func() error { return q.First(&m, "id = ?", id).Error }); err != nil {
		return nil, err
	}
	return mapPromotionModelToDomain(&m), nil
}

// List implements repository.PromotionRepository.
func (r *promotionRepository) List(ctx context.Context, orgID uuid.UUID) ([]*promotion.Promotion, error) {
	var rows []Promotion
	if err := r.db.WithContext(ctx).Where("org_id = ?", orgID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*promotion.Promotion, 0, len(rows))
	for i := range rows {
		out = append(out, mapPromotionModelToDomain(&rows[i]))
	}
	return out, nil
}

// Delete implements repository.PromotionRepository.
func (r *promotionRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND org_id = ?", id, orgID).Delete(&Promotion{})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IncrementRedemptions implements repository.PromotionRepository.
func (r *promotionRepository) IncrementRedemptions(ctx context.Context, id uuid.UUID) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).
			Model(&Promotion{}).
			Where("id = ?", id).
			UpdateColumn("redemptions", gorm.Expr("redemptions + ?", 1)).Error
	})
}

type promoCodeRepository struct {
	db *gorm.DB
}

// NewPromoCodeRepository creates a promo code repository using the provided *gorm.DB.
func NewPromoCodeRepository(db *gorm.DB) repository.PromoCodeRepository {
	return &promoCodeRepository{db: db}
}

// Create implements repository.PromoCodeRepository.
func (r *promoCodeRepository) Create(ctx context.Context, c *promotion.PromoCode) error {
	m := mapCodeDomainToModel(c)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

// Update implements repository.PromoCodeRepository.
func (r *promoCodeRepository) Update(ctx context.Context, c *promotion.PromoCode) error {
	m := mapCodeDomainToModel(c)
	res := r.db.WithContext(ctx).
		Model(&PromoCode{}).
		Where("id = ? AND org_id = ?", c.ID, c.OrgID).
		Select("*").
		Omit("id", "org_id", "code", "created_at").
		Updates(&m)
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Get implements repository.PromoCodeRepository.
func (r *promoCodeRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*promotion.PromoCode, error) {
	return r.first(r.db.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id))
}

// GetByID implements repository.PromoCodeRepository.
func (r *promoCodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*promotion.PromoCode, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// GetForUpdate implements repository.PromoCodeRepository.
func (r *promoCodeRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*promotion.PromoCode, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// FindByCode implements repository.PromoCodeRepository.
func (r *promoCodeRepository) FindByCode(ctx context.Context, orgID uuid.UUID, code string) (*promotion.PromoCode, error) {
	return r.first(r.db.WithContext(ctx).Where("org_id = ? AND code = ?", orgID, code))
}

func (r *promoCodeRepository) first(q *gorm.DB) (*promotion.PromoCode, error) {
	var m PromoCode
	if err := WrapError(func() error { return q.First(&m).Error }); err != nil {
		return nil, err
	}
	return mapCodeModelToDomain(&m), nil
}

// List implements repository.PromoCodeRepository.
func (r *promoCodeRepository) List(ctx context.Context, orgID uuid.UUID) ([]*promotion.PromoCode, error) {
	var rows []PromoCode
	if err := r.db.WithContext(ctx).Where("org_id = ?", orgID).Order("code").Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*promotion.PromoCode, 0, len(rows))
	for i := range rows {
		out = append(out, mapCodeModelToDomain(&rows[i]))
	}
	return out, nil
}

// Delete implements repository.PromoCodeRepository.
func (r *promoCodeRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND org_id = ?", id, orgID).Delete(&PromoCode{})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByPromotion implements repository.PromoCodeRepository.
func (r *promoCodeRepository) DeleteByPromotion(ctx context.Context, promotionID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("promotion_id = ?", promotionID).Delete(&PromoCode{})
	if res.Error != nil {
		return 0, MapGormErrorToDomain(res.Error)
	}
	return res.RowsAffected, nil
}

type redemptionRepository struct {
	db *gorm.DB
}

// NewRedemptionRepository creates a redemption ledger repository using the provided *gorm.DB.
func NewRedemptionRepository(db *gorm.DB) repository.RedemptionRepository {
	return &redemptionRepository{db: db}
}

// Create implements repository.RedemptionRepository.
func (r *redemptionRepository) Create(ctx context.Context, red *promotion.Redemption) error {
	m := PromoRedemption{
		ID:          red.ID,
		PromoID:     red.PromoID,
		PromotionID: red.PromotionID,
		UserID:      red.UserID,
		OrderID:     red.OrderID,
		RedeemedAt:  red.RedeemedAt,
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

// FindByOrder implements repository.RedemptionRepository.
func (r *redemptionRepository) FindByOrder(ctx context.Context, promoID, orderID uuid.UUID) (*promotion.Redemption, error) {
	var m PromoRedemption
	err := WrapError(func() error {
		return r.db.WithContext(ctx).Where("promo_id = ? AND order_id = ?", promoID, orderID).First(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return mapRedemptionModelToDomain(&m), nil
}

// CountByCode implements repository.RedemptionRepository.
func (r *redemptionRepository) CountByCode(ctx context.Context, promoID uuid.UUID) (int64, error) {
	return r.count(r.db.WithContext(ctx).Model(&PromoRedemption{}).Where("promo_id = ?", promoID))
}

// CountByCodeAndUser implements repository.RedemptionRepository.
func (r *redemptionRepository) CountByCodeAndUser(ctx context.Context, promoID, userID uuid.UUID) (int64, error) {
	return r.count(r.db.WithContext(ctx).Model(&PromoRedemption{}).Where("promo_id = ? AND user_id = ?", promoID, userID))
}

// CountByPromotion implements repository.RedemptionRepository.
func (r *redemptionRepository) CountByPromotion(ctx context.Context, promotionID uuid.UUID) (int64, error) {
	return r.count(r.byPromotion(ctx, promotionID))
}

// CountByPromotionAndUser implements repository.RedemptionRepository.
func (r *redemptionRepository) CountByPromotionAndUser(ctx context.Context, promotionID, userID uuid.UUID) (int64, error) {
	return r.count(r.byPromotion(ctx, promotionID).Where("user_id = ?", userID))
}

// ListByCode implements repository.RedemptionRepository.
func (r *redemptionRepository) ListByCode(ctx context.Context, promoID uuid.UUID) ([]*promotion.Redemption, error) {
	var rows []PromoRedemption
	if err := r.db.WithContext(ctx).Where("promo_id = ?", promoID).Order("redeemed_at").Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*promotion.Redemption, 0, len(rows))
	for i := range rows {
		out = append(out, mapRedemptionModelToDomain(&rows[i]))
	}
	return out, nil
}

// byPromotion selects by the campaign stored on the redemption row, so rows of
// deleted codes keep counting.
func (r *redemptionRepository) byPromotion(ctx context.Context, promotionID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&PromoRedemption{}).
		Where("promotion_id = ?", promotionID)
}

func (r *redemptionRepository) count(q *gorm.DB) (int64, error) {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, MapGormErrorToDomain(err)
	}
	return n, nil
}

func mapPromotionDomainToModel(p *promotion.Promotion) Promotion {
	return Promotion{
		ID:             p.ID,
		OrgID:          p.OrgID,
		Name:           p.Name,
		Description:    p.Description,
		Type:           string(p.Type),
		DiscountType:   string(p.DiscountType),
		DiscountValue:  p.DiscountValue,
		Currency:       p.Currency.String(),
		MaxUses:        p.MaxUses,
		MaxUsesPerUser: p.MaxUsesPerUser,
		StartsAt:       p.StartsAt,
		EndsAt:         p.EndsAt,
		EventIDs:       JSONList[uuid.UUID](p.EventIDs),
		TicketTypeIDs:  JSONList[uuid.UUID](p.TicketTypeIDs),
		MinOrderAmount: p.MinOrderAmount,
		Redemptions:    p.Redemptions,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func mapPromotionModelToDomain(m *Promotion) *promotion.Promotion {
	return &promotion.Promotion{
		ID:             m.ID,
		OrgID:          m.OrgID,
		Name:           m.Name,
		Description:    m.Description,
		Type:           promotion.Type(m.Type),
		DiscountType:   promotion.DiscountType(m.DiscountType),
		DiscountValue:  m.DiscountValue,
		Currency:       money.Code(m.Currency),
		MaxUses:        m.MaxUses,
		MaxUsesPerUser: m.MaxUsesPerUser,
		StartsAt:       m.StartsAt,
		EndsAt:         m.EndsAt,
		EventIDs:       []uuid.UUID(m.EventIDs),
		TicketTypeIDs:  []uuid.UUID(m.TicketTypeIDs),
		MinOrderAmount: m.MinOrderAmount,
		Redemptions:    m.Redemptions,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func mapCodeDomainToModel(c *promotion.PromoCode) PromoCode {
	return PromoCode{
		ID:             c.ID,
		OrgID:          c.OrgID,
		PromotionID:    c.PromotionID,
		Code:           c.Code,
		Kind:           string(c.Kind),
		PercentOff:     c.PercentOff,
		AmountOffCents: c.AmountOffCents,
		Currency:       c.Currency.String(),
		MaxRedemptions: c.MaxRedemptions,
		PerUserLimit:   c.PerUserLimit,
		StartsAt:       c.StartsAt,
		EndsAt:         c.EndsAt,
		EventID:        c.EventID,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func mapCodeModelToDomain(m *PromoCode) *promotion.PromoCode {
	return &promotion.PromoCode{
		ID:             m.ID,
		OrgID:          m.OrgID,
		PromotionID:    m.PromotionID,
		Code:           m.Code,
		Kind:           promotion.Type(m.Kind),
		PercentOff:     m.PercentOff,
		AmountOffCents: m.AmountOffCents,
		Currency:       money.Code(m.Currency),
		MaxRedemptions: m.MaxRedemptions,
		PerUserLimit:   m.PerUserLimit,
		StartsAt:       m.StartsAt,
		EndsAt:         m.EndsAt,
		EventID:        m.EventID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func mapRedemptionModelToDomain(m *PromoRedemption) *promotion.Redemption {
	return &promotion.Redemption{
		ID:          m.ID,
		PromoID:     m.PromoID,
		PromotionID: m.PromotionID,
		UserID:      m.UserID,
		OrderID:     m.OrderID,
		RedeemedAt:  m.RedeemedAt,
	}
}
