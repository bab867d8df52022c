// Package repository declares the persistence contracts the engine consumes.
// Adapters live under infra/repository.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ticketcore/promoengine/pkg/domain/currency"
	"github.com/ticketcore/promoengine/pkg/domain/promotion"
	"github.com/ticketcore/promoengine/pkg/money"
)

// CurrencyConfigRepository stores the singleton currency configuration.
type CurrencyConfigRepository interface {
	// Get returns the configuration or domain.ErrNotFound when it was never initialized.
	Get(ctx context.Context) (*currency.Configuration, error)
	// CreateIfAbsent inserts the configuration unless one exists and reports
	// whether a row was written.
	CreateIfAbsent(ctx context.Context, cfg *currency.Configuration) (bool, error)
	// Save overwrites the configuration.
	Save(ctx context.Context, cfg *currency.Configuration) error
}

// CurrencyChangeLogRepository is the append-only configuration history.
type CurrencyChangeLogRepository interface {
	Append(ctx context.Context, entry *currency.ChangeLog) error
	// List returns entries newest first. A limit of zero or less means no limit.
	List(ctx context.Context, limit int) ([]*currency.ChangeLog, error)
}

// ExchangeRateRepository stores time-versioned rates.
type ExchangeRateRepository interface {
	Create(ctx context.Context, rate *currency.ExchangeRate) error
	// LockPair serializes writers of the ordered pair until the surrounding
	// transaction ends.
	LockPair(ctx context.Context, from, to money.Code) error
	// DeactivatePair closes every active row of the ordered pair at the given instant.
	DeactivatePair(ctx context.Context, from, to money.Code, at time.Time) (int64, error)
	// FindEffective returns the active row covering at, newest validFrom first,
	// or domain.ErrNotFound.
	FindEffective(ctx context.Context, from, to money.Code, at time.Time) (*currency.ExchangeRate, error)
	// ListEffective returns every active row covering at, ordered by pair.
	ListEffective(ctx context.Context, at time.Time) ([]*currency.ExchangeRate, error)
	// History returns every row of the ordered pair, newest first.
	History(ctx context.Context, from, to money.Code) ([]*currency.ExchangeRate, error)
}

// PromotionRepository stores campaigns.
type PromotionRepository interface {
	Create(ctx context.Context, p *promotion.Promotion) error
	Update(ctx context.Context, p *promotion.Promotion) error
	Get(ctx context.Context, orgID, id uuid.UUID) (*promotion.Promotion, error)
	// GetByID loads a campaign without org scoping, used when following a code link.
	GetByID(ctx context.Context, id uuid.UUID) (*promotion.Promotion, error)
	// GetForUpdate loads and row-locks a campaign for the rest of the transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*promotion.Promotion, error)
	List(ctx context.Context, orgID uuid.UUID) ([]*promotion.Promotion, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	IncrementRedemptions(ctx context.Context, id uuid.UUID) error
}

// PromoCodeRepository stores codes.
type PromoCodeRepository interface {
	// Create returns domain.ErrAlreadyExists when the code is taken in the org.
	Create(ctx context.Context, c *promotion.PromoCode) error
	Update(ctx context.Context, c *promotion.PromoCode) error
	Get(ctx context.Context, orgID, id uuid.UUID) (*promotion.PromoCode, error)
	GetByID(ctx context.Context, id uuid.UUID) (*promotion.PromoCode, error)
	// GetForUpdate loads and row-locks a code for the rest of the transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*promotion.PromoCode, error)
	// FindByCode matches an already normalized code within an org.
	FindByCode(ctx context.Context, orgID uuid.UUID, code string) (*promotion.PromoCode, error)
	List(ctx context.Context, orgID uuid.UUID) ([]*promotion.PromoCode, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	DeleteByPromotion(ctx context.Context, promotionID uuid.UUID) (int64, error)
}

// RedemptionRepository is the redemption ledger. Rows are never updated or deleted.
type RedemptionRepository interface {
	// Create returns domain.ErrAlreadyExists for a duplicate (code, order) pair.
	Create(ctx context.Context, r *promotion.Redemption) error
	FindByOrder(ctx context.Context, promoID, orderID uuid.UUID) (*promotion.Redemption, error)
	CountByCode(ctx context.Context, promoID uuid.UUID) (int64, error)
	CountByCodeAndUser(ctx context.Context, promoID, userID uuid.UUID) (int64, error)
	// CountByPromotion counts redemptions of every code currently linked to the campaign.
	CountByPromotion(ctx context.Context, promotionID uuid.UUID) (int64, error)
	CountByPromotionAndUser(ctx context.Context, promotionID, userID uuid.UUID) (int64, error)
	ListByCode(ctx context.Context, promoID uuid.UUID) ([]*promotion.Redemption, error)
}
