package repository

import (
	"context"
	"time"

	domaincurrency "github.com/ticketcore/promoengine/pkg/domain/currency"
	"github.com/ticketcore/promoengine/pkg/money"
	"github.com/ticketcore/promoengine/pkg/repository"
	"gorm.io/gorm"
)

type exchangeRateRepository struct {
	db *gorm.DB
}

// NewExchangeRateRepository creates an exchange rate repository using the provided *gorm.DB.
func NewExchangeRateRepository(db *gorm.DB) repository.ExchangeRateRepository {
	return &exchangeRateRepository{db: db}
}

// Create implements repository.ExchangeRateRepository.
func (r *exchangeRateRepository) Create(ctx context.Context, rate *domaincurrency.ExchangeRate) error {
	m := mapRateDomainToModel(rate)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

// LockPair implements repository.ExchangeRateRepository with a transaction
// scoped advisory lock. A second writer of the pair waits for the first to
// commit and then closes the row the first one inserted.
func (r *exchangeRateRepository) LockPair(ctx context.Context, from, to money.Code) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", pairLockKey(from, to)).Error
	})
}

func pairLockKey(from, to money.Code) string {
	return "exchange_rate:" + from.String() + "/" + to.String()
}

// DeactivatePair implements repository.ExchangeRateRepository.
func (r *exchangeRateRepository) DeactivatePair(ctx context.Context, from, to money.Code, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&ExchangeRate{}).
		Where("from_currency = ? AND to_currency = ? AND is_active = ?", from.String(), to.String(), true).
		Updates(map[string]any{"is_active": false, "valid_until": at})
	if res.Error != nil {
		return 0, MapGormErrorToDomain(res.Error)
	}
	return res.RowsAffected, nil
}

// FindEffective implements repository.ExchangeRateRepository.
func (r *exchangeRateRepository) FindEffective(ctx context.Context, from, to money.Code, at time.Time) (*domaincurrency.ExchangeRate, error) {
	var m ExchangeRate
	err := WrapError(func() error {
		return r.effective(ctx, at).
			Where("from_currency = ? AND to_currency = ?", from.String(), to.String()).
			Order("valid_from DESC").
			First(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return mapRateModelToDomain(&m), nil
}

// ListEffective implements repository.ExchangeRateRepository.
func (r *exchangeRateRepository) ListEffective(ctx context.Context, at time.Time) ([]*domaincurrency.ExchangeRate, error) {
	var rows []ExchangeRate
	if err := r.effective(ctx, at).Order("from_currency, to_currency, valid_from DESC").Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapRateModelsToDomain(rows), nil
}

// History implements repository.ExchangeRateRepository.
func (r *exchangeRateRepository) History(ctx context.Context, from, to money.Code) ([]*domaincurrency.ExchangeRate, error) {
	var rows []ExchangeRate
	err := r.db.WithContext(ctx).
		Where("from_currency = ? AND to_currency = ?", from.String(), to.String()).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapRateModelsToDomain(rows), nil
}

func (r *exchangeRateRepository) effective(ctx context.Context, at time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("is_active = ? AND valid_from <= ? AND (valid_until IS NULL OR valid_until >= ?)", true, at, at)
}

func mapRateDomainToModel(rate *domaincurrency.ExchangeRate) ExchangeRate {
	return ExchangeRate{
		ID:           rate.ID,
		FromCurrency: rate.FromCurrency.String(),
		ToCurrency:   rate.ToCurrency.String(),
		Rate:         rate.Rate,
		InverseRate:  rate.InverseRate,
		Source:       string(rate.Source),
		Provider:     rate.Provider,
		ValidFrom:    rate.ValidFrom,
		ValidUntil:   rate.ValidUntil,
		IsActive:     rate.IsActive,
		CreatedBy:    rate.CreatedBy,
		CreatedAt:    rate.CreatedAt,
	}
}

func mapRateModelToDomain(m *ExchangeRate) *domaincurrency.ExchangeRate {
	return &domaincurrency.ExchangeRate{
		ID:           m.ID,
		FromCurrency: money.Code(m.FromCurrency),
		ToCurrency:   money.Code(m.ToCurrency),
		Rate:         m.Rate,
		InverseRate:  m.InverseRate,
		Source:       domaincurrency.Source(m.Source),
		Provider:     m.Provider,
		ValidFrom:    m.ValidFrom,
		ValidUntil:   m.ValidUntil,
		IsActive:     m.IsActive,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
	}
}

func mapRateModelsToDomain(rows []ExchangeRate) []*domaincurrency.ExchangeRate {
	out := make([]*domaincurrency.ExchangeRate, 0, len(rows))
	for i := range rows {
		out = append(out, mapRateModelToDomain(&rows[i]))
	}
	return out
}
