package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	domaincurrency "github.com/ticketcore/promoengine/pkg/domain/currency"
	"github.com/ticketcore/promoengine/pkg/money"
	"github.com/ticketcore/promoengine/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type currencyConfigRepository struct {
	db *gorm.DB
}

// NewCurrencyConfigRepository creates a configuration repository using the provided *gorm.DB.
func NewCurrencyConfigRepository(db *gorm.DB) repository.CurrencyConfigRepository {
	return &currencyConfigRepository{db: db}
}

// Get implements repository.CurrencyConfigRepository.
func (r *currencyConfigRepository) Get(ctx context.Context) (*domaincurrency.Configuration, error) {
	var m CurrencyConfiguration
	err := WrapError(func() error {
		return r.db.WithContext(ctx).First(&m, "id = ?", domaincurrency.ConfigurationID).Error
	})
	if err != nil {
		return nil, err
	}
	return mapConfigModelToDomain(&m), nil
}

// CreateIfAbsent implements repository.CurrencyConfigRepository.
func (r *currencyConfigRepository) CreateIfAbsent(ctx context.Context, cfg *domaincurrency.Configuration) (bool, error) {
	m := mapConfigDomainToModel(cfg)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&m)
	if res.Error != nil {
		return false, MapGormErrorToDomain(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Save implements repository.CurrencyConfigRepository.
func (r *currencyConfigRepository) Save(ctx context.Context, cfg *domaincurrency.Configuration) error {
	m := mapConfigDomainToModel(cfg)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Save(&m).Error
	})
}

type currencyChangeLogRepository struct {
	db *gorm.DB
}

// NewCurrencyChangeLogRepository creates a change log repository using the provided *gorm.DB.
func NewCurrencyChangeLogRepository(db *gorm.DB) repository.CurrencyChangeLogRepository {
	return &currencyChangeLogRepository{db: db}
}

// Append implements repository.CurrencyChangeLogRepository.
func (r *currencyChangeLogRepository) Append(ctx context.Context, entry *domaincurrency.ChangeLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	m := CurrencyChangeLog{
		ID:         entry.ID,
		ChangeType: string(entry.ChangeType),
		OldValue:   string(entry.OldValue),
		NewValue:   string(entry.NewValue),
		ChangedBy:  entry.ChangedBy,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
		CreatedAt:  entry.CreatedAt,
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

// List implements repository.CurrencyChangeLogRepository.
func (r *currencyChangeLogRepository) List(ctx context.Context, limit int) ([]*domaincurrency.ChangeLog, error) {
	var rows []CurrencyChangeLog
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*domaincurrency.ChangeLog, 0, len(rows))
	for i := range rows {
		out = append(out, &domaincurrency.ChangeLog{
			ID:         rows[i].ID,
			ChangeType: domaincurrency.ChangeType(rows[i].ChangeType),
			OldValue:   json.RawMessage(rows[i].OldValue),
			NewValue:   json.RawMessage(rows[i].NewValue),
			ChangedBy:  rows[i].ChangedBy,
			IPAddress:  rows[i].IPAddress,
			UserAgent:  rows[i].UserAgent,
			CreatedAt:  rows[i].CreatedAt,
		})
	}
	return out, nil
}

func mapConfigDomainToModel(cfg *domaincurrency.Configuration) CurrencyConfiguration {
	supported := make(JSONList[string], 0, len(cfg.SupportedCurrencies))
	for _, c := range cfg.SupportedCurrencies {
		supported = append(supported, c.String())
	}
	return CurrencyConfiguration{
		ID:                     domaincurrency.ConfigurationID,
		DefaultCurrency:        cfg.DefaultCurrency.String(),
		SupportedCurrencies:    supported,
		MultiCurrencyEnabled:   cfg.MultiCurrencyEnabled,
		CurrencySymbol:         cfg.CurrencySymbol,
		CurrencyPosition:       string(cfg.CurrencyPosition),
		DecimalPlaces:          cfg.DecimalPlaces,
		DecimalSeparator:       cfg.DecimalSeparator,
		ThousandsSeparator:     cfg.ThousandsSeparator,
		ExchangeRatesEnabled:   cfg.ExchangeRatesEnabled,
		AllowOrganizerCurrency: cfg.AllowOrganizerCurrency,
		AutoUpdateRates:        cfg.AutoUpdateRates,
		UpdateFrequency:        cfg.UpdateFrequency,
		UpdatedBy:              cfg.UpdatedBy,
		CreatedAt:              cfg.CreatedAt,
		UpdatedAt:              cfg.UpdatedAt,
	}
}

func mapConfigModelToDomain(m *CurrencyConfiguration) *domaincurrency.Configuration {
	supported := make([]money.Code, 0, len(m.SupportedCurrencies))
	for _, c := range m.SupportedCurrencies {
		supported = append(supported, money.Code(c))
	}
	return &domaincurrency.Configuration{
		ID:                     m.ID,
		DefaultCurrency:        money.Code(m.DefaultCurrency),
		SupportedCurrencies:    supported,
		MultiCurrencyEnabled:   m.MultiCurrencyEnabled,
		CurrencySymbol:         m.CurrencySymbol,
		CurrencyPosition:       domaincurrency.Position(m.CurrencyPosition),
		DecimalPlaces:          m.DecimalPlaces,
		DecimalSeparator:       m.DecimalSeparator,
		ThousandsSeparator:     m.ThousandsSeparator,
		ExchangeRatesEnabled:   m.ExchangeRatesEnabled,
		AllowOrganizerCurrency: m.AllowOrganizerCurrency,
		AutoUpdateRates:        m.AutoUpdateRates,
		UpdateFrequency:        m.UpdateFrequency,
		UpdatedBy:              m.UpdatedBy,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
}
