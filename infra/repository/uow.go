package repository

import (
	"context"
	"reflect"

	"github.com/ticketcore/promoengine/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// All repositories handed out inside Do share the same *gorm.DB transaction.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			repository.TypeOf[repository.CurrencyConfigRepository]():    func(db *gorm.DB) any { return NewCurrencyConfigRepository(db) },
			repository.TypeOf[repository.CurrencyChangeLogRepository](): func(db *gorm.DB) any { return NewCurrencyChangeLogRepository(db) },
			repository.TypeOf[repository.ExchangeRateRepository]():      func(db *gorm.DB) any { return NewExchangeRateRepository(db) },
			repository.TypeOf[repository.PromotionRepository]():         func(db *gorm.DB) any { return NewPromotionRepository(db) },
			repository.TypeOf[repository.PromoCodeRepository]():         func(db *gorm.DB) any { return NewPromoCodeRepository(db) },
			repository.TypeOf[repository.RedemptionRepository]():        func(db *gorm.DB) any { return NewRedemptionRepository(db) },
		},
	}
}

// Do runs the given function in a transaction boundary, providing a UoW with repository access.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		// already inside a transaction; gorm nests with a savepoint
		return u.tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry})
		})
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry})
	})
}

// GetRepository provides generic, type-safe access to repositories using the transaction session.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, &repository.UnsupportedRepositoryError{Type: repoType}
	}
	return constructor(u.session()), nil
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// CurrencyConfigRepository returns the configuration repository bound to the session.
func (u *UoW) CurrencyConfigRepository() (repository.CurrencyConfigRepository, error) {
	return repository.Get[repository.CurrencyConfigRepository](u)
}

// CurrencyChangeLogRepository returns the change log repository bound to the session.
func (u *UoW) CurrencyChangeLogRepository() (repository.CurrencyChangeLogRepository, error) {
	return repository.Get[repository.CurrencyChangeLogRepository](u)
}

// ExchangeRateRepository returns the exchange rate repository bound to the session.
func (u *UoW) ExchangeRateRepository() (repository.ExchangeRateRepository, error) {
	return repository.Get[repository.ExchangeRateRepository](u)
}

// PromotionRepository returns the campaign repository bound to the session.
func (u *UoW) PromotionRepository() (repository.PromotionRepository, error) {
	return repository.Get[repository.PromotionRepository](u)
}

// PromoCodeRepository returns the promo code repository bound to the session.
func (u *UoW) PromoCodeRepository() (repository.PromoCodeRepository, error) {
	return repository.Get[repository.PromoCodeRepository](u)
}

// RedemptionRepository returns the redemption ledger repository bound to the session.
func (u *UoW) RedemptionRepository() (repository.RedemptionRepository, error) {
	return repository.Get[repository.RedemptionRepository](u)
}
