package repository

import (
	"context"
	"reflect"
)

// UnitOfWork defines the contract for transactional work and type-safe repository access.
//
// Repositories obtained from the UnitOfWork passed into Do share the
// transaction. Repositories obtained outside Do run without one and are meant
// for reads.
//
// Example usage:
//
//	err := uow.Do(ctx, func(tx UnitOfWork) error {
//		codes, err := tx.PromoCodeRepository()
//		if err != nil {
//			return err
//		}
//		_, err = codes.GetForUpdate(ctx, id)
//		return err
//	})
type UnitOfWork interface {
	// Do executes the given function within a transaction boundary.
	// If the function returns an error, the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested interface type, bound
	// to the current transaction when there is one.
	//   repoAny, err := uow.GetRepository(reflect.TypeOf((*PromoCodeRepository)(nil)).Elem())
	GetRepository(repoType reflect.Type) (any, error)

	CurrencyConfigRepository() (CurrencyConfigRepository, error)
	CurrencyChangeLogRepository() (CurrencyChangeLogRepository, error)
	ExchangeRateRepository() (ExchangeRateRepository, error)
	PromotionRepository() (PromotionRepository, error)
	PromoCodeRepository() (PromoCodeRepository, error)
	RedemptionRepository() (RedemptionRepository, error)
}

// TypeOf returns the reflect.Type of the interface T, for use with GetRepository.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Get resolves a repository of interface type T from the unit of work.
func Get[T any](uow UnitOfWork) (T, error) {
	var zero T
	repoAny, err := uow.GetRepository(TypeOf[T]())
	if err != nil {
		return zero, err
	}
	repo, ok := repoAny.(T)
	if !ok {
		return zero, &UnsupportedRepositoryError{Type: TypeOf[T]()}
	}
	return repo, nil
}

// UnsupportedRepositoryError is returned when a unit of work has no
// constructor for the requested repository type.
type UnsupportedRepositoryError struct {
	Type reflect.Type
}

func (e *UnsupportedRepositoryError) Error() string {
	return "unsupported repository type: " + e.Type.String()
}
