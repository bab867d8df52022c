// Package memory is an in-process implementation of the repository contracts,
// used when no DATABASE_URL is configured and throughout the service tests.
//
// Transactions are serialized by a single mutex and run against a private
// copy of the data that is swapped in on commit, so readers outside a
// transaction only ever see committed state.
package memory

import (
	"context"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/ticketcore/promoengine/pkg/domain/currency"
	"github.com/ticketcore/promoengine/pkg/domain/promotion"
	"github.com/ticketcore/promoengine/pkg/repository"
)

// state is the full data set. Stored entities are never mutated in place:
// writers replace map entries, which keeps a shallow clone safe.
type state struct {
	config      *currency.Configuration
	changeLogs  []*currency.ChangeLog
	rates       map[uuid.UUID]*currency.ExchangeRate
	promotions  map[uuid.UUID]*promotion.Promotion
	codes       map[uuid.UUID]*promotion.PromoCode
	redemptions map[uuid.UUID]*promotion.Redemption
}

func newState() *state {
	return &state{
		rates:       make(map[uuid.UUID]*currency.ExchangeRate),
		promotions:  make(map[uuid.UUID]*promotion.Promotion),
		codes:       make(map[uuid.UUID]*promotion.PromoCode),
		redemptions: make(map[uuid.UUID]*promotion.Redemption),
	}
}

func (s *state) clone() *state {
	return &state{
		config:      s.config,
		changeLogs:  slices.Clone(s.changeLogs),
		rates:       maps.Clone(s.rates),
		promotions:  maps.Clone(s.promotions),
		codes:       maps.Clone(s.codes),
		redemptions: maps.Clone(s.redemptions),
	}
}

// Store owns the committed data.
type Store struct {
	txMu      sync.Mutex
	mu        sync.RWMutex
	committed *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{committed: newState()}
}

// session gives repositories access to either the committed state or a
// transaction's working copy.
type session struct {
	store *Store
	tx    *state
}

func (s *session) read(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	return fn(s.store.committed)
}

func (s *session) write(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.store.txMu.Lock()
	defer s.store.txMu.Unlock()
	working := s.store.committed.clone()
	if err := fn(working); err != nil {
		return err
	}
	s.store.mu.Lock()
	s.store.committed = working
	s.store.mu.Unlock()
	return nil
}

// UoW implements repository.UnitOfWork over a Store.
type UoW struct {
	sess         *session
	repoRegistry map[reflect.Type]func(*session) any
}

// NewUoW creates a unit of work backed by the store.
func NewUoW(store *Store) *UoW {
	return &UoW{
		sess: &session{store: store},
		repoRegistry: map[reflect.Type]func(*session) any{
			repository.TypeOf[repository.CurrencyConfigRepository]():    func(s *session) any { return &configRepository{s} },
			repository.TypeOf[repository.CurrencyChangeLogRepository](): func(s *session) any { return &changeLogRepository{s} },
			repository.TypeOf[repository.ExchangeRateRepository]():      func(s *session) any { return &rateRepository{s} },
			repository.TypeOf[repository.PromotionRepository]():         func(s *session) any { return &promotionRepository{s} },
			repository.TypeOf[repository.PromoCodeRepository]():         func(s *session) any { return &codeRepository{s} },
			repository.TypeOf[repository.RedemptionRepository]():        func(s *session) any { return &redemptionRepository{s} },
		},
	}
}

// Do runs fn against a private copy of the data and commits it when fn
// returns nil. Nested calls join the outer transaction.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.sess.tx != nil {
		return fn(u)
	}
	store := u.sess.store
	store.txMu.Lock()
	defer store.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	store.mu.RLock()
	working := store.committed.clone()
	store.mu.RUnlock()

	txUoW := &UoW{sess: &session{store: store, tx: working}, repoRegistry: u.repoRegistry}
	if err := fn(txUoW); err != nil {
		return err
	}

	store.mu.Lock()
	store.committed = working
	store.mu.Unlock()
	return nil
}

// GetRepository implements repository.UnitOfWork.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, &repository.UnsupportedRepositoryError{Type: repoType}
	}
	return constructor(u.sess), nil
}

// CurrencyConfigRepository implements repository.UnitOfWork.
func (u *UoW) CurrencyConfigRepository() (repository.CurrencyConfigRepository, error) {
	return repository.Get[repository.CurrencyConfigRepository](u)
}

// CurrencyChangeLogRepository implements repository.UnitOfWork.
func (u *UoW) CurrencyChangeLogRepository() (repository.CurrencyChangeLogRepository, error) {
	return repository.Get[repository.CurrencyChangeLogRepository](u)
}

// ExchangeRateRepository implements repository.UnitOfWork.
func (u *UoW) ExchangeRateRepository() (repository.ExchangeRateRepository, error) {
	return repository.Get[repository.ExchangeRateRepository](u)
}

// PromotionRepository implements repository.UnitOfWork.
func (u *UoW) PromotionRepository() (repository.PromotionRepository, error) {
	return repository.Get[repository.PromotionRepository](u)
}

// PromoCodeRepository implements repository.UnitOfWork.
func (u *UoW) PromoCodeRepository() (repository.PromoCodeRepository, error) {
	return repository.Get[repository.PromoCodeRepository](u)
}

// RedemptionRepository implements repository.UnitOfWork.
func (u *UoW) RedemptionRepository() (repository.RedemptionRepository, error) {
	return repository.Get[repository.RedemptionRepository](u)
}
