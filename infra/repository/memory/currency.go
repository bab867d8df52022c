package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/ticketcore/promoengine/pkg/domain"
	"github.com/ticketcore/promoengine/pkg/domain/currency"
	"github.com/ticketcore/promoengine/pkg/money"
)

type configRepository struct{ sess *session }

func (r *configRepository) Get(_ context.Context) (*currency.Configuration, error) {
	var out *currency.Configuration
	err := r.sess.read(func(st *state) error {
		if st.config == nil {
			return domain.ErrNotFound
		}
		cfg := st.config.Clone()
		out = &cfg
		return nil
	})
	return out, err
}

func (r *configRepository) CreateIfAbsent(_ context.Context, cfg *currency.Configuration) (bool, error) {
	created := false
	err := r.sess.write(func(st *state) error {
		if st.config != nil {
			return nil
		}
		c := cfg.Clone()
		st.config = &c
		created = true
		return nil
	})
	return created, err
}

func (r *configRepository) Save(_ context.Context, cfg *currency.Configuration) error {
	return r.sess.write(func(st *state) error {
		c := cfg.Clone()
		st.config = &c
		return nil
	})
}

type changeLogRepository struct{ sess *session }

func (r *changeLogRepository) Append(_ context.Context, entry *currency.ChangeLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.sess.write(func(st *state) error {
		e := *entry
		st.changeLogs = append(st.changeLogs, &e)
		return nil
	})
}

func (r *changeLogRepository) List(_ context.Context, limit int) ([]*currency.ChangeLog, error) {
	var out []*currency.ChangeLog
	err := r.sess.read(func(st *state) error {
		for i := len(st.changeLogs) - 1; i >= 0; i-- {
			if limit > 0 && len(out) == limit {
				break
			}
			e := *st.changeLogs[i]
			out = append(out, &e)
		}
		return nil
	})
	return out, err
}

type rateRepository struct{ sess *session }

func (r *rateRepository) Create(_ context.Context, rate *currency.ExchangeRate) error {
	return r.sess.write(func(st *state) error {
		if _, exists := st.rates[rate.ID]; exists {
			return domain.ErrAlreadyExists
		}
		st.rates[rate.ID] = cloneRate(rate)
		return nil
	})
}

// LockPair is a no-op: transactions on the store are already serialized.
func (r *rateRepository) LockPair(context.Context, money.Code, money.Code) error {
	return nil
}

func (r *rateRepository) DeactivatePair(_ context.Context, from, to money.Code, at time.Time) (int64, error) {
	var n int64
	err := r.sess.write(func(st *state) error {
		for id, rate := range st.rates {
			if rate.IsActive && rate.FromCurrency == from && rate.ToCurrency == to {
				cp := cloneRate(rate)
				cp.Deactivate(at)
				st.rates[id] = cp
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *rateRepository) FindEffective(_ context.Context, from, to money.Code, at time.Time) (*currency.ExchangeRate, error) {
	var best *currency.ExchangeRate
	err := r.sess.read(func(st *state) error {
		for _, rate := range st.rates {
			if rate.FromCurrency != from || rate.ToCurrency != to || !rate.CoversInstant(at) {
				continue
			}
			if best == nil || rate.ValidFrom.After(best.ValidFrom) {
				best = rate
			}
		}
		if best == nil {
			return domain.ErrNotFound
		}
		best = cloneRate(best)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return best, nil
}

func (r *rateRepository) ListEffective(_ context.Context, at time.Time) ([]*currency.ExchangeRate, error) {
	var out []*currency.ExchangeRate
	err := r.sess.read(func(st *state) error {
		for _, rate := range st.rates {
			if rate.CoversInstant(at) {
				out = append(out, cloneRate(rate))
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *currency.ExchangeRate) int {
		return cmp.Or(
			cmp.Compare(a.FromCurrency, b.FromCurrency),
			cmp.Compare(a.ToCurrency, b.ToCurrency),
			b.ValidFrom.Compare(a.ValidFrom),
		)
	})
	return out, err
}

func (r *rateRepository) History(_ context.Context, from, to money.Code) ([]*currency.ExchangeRate, error) {
	var out []*currency.ExchangeRate
	err := r.sess.read(func(st *state) error {
		for _, rate := range st.rates {
			if rate.FromCurrency == from && rate.ToCurrency == to {
				out = append(out, cloneRate(rate))
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *currency.ExchangeRate) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, err
}

func cloneRate(r *currency.ExchangeRate) *currency.ExchangeRate {
	cp := *r
	cp.ValidUntil = clonePtr(r.ValidUntil)
	return &cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
