// Package exchange provides the time-versioned exchange rate ledger and
// conversion of money between currencies.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ticketcore/promoengine/pkg/audit"
	iso "github.com/ticketcore/promoengine/pkg/currency"
	"github.com/ticketcore/promoengine/pkg/domain"
	domaincurrency "github.com/ticketcore/promoengine/pkg/domain/currency"
	"github.com/ticketcore/promoengine/pkg/dto"
	"github.com/ticketcore/promoengine/pkg/money"
	"github.com/ticketcore/promoengine/pkg/repository"
)

// Conversion describes one conversion between two currencies.
type Conversion struct {
	Original  money.Money     `json:"original"`
	Converted money.Money     `json:"converted"`
	Rate      decimal.Decimal `json:"rate"`
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// Ledger records exchange rates and answers rate and conversion queries.
type Ledger struct {
	uow      repository.UnitOfWork
	registry *iso.Registry
	audit    audit.Sink
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a rate ledger.
func New(
	uow repository.UnitOfWork,
	registry *iso.Registry,
	sink audit.Sink,
	logger *slog.Logger,
	opts ...Option,
) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = iso.Default()
	}
	l := &Ledger{
		uow:      uow,
		registry: registry,
		audit:    sink,
		logger:   logger.With("service", "exchange-ledger"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AddRate records a new active rate for the ordered pair. Every previously
// active row of the same pair is closed in the same transaction.
func (l *Ledger) AddRate(ctx context.Context, in dto.AddRate, actor dto.Actor) (*domaincurrency.ExchangeRate, error) {
	logger := l.logger.With("from", in.FromCurrency, "to", in.ToCurrency, "actor_id", actor.ID)

	from, err := l.code(in.FromCurrency)
	if err != nil {
		return nil, err
	}
	to, err := l.code(in.ToCurrency)
	if err != nil {
		return nil, err
	}

	now := l.now()
	validFrom := now
	if in.ValidFrom != nil {
		validFrom = in.ValidFrom.UTC()
	}
	rate, err := domaincurrency.NewExchangeRate(
		from, to, in.Rate,
		domaincurrency.Source(in.Source), in.Provider,
		validFrom, in.ValidUntil, actor.ID, now,
	)
	if err != nil {
		logger.Warn("AddRate rejected", "error", err)
		return nil, err
	}

	var closed int64
	err = l.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.ExchangeRateRepository()
		if err != nil {
			return err
		}
		if err := repo.LockPair(ctx, from, to); err != nil {
			return fmt.Errorf("lock %s/%s: %w", from, to, err)
		}
		if closed, err = repo.DeactivatePair(ctx, from, to, now); err != nil {
			return fmt.Errorf("deactivate %s/%s: %w", from, to, err)
		}
		return repo.Create(ctx, rate)
	})
	if err != nil {
		logger.Error("AddRate failed", "error", err)
		return nil, err
	}

	logger.Info("Exchange rate recorded", "rate", rate.Rate.String(), "replaced", closed)
	audit.Emit(ctx, l.audit, logger, audit.Entry{
		ActorID:   actor.ID,
		Action:    audit.ActionExchangeRateAdded,
		Target:    "exchange_rate",
		TargetID:  rate.ID.String(),
		Metadata:  map[string]any{"from": from, "to": to, "rate": rate.Rate.String(), "source": rate.Source},
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	})
	return rate, nil
}

// EffectiveRate returns the ledger row that applies to the pair at the given
// instant. A zero instant means now.
func (l *Ledger) EffectiveRate(ctx context.Context, from, to money.Code, at time.Time) (*domaincurrency.ExchangeRate, error) {
	if err := l.registry.Validate(from, to); err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = l.now()
	}
	repo, err := l.uow.ExchangeRateRepository()
	if err != nil {
		return nil, err
	}
	rate, err := repo.FindEffective(ctx, from, to, at)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s to %s at %s", domain.ErrRateNotFound, from, to, at.Format(time.RFC3339))
	}
	return rate, err
}

// GetRate returns the multiplier from one currency to another. Equal codes
// yield exactly one. When the pair has no row in force, the stored inverse of
// the reverse pair is used. A missing rate is an error, never an implicit one.
func (l *Ledger) GetRate(ctx context.Context, from, to money.Code, at time.Time) (decimal.Decimal, error) {
	if from == to {
		if err := l.registry.Validate(from); err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromInt(1), nil
	}
	rate, err := l.EffectiveRate(ctx, from, to, at)
	if err == nil {
		return rate.Rate, nil
	}
	if !errors.Is(err, domain.ErrRateNotFound) {
		return decimal.Zero, err
	}
	reverse, rerr := l.EffectiveRate(ctx, to, from, at)
	if rerr != nil {
		return decimal.Zero, err
	}
	return reverse.InverseRate, nil
}

// Convert expresses amount in the target currency, rounding half away from
// zero to a whole minor unit of the target.
func (l *Ledger) Convert(ctx context.Context, amount money.Money, to money.Code, at time.Time) (Conversion, error) {
	if amount.Currency() == to {
		return Conversion{Original: amount, Converted: amount, Rate: decimal.NewFromInt(1)}, nil
	}
	rate, err := l.GetRate(ctx, amount.Currency(), to, at)
	if err != nil {
		return Conversion{}, err
	}
	fromDecimals, err := l.registry.Decimals(amount.Currency())
	if err != nil {
		return Conversion{}, err
	}
	toDecimals, err := l.registry.Decimals(to)
	if err != nil {
		return Conversion{}, err
	}
	converted, err := amount.Convert(rate, to, fromDecimals, toDecimals)
	if err != nil {
		return Conversion{}, err
	}
	l.logger.Debug("Currency conversion completed",
		"from", amount.Currency(), "to", to, "amount", amount.Amount(),
		"converted", converted.Amount(), "rate", rate.String())
	return Conversion{Original: amount, Converted: converted, Rate: rate}, nil
}

// ListActiveRates returns every rate in force at the instant, ordered by pair.
func (l *Ledger) ListActiveRates(ctx context.Context, at time.Time) ([]*domaincurrency.ExchangeRate, error) {
	if at.IsZero() {
		at = l.now()
	}
	repo, err := l.uow.ExchangeRateRepository()
	if err != nil {
		return nil, err
	}
	return repo.ListEffective(ctx, at)
}

// RateHistory returns every row recorded for the ordered pair, newest first.
func (l *Ledger) RateHistory(ctx context.Context, from, to money.Code) ([]*domaincurrency.ExchangeRate, error) {
	if err := l.registry.Validate(from, to); err != nil {
		return nil, err
	}
	repo, err := l.uow.ExchangeRateRepository()
	if err != nil {
		return nil, err
	}
	return repo.History(ctx, from, to)
}

func (l *Ledger) code(raw string) (money.Code, error) {
	meta, err := l.registry.Get(raw)
	if err != nil {
		return "", err
	}
	return meta.Code, nil
}
