// Package promotion provides campaign management, promo code management and
// the promo code validator/redeemer used at checkout.
package promotion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	iso "github.com/ticketcore/promoengine/pkg/currency"
	"github.com/ticketcore/promoengine/pkg/domain"
	domaincurrency "github.com/ticketcore/promoengine/pkg/domain/currency"
	"github.com/ticketcore/promoengine/pkg/money"
	"github.com/ticketcore/promoengine/pkg/service/exchange"
)

// ConfigProvider supplies the platform currency configuration.
type ConfigProvider interface {
	GetConfig(ctx context.Context) (*domaincurrency.Configuration, error)
}

// Converter converts money between currencies at an instant.
type Converter interface {
	Convert(ctx context.Context, amount money.Money, to money.Code, at time.Time) (exchange.Conversion, error)
}

type options struct {
	now             func() time.Time
	enforceMinOrder bool
}

// Option configures the promotion services.
type Option func(*options)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithMinOrderEnforcement rejects orders below a campaign's minimum amount.
func WithMinOrderEnforcement(enabled bool) Option {
	return func(o *options) { o.enforceMinOrder = enabled }
}

func newOptions(opts []Option) options {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// resolveCurrency returns the registry code for raw, or fallback when raw is
// empty.
func resolveCurrency(registry *iso.Registry, raw string, fallback money.Code) (money.Code, error) {
	if raw == "" {
		return fallback, nil
	}
	meta, err := registry.Get(raw)
	if err != nil {
		return "", err
	}
	return meta.Code, nil
}

// fallbackCurrency returns the configured default currency when raw is empty.
// It must not be called inside a unit of work: the configuration store may
// bootstrap on first read.
func fallbackCurrency(ctx context.Context, configs ConfigProvider, raw string) (money.Code, error) {
	if raw != "" {
		return "", nil
	}
	if configs == nil {
		return domaincurrency.DefaultConfiguration(time.Time{}).DefaultCurrency, nil
	}
	cfg, err := configs.GetConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("load currency configuration: %w", err)
	}
	return cfg.DefaultCurrency, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	seen := mapset.NewThreadUnsafeSetWithSize[uuid.UUID](len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen.Add(id) {
			out = append(out, id)
		}
	}
	return out
}

func notFound(err error, sentinel error, id any) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %v", sentinel, id)
	}
	return err
}
