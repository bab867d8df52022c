package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ticketcore/promoengine/pkg/audit"
	"github.com/ticketcore/promoengine/pkg/config"
	iso "github.com/ticketcore/promoengine/pkg/currency"
	"github.com/ticketcore/promoengine/pkg/repository"
	currencysvc "github.com/ticketcore/promoengine/pkg/service/currency"
	"github.com/ticketcore/promoengine/pkg/service/exchange"
	promosvc "github.com/ticketcore/promoengine/pkg/service/promotion"
)

// Invalidator publishes and receives currency configuration invalidations
// across instances.
type Invalidator interface {
	currencysvc.Broadcaster
	Listen(ctx context.Context, onInvalidate func()) error
}

// Deps contains everything the services are built from.
type Deps struct {
	Uow         repository.UnitOfWork
	Registry    *iso.Registry
	ConfigCache currencysvc.Cache
	Invalidator Invalidator // Optional, nil without Redis
	Audit       audit.Sink
	Logger      *slog.Logger
	Closers     []func() error
}

// Close releases connections opened by the initializer, in reverse order.
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.Closers) - 1; i >= 0; i-- {
		if err := d.Closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type App struct {
	Deps           *Deps
	Config         *config.App
	CurrencyConfig *currencysvc.Service
	Exchange       *exchange.Ledger
	Promotions     *promosvc.CampaignService
	PromoCodes     *promosvc.CodeService
}

func New(deps *Deps, cfg *config.App) *App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Audit == nil {
		deps.Audit = audit.Discard
	}
	app := &App{
		Deps:   deps,
		Config: cfg,
	}

	var configOpts []currencysvc.Option
	if deps.Invalidator != nil {
		configOpts = append(configOpts, currencysvc.WithBroadcaster(deps.Invalidator))
	}
	app.CurrencyConfig = currencysvc.New(deps.Uow, deps.Registry, deps.ConfigCache, deps.Audit, deps.Logger, configOpts...)
	app.Exchange = exchange.New(deps.Uow, deps.Registry, deps.Audit, deps.Logger)

	var promoOpts []promosvc.Option
	if cfg != nil && cfg.Promotion != nil {
		promoOpts = append(promoOpts, promosvc.WithMinOrderEnforcement(cfg.Promotion.EnforceMinOrder))
	}
	app.Promotions = promosvc.NewCampaignService(
		deps.Uow, deps.Registry, app.CurrencyConfig, deps.Audit, deps.Logger, promoOpts...,
	)
	app.PromoCodes = promosvc.NewCodeService(
		deps.Uow, deps.Registry, app.CurrencyConfig, app.Exchange, deps.Audit, deps.Logger, promoOpts...,
	)
	return app
}

// Start bootstraps the currency configuration and, when an invalidator is
// configured, drops the local cache whenever another instance updates it. The
// subscription lives until ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	if err := a.CurrencyConfig.Init(ctx); err != nil {
		return fmt.Errorf("bootstrap currency configuration: %w", err)
	}
	if a.Deps.Invalidator == nil || a.Deps.ConfigCache == nil {
		return nil
	}
	if err := a.Deps.Invalidator.Listen(ctx, a.Deps.ConfigCache.Invalidate); err != nil {
		a.Deps.Logger.Warn("Config invalidation unavailable; staleness bounded by cache TTL", "error", err)
	}
	return nil
}
