// Package currency provides the platform currency configuration store: a
// cached singleton with an explicit bootstrap, audited updates and display
// formatting.
package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ticketcore/promoengine/pkg/audit"
	iso "github.com/ticketcore/promoengine/pkg/currency"
	"github.com/ticketcore/promoengine/pkg/domain"
	domaincurrency "github.com/ticketcore/promoengine/pkg/domain/currency"
	"github.com/ticketcore/promoengine/pkg/dto"
	"github.com/ticketcore/promoengine/pkg/money"
	"github.com/ticketcore/promoengine/pkg/repository"
)

// Cache holds the configuration between loads. Writes are versioned:
// SetIfGeneration must refuse a value loaded before the latest Invalidate.
type Cache interface {
	Get() (*domaincurrency.Configuration, bool)
	Generation() uint64
	SetIfGeneration(cfg *domaincurrency.Configuration, gen uint64) bool
	Invalidate()
}

// Broadcaster tells other instances that their cached configuration is stale.
type Broadcaster interface {
	Publish(ctx context.Context) error
}

// Option configures a Service.
type Option func(*Service)

// WithBroadcaster publishes an invalidation after every committed update.
func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) { s.broadcaster = b }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service is the currency configuration store.
type Service struct {
	uow         repository.UnitOfWork
	registry    *iso.Registry
	cache       Cache
	broadcaster Broadcaster
	audit       audit.Sink
	logger      *slog.Logger
	now         func() time.Time
}

// New creates a configuration service. A nil cache disables caching.
func New(
	uow repository.UnitOfWork,
	registry *iso.Registry,
	cache Cache,
	sink audit.Sink,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = iso.Default()
	}
	s := &Service{
		uow:      uow,
		registry: registry,
		cache:    cache,
		audit:    sink,
		logger:   logger.With("service", "currency-config"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init creates the configuration with defaults unless it already exists. It
// is the only code path that creates the configuration and is safe to call
// concurrently.
func (s *Service) Init(ctx context.Context) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.CurrencyConfigRepository()
		if err != nil {
			return err
		}
		_, err = s.bootstrap(ctx, repo)
		return err
	})
}

func (s *Service) bootstrap(ctx context.Context, repo repository.CurrencyConfigRepository) (*domaincurrency.Configuration, error) {
	defaults := domaincurrency.DefaultConfiguration(s.now())
	created, err := repo.CreateIfAbsent(ctx, &defaults)
	if err != nil {
		return nil, fmt.Errorf("bootstrap currency configuration: %w", err)
	}
	if created {
		s.logger.Info("Currency configuration initialized", "default_currency", defaults.DefaultCurrency)
	}
	return repo.Get(ctx)
}

// GetConfig returns the cached configuration, loading it when the cache is
// cold and bootstrapping it when it has never been created.
func (s *Service) GetConfig(ctx context.Context) (*domaincurrency.Configuration, error) {
	var gen uint64
	if s.cache != nil {
		if cfg, ok := s.cache.Get(); ok {
			return cfg, nil
		}
		gen = s.cache.Generation()
	}

	repo, err := s.uow.CurrencyConfigRepository()
	if err != nil {
		return nil, err
	}
	cfg, err := repo.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		if err := s.Init(ctx); err != nil {
			return nil, err
		}
		cfg, err = repo.Get(ctx)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil && !s.cache.SetIfGeneration(cfg, gen) {
		s.logger.Debug("Discarded configuration loaded before an invalidation")
	}
	return cfg, nil
}

// UpdateConfig applies patch and records one change log entry when anything
// changed. Unknown currency codes are rejected before any write.
func (s *Service) UpdateConfig(
	ctx context.Context,
	patch domaincurrency.Patch,
	actor dto.Actor,
) (*domaincurrency.Configuration, error) {
	logger := s.logger.With("actor_id", actor.ID)

	if err := s.registry.Validate(patch.Codes()...); err != nil {
		logger.Warn("UpdateConfig rejected", "error", err)
		return nil, err
	}

	var (
		updated  domaincurrency.Configuration
		changed  []string
		kind     domaincurrency.ChangeType
		previous domaincurrency.Configuration
	)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.CurrencyConfigRepository()
		if err != nil {
			return err
		}
		current, err := repo.Get(ctx)
		if errors.Is(err, domain.ErrNotFound) {
			current, err = s.bootstrap(ctx, repo)
		}
		if err != nil {
			return err
		}
		previous = current.Clone()

		updated = current.Apply(patch)
		if err := updated.Validate(); err != nil {
			return err
		}
		changed, kind = domaincurrency.Diff(previous, updated)
		if len(changed) == 0 {
			return nil
		}

		now := s.now()
		actorID := actor.ID
		updated.UpdatedBy = &actorID
		updated.UpdatedAt = now
		if err := repo.Save(ctx, &updated); err != nil {
			return err
		}

		oldValue, newValue, err := snapshot(previous, updated, changed)
		if err != nil {
			return err
		}
		logs, err := uow.CurrencyChangeLogRepository()
		if err != nil {
			return err
		}
		return logs.Append(ctx, &domaincurrency.ChangeLog{
			ChangeType: kind,
			OldValue:   oldValue,
			NewValue:   newValue,
			ChangedBy:  actor.ID,
			IPAddress:  actor.IPAddress,
			UserAgent:  actor.UserAgent,
			CreatedAt:  now,
		})
	})
	if err != nil {
		logger.Error("UpdateConfig failed", "error", err)
		return nil, err
	}

	// the write is durable here; drop local and remote copies before returning
	if s.cache != nil {
		s.cache.Invalidate()
	}
	if len(changed) == 0 {
		return &updated, nil
	}
	if s.broadcaster != nil {
		if err := s.broadcaster.Publish(ctx); err != nil {
			logger.Warn("Config invalidation broadcast failed, other instances stay stale until TTL", "error", err)
		}
	}

	logger.Info("Currency configuration updated", "change_type", kind, "fields", changed)
	audit.Emit(ctx, s.audit, logger, audit.Entry{
		ActorID:   actor.ID,
		Action:    audit.ActionCurrencyConfigUpdated,
		Target:    "currency_configuration",
		TargetID:  fmt.Sprint(domaincurrency.ConfigurationID),
		Metadata:  map[string]any{"changeType": kind, "fields": changed},
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	})
	return &updated, nil
}

// ToggleMultiCurrency switches multi-currency support on or off.
func (s *Service) ToggleMultiCurrency(ctx context.Context, enabled bool, actor dto.Actor) (*domaincurrency.Configuration, error) {
	return s.UpdateConfig(ctx, domaincurrency.Patch{MultiCurrencyEnabled: &enabled}, actor)
}

// IsCurrencySupported reports whether code is a known currency that the
// platform currently accepts.
func (s *Service) IsCurrencySupported(ctx context.Context, code money.Code) (bool, error) {
	if !s.registry.IsValid(code) {
		return false, nil
	}
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return false, err
	}
	return cfg.Supports(code), nil
}

// FormatAmount renders m using the configured display settings. The default
// currency uses the configured symbol; others use their registry symbol.
func (s *Service) FormatAmount(ctx context.Context, m money.Money) (string, error) {
	meta, err := s.registry.Get(m.Currency().String())
	if err != nil {
		return "", err
	}
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return "", err
	}
	symbol := meta.Symbol
	if m.Currency() == cfg.DefaultCurrency && cfg.CurrencySymbol != "" {
		symbol = cfg.CurrencySymbol
	}
	return cfg.Format(m, symbol, meta.Decimals), nil
}

// ListChangeLogs returns the most recent configuration changes, newest first.
func (s *Service) ListChangeLogs(ctx context.Context, limit int) ([]*domaincurrency.ChangeLog, error) {
	repo, err := s.uow.CurrencyChangeLogRepository()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, limit)
}

// snapshot returns JSON objects holding only the changed fields.
func snapshot(before, after domaincurrency.Configuration, fields []string) (json.RawMessage, json.RawMessage, error) {
	pick := func(cfg domaincurrency.Configuration) (json.RawMessage, error) {
		raw, err := json.Marshal(cfg)
		if err != nil {
			return nil, err
		}
		var all map[string]json.RawMessage
		if err := json.Unmarshal(raw, &all); err != nil {
			return nil, err
		}
		subset := make(map[string]json.RawMessage, len(fields))
		for _, f := range fields {
			subset[f] = all[f]
		}
		return json.Marshal(subset)
	}
	oldValue, err := pick(before)
	if err != nil {
		return nil, nil, err
	}
	newValue, err := pick(after)
	if err != nil {
		return nil, nil, err
	}
	return oldValue, newValue, nil
}
