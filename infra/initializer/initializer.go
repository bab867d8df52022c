package initializer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ticketcore/promoengine/infra"
	infraaudit "github.com/ticketcore/promoengine/infra/audit"
	"github.com/ticketcore/promoengine/infra/cache"
	"github.com/ticketcore/promoengine/infra/migrations"
	infrarepo "github.com/ticketcore/promoengine/infra/repository"
	"github.com/ticketcore/promoengine/infra/repository/memory"
	"github.com/ticketcore/promoengine/pkg/app"
	"github.com/ticketcore/promoengine/pkg/config"
	iso "github.com/ticketcore/promoengine/pkg/currency"
	"github.com/ticketcore/promoengine/pkg/repository"
)

const defaultConfigCacheTTL = time.Minute

// InitializeDependencies initializes all the application dependencies
func InitializeDependencies(cfg *config.App) (
	deps *app.Deps,
	err error,
) {
	logger := setupLogger(cfg.Log)
	deps = &app.Deps{Logger: logger}
	defer func() {
		if err != nil {
			_ = deps.Close()
			deps = nil
		}
	}()

	deps.Registry, err = loadRegistry(cfg.Currency, logger)
	if err != nil {
		return deps, fmt.Errorf("failed to load currency registry: %w", err)
	}

	var closeDB func() error
	deps.Uow, closeDB, err = initUnitOfWork(cfg, logger)
	if err != nil {
		return deps, err
	}
	if closeDB != nil {
		deps.Closers = append(deps.Closers, closeDB)
	}

	ttl := defaultConfigCacheTTL
	if cfg.Currency != nil && cfg.Currency.ConfigCacheTTL > 0 {
		ttl = cfg.Currency.ConfigCacheTTL
	}
	deps.ConfigCache = cache.NewConfigCache(ttl)
	deps.Audit = infraaudit.NewSlogSink(logger)

	invalidator, client, err := initInvalidator(cfg, logger)
	if err != nil {
		return deps, err
	}
	if invalidator != nil {
		deps.Invalidator = invalidator
		deps.Closers = append(deps.Closers, client.Close)
	}

	return deps, nil
}

func loadRegistry(cfg *config.Currency, logger *slog.Logger) (*iso.Registry, error) {
	if cfg == nil || cfg.MetaFile == "" {
		return iso.Default(), nil
	}
	metas, err := iso.LoadMetaCSV(cfg.MetaFile)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded currency metadata", "path", cfg.MetaFile, "count", len(metas))
	return iso.NewRegistry(metas), nil
}

// initUnitOfWork opens postgres when DATABASE_URL is set and falls back to the
// in-memory store otherwise.
func initUnitOfWork(cfg *config.App, logger *slog.Logger) (repository.UnitOfWork, func() error, error) {
	if cfg.DB == nil || cfg.DB.Url == "" {
		logger.Warn("DATABASE_URL not set; using in-memory store")
		return memory.NewUoW(memory.NewStore()), nil, nil
	}

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	if cfg.DB.MigrateOnStart {
		if err := migrations.Up(sqlDB, logger); err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
	}
	return infrarepo.NewUoW(db), sqlDB.Close, nil
}

// initInvalidator connects to Redis when REDIS_URL is set. A malformed URL is
// an error; an unreachable server is logged and the instance runs without
// cross-instance invalidation.
func initInvalidator(cfg *config.App, logger *slog.Logger) (*cache.RedisInvalidator, *redis.Client, error) {
	if cfg.Redis == nil || cfg.Redis.URL == "" {
		logger.Info("REDIS_URL not set; config cache staleness bounded by TTL")
		return nil, nil, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if cfg.Redis.PoolSize > 0 {
		opts.PoolSize = cfg.Redis.PoolSize
	}
	if cfg.Redis.DialTimeout > 0 {
		opts.DialTimeout = cfg.Redis.DialTimeout
	}
	if cfg.Redis.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.Redis.ReadTimeout
	}
	if cfg.Redis.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.Redis.WriteTimeout
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout+time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable; running without config invalidation", "error", err)
		_ = client.Close()
		return nil, nil, nil
	}

	channel := "promoengine:currency-config:invalidate"
	if cfg.Currency != nil && cfg.Currency.InvalidationChannel != "" {
		channel = cfg.Currency.InvalidationChannel
	}
	return cache.NewRedisInvalidator(client, channel, logger), client, nil
}
