package config

import (
	"time"
)

// DB selects the persistence adapter. An empty URL runs the engine on the
// in-memory store.
type DB struct {
	Url             string        `envconfig:"URL"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"25"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"1h"`
	MigrateOnStart  bool          `envconfig:"MIGRATE_ON_START" default:"true"`
}

// Redis is optional. When URL is set, configuration updates are broadcast to
// other instances over pub/sub.
type Redis struct {
	URL          string        `envconfig:"URL"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

// Currency holds the currency configuration cache contract. Without Redis a
// stale read on another instance lasts at most ConfigCacheTTL.
type Currency struct {
	ConfigCacheTTL      time.Duration `envconfig:"CONFIG_CACHE_TTL" default:"60s"`
	InvalidationChannel string        `envconfig:"INVALIDATION_CHANNEL" default:"promoengine:currency-config:invalidate"`
	MetaFile            string        `envconfig:"META_FILE"`
}

type Promotion struct {
	EnforceMinOrder bool `envconfig:"ENFORCE_MIN_ORDER" default:"false"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[promoengine]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	DB        *DB        `envconfig:"DATABASE"`
	Redis     *Redis     `envconfig:"REDIS"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
	Currency  *Currency  `envconfig:"CURRENCY"`
	Promotion *Promotion `envconfig:"PROMO"`
}
