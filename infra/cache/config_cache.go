// Package cache holds the process-local currency configuration cache and the
// Redis channel that tells other instances to drop theirs.
package cache

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/ticketcore/promoengine/pkg/domain/currency"
)

const configKey = "currency_config"

// ConfigCache keeps the currency configuration for at most ttl.
//
// Every Invalidate starts a new generation. A load that began in an older
// generation cannot store its result, so a read racing an update never
// re-populates the cache with the configuration the update replaced.
type ConfigCache struct {
	mu    sync.Mutex
	gen   uint64
	cache *ttlcache.Cache[string, currency.Configuration]
	ttl   time.Duration
}

// NewConfigCache creates a cache whose entries expire after ttl. Expired
// entries are dropped lazily on Get, so no background goroutine is started.
func NewConfigCache(ttl time.Duration) *ConfigCache {
	return &ConfigCache{
		cache: ttlcache.New[string, currency.Configuration](
			ttlcache.WithTTL[string, currency.Configuration](ttl),
			ttlcache.WithDisableTouchOnHit[string, currency.Configuration](),
		),
		ttl: ttl,
	}
}

// Get returns a copy of the cached configuration.
func (c *ConfigCache) Get() (*currency.Configuration, bool) {
	item := c.cache.Get(configKey)
	if item == nil || item.IsExpired() {
		return nil, false
	}
	cfg := item.Value().Clone()
	return &cfg, true
}

// Set stores a copy of cfg unconditionally.
func (c *ConfigCache) Set(cfg *currency.Configuration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Set(configKey, cfg.Clone(), ttlcache.DefaultTTL)
}

// Generation returns the current generation. Capture it before loading.
func (c *ConfigCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// SetIfGeneration stores a copy of cfg only when no Invalidate happened since
// gen was read. It reports whether cfg was stored.
func (c *ConfigCache) SetIfGeneration(cfg *currency.Configuration, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.cache.Set(configKey, cfg.Clone(), ttlcache.DefaultTTL)
	return true
}

// Invalidate drops the cached configuration and starts a new generation.
func (c *ConfigCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.cache.Delete(configKey)
}

// TTL returns the configured lifetime.
func (c *ConfigCache) TTL() time.Duration {
	return c.ttl
}
