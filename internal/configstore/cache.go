package configstore

import (
	"sync"
	"time"

	"github.com/bytecroft/crewmeter/internal/config"
)

// DefaultTTL is how long a loaded active configuration stays fresh. Config
// changes invalidate synchronously, so the TTL only bounds staleness from
// out-of-band database edits.
const DefaultTTL = 5 * time.Minute

// configCache holds the single active configuration with expiry. The clock is
// injectable so tests can step time without sleeping.
type configCache struct {
	mu        sync.RWMutex
	cfg       *config.Config
	info      *CurrentInfo
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func newConfigCache(ttl time.Duration, now func() time.Time) *configCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &configCache{ttl: ttl, now: now}
}

func (c *configCache) get() (*config.Config, *CurrentInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cfg == nil || c.now().After(c.expiresAt) {
		return nil, nil, false
	}
	return c.cfg, c.info, true
}

func (c *configCache) set(cfg *config.Config, info *CurrentInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg = cfg
	c.info = info
	c.expiresAt = c.now().Add(c.ttl)
}

func (c *configCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg = nil
	c.info = nil
}
