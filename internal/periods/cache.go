package periods

import (
	"sync"
	"time"
)

// PeriodCache holds per-business period lists. It is process local,
// refreshed on miss and evicted eagerly on any lock transition through the
// owning service.
type PeriodCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	periods   []AccountingPeriod
	fetchedAt time.Time
}

// NewPeriodCache constructs a cache with the supplied TTL. A zero TTL keeps
// entries until they are invalidated.
func NewPeriodCache(ttl time.Duration) *PeriodCache {
	return &PeriodCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached list for a business when present and fresh.
func (c *PeriodCache) Get(businessID string) ([]AccountingPeriod, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[businessID]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.fetchedAt) > c.ttl {
		return nil, false
	}
	out := make([]AccountingPeriod, len(entry.periods))
	copy(out, entry.periods)
	return out, true
}

// Put stores the list for a business.
func (c *PeriodCache) Put(businessID string, periods []AccountingPeriod) {
	stored := make([]AccountingPeriod, len(periods))
	copy(stored, periods)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[businessID] = cacheEntry{periods: stored, fetchedAt: c.now()}
}

// Invalidate evicts a single business.
func (c *PeriodCache) Invalidate(businessID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, businessID)
}
