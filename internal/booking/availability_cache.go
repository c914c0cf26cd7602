package booking

import (
	"strings"
	"sync"
	"time"

	"github.com/example/classroom-reservation/internal/interval"
)

// availabilityCache stores recently computed availability hints so repeated
// identical checks skip the store while the reservation set is unchanged.
// Every successful mutation invalidates the whole cache; the cached answer is
// only ever a hint, never the authority (the store's atomic re-check is).
type availabilityCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]availabilityEntry
}

type availabilityEntry struct {
	available bool
	expiresAt time.Time
}

func newAvailabilityCache(ttl time.Duration, maxEntries int, now func() time.Time) *availabilityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if now == nil {
		now = time.Now
	}
	return &availabilityCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]availabilityEntry),
	}
}

func (c *availabilityCache) Get(key string) (bool, bool) {
	if c == nil {
		return false, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return false, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return false, false
	}
	return entry.available, true
}

func (c *availabilityCache) Store(key string, available bool) {
	if c == nil {
		return
	}
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = availabilityEntry{available: available, expiresAt: expiry}
}

func (c *availabilityCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]availabilityEntry)
	c.mu.Unlock()
}

func (c *availabilityCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *availabilityCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func availabilityCacheKey(resourceID string, window interval.Interval, excludeID string) string {
	builder := strings.Builder{}
	builder.WriteString(resourceID)
	builder.WriteString("|")
	builder.WriteString(window.Start.UTC().Format(time.RFC3339))
	builder.WriteString("|")
	builder.WriteString(window.End.UTC().Format(time.RFC3339))
	builder.WriteString("|")
	builder.WriteString(excludeID)
	return builder.String()
}
