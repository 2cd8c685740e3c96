// Package cache provides the bounded, freshness-bounded store for fetched
// fraud data. A single instance is shared across the process and wiped on
// session boundaries; entries live in memory only. Every category carries
// its own TTL and entry cap, and an entry is visible to readers only while
// now - writtenAt < ttl. Expired entries are purged lazily on read;
// capacity is enforced on insert by evicting the oldest live entry in the
// category.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fdtlabs/fraudlens/internal/clock"
	"github.com/rs/zerolog"
)

// entry is one cached value with its write timestamp.
type entry struct {
	writtenAt time.Time
	category  string
	value     any
}

// Cache is a per-category bounded TTL store. Reads and writes are
// mutex-guarded because gateway handlers and session callbacks share it.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	clock   clock.Clock
	log     zerolog.Logger
}

// New creates an empty cache using the supplied clock.
func New(clk clock.Clock, log zerolog.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		clock:   clk,
		log:     log.With().Str("component", "cache").Logger(),
	}
}

// validateCategory ensures the category is in the static table.
func validateCategory(category string) error {
	if _, ok := CategoryConfigs[category]; !ok {
		return fmt.Errorf("invalid cache category: %s", category)
	}
	return nil
}

// Set stores value under key in the given category. When the category is at
// its cap, the single oldest live entry (by writtenAt) is evicted first.
// Overwriting an existing key refreshes writtenAt and counts as an insert
// for eviction purposes.
func (c *Cache) Set(key string, value any, category string) error {
	if err := validateCategory(category); err != nil {
		return err
	}
	cfg := CategoryConfigs[category]

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()

	// Count live entries in the category, dropping aged ones along the way,
	// and track the oldest survivor as the eviction candidate.
	live := 0
	var oldestKey string
	var oldestAt time.Time
	for k, e := range c.entries {
		if e.category != category {
			continue
		}
		if c.aged(e, now) {
			delete(c.entries, k)
			continue
		}
		live++
		if oldestKey == "" || e.writtenAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.writtenAt
		}
	}

	if live >= cfg.MaxEntries && oldestKey != "" {
		delete(c.entries, oldestKey)
		c.log.Debug().
			Str("category", category).
			Str("evicted", oldestKey).
			Int("max_entries", cfg.MaxEntries).
			Msg("Category at capacity, evicted oldest entry")
	}

	c.entries[key] = &entry{writtenAt: now, category: category, value: value}
	return nil
}

// Get returns the value for key while it is still fresh. Expired entries are
// removed on read; a stale entry and an absent key are indistinguishable to
// the caller, both mean "go fetch from source".
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.aged(e, c.clock.Now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// aged reports whether the entry's TTL has fully elapsed. An entry at
// exactly its TTL is already stale.
func (c *Cache) aged(e *entry, now time.Time) bool {
	return now.Sub(e.writtenAt) >= CategoryConfigs[e.category].TTL
}

// Invalidate removes every entry whose key contains substr and returns the
// number removed. Coarse bulk invalidation for callers that do not know the
// exact key form.
func (c *Cache) Invalidate(substr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k := range c.entries {
		if strings.Contains(k, substr) {
			delete(c.entries, k)
			removed++
		}
	}
	if removed > 0 {
		c.log.Debug().Str("pattern", substr).Int("removed", removed).Msg("Invalidated entries by pattern")
	}
	return removed
}

// InvalidateCategory removes every entry in the category and returns the
// number removed. Called after a mutating action so the next read is a
// forced miss.
func (c *Cache) InvalidateCategory(category string) (int, error) {
	if err := validateCategory(category); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if e.category == category {
			delete(c.entries, k)
			removed++
		}
	}
	if removed > 0 {
		c.log.Debug().Str("category", category).Int("removed", removed).Msg("Invalidated category")
	}
	return removed, nil
}

// Clear wipes all entries. Called on login and logout so nothing leaks
// across sessions.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]*entry)
	if n > 0 {
		c.log.Debug().Int("removed", n).Msg("Cleared cache")
	}
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the live (non-expired) entry count per category.
func (c *Cache) Stats() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	stats := make(map[string]int, len(AllCategories))
	for _, cat := range AllCategories {
		stats[cat] = 0
	}
	for _, e := range c.entries {
		if !c.aged(e, now) {
			stats[e.category]++
		}
	}
	return stats
}
