// Package prefs caches per-user display preferences (currency, calendar
// system) with a TTL and explicit invalidation. It replaces the implicit
// "current user locale" module state of older clients with a cache object
// whose refresh policy is visible: entries expire after the TTL and are
// invalidated on login and logout.
package prefs

import (
	"sync"
	"time"

	"daric/internal/models"
)

// Preferences is the cached slice of a user's profile that rendering needs.
type Preferences struct {
	Currency string          `json:"currency"`
	Calendar models.Calendar `json:"calendar"`
}

// Loader fetches preferences from the source of truth on a cache miss.
type Loader func(userID string) (Preferences, error)

// DefaultTTL bounds how stale a cached preference can get when no
// invalidation fires.
const DefaultTTL = 5 * time.Minute

type entry struct {
	prefs     Preferences
	expiresAt time.Time
}

// Cache is a TTL cache of user preferences keyed by user id.
type Cache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	load  Loader
	items map[string]entry
	now   func() time.Time
}

// NewCache creates a preferences cache with the given loader and TTL.
// A non-positive ttl falls back to DefaultTTL.
func NewCache(load Loader, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:   ttl,
		load:  load,
		items: make(map[string]entry),
		now:   time.Now,
	}
}

// Get returns the user's preferences, loading and caching them when absent
// or expired.
func (c *Cache) Get(userID string) (Preferences, error) {
	c.mu.RLock()
	e, ok := c.items[userID]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expiresAt) {
		return e.prefs, nil
	}

	prefs, err := c.load(userID)
	if err != nil {
		return Preferences{}, err
	}

	c.mu.Lock()
	c.items[userID] = entry{prefs: prefs, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()

	return prefs, nil
}

// Invalidate drops a user's cached entry. Called on login and logout so a
// fresh session never sees another session's stale preferences.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.items, userID)
	c.mu.Unlock()
}

// InvalidateAll empties the cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.items = make(map[string]entry)
	c.mu.Unlock()
}

// Size returns the current number of cached entries, expired or not.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
