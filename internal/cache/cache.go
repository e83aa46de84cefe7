// Package cache holds the most recently loaded dataset snapshot with a
// TTL, so request handlers do not hit the remote source on every call.
package cache

import (
	"sync"
	"time"

	"golang-ar-analytics-service/internal/fetch"
	"golang-ar-analytics-service/internal/models"
)

// Snapshot pairs a cleaned dataset with the extract metadata it came
// from and the time it was cached.
type Snapshot struct {
	Dataset  *models.Dataset
	Info     fetch.FileInfo
	CachedAt time.Time
}

// Cache is a single-slot TTL cache keyed by the source file's
// last-modified timestamp. Safe for concurrent use.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	snapshot *Snapshot
}

// New creates a Cache with the given TTL. A zero or negative TTL means
// entries never expire by age and only Invalidate or a newer
// last-modified key replaces them.
func New(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, now: time.Now}
}

// Put stores a snapshot, stamping the cache time.
func (c *Cache) Put(dataset *models.Dataset, info fetch.FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = &Snapshot{
		Dataset:  dataset,
		Info:     info,
		CachedAt: c.now(),
	}
}

// Get returns the cached snapshot and whether it is still fresh. An
// expired snapshot is still returned so callers can serve stale data
// while a refresh is in flight.
func (c *Cache) Get() (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(c.snapshot.CachedAt) > c.ttl {
		return c.snapshot, false
	}
	return c.snapshot, true
}

// Matches reports whether the cached snapshot came from an extract with
// the given last-modified timestamp.
func (c *Cache) Matches(lastModified time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot != nil && c.snapshot.Info.LastModified.Equal(lastModified)
}

// Invalidate drops the cached snapshot.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
}
