// Package cache holds the single snapshot slot shared between the refresh
// side and the read side.
package cache

import (
	"sync"
	"time"

	"github.com/milotrack/milo-price-tracker/internal/platform/models"
)

// Option is custom configuration of SnapshotCache.
type Option func(c *SnapshotCache)

// SnapshotCache stores exactly one snapshot and its storage time. A snapshot
// is built fully off to the side and swapped in under the write lock, so a
// reader either sees the previous complete snapshot or none at all.
type SnapshotCache struct {
	mu       sync.RWMutex
	snapshot *models.Snapshot
	storedAt time.Time
	now      func() time.Time
}

// New returns a new empty SnapshotCache.
func New(ops ...Option) *SnapshotCache {
	c := &SnapshotCache{
		now: func() time.Time { return time.Now().UTC() },
	}

	for _, op := range ops {
		op(c)
	}

	return c
}

// Set replaces the stored snapshot.
func (c *SnapshotCache) Set(snapshot models.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = &snapshot
	c.storedAt = c.now()
}

// Get returns the stored snapshot if it is not older than maxAge. The second
// return value is false when the slot is empty or the snapshot is stale, so
// the caller knows to trigger a fresh aggregation.
func (c *SnapshotCache) Get(maxAge time.Duration) (models.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil || c.now().Sub(c.storedAt) > maxAge {
		return models.Snapshot{}, false
	}
	return *c.snapshot, true
}

// Latest returns the stored snapshot regardless of age.
func (c *SnapshotCache) Latest() (models.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return models.Snapshot{}, false
	}
	return *c.snapshot, true
}

// Age returns how long ago the stored snapshot was set.
func (c *SnapshotCache) Age() (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return 0, false
	}
	return c.now().Sub(c.storedAt), true
}

// WithNow sets SnapshotCache's time source.
func WithNow(now func() time.Time) Option {
	return func(c *SnapshotCache) {
		c.now = now
	}
}
