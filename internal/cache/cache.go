package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kirychukyurii/partview/internal/model"
)

// SnapshotCache holds recently fetched partition snapshots keyed by source
type SnapshotCache interface {
	Get(key string) (*model.Snapshot, bool)
	Set(key string, snap *model.Snapshot)
	Delete(key string)
	Clear()
}

// TTLCache implements SnapshotCache with time-to-live support
type TTLCache struct {
	data *gocache.Cache
}

// New creates a new TTL cache; entries expire after ttl
func New(ttl time.Duration) *TTLCache {
	cleanupInterval := ttl * 2
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	return &TTLCache{
		data: gocache.New(ttl, cleanupInterval),
	}
}

// Get retrieves a snapshot from the cache
func (c *TTLCache) Get(key string) (*model.Snapshot, bool) {
	v, ok := c.data.Get(key)
	if !ok {
		return nil, false
	}
	snap, ok := v.(*model.Snapshot)
	return snap, ok
}

// Set stores a snapshot with the default TTL
func (c *TTLCache) Set(key string, snap *model.Snapshot) {
	c.data.SetDefault(key, snap)
}

// Delete removes a snapshot from the cache
func (c *TTLCache) Delete(key string) {
	c.data.Delete(key)
}

// Clear removes all snapshots from the cache
func (c *TTLCache) Clear() {
	c.data.Flush()
}
