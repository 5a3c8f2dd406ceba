package llm

import (
	"context"
	"sync"
	"time"
)

// ModelCache caches the list of installed model names with a refresh
// interval. Reads are served from the cached value while it is fresh; a stale
// or empty cache triggers a fetch. A failed fetch leaves the previous value
// and timestamp untouched, so the next call retries immediately instead of
// waiting out a full interval.
type ModelCache struct {
	lister   ModelLister
	interval time.Duration

	mu        sync.RWMutex
	names     []string
	fetchedAt time.Time
}

// NewModelCache creates a cache over lister refreshing at most every interval.
func NewModelCache(lister ModelLister, interval time.Duration) *ModelCache {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ModelCache{lister: lister, interval: interval}
}

// Names returns the cached model names, refreshing if the cache is empty or
// stale. When a refresh fails but a previous value exists, the stale value is
// returned without error.
func (c *ModelCache) Names(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	if len(c.names) > 0 && time.Since(c.fetchedAt) <= c.interval {
		names := append([]string(nil), c.names...)
		c.mu.RUnlock()
		return names, nil
	}
	c.mu.RUnlock()

	return c.refresh(ctx, false)
}

// Refresh forces a fetch regardless of freshness.
func (c *ModelCache) Refresh(ctx context.Context) ([]string, error) {
	return c.refresh(ctx, true)
}

func (c *ModelCache) refresh(ctx context.Context, force bool) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if !force && len(c.names) > 0 && time.Since(c.fetchedAt) <= c.interval {
		return append([]string(nil), c.names...), nil
	}

	names, err := c.lister.ListModels(ctx)
	if err != nil {
		if len(c.names) > 0 {
			return append([]string(nil), c.names...), nil
		}
		return nil, err
	}

	c.names = names
	c.fetchedAt = time.Now()
	return append([]string(nil), c.names...), nil
}
