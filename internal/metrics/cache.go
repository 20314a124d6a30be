package metrics

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes computed metrics by descriptor id. Concurrent first
// requests for the same id share one computation.
type Cache struct {
	entries sync.Map // id -> ComputedMetrics
	group   singleflight.Group
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// GetOrCompute returns the cached metrics for id, computing and storing
// them on first use.
func (c *Cache) GetOrCompute(id string, compute func() ComputedMetrics) ComputedMetrics {
	if v, ok := c.entries.Load(id); ok {
		return v.(ComputedMetrics)
	}

	v, _, _ := c.group.Do(id, func() (any, error) {
		if v, ok := c.entries.Load(id); ok {
			return v, nil
		}
		m := compute()
		c.entries.Store(id, m)
		return m, nil
	})
	return v.(ComputedMetrics)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
