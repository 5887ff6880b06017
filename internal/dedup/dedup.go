// Package dedup provides a bounded in-process seen-set for feed entry IDs.
// It is deliberately not persisted: after a restart, entries may be
// reprocessed once.
package dedup

// Cache remembers recently seen IDs in insertion order. When capacity is
// exceeded it drops the oldest half in one batch, which amortizes eviction
// cost compared to strict LRU. An evicted ID can therefore be reported as
// new again.
type Cache struct {
	ids   map[string]struct{}
	order []string
	max   int
}

// New returns a cache bounded to max entries. A non-positive max falls
// back to 1000.
func New(max int) *Cache {
	if max <= 0 {
		max = 1000
	}
	return &Cache{
		ids: make(map[string]struct{}, max),
		max: max,
	}
}

// Has reports whether id was added and not yet evicted.
func (c *Cache) Has(id string) bool {
	_, ok := c.ids[id]
	return ok
}

// Add records id, evicting the oldest half when the cache overflows.
// Re-adding a known id is a no-op and does not refresh its position.
func (c *Cache) Add(id string) {
	if _, ok := c.ids[id]; ok {
		return
	}
	c.ids[id] = struct{}{}
	c.order = append(c.order, id)

	if len(c.order) > c.max {
		cut := len(c.order) / 2
		for _, old := range c.order[:cut] {
			delete(c.ids, old)
		}
		c.order = append(c.order[:0], c.order[cut:]...)
	}
}

// Len returns the current number of remembered IDs.
func (c *Cache) Len() int {
	return len(c.order)
}
