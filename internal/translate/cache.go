package translate

import "sync"

// cache is a fixed-capacity map that evicts the oldest entry first.
type cache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]string
	order    []string
}

func newCache(capacity int) *cache {
	return &cache{
		capacity: capacity,
		items:    make(map[string]string, capacity),
	}
}

func (c *cache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *cache) put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; ok {
		c.items[key] = value
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
	c.items[key] = value
	c.order = append(c.order, key)
}

func (c *cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
