package client

import "sync"

// previewCache keeps decoded preview bytes keyed by storage key. When
// the cache grows past its cap the oldest entry is evicted, oldest
// meaning first inserted, not least recently used.
type previewCache struct {
	mu    sync.Mutex
	cap   int
	order []string
	items map[string][]byte
}

func newPreviewCache(capacity int) *previewCache {
	return &previewCache{
		cap:   capacity,
		items: make(map[string][]byte, capacity),
	}
}

func (c *previewCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.items[key]
	return data, ok
}

func (c *previewCache) Put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; ok {
		c.items[key] = data
		return
	}

	c.items[key] = data
	c.order = append(c.order, key)

	for len(c.order) > c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
}

func (c *previewCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}
