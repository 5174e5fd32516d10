package extract

import (
	"container/list"
	"sync"
)

// resultCache is a bounded LRU of extraction results keyed by content hash.
// Repeated reprocessing of the same physical document must return the same
// result without a second backend call, so entries are only evicted when the
// cache is full, never invalidated.
type resultCache struct {
	mu      sync.Mutex
	maxSize int
	order   *list.List // front = most recent
	entries map[string]*list.Element
}

type cacheEntry struct {
	key    string
	result *ExtractionResult
}

func newResultCache(maxSize int) *resultCache {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &resultCache{
		maxSize: maxSize,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func (c *resultCache) Get(key string) (*ExtractionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).result, true
}

func (c *resultCache) Put(key string, result *ExtractionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).result = result
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, result: result})
	for c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *resultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
