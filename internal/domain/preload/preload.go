// Package preload provides a bounded priority cache for preloaded reaction
// animations. When full, a new entry is admitted only if its priority
// exceeds the lowest-priority resident entry; otherwise it is silently
// dropped. There is no error path.
package preload

import (
	"container/heap"
	"sync"
)

// Default cache configuration constants.
const (
	defaultCapacity = 8
)

// Entry is one preloaded animation.
type Entry struct {
	Key      string
	Priority float64
	Payload  []byte

	index int // heap bookkeeping
}

// Cache is a priority-evicting preload store.
type Cache struct {
	mu       sync.Mutex
	capacity int
	byKey    map[string]*Entry
	pq       entryHeap
}

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithCapacity bounds the number of resident entries (typically
// maxPreloadedAnimations). Values below 1 keep the default.
func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// NewCache creates a cache with configuration options.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		capacity: defaultCapacity,
		byKey:    make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Put admits an entry, evicting the minimum-priority resident when full and
// the newcomer outranks it. Returns whether the entry is resident
// afterwards. An existing key is updated in place.
func (c *Cache) Put(key string, priority float64, payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byKey[key]; ok {
		e.Priority = priority
		e.Payload = payload
		heap.Fix(&c.pq, e.index)
		return true
	}

	if len(c.byKey) >= c.capacity {
		min := c.pq[0]
		if priority <= min.Priority {
			return false
		}
		heap.Pop(&c.pq)
		delete(c.byKey, min.Key)
	}

	e := &Entry{Key: key, Priority: priority, Payload: payload}
	heap.Push(&c.pq, e)
	c.byKey[key] = e
	return true
}

// Get returns the payload for a resident key.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.byKey[key]
	if !ok {
		return nil, false
	}
	return e.Payload, true
}

// Remove drops a resident key. Unknown keys are a no-op.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.byKey[key]
	if !ok {
		return
	}
	heap.Remove(&c.pq, e.index)
	delete(c.byKey, key)
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}

// Capacity returns the configured bound.
func (c *Cache) Capacity() int {
	return c.capacity
}

// entryHeap is a min-heap ordered by priority.
type entryHeap []*Entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].Priority < h[j].Priority }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *entryHeap) Push(x interface{}) { e := x.(*Entry); e.index = len(*h); *h = append(*h, e) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
