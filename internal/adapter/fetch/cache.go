package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/disease-map-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Cached wraps a Fetcher with an in-memory LRU cache. Entries older than the
// TTL are fetched again; a zero TTL keeps entries until evicted.
type Cached struct {
	inner   Fetcher
	cache   *lruCache
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewCached creates a cache decorator around a fetcher. A nil clock uses
// the real clock.
func NewCached(inner Fetcher, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *Cached {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cached{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
	}
}

func (c *Cached) Fetch(ctx context.Context, name string) ([]byte, error) {
	now := c.clock.Now()
	if e, ok := c.cache.get(name); ok {
		if c.ttl <= 0 || now.Sub(e.storedAt) < c.ttl {
			c.metrics.FetchCache.WithLabelValues("hit").Inc()
			return e.data, nil
		}
		c.metrics.FetchCache.WithLabelValues("expired").Inc()
		c.cache.delete(name)
	} else {
		c.metrics.FetchCache.WithLabelValues("miss").Inc()
	}

	data, err := c.inner.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	// Failures are never cached so a later selection can retry.
	c.cache.put(name, cached{data: data, storedAt: now})
	return data, nil
}

type cached struct {
	data     []byte
	storedAt time.Time
}

// lruCache is a simple thread-safe LRU cache keyed by file name.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value cached
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (cached, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return cached{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value cached) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.remove(e)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
