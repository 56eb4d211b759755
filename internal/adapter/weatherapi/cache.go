package weatherapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/region-weather/internal/domain"
	"github.com/couchcryptid/region-weather/internal/observability"
)

// CachedDetails wraps a DetailFetcher with an in-memory LRU cache whose
// entries expire after a TTL.
type CachedDetails struct {
	inner   domain.DetailFetcher
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedDetails creates a cache decorator around a detail fetcher. A nil
// clock uses the real clock.
func NewCachedDetails(inner domain.DetailFetcher, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedDetails {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedDetails{
		inner:   inner,
		cache:   newLRUCache(maxEntries, ttl, clock),
		metrics: metrics,
	}
}

func (c *CachedDetails) FetchDetail(ctx context.Context, req domain.DetailRequest) (domain.DetailResponse, error) {
	key := fmt.Sprintf("%s|%s|%s|%t", req.Code, req.StartDate, req.EndDate, req.Hourly)
	if resp, ok := c.cache.get(key); ok {
		c.metrics.DetailCache.WithLabelValues("hit").Inc()
		return resp, nil
	}
	c.metrics.DetailCache.WithLabelValues("miss").Inc()

	resp, err := c.inner.FetchDetail(ctx, req)
	if err != nil {
		return resp, err
	}
	c.cache.put(key, resp)
	return resp, nil
}

// lruCache is a thread-safe LRU cache of detail responses.
type lruCache struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key     string
	value   domain.DetailResponse
	expires time.Time
	prev    *entry
	next    *entry
}

func newLRUCache(maxEntries int, ttl time.Duration, clock clockwork.Clock) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.DetailResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.DetailResponse{}, false
	}
	if c.ttl > 0 && !c.clock.Now().Before(e.expires) {
		delete(c.entries, key)
		c.remove(e)
		return domain.DetailResponse{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.DetailResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expires = expires
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expires: expires}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
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
