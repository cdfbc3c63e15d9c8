// Package cache provides a small in-memory cache bounded by both entry
// age (TTL) and a caller-defined weight, evicting least-recently-accessed
// entries when the weight budget is exceeded.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// entry is one cached key/value pair together with its bookkeeping.
type entry[V any] struct {
	key        string
	value      V
	weight     int
	insertedAt time.Time
}

// Cache maps string keys to values of type V. All operations are atomic
// under an internal mutex; the cache never calls out while locked.
//
// An entry is visible only while now < insertedAt+ttl; expired entries are
// treated as absent regardless of capacity pressure. The total weight of
// live entries is kept at or below capacity by evicting the least recently
// accessed entries first.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	weigh    func(V) int

	entries map[string]*list.Element
	order   *list.List // front = most recently accessed
	weight  int
}

// New creates a cache with the given weight capacity, entry TTL and
// weigher. The weigher is called once per insert; a nil weigher counts
// every entry as weight 1.
func New[V any](capacity int, ttl time.Duration, weigh func(V) int) *Cache[V] {
	if weigh == nil {
		weigh = func(V) int { return 1 }
	}
	return &Cache[V]{
		capacity: capacity,
		ttl:      ttl,
		weigh:    weigh,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the live value stored under key. An expired entry is removed
// and reported as a miss; a hit marks the entry as most recently accessed.
func (c *Cache[V]) Get(key string, now time.Time) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	ent := elem.Value.(*entry[V])
	if c.expired(ent, now) {
		c.remove(elem)
		return zero, false
	}

	c.order.MoveToFront(elem)
	return ent.value, true
}

// Put stores value under key with a fresh TTL, replacing any previous
// entry (last write wins), then evicts least-recently-accessed entries
// until the total weight fits the capacity. It returns the number of
// entries evicted for capacity; a single entry heavier than the whole
// capacity is still admitted once everything else is gone.
func (c *Cache[V]) Put(key string, value V, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.remove(elem)
	}

	ent := &entry[V]{
		key:        key,
		value:      value,
		weight:     c.weigh(value),
		insertedAt: now,
	}
	c.entries[key] = c.order.PushFront(ent)
	c.weight += ent.weight

	evicted := 0
	for c.weight > c.capacity && c.order.Len() > 1 {
		c.remove(c.order.Back())
		evicted++
	}
	return evicted
}

// Sweep removes every expired entry and returns how many were dropped.
func (c *Cache[V]) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if c.expired(elem.Value.(*entry[V]), now) {
			c.remove(elem)
			removed++
		}
		elem = next
	}
	return removed
}

// Len returns the number of stored entries, including any not yet swept
// expired ones.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Weight returns the total weight of stored entries.
func (c *Cache[V]) Weight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}

func (c *Cache[V]) expired(ent *entry[V], now time.Time) bool {
	return !now.Before(ent.insertedAt.Add(c.ttl))
}

// remove drops an element from both the map and the recency list.
// Callers must hold c.mu.
func (c *Cache[V]) remove(elem *list.Element) {
	ent := elem.Value.(*entry[V])
	delete(c.entries, ent.key)
	c.order.Remove(elem)
	c.weight -= ent.weight
}
