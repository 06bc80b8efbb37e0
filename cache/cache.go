package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// entry is one immutable cache record. Replacement inserts a new entry; the
// stored value is never mutated in place.
type entry[K comparable, V any] struct {
	key        K
	value      V
	insertedAt time.Time
	expiresAt  time.Time
}

func (e *entry[K, V]) live(now time.Time) bool {
	return now.Before(e.expiresAt)
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Evictions   uint64 `json:"evictions"`
	Expirations uint64 `json:"expirations"`
}

// Options configure a BoundedTTLCache.
type Options struct {
	// Now overrides the clock, used by tests to simulate TTL expiry.
	Now func() time.Time
	// KeyString converts a key to the string form required by the
	// single-flight gate. Defaults to fmt.Sprint.
	KeyString func(any) string
}

// BoundedTTLCache is a thread-safe LRU cache with per-entry TTL.
//
// Contract:
//   - size never exceeds capacity; inserting beyond capacity evicts the
//     least-recently-touched entry first, regardless of its TTL state
//   - an expired entry is never returned; expiry is checked lazily on access
//   - a Get hit counts as a touch and protects the entry from eviction
//   - compute failures are never cached as negative results
type BoundedTTLCache[K comparable, V any] struct {
	mu       sync.Mutex
	elements map[K]*list.Element
	order    *list.List // front = most recently touched
	capacity int
	ttl      time.Duration
	now      func() time.Time
	keyStr   func(any) string
	stats    Stats

	group singleflight.Group
}

// New constructs a cache bounded to capacity entries whose values expire ttl
// after insertion. Capacity is clamped to at least one entry.
func New[K comparable, V any](capacity int, ttl time.Duration, optFns ...func(o *Options)) *BoundedTTLCache[K, V] {
	opts := Options{
		Now:       time.Now,
		KeyString: func(k any) string { return fmt.Sprint(k) },
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if capacity < 1 {
		capacity = 1
	}
	return &BoundedTTLCache[K, V]{
		elements: make(map[K]*list.Element, capacity),
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
		now:      opts.Now,
		keyStr:   opts.KeyString,
	}
}

// Get returns the live value for key. Expired or absent keys miss; a miss
// never panics or errors. A hit moves the entry to the front of the
// eviction order.
func (c *BoundedTTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.elements[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	ent := el.Value.(*entry[K, V])
	if !ent.live(c.now()) {
		c.removeElement(el)
		c.stats.Expirations++
		c.stats.Misses++
		return zero, false
	}
	c.order.MoveToFront(el)
	c.stats.Hits++
	return ent.value, true
}

// Put unconditionally inserts or replaces the value for key, resetting its
// TTL and touching its recency.
func (c *BoundedTTLCache[K, V]) Put(key K, value V) {
	c.PutTTL(key, value, c.ttl)
}

// PutTTL inserts with an explicit TTL overriding the cache default.
func (c *BoundedTTLCache[K, V]) PutTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, value, ttl)
}

func (c *BoundedTTLCache[K, V]) put(key K, value V, ttl time.Duration) {
	now := c.now()
	ent := &entry[K, V]{key: key, value: value, insertedAt: now, expiresAt: now.Add(ttl)}
	if el, ok := c.elements[key]; ok {
		el.Value = ent
		c.order.MoveToFront(el)
		return
	}
	c.elements[key] = c.order.PushFront(ent)
	if c.order.Len() > c.capacity {
		c.evictOldest()
	}
}

// evictOldest drops the least-recently-touched entry. TTL state is
// irrelevant here: capacity pressure wins.
func (c *BoundedTTLCache[K, V]) evictOldest() {
	el := c.order.Back()
	if el == nil {
		return
	}
	c.removeElement(el)
	c.stats.Evictions++
}

func (c *BoundedTTLCache[K, V]) removeElement(el *list.Element) {
	ent := el.Value.(*entry[K, V])
	c.order.Remove(el)
	delete(c.elements, ent.key)
}

// Remove deletes key if present. Removing an absent key is a no-op.
func (c *BoundedTTLCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.elements[key]; ok {
		c.removeElement(el)
	}
}

// Size returns the current number of entries, expired or not.
func (c *BoundedTTLCache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the configured maximum entry count.
func (c *BoundedTTLCache[K, V]) Capacity() int { return c.capacity }

// TTL returns the default entry time-to-live.
func (c *BoundedTTLCache[K, V]) TTL() time.Duration { return c.ttl }

// EvictionsTotal returns the number of capacity evictions since creation.
func (c *BoundedTTLCache[K, V]) EvictionsTotal() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.Evictions
}

// Metrics returns a snapshot of the hit/miss/eviction counters.
func (c *BoundedTTLCache[K, V]) Metrics() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// GetOrCompute returns the live cached value for key or invokes compute to
// produce it. Concurrent callers for the same key collapse to a single
// compute invocation and all receive its result; callers for different keys
// proceed fully in parallel. A compute error propagates to every waiting
// caller and caches nothing. The waiting caller's context aborts its wait
// (not the in-flight compute) so a timed-out request is never starved by the
// gate.
func (c *BoundedTTLCache[K, V]) GetOrCompute(ctx context.Context, key K, compute func(ctx context.Context) (V, error)) (V, error) {
	return c.GetOrComputeTTL(ctx, key, c.ttl, compute)
}

// GetOrComputeTTL is GetOrCompute with an explicit TTL for the freshly
// computed entry.
func (c *BoundedTTLCache[K, V]) GetOrComputeTTL(ctx context.Context, key K, ttl time.Duration, compute func(ctx context.Context) (V, error)) (V, error) {
	var zero V
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	ch := c.group.DoChan(c.keyStr(key), func() (any, error) {
		// Re-check: another caller may have populated the cache between
		// our miss and acquiring the gate.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.PutTTL(key, v, ttl)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
