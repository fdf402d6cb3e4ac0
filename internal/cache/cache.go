// Package cache provides the time-bounded result cache used by the engine.
//
// Entries expire lazily: an entry older than the TTL is treated as absent on
// read and dropped then. When the cache is full the single oldest-inserted
// entry is evicted. Re-setting a key counts as a fresh insertion.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"canvasmind/internal/logging"
)

// Entry holds a cached value and when it was inserted.
type Entry[V any] struct {
	Key        string
	Value      V
	InsertedAt time.Time
}

// Cache is a bounded in-memory TTL cache with insertion-order eviction.
type Cache[V any] struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List // front = oldest insertion
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithClock overrides the time source.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		c.now = now
	}
}

// New creates a cache with the given capacity and TTL.
func New[V any](capacity int, ttl time.Duration, opts ...Option[V]) *Cache[V] {
	if capacity <= 0 {
		capacity = 1
	}
	c := &Cache[V]{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	entry := el.Value.(*Entry[V])
	if c.now().Sub(entry.InsertedAt) > c.ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		logging.CacheDebug("expired %s", short(key))
		return zero, false
	}
	return entry.Value, true
}

// Set stores value under key.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}

	for len(c.entries) >= c.capacity {
		c.evictOldest()
	}

	entry := &Entry[V]{Key: key, Value: value, InsertedAt: c.now()}
	c.entries[key] = c.order.PushBack(entry)
}

// Delete removes an entry from the cache.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
}

// Clear removes all entries from the cache.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldest removes the oldest inserted entry. Caller holds mu.
func (c *Cache[V]) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	entry := front.Value.(*Entry[V])
	c.order.Remove(front)
	delete(c.entries, entry.Key)
	logging.CacheDebug("evicted %s", short(entry.Key))
}

// Key fingerprints a request. Map keys in ctx are serialized in sorted
// order, so equal contexts produce equal keys.
func Key(query, sessionID string, ctx map[string]interface{}) string {
	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write([]byte(sessionID))
	h.Write([]byte{0})
	if len(ctx) > 0 {
		data, err := json.Marshal(ctx)
		if err != nil {
			// Unserializable values still need a stable key.
			data = []byte(fmt.Sprintf("%v", ctx))
		}
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func short(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
