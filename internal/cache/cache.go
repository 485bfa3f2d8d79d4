// Package cache provides a small generic LRU used to memoize work that
// repeats across frames, such as text measurement for axis labels.
package cache

import "sync"

// Cache is a thread-safe LRU map with a fixed capacity. Inserting past
// capacity evicts the least recently used entry.
//
// Cache must not be copied after creation.
type Cache[K comparable, V any] struct {
	mu    sync.Mutex
	cap   int
	items map[K]*node[K, V]
	head  *node[K, V] // most recently used
	tail  *node[K, V] // least recently used
}

type node[K comparable, V any] struct {
	key  K
	val  V
	prev *node[K, V]
	next *node[K, V]
}

// New returns a cache holding at most capacity entries. A capacity below
// one is raised to one.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache[K, V]{
		cap:   capacity,
		items: make(map[K]*node[K, V], capacity),
	}
}

// Get returns the cached value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.touch(n)
	return n.val, true
}

// Set stores a value, evicting the oldest entry when the cache is full.
func (c *Cache[K, V]) Set(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, val)
}

// GetOrCreate returns the cached value, computing and storing it on a
// miss. create runs under the cache lock and must not call back into the
// cache.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.items[key]; ok {
		c.touch(n)
		return n.val
	}
	val := create()
	c.set(key, val)
	return val
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear drops every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*node[K, V], c.cap)
	c.head = nil
	c.tail = nil
}

// set inserts or updates under the lock.
func (c *Cache[K, V]) set(key K, val V) {
	if n, ok := c.items[key]; ok {
		n.val = val
		c.touch(n)
		return
	}
	if len(c.items) >= c.cap {
		c.evict()
	}
	n := &node[K, V]{key: key, val: val}
	c.items[key] = n
	c.pushFront(n)
}

// touch moves a node to the front of the recency list.
func (c *Cache[K, V]) touch(n *node[K, V]) {
	if n == c.head {
		return
	}
	c.unlink(n)
	c.pushFront(n)
}

// evict drops the least recently used entry.
func (c *Cache[K, V]) evict() {
	if c.tail == nil {
		return
	}
	old := c.tail
	c.unlink(old)
	delete(c.items, old.key)
}

func (c *Cache[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *Cache[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}
