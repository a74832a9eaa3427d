// Package lru provides a bounded, thread-safe least-recently-used cache.
package lru

import (
	"fmt"
	"sync"
)

// node is an entry in the recency list. The list is doubly linked with
// sentinel head and tail nodes; head.next is the most recently used entry.
type node[K comparable, V any] struct {
	key   K
	value V
	prev  *node[K, V]
	next  *node[K, V]
}

// Cache is a fixed-capacity LRU cache safe for concurrent use. Every
// operation, including reads, updates recency and therefore takes the same
// single lock. All operations run in constant time.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*node[K, V]
	head     *node[K, V]
	tail     *node[K, V]
}

// Stats reports cache occupancy at a point in time.
type Stats struct {
	Capacity    int
	Count       int
	Utilization float64
}

// New creates a cache holding at most capacity entries. Capacity must be at
// least one.
func New[K comparable, V any](capacity int) (*Cache[K, V], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("lru: capacity must be at least 1, got %d", capacity)
	}
	c := &Cache[K, V]{
		capacity: capacity,
		items:    make(map[K]*node[K, V], capacity),
		head:     &node[K, V]{},
		tail:     &node[K, V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c, nil
}

// Get returns the value stored under key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, found := c.items[key]
	if !found {
		var zero V
		return zero, false
	}
	c.moveToFront(n)
	return n.value, true
}

// Set stores value under key. An existing entry is updated in place; a new
// entry that exceeds capacity evicts the least recently used one.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, found := c.items[key]; found {
		n.value = value
		c.moveToFront(n)
		return
	}

	if len(c.items) >= c.capacity {
		c.evictOldest()
	}

	n := &node[K, V]{key: key, value: value}
	c.items[key] = n
	c.insertFront(n)
}

// Remove deletes the entry under key and reports whether it was present.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, found := c.items[key]
	if !found {
		return false
	}
	c.unlink(n)
	delete(c.items, key)
	return true
}

// Clear removes every entry. Capacity is unchanged.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*node[K, V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// Len returns the number of entries currently stored.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a snapshot of cache occupancy.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Capacity:    c.capacity,
		Count:       len(c.items),
		Utilization: float64(len(c.items)) / float64(c.capacity),
	}
}

func (c *Cache[K, V]) insertFront(n *node[K, V]) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *Cache[K, V]) unlink(n *node[K, V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
}

func (c *Cache[K, V]) moveToFront(n *node[K, V]) {
	c.unlink(n)
	c.insertFront(n)
}

func (c *Cache[K, V]) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.unlink(oldest)
	delete(c.items, oldest.key)
}
