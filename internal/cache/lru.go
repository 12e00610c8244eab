package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a size-bounded, least-recently-used map whose entries also expire after ttl.
// A zero ttl disables expiry.
type LRU[V any] struct {
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	order    *list.List
	mu       sync.Mutex
	now      func() time.Time
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

func NewLRU[V any](capacity int, ttl time.Duration) *LRU[V] {
	return &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, found := c.items[key]
	if !found {
		return zero, false
	}

	e := elem.Value.(*entry[V])
	if c.expired(e) {
		c.remove(elem)
		return zero, false
	}

	c.order.MoveToFront(elem)
	return e.value, true
}

func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity <= 0 {
		return
	}

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if elem, found := c.items[key]; found {
		e := elem.Value.(*entry[V])
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value, expiresAt: expiresAt})

	for c.order.Len() > c.capacity {
		c.remove(c.order.Back())
	}
}

func (c *LRU[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, found := c.items[key]; found {
		c.remove(elem)
	}
}

func (c *LRU[V]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRU[V]) expired(e *entry[V]) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}

func (c *LRU[V]) remove(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*entry[V]).key)
}
