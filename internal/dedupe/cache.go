// ABOUTME: TTL cache that suppresses duplicate webhook deliveries by message id
// ABOUTME: The platform retries deliveries; Seen atomically records and reports ids inside the window

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// Cache tracks recently seen message ids so retried webhook deliveries are
// processed at most once within the TTL window. Size-bounded: the oldest id
// is evicted when the cache is full. Safe for concurrent use.
type Cache struct {
	mu     sync.Mutex
	ids    map[string]*entry
	order  *list.List // message ids, oldest at the front
	ttl    time.Duration
	max    int
	done   chan struct{}
	closed bool
}

type entry struct {
	at   time.Time
	elem *list.Element
}

// New creates a cache with the given TTL and maximum tracked ids. A
// background goroutine sweeps expired entries; call Close to stop it.
func New(ttl time.Duration, max int) *Cache {
	c := &Cache{
		ids:   make(map[string]*entry),
		order: list.New(),
		ttl:   ttl,
		max:   max,
		done:  make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Seen atomically records the message id and reports whether it was already
// present inside the TTL window. The first delivery returns false, retries
// return true.
func (c *Cache) Seen(messageID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if e, ok := c.ids[messageID]; ok && now.Sub(e.at) < c.ttl {
		e.at = now
		c.order.MoveToBack(e.elem)
		return true
	}

	if e, ok := c.ids[messageID]; ok {
		// Expired entry for the same id: refresh in place.
		e.at = now
		c.order.MoveToBack(e.elem)
		return false
	}

	if len(c.ids) >= c.max {
		if front := c.order.Front(); front != nil {
			old, _ := front.Value.(string)
			c.order.Remove(front)
			delete(c.ids, old)
		}
	}

	c.ids[messageID] = &entry{at: now, elem: c.order.PushBack(messageID)}
	return false
}

func (c *Cache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for id, e := range c.ids {
				if now.Sub(e.at) > c.ttl {
					c.order.Remove(e.elem)
					delete(c.ids, id)
				}
			}
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

// Close stops the background sweeper. Safe to call more than once.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
