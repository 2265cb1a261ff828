package mem

import (
	"sync"

	"github.com/goserg/blockcleaner/internal/normalize"
)

// Cache maps case-folded player names to values for the life of the process.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
}

func New[V any]() *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]V),
	}
}

func (c *Cache[V]) Put(name string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[normalize.Name(name)] = v
}

func (c *Cache[V]) Get(name string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.entries[normalize.Name(name)]
	return v, ok
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Reset drops everything. The front end calls it after a reconnect, which may
// land on a different account.
func (c *Cache[V]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]V)
}
