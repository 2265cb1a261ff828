package mem

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCache(t *testing.T) {
	c := New[int]()
	c.Put("Jogador#BR1", 1)

	v, ok := c.Get("jogador#br1")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("other#br1")
	assert.False(t, ok)

	c.Put("JOGADOR#BR1", 2)
	assert.Equal(t, 1, c.Len())
	v, _ = c.Get("Jogador#BR1")
	assert.Equal(t, 2, v)

	c.Reset()
	assert.Equal(t, 0, c.Len())
}

func TestCache_Concurrent(t *testing.T) {
	c := New[string]()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Put("a", "x")
			c.Get("a")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}
