package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_BasicSetGet(t *testing.T) {
	c := NewLRU[string, string](100, time.Minute)

	t.Run("Set and Get returns value", func(t *testing.T) {
		c.Set("test-key", "test-value", 0)
		result, ok := c.Get("test-key")

		require.True(t, ok, "expected key to exist")
		assert.Equal(t, "test-value", result)
	})

	t.Run("Get non-existent key returns false", func(t *testing.T) {
		_, ok := c.Get("non-existent")
		assert.False(t, ok)
	})

	t.Run("Update existing key", func(t *testing.T) {
		c.Set("update-key", "value1", 0)
		c.Set("update-key", "value2", 0)

		result, ok := c.Get("update-key")
		require.True(t, ok)
		assert.Equal(t, "value2", result)
	})
}

func TestLRU_TTLExpiration(t *testing.T) {
	c := NewLRU[string, string](100, 50*time.Millisecond)

	c.Set("expiring-key", "expiring-value", 50*time.Millisecond)

	_, ok := c.Get("expiring-key")
	assert.True(t, ok, "key should exist immediately after Set")

	time.Sleep(60 * time.Millisecond)

	_, ok = c.Get("expiring-key")
	assert.False(t, ok, "key should be expired after TTL")
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[string, int](3, time.Minute)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0)

	// Touch "a" so "b" becomes the oldest.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", 4, 0)

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 3, c.Size())
}

func TestLRU_RemoveAndClear(t *testing.T) {
	c := NewLRU[string, int](10, time.Minute)

	c.Set("x", 1, 0)
	c.Set("y", 2, 0)

	assert.True(t, c.Remove("x"))
	assert.False(t, c.Remove("x"))
	assert.Equal(t, 1, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := NewLRU[string, int](100, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", n, j%10)
				c.Set(key, j, 0)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Size(), 100)
}
