package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(size int, ttl time.Duration) (*LRU, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRU(size, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRU_GetSet(t *testing.T) {
	c, _ := newTestCache(10, time.Hour)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestLRU_Expiry(t *testing.T) {
	c, clock := newTestCache(10, time.Hour)
	c.Set("a", "value")

	clock.Advance(59 * time.Minute)
	_, ok := c.Get("a")
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRU_Purge(t *testing.T) {
	c, clock := newTestCache(10, time.Hour)
	c.Set("old1", 1)
	c.Set("old2", 2)
	clock.Advance(30 * time.Minute)
	c.Set("fresh", 3)
	clock.Advance(45 * time.Minute)

	removed := c.Purge()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())

	v, ok := c.Get("fresh")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestLRU_NoTTL(t *testing.T) {
	c, clock := newTestCache(0, 0)
	c.Set("a", 1)
	clock.Advance(1000 * time.Hour)

	_, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 0, c.Purge())
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := NewLRU(100, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := string(rune('a' + (n+j)%26))
				c.Set(key, j)
				_, _ = c.Get(key)
				if j%50 == 0 {
					c.Purge()
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 26)
}

func TestLRU_ImplementsCache(t *testing.T) {
	var _ Cache = NewLRU(1, time.Second)
}
