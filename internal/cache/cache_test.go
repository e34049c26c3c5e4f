package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances one second on every read so insertion order is strict.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache[V any](t *testing.T, ttl time.Duration, size int) (*Cache[V], *fakeClock) {
	t.Helper()
	c := New[V](0, size)
	c.ttl = ttl
	clock := &fakeClock{now: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)}
	c.now = clock.Now
	t.Cleanup(c.Stop)
	return c, clock
}

func TestCacheGetSet(t *testing.T) {
	c, _ := newTestCache[string](t, 0, 4)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", "alpha")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "alpha", v)

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.HitCount)
	assert.Equal(t, int64(1), stats.MissCount)
	assert.InDelta(t, 0.5, stats.HitRatio, 1e-9)
}

func TestCacheExpiry(t *testing.T) {
	c, clock := newTestCache[int](t, 5*time.Minute, 4)

	c.Set("sheet", 1)
	_, ok := c.Get("sheet")
	assert.True(t, ok)

	clock.Advance(6 * time.Minute)
	_, ok = c.Get("sheet")
	assert.False(t, ok)

	c.removeExpired()
	assert.Zero(t, c.Len())
}

func TestCacheEvictsOldest(t *testing.T) {
	c, _ := newTestCache[int](t, 0, 2)

	c.Set("first", 1)
	c.Set("second", 2)
	c.Set("third", 3)

	_, ok := c.Get("first")
	assert.False(t, ok)
	_, ok = c.Get("third")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCacheOverwriteDoesNotEvict(t *testing.T) {
	c, _ := newTestCache[int](t, 0, 2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 3)

	assert.Equal(t, 2, c.Len())
	v, _ := c.Get("a")
	assert.Equal(t, 3, v)
}

func TestCacheZeroSizeStoresNothing(t *testing.T) {
	c, _ := newTestCache[int](t, 0, 0)
	c.Set("a", 1)
	assert.Zero(t, c.Len())
}

func TestGetOrLoadDeduplicates(t *testing.T) {
	c, _ := newTestCache[string](t, time.Minute, 4)

	var calls int32
	release := make(chan struct{})
	load := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "rows", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := c.GetOrLoad(context.Background(), "sheet-1/Data", load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "rows", r)
	}

	v, cached, err := c.GetOrLoad(context.Background(), "sheet-1/Data", load)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "rows", v)
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c, _ := newTestCache[string](t, time.Minute, 4)
	boom := errors.New("network down")

	_, _, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())

	v, cached, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "ok", v)
}

func TestGetOrLoadPurgeDuringLoad(t *testing.T) {
	c, _ := newTestCache[string](t, time.Minute, 4)

	started := make(chan struct{})
	release := make(chan struct{})
	staleDone := make(chan string)
	go func() {
		v, _, err := c.GetOrLoad(context.Background(), "sheet-1/Data", func(context.Context) (string, error) {
			close(started)
			<-release
			return "old credential", nil
		})
		assert.NoError(t, err)
		staleDone <- v
	}()

	<-started
	c.Purge()

	// A caller after the purge must not join the load already in flight.
	v, cached, err := c.GetOrLoad(context.Background(), "sheet-1/Data", func(context.Context) (string, error) {
		return "new credential", nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "new credential", v)

	close(release)
	assert.Equal(t, "old credential", <-staleDone)

	v, ok := c.Get("sheet-1/Data")
	require.True(t, ok)
	assert.Equal(t, "new credential", v)
	assert.Equal(t, 1, c.Len())
}

func TestContentKey(t *testing.T) {
	a := ContentKey([]byte("Tanggal,Alamat\n"))
	b := ContentKey([]byte("Tanggal,Alamat\n"))
	c := ContentKey([]byte("Tanggal,Alamat \n"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
