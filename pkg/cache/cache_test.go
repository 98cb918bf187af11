package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mosaic/pkg/cache"
)

func newMemory(t *testing.T, cfg cache.MemoryConfig) *cache.Memory {
	t.Helper()
	m := cache.NewMemory(cfg)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()
		m := newMemory(t, cache.MemoryConfig{})
		require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))

		v, err := m.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v"), v)

		ok, err := m.Has(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()
		m := newMemory(t, cache.MemoryConfig{})
		_, err := m.Get(ctx, "nope")
		require.ErrorIs(t, err, cache.ErrNotFound)

		ok, err := m.Has(ctx, "nope")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("expiry", func(t *testing.T) {
		t.Parallel()
		m := newMemory(t, cache.MemoryConfig{CleanupInterval: -1})
		require.NoError(t, m.Set(ctx, "short", []byte("x"), 20*time.Millisecond))
		require.NoError(t, m.Set(ctx, "forever", []byte("y"), -1))

		require.Eventually(t, func() bool {
			_, err := m.Get(ctx, "short")
			return errors.Is(err, cache.ErrNotFound)
		}, time.Second, 10*time.Millisecond)

		_, err := m.Get(ctx, "forever")
		require.NoError(t, err)
	})

	t.Run("janitor sweeps", func(t *testing.T) {
		t.Parallel()
		m := newMemory(t, cache.MemoryConfig{CleanupInterval: 10 * time.Millisecond})
		require.NoError(t, m.Set(ctx, "k", []byte("x"), 5*time.Millisecond))
		require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 10*time.Millisecond)
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		t.Parallel()
		m := newMemory(t, cache.MemoryConfig{MaxEntries: 2})
		require.NoError(t, m.Set(ctx, "a", []byte("1"), 0))
		require.NoError(t, m.Set(ctx, "b", []byte("2"), 0))
		_, err := m.Get(ctx, "a")
		require.NoError(t, err)
		require.NoError(t, m.Set(ctx, "c", []byte("3"), 0))

		_, err = m.Get(ctx, "b")
		require.ErrorIs(t, err, cache.ErrNotFound)
		_, err = m.Get(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, 2, m.Len())
	})

	t.Run("returned bytes are copies", func(t *testing.T) {
		t.Parallel()
		m := newMemory(t, cache.MemoryConfig{})
		buf := []byte("abc")
		require.NoError(t, m.Set(ctx, "k", buf, 0))
		buf[0] = 'z'

		v, err := m.Get(ctx, "k")
		require.NoError(t, err)
		v[1] = 'z'

		again, err := m.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("abc"), again)
	})

	t.Run("closed", func(t *testing.T) {
		t.Parallel()
		m := cache.NewMemory(cache.MemoryConfig{})
		require.NoError(t, m.Close())
		require.NoError(t, m.Close())
		require.ErrorIs(t, m.Set(ctx, "k", nil, 0), cache.ErrClosed)
		require.ErrorIs(t, m.Delete(ctx, "k"), cache.ErrClosed)
	})
}

type price struct {
	SKU   string `json:"sku"`
	Cents int    `json:"cents"`
}

func TestTyped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("round trip under prefix", func(t *testing.T) {
		t.Parallel()
		store := newMemory(t, cache.MemoryConfig{})
		prices := cache.NewTyped[price](store, "prices", nil)

		require.NoError(t, prices.Set(ctx, "sku-1", price{SKU: "sku-1", Cents: 990}, 0))
		got, err := prices.Get(ctx, "sku-1")
		require.NoError(t, err)
		require.Equal(t, 990, got.Cents)

		raw, err := store.Get(ctx, "prices:sku-1")
		require.NoError(t, err)
		require.JSONEq(t, `{"sku":"sku-1","cents":990}`, string(raw))

		require.NoError(t, prices.Delete(ctx, "sku-1"))
		_, err = prices.Get(ctx, "sku-1")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("corrupt entry", func(t *testing.T) {
		t.Parallel()
		store := newMemory(t, cache.MemoryConfig{})
		require.NoError(t, store.Set(ctx, "n:x", []byte("{"), 0))

		_, err := cache.NewTyped[int](store, "n", nil).Get(ctx, "x")
		require.ErrorIs(t, err, cache.ErrUnmarshal)
	})

	t.Run("get or set loads once", func(t *testing.T) {
		t.Parallel()
		store := newMemory(t, cache.MemoryConfig{})
		counts := cache.NewTyped[int](store, "counts", nil)

		var calls atomic.Int32
		release := make(chan struct{})
		load := func(context.Context) (int, time.Duration, error) {
			calls.Add(1)
			<-release
			return 7, time.Minute, nil
		}

		var wg sync.WaitGroup
		results := make([]int, 8)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := counts.GetOrSet(ctx, "k", load)
				require.NoError(t, err)
				results[i] = v
			}()
		}
		require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		require.Equal(t, int32(1), calls.Load())
		for _, v := range results {
			require.Equal(t, 7, v)
		}

		v, err := counts.GetOrSet(ctx, "k", func(context.Context) (int, time.Duration, error) {
			return 0, 0, errors.New("not called")
		})
		require.NoError(t, err)
		require.Equal(t, 7, v)
	})

	t.Run("loader error is not cached", func(t *testing.T) {
		t.Parallel()
		store := newMemory(t, cache.MemoryConfig{})
		counts := cache.NewTyped[int](store, "", nil)

		boom := errors.New("boom")
		_, err := counts.GetOrSet(ctx, "k", func(context.Context) (int, time.Duration, error) {
			return 0, 0, boom
		})
		require.ErrorIs(t, err, boom)

		ok, err := store.Has(ctx, "k")
		require.NoError(t, err)
		require.False(t, ok)
	})
}
