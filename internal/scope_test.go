package internal_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mosaic/internal"
)

func TestScopeStore(t *testing.T) {
	t.Parallel()

	store := internal.NewScopeStore()

	a := store.Scope("acme", "billing")
	require.Same(t, a, store.Scope("acme", "billing"), "same pair yields the same scope")
	require.NotSame(t, a, store.Scope("other", "billing"))

	root := store.Scope("", "billing")
	require.Equal(t, "root", root.Namespace())
	require.Same(t, root, store.Scope("root", "billing"))
	require.Equal(t, 3, store.Len())
}

func TestScope(t *testing.T) {
	t.Parallel()

	s := internal.NewScopeStore().Scope("acme", "billing")
	require.Equal(t, "billing", s.Name())

	require.False(t, s.Has("plans"))
	s.Put("plans", []string{"free"})
	require.True(t, s.Has("plans"))

	v, ok := s.Get("plans")
	require.True(t, ok)
	require.Equal(t, []string{"free"}, v)

	s.Put("nothing", nil)
	require.False(t, s.Has("nothing"), "nil values do not count")

	s.Clear("plans")
	require.False(t, s.Has("plans"))
}

func TestScope_From(t *testing.T) {
	t.Parallel()

	s := internal.NewScopeStore().Scope("", "cache")

	calls := 0
	get := func() map[string]int {
		return internal.ScopeFrom(s, "hits", func() map[string]int {
			calls++
			return map[string]int{}
		})
	}

	get()["a"]++
	get()["a"]++
	require.Equal(t, 1, calls)
	require.Equal(t, 2, get()["a"])

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.From("shared", func() any { return new(int) })
		}()
	}
	wg.Wait()
	first := s.From("shared", nil)
	require.Same(t, first, s.From("shared", nil))
}
