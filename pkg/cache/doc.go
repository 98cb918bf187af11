// Package cache provides key-value stores with TTL support.
//
// Memory keeps entries in process with LRU eviction; Redis keeps them in a
// Redis database under a namespace prefix. Both implement Store, which deals
// in bytes. Typed adds a codec and stampede protection on top:
//
//	store := cache.NewMemory(cache.MemoryConfig{MaxEntries: 10_000})
//	defer store.Close()
//
//	prices := cache.NewTyped[Price](store, "prices", nil)
//	p, err := prices.GetOrSet(ctx, sku, func(ctx context.Context) (Price, time.Duration, error) {
//	    p, err := repo.Price(ctx, sku)
//	    return p, 5 * time.Minute, err
//	})
package cache
