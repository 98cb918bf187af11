package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// Store keeps raw values under string keys.
//
// TTL passed to Set:
//   - positive: the entry expires after it
//   - zero: the store default applies
//   - negative: the entry never expires
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	Close() error
}

// Codec converts values to bytes and back.
type Codec[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

// JSON is the default codec.
type JSON[V any] struct{}

func (JSON[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (JSON[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

// Typed stores values of one type in a Store under a key prefix.
type Typed[V any] struct {
	store  Store
	codec  Codec[V]
	prefix string
	group  singleflight.Group
}

// NewTyped creates a typed view of s. Keys are stored as "prefix:key";
// an empty prefix stores them as is. A nil codec means JSON.
//
// Example:
//
//	users := cache.NewTyped[User](store, "users", nil)
//	u, err := users.GetOrSet(ctx, id, loadUser)
func NewTyped[V any](s Store, prefix string, codec Codec[V]) *Typed[V] {
	if codec == nil {
		codec = JSON[V]{}
	}
	return &Typed[V]{store: s, codec: codec, prefix: prefix}
}

func (t *Typed[V]) key(k string) string {
	if t.prefix == "" {
		return k
	}
	return t.prefix + ":" + k
}

func (t *Typed[V]) Get(ctx context.Context, key string) (V, error) {
	data, err := t.store.Get(ctx, t.key(key))
	if err != nil {
		var zero V
		return zero, err
	}
	return t.codec.Unmarshal(data)
}

func (t *Typed[V]) Set(ctx context.Context, key string, v V, ttl time.Duration) error {
	data, err := t.codec.Marshal(v)
	if err != nil {
		return err
	}
	return t.store.Set(ctx, t.key(key), data, ttl)
}

func (t *Typed[V]) Delete(ctx context.Context, key string) error {
	return t.store.Delete(ctx, t.key(key))
}

type loaded[V any] struct {
	val V
	ttl time.Duration
}

// GetOrSet returns the cached value, or calls fn on a miss and caches its
// result. Concurrent misses of one key call fn once. Errors from fn are
// returned and nothing is cached.
func (t *Typed[V]) GetOrSet(ctx context.Context, key string, fn func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, err := t.Get(ctx, key); err == nil {
		return v, nil
	}

	res, err, _ := t.group.Do(key, func() (any, error) {
		v, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		// Best effort: a failing store still yields the value.
		_ = t.Set(ctx, key, v, ttl)
		return loaded[V]{val: v, ttl: ttl}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(loaded[V]).val, nil
}
