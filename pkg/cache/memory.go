package cache

import (
	"container/list"
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

type memEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is an in-process Store with TTL expiry and LRU eviction once
// MaxEntries is reached.
type Memory struct {
	mu     sync.Mutex
	items  map[string]*list.Element
	lru    *list.List
	ttl    time.Duration
	max    int
	done   chan struct{}
	closed bool
	now    func() time.Time
}

// MemoryConfig configures a Memory store. Zero values take the defaults.
type MemoryConfig struct {
	DefaultTTL      time.Duration `mapstructure:"default_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	// MaxEntries of zero means unlimited.
	MaxEntries int `mapstructure:"max_entries"`
}

const (
	DefaultTTL             = time.Hour
	DefaultCleanupInterval = time.Minute
)

// NewMemory creates a Memory store and starts its janitor.
// Close stops it.
func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	m := &Memory{
		items: make(map[string]*list.Element),
		lru:   list.New(),
		ttl:   cfg.DefaultTTL,
		max:   cfg.MaxEntries,
		done:  make(chan struct{}),
		now:   time.Now,
	}
	if cfg.CleanupInterval > 0 {
		go m.janitor(cfg.CleanupInterval)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	e := el.Value.(*memEntry)
	if e.expired(m.now()) {
		m.remove(el)
		return nil, ErrNotFound
	}
	m.lru.MoveToFront(el)
	return slices.Clone(e.value), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if ttl == 0 {
		ttl = m.ttl
	}
	var exp time.Time
	if ttl > 0 {
		exp = m.now().Add(ttl)
	}

	if el, ok := m.items[key]; ok {
		e := el.Value.(*memEntry)
		e.value, e.expiresAt = slices.Clone(value), exp
		m.lru.MoveToFront(el)
		return nil
	}
	if m.max > 0 && len(m.items) >= m.max {
		if oldest := m.lru.Back(); oldest != nil {
			m.remove(oldest)
		}
	}
	m.items[key] = m.lru.PushFront(&memEntry{key: key, value: slices.Clone(value), expiresAt: exp})
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if el, ok := m.items[key]; ok {
		m.remove(el)
	}
	return nil
}

func (m *Memory) Has(ctx context.Context, key string) (bool, error) {
	_, err := m.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Len returns the number of entries, expired ones included until swept.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the janitor. It is idempotent.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

func (m *Memory) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-t.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for el := m.lru.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*memEntry).expired(now) {
			m.remove(el)
		}
		el = prev
	}
}

// remove must be called with mu held.
func (m *Memory) remove(el *list.Element) {
	m.lru.Remove(el)
	delete(m.items, el.Value.(*memEntry).key)
}

var _ Store = (*Memory)(nil)
