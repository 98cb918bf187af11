package internal

import "sync"

// Scope is a key/value cell shared by every application composing the
// same (namespace, scope name) pair. It lives for the whole process.
type Scope struct {
	mu        sync.RWMutex
	namespace string
	name      string
	data      map[string]any
}

func newScope(namespace, name string) *Scope {
	return &Scope{namespace: namespace, name: name, data: make(map[string]any)}
}

func (s *Scope) Namespace() string { return s.namespace }
func (s *Scope) Name() string      { return s.name }

// Put stores value under key.
func (s *Scope) Put(key string, value any) {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
}

// Get returns the value stored under key.
func (s *Scope) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Has reports whether a non-nil value is stored under key.
func (s *Scope) Has(key string) bool {
	v, ok := s.Get(key)
	return ok && v != nil
}

// From returns the value under key, storing the result of fn first
// when there is none. fn runs under the scope lock.
func (s *Scope) From(key string, fn func() any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[key]; ok && v != nil {
		return v
	}
	var v any
	if fn != nil {
		v = fn()
	}
	s.data[key] = v
	return v
}

// Clear removes key.
func (s *Scope) Clear(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

// ScopeFrom is the typed form of Scope.From.
func ScopeFrom[T any](s *Scope, key string, fn func() T) T {
	var f func() any
	if fn != nil {
		f = func() any { return fn() }
	}
	v := s.From(key, f)
	t, _ := v.(T)
	return t
}

type scopeKey struct {
	namespace string
	name      string
}

// ScopeStore hands out scopes. The same pair always yields the same *Scope.
type ScopeStore struct {
	mu     sync.Mutex
	scopes map[scopeKey]*Scope
}

func NewScopeStore() *ScopeStore {
	return &ScopeStore{scopes: make(map[scopeKey]*Scope)}
}

// Scope returns the scope for (namespace, name), creating it on first use.
// An empty namespace is the root namespace.
func (s *ScopeStore) Scope(namespace, name string) *Scope {
	if namespace == "" {
		namespace = rootScope
	}
	k := scopeKey{namespace: namespace, name: name}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sc, ok := s.scopes[k]; ok {
		return sc
	}
	sc := newScope(namespace, name)
	s.scopes[k] = sc
	return sc
}

// Len returns the number of scopes created so far.
func (s *ScopeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scopes)
}
