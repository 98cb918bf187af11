package internal

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Names of the services every application starts with.
const (
	ServiceAppName = "appName"
	ServiceBuild   = "build"
	ServiceConfig  = "config"
	ServiceLog     = "log"
)

// Services is the per-application service map.
// Modules write to it while the application is built; afterwards it is read-only.
type Services struct {
	mu     sync.RWMutex
	values map[string]any
	frozen bool
	scopes *ScopeStore
}

func newServices(scopes *ScopeStore) *Services {
	return &Services{values: make(map[string]any), scopes: scopes}
}

// Get returns the service registered under name.
func (s *Services) Get(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Set registers a service. It fails once the application is built.
func (s *Services) Set(name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return fmt.Errorf("%w: %q", ErrServicesFrozen, name)
	}
	s.values[name] = value
	return nil
}

func (s *Services) merge(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return ErrServicesFrozen
	}
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

func (s *Services) freeze() {
	s.mu.Lock()
	s.frozen = true
	s.mu.Unlock()
}

// Names returns the registered service names, sorted.
func (s *Services) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Logger returns the application logger.
func (s *Services) Logger() *slog.Logger {
	if l, ok := s.logger(); ok {
		return l
	}
	return slog.Default()
}

func (s *Services) logger() (*slog.Logger, bool) {
	v, ok := s.Get(ServiceLog)
	if !ok {
		return nil, false
	}
	l, ok := v.(*slog.Logger)
	return l, ok
}

// Scope returns the scope of the module placed with cfg.
func (s *Services) Scope(cfg ModuleConfig) *Scope {
	return s.scopes.Scope(cfg.Namespace, cfg.ScopeName)
}

// Service returns the service registered under name as a T.
//
// Example:
//
//	pool, err := mosaic.Service[*pgxpool.Pool](svc, "db")
func Service[T any](s *Services, name string) (T, error) {
	var zero T
	v, ok := s.Get(name)
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrServiceNotFound, name)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T", ErrServiceType, name, v)
	}
	return t, nil
}
