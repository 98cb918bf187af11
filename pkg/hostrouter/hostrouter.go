package hostrouter

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrEmptyPattern  = errors.New("hostrouter: empty host pattern")
	ErrDuplicateHost = errors.New("hostrouter: host pattern already registered")
)

// Table maps host patterns to values.
type Table[T any] struct {
	exact    map[string]T // "api.example.com" -> value
	wildcard map[string]T // "example.com" -> value (for *.example.com)
}

// NewTable creates an empty host table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{
		exact:    make(map[string]T),
		wildcard: make(map[string]T),
	}
}

// Add registers a host pattern.
// A pattern can be registered only once; a second registration is a configuration error.
func (t *Table[T]) Add(pattern string, v T) error {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return ErrEmptyPattern
	}

	target, key := t.exact, pattern
	if strings.HasPrefix(pattern, "*.") {
		target, key = t.wildcard, pattern[2:]
	}
	if _, ok := target[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateHost, pattern)
	}
	target[key] = v
	return nil
}

// Match resolves a raw Host header value.
func (t *Table[T]) Match(host string) (T, bool) {
	host = normalizeHost(host)

	if v, ok := t.exact[host]; ok {
		return v, true
	}
	if _, domain, ok := strings.Cut(host, "."); ok {
		if v, ok := t.wildcard[domain]; ok {
			return v, true
		}
	}

	var zero T
	return zero, false
}

// Patterns returns every registered pattern, sorted.
func (t *Table[T]) Patterns() []string {
	out := make([]string, 0, len(t.exact)+len(t.wildcard))
	for p := range t.exact {
		out = append(out, p)
	}
	for p := range t.wildcard {
		out = append(out, "*."+p)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of registered patterns.
func (t *Table[T]) Len() int {
	return len(t.exact) + len(t.wildcard)
}

// normalizeHost strips the port and converts to lowercase.
func normalizeHost(host string) string {
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		// Check it's not an IPv6 address
		if !strings.Contains(host[idx:], "]") {
			host = host[:idx]
		}
	}
	return strings.ToLower(host)
}
