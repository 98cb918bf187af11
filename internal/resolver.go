package internal

import "fmt"

// contributor is a module's context function.
type contributor struct {
	module string
	scope  *Scope
	fn     func(c *Context, scope *Scope) (map[string]any, error)
}

// Resolver assembles request context fields on demand.
// Lookup order: request fields, application services, fields already
// contributed, then the contributors that have not run yet, one at a time.
// A contributor runs at most once per request.
type Resolver struct {
	c            *Context
	services     *Services
	cache        map[string]any
	contributors []contributor
	cursor       int
}

func newResolver(c *Context, services *Services, contributors []contributor) *Resolver {
	return &Resolver{
		c:            c,
		services:     services,
		contributors: contributors,
	}
}

// Resolve returns the value of key.
// A contributor error stops resolution; that contributor is not run again.
func (r *Resolver) Resolve(key string) (any, bool, error) {
	if v, ok := r.c.requestField(key); ok {
		return v, true, nil
	}
	if v, ok := r.services.Get(key); ok {
		return v, true, nil
	}

	for {
		if v, ok := r.cache[key]; ok {
			return v, true, nil
		}
		if r.cursor >= len(r.contributors) {
			return nil, false, nil
		}

		next := r.contributors[r.cursor]
		r.cursor++

		fields, err := next.fn(r.c, next.scope)
		if err != nil {
			return nil, false, fmt.Errorf("context of module %q: %w", next.module, err)
		}
		for k, v := range fields {
			if _, exists := r.cache[k]; !exists {
				r.put(k, v)
			}
		}
	}
}

// put stores a field, shadowing any contributor that would provide it later.
func (r *Resolver) put(key string, value any) {
	if r.cache == nil {
		r.cache = make(map[string]any)
	}
	r.cache[key] = value
}

// Pending returns how many contributors have not run.
func (r *Resolver) Pending() int {
	return len(r.contributors) - r.cursor
}
