package internal

import (
	"fmt"
	"strings"
)

// ExtractorSource reads one candidate value from a request.
type ExtractorSource = func(*Context) (string, bool)

// Extractor tries multiple sources in order and returns the first match.
type Extractor struct {
	sources []ExtractorSource
}

// NewExtractor creates an Extractor that tries the given sources in order.
func NewExtractor(sources ...ExtractorSource) Extractor {
	return Extractor{sources: sources}
}

// Extract returns the first non-empty value.
func (e Extractor) Extract(c *Context) (string, bool) {
	for _, src := range e.sources {
		if v, ok := src(c); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func nonEmpty(v string) (string, bool) {
	return v, v != ""
}

// FromHeader reads a request header.
func FromHeader(name string) ExtractorSource {
	return func(c *Context) (string, bool) {
		return nonEmpty(c.Header(name))
	}
}

// FromQuery reads a query parameter.
func FromQuery(name string) ExtractorSource {
	return func(c *Context) (string, bool) {
		return nonEmpty(c.Query(name))
	}
}

// FromCookie reads a plain cookie.
func FromCookie(name string) ExtractorSource {
	return func(c *Context) (string, bool) {
		ck, err := c.Request().Cookie(name)
		if err != nil {
			return "", false
		}
		return nonEmpty(ck.Value)
	}
}

// FromParam reads a route parameter.
func FromParam(name string) ExtractorSource {
	return func(c *Context) (string, bool) {
		return nonEmpty(c.Param(name))
	}
}

// FromField reads a context field, resolving it if needed.
// Non-string values are formatted with fmt.Sprint.
func FromField(name string) ExtractorSource {
	return func(c *Context) (string, bool) {
		v, ok, err := c.Lookup(name)
		if err != nil || !ok || v == nil {
			return "", false
		}
		if s, ok := v.(string); ok {
			return nonEmpty(s)
		}
		return nonEmpty(fmt.Sprint(v))
	}
}

// FromBearerToken reads a Bearer token from the Authorization header.
func FromBearerToken() ExtractorSource {
	return func(c *Context) (string, bool) {
		auth := c.Header("Authorization")
		if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
			return "", false
		}
		return nonEmpty(auth[7:])
	}
}
