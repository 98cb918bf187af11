// Package requestid tags every request with an id.
//
// The id comes from the first request header that carries one, or is a new
// UUID. It is exposed as the "requestID" context field, echoed in the
// X-Request-ID response header and added to log records:
//
//	shop, err := mosaic.NewApp(ctx, "shop",
//	    mosaic.WithRegistry(reg),
//	    mosaic.WithLogger("shop", requestid.LogExtractor()),
//	    mosaic.WithModules("requestid", "catalog"),
//	)
package requestid

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mosaic"
	"github.com/dmitrymomot/mosaic/pkg/logger"
)

const (
	// Name is the module name.
	Name = "requestid"

	// Field is the context field holding the id.
	Field = "requestID"

	// Header is the response header carrying the id.
	Header = "X-Request-ID"
)

// DefaultHeaders are checked, in order, for an upstream id.
var DefaultHeaders = []string{"X-Request-ID", "X-Correlation-ID"}

type ctxKey struct{}

type config struct {
	headers   []string
	generate  func() string
	respondAs string
}

// Option configures the module.
type Option func(*config)

// WithHeaders sets the request headers checked for an upstream id.
func WithHeaders(headers ...string) Option {
	return func(c *config) {
		c.headers = headers
	}
}

// WithGenerator replaces the UUID generator.
func WithGenerator(fn func() string) Option {
	return func(c *config) {
		if fn != nil {
			c.generate = fn
		}
	}
}

// WithResponseHeader sets the response header. An empty name disables it.
func WithResponseHeader(name string) Option {
	return func(c *config) {
		c.respondAs = name
	}
}

// Module is the module with default options.
var Module = New()

// New creates the module.
func New(opts ...Option) mosaic.Module {
	cfg := &config{
		headers:   DefaultHeaders,
		generate:  uuid.NewString,
		respondAs: Header,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	contribute := func(c *mosaic.Context, _ *mosaic.Scope) (map[string]any, error) {
		id := ""
		for _, h := range cfg.headers {
			if id = c.Header(h); id != "" {
				break
			}
		}
		if id == "" {
			id = cfg.generate()
		}
		c.Set(ctxKey{}, id)
		return map[string]any{Field: id}, nil
	}

	echo := func(c *mosaic.Context) (any, error) {
		if cfg.respondAs == "" {
			return nil, nil
		}
		id, err := mosaic.Field[string](c, Field)
		if err != nil {
			return nil, err
		}
		c.SetHeader(cfg.respondAs, id)
		return nil, nil
	}

	return mosaic.Define(mosaic.Definition{
		Name:        Name,
		ContextFunc: contribute,
		MiddlewaresFunc: func(mosaic.ModuleConfig) []mosaic.Action {
			return []mosaic.Action{echo}
		},
		WSMiddlewaresFunc: func(mosaic.ModuleConfig) []mosaic.Action {
			return []mosaic.Action{echo}
		},
	})
}

// FromContext returns the id of the request ctx belongs to, once the
// "requestID" field has been resolved.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// LogExtractor adds "request_id" to records logged with a request context.
func LogExtractor() logger.ContextExtractor {
	return logger.FromContextValue(ctxKey{}, "request_id")
}
