// Package cors answers cross-origin requests.
//
// Preflight OPTIONS requests from an allowed origin end with 204 before any
// route runs; other requests get the CORS headers and continue. The policy
// comes from New and may be overridden per application by the "cors"
// settings:
//
//	cors:
//	  allow_origins: [https://app.example.com]
//	  allow_credentials: true
//	  max_age: 1h
package cors

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/mosaic"
	"github.com/dmitrymomot/mosaic/modules/internal/modcfg"
)

// Name is the module name.
const Name = "cors"

// Config is a CORS policy.
type Config struct {
	AllowOrigins     []string      `mapstructure:"allow_origins"`
	AllowMethods     []string      `mapstructure:"allow_methods"`
	AllowHeaders     []string      `mapstructure:"allow_headers"`
	ExposeHeaders    []string      `mapstructure:"expose_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

// DefaultConfig allows every origin with the common methods and headers.
var DefaultConfig = Config{
	AllowOrigins: []string{"*"},
	AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
	AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
	MaxAge:       12 * time.Hour,
}

// Module is the module with the default policy.
var Module = New(DefaultConfig)

// New creates the module with a base policy.
func New(base Config) mosaic.Module {
	var mu sync.Mutex
	policies := make(map[string]*policy)

	return mosaic.Define(mosaic.Definition{
		Name: Name,
		ServicesFunc: func(_ context.Context, cfg mosaic.ModuleConfig, svc *mosaic.Services) (map[string]any, error) {
			c := base
			if err := modcfg.Decode(svc, Name, &c); err != nil {
				return nil, err
			}
			mu.Lock()
			policies[cfg.AppName] = newPolicy(c)
			mu.Unlock()
			return nil, nil
		},
		MiddlewaresFunc: func(cfg mosaic.ModuleConfig) []mosaic.Action {
			mu.Lock()
			p := policies[cfg.AppName]
			mu.Unlock()
			if p == nil {
				p = newPolicy(base)
			}
			return []mosaic.Action{p.handle}
		},
	})
}

// policy is a Config with its header values joined once.
type policy struct {
	origins     []string
	wildcard    bool
	credentials bool
	methods     string
	headers     string
	expose      string
	maxAge      string
}

func newPolicy(c Config) *policy {
	p := &policy{
		origins:     c.AllowOrigins,
		wildcard:    slices.Contains(c.AllowOrigins, "*"),
		credentials: c.AllowCredentials,
		methods:     strings.Join(c.AllowMethods, ", "),
		headers:     strings.Join(c.AllowHeaders, ", "),
		expose:      strings.Join(c.ExposeHeaders, ", "),
	}
	if c.MaxAge > 0 {
		p.maxAge = strconv.Itoa(int(c.MaxAge.Seconds()))
	}
	return p
}

func (p *policy) allows(origin string) bool {
	return p.wildcard || slices.Contains(p.origins, origin)
}

func (p *policy) handle(c *mosaic.Context) (any, error) {
	origin := c.Header("Origin")
	if origin == "" || !p.allows(origin) {
		return nil, nil
	}

	h := c.Response().Header()
	h.Add("Vary", "Origin")
	// With credentials or a fixed list the origin is echoed, never "*".
	if p.credentials || !p.wildcard {
		h.Set("Access-Control-Allow-Origin", origin)
	} else {
		h.Set("Access-Control-Allow-Origin", "*")
	}
	if p.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if p.expose != "" {
		h.Set("Access-Control-Expose-Headers", p.expose)
	}

	if c.Method() != http.MethodOptions {
		return nil, nil
	}
	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")
	h.Set("Access-Control-Allow-Methods", p.methods)
	h.Set("Access-Control-Allow-Headers", p.headers)
	if p.maxAge != "" {
		h.Set("Access-Control-Max-Age", p.maxAge)
	}
	return c.NoContent(http.StatusNoContent), nil
}
