// Package cache provides the "cache" service, a pkg/cache Store.
//
// The store is Redis when a URL is configured, from the "cache.redis_url"
// setting or the REDIS_URL environment variable, and in-process memory
// otherwise. Applications sharing a scope store, and composing the module
// in the same namespace and scope with the same settings, share one store.
// Differently configured applications always get their own.
//
//	cache:
//	  redis_url: redis://localhost:6379/0
//	  default_ttl: 10m
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/mosaic"
	"github.com/dmitrymomot/mosaic/modules/internal/modcfg"
	"github.com/dmitrymomot/mosaic/pkg/cache"
	"github.com/dmitrymomot/mosaic/pkg/health"
	"github.com/dmitrymomot/mosaic/pkg/redis"
)

const (
	// Name is the module name.
	Name = "cache"

	// Service is the name of the store service.
	Service = "cache"

	// EnvRedisURL is read when no URL is configured.
	EnvRedisURL = "REDIS_URL"
)

// Config is read from the "cache" settings.
type Config struct {
	RedisURL   string        `mapstructure:"redis_url"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
	Redis      redis.Config  `mapstructure:"redis"`
}

// backend is the store of one scope and configuration. It is closed when
// the last application using it shuts down.
type backend struct {
	store  cache.Store
	client goredis.UniversalClient
	err    error

	mu     sync.Mutex
	refs   int
	closed bool
}

func (b *backend) acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.refs++
	return true
}

func (b *backend) release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	if b.refs--; b.refs > 0 {
		return nil
	}
	b.closed = true

	var err error
	if b.store != nil {
		err = b.store.Close()
	}
	if b.client != nil {
		err = errors.Join(err, b.client.Close())
	}
	return err
}

// Module is the cache module.
var Module = mosaic.Define(mosaic.Definition{
	Name:             Name,
	ServicesFunc:     services,
	HealthChecksFunc: healthChecks,
	ShutdownFunc:     shutdown,
})

// backendService holds the *backend of the application.
const backendService = "cache.backend"

// backendKey identifies a backend within a scope by its settings.
func backendKey(c Config) string {
	return fmt.Sprintf("cache.backend|%s|%s|%d", c.RedisURL, c.DefaultTTL, c.MaxEntries)
}

func services(ctx context.Context, cfg mosaic.ModuleConfig, svc *mosaic.Services) (map[string]any, error) {
	var c Config
	if err := modcfg.Decode(svc, Name, &c); err != nil {
		return nil, err
	}
	if c.RedisURL == "" {
		c.RedisURL = os.Getenv(EnvRedisURL)
	}

	scope, key := svc.Scope(cfg), backendKey(c)
	b := mosaic.ScopeFrom(scope, key, func() *backend {
		return open(ctx, cfg, c)
	})
	if b.err != nil {
		scope.Clear(key)
		return nil, b.err
	}
	if !b.acquire() {
		// Every earlier user shut down; open a fresh one.
		b = open(ctx, cfg, c)
		if b.err != nil {
			return nil, b.err
		}
		b.acquire()
		scope.Put(key, b)
	}

	svc.Logger().Info("cache ready",
		"app", cfg.AppName,
		"scope", cfg.ScopeName,
		"redis", b.client != nil,
	)
	return map[string]any{Service: b.store, backendService: b}, nil
}

func open(ctx context.Context, cfg mosaic.ModuleConfig, c Config) *backend {
	if c.RedisURL == "" {
		return &backend{store: cache.NewMemory(cache.MemoryConfig{
			DefaultTTL: c.DefaultTTL,
			MaxEntries: c.MaxEntries,
		})}
	}

	rc := c.Redis
	rc.URL = c.RedisURL
	client, err := redis.Open(ctx, rc)
	if err != nil {
		return &backend{err: err}
	}
	return &backend{
		store:  cache.NewRedis(client, cfg.Namespace+":"+cfg.ScopeName, c.DefaultTTL),
		client: client,
	}
}

func healthChecks(_ mosaic.ModuleConfig, svc *mosaic.Services) health.Checks {
	b, err := mosaic.Service[*backend](svc, backendService)
	if err != nil || b.client == nil {
		return nil
	}
	return health.Checks{"cache": redis.Healthcheck(b.client)}
}

func shutdown(_ context.Context, _ mosaic.ModuleConfig, svc *mosaic.Services) error {
	if b, err := mosaic.Service[*backend](svc, backendService); err == nil {
		return b.release()
	}
	return nil
}
