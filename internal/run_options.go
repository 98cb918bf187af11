package internal

import (
	"context"
	"log/slog"
	"time"
)

// RunOption configures the server runtime.
type RunOption func(*runConfig)

// runConfig holds runtime configuration for the server.
type runConfig struct {
	address         string
	logger          *slog.Logger
	shutdownTimeout time.Duration
	shutdownHooks   []func(context.Context) error
	apps            []*App
	fallback        *App
	metrics         *Metrics
	ops             []OpsOption
	opsEnabled      bool
	baseCtx         context.Context
}

// buildRunConfig creates a runConfig from the provided options.
func buildRunConfig(opts ...RunOption) *runConfig {
	cfg := &runConfig{
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Address sets the HTTP server address.
// Defaults to ":8080".
func Address(addr string) RunOption {
	return func(c *runConfig) {
		if addr != "" {
			c.address = addr
		}
	}
}

// Logger sets the server logger.
// If nil, logging is disabled.
func Logger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// ShutdownTimeout sets the timeout for graceful shutdown.
// This applies to the HTTP servers, application shutdown and hooks.
// Defaults to 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// ShutdownHook registers a cleanup function to run during shutdown.
// Hooks run after every application has shut down, in registration order.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return func(c *runConfig) {
		if fn != nil {
			c.shutdownHooks = append(c.shutdownHooks, fn)
		}
	}
}

// Apps adds applications. Each answers the hosts it was built with.
//
// Example:
//
//	mosaic.Run(
//	    mosaic.Apps(shop, admin),
//	    mosaic.Address(":8080"),
//	)
func Apps(apps ...*App) RunOption {
	return func(c *runConfig) {
		for _, a := range apps {
			if a != nil {
				c.apps = append(c.apps, a)
			}
		}
	}
}

// Fallback serves requests whose host no application answers.
// Without a fallback such connections are closed.
func Fallback(app *App) RunOption {
	return func(c *runConfig) {
		if app != nil {
			c.fallback = app
		}
	}
}

// ServerMetrics counts requests for unknown hosts.
// Applications record their own requests through WithMetrics.
func ServerMetrics(m *Metrics) RunOption {
	return func(c *runConfig) {
		c.metrics = m
	}
}

// Ops serves health probes, metrics and the route listing on addr.
func Ops(addr string, opts ...OpsOption) RunOption {
	return func(c *runConfig) {
		if addr == "" {
			return
		}
		c.opsEnabled = true
		c.ops = append(c.ops, func(oc *opsConfig) { oc.address = addr })
		c.ops = append(c.ops, opts...)
	}
}

// WithContext sets a custom base context for signal handling.
// Useful for testing or when integrating with existing context hierarchies.
// Defaults to context.Background() if not set.
func WithContext(ctx context.Context) RunOption {
	return func(c *runConfig) {
		if ctx != nil {
			c.baseCtx = ctx
		}
	}
}
