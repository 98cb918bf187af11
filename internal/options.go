package internal

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/mosaic/pkg/logger"
)

// Option configures an application.
type Option func(*appConfig)

// appConfig collects options before the application is built.
type appConfig struct {
	build        string
	hosts        []string
	modules      []string
	registry     *Registry
	appPath      string
	arch         string
	scanner      Scanner
	scopes       *ScopeStore
	settings     any
	services     map[string]any
	logger       *slog.Logger
	notFoundPath string
	metrics      *Metrics
	tracer       trace.TracerProvider
	checkOrigin  func(origin, host string) bool
}

// defaultNotFoundPath is the route rendered when no error handler answers.
const defaultNotFoundPath = "/404"

// WithHosts sets the host patterns the application answers.
// Patterns: "api.example.com" (exact) or "*.example.com" (wildcard).
func WithHosts(hosts ...string) Option {
	return func(c *appConfig) {
		c.hosts = append(c.hosts, hosts...)
	}
}

// WithModules sets the root modules of the application.
func WithModules(names ...string) Option {
	return func(c *appConfig) {
		c.modules = append(c.modules, names...)
	}
}

// WithRegistry sets the registry module names are resolved against.
func WithRegistry(r *Registry) Option {
	return func(c *appConfig) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithAppPath sets the directory of the application.
func WithAppPath(path string) Option {
	return func(c *appConfig) {
		c.appPath = path
	}
}

// WithArch sets the application layout. With ArchModular the subdirectories
// of the application path that name registered modules are composed too.
func WithArch(arch string) Option {
	return func(c *appConfig) {
		c.arch = arch
	}
}

// WithScanner replaces the directory scanner used for modular layouts.
func WithScanner(s Scanner) Option {
	return func(c *appConfig) {
		if s != nil {
			c.scanner = s
		}
	}
}

// WithScopeStore shares scopes between applications.
// Applications built without one get a private store.
func WithScopeStore(s *ScopeStore) Option {
	return func(c *appConfig) {
		if s != nil {
			c.scopes = s
		}
	}
}

// WithBuild sets the build id. Defaults to a random UUID.
func WithBuild(id string) Option {
	return func(c *appConfig) {
		if id != "" {
			c.build = id
		}
	}
}

// WithSettings exposes application settings as the "config" service.
func WithSettings(settings any) Option {
	return func(c *appConfig) {
		c.settings = settings
	}
}

// WithService registers a service before any module runs.
func WithService(name string, value any) Option {
	return func(c *appConfig) {
		if c.services == nil {
			c.services = make(map[string]any)
		}
		c.services[name] = value
	}
}

// WithLogger creates a logger with the given context extractors.
//
// Example:
//
//	mosaic.NewApp(ctx, "shop",
//	    mosaic.WithLogger("shop", requestid.LogExtractor()),
//	)
func WithLogger(component string, extractors ...logger.ContextExtractor) Option {
	return func(c *appConfig) {
		c.logger = logger.New(extractors...).With("component", component)
	}
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return func(c *appConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithNotFoundPath sets the route rendered, with status 404, for errors no
// handler answered. An empty path disables it. Defaults to "/404".
func WithNotFoundPath(path string) Option {
	return func(c *appConfig) {
		c.notFoundPath = path
	}
}

// WithMetrics records request metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *appConfig) {
		c.metrics = m
	}
}

// WithTracerProvider sets the provider of dispatch spans.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *appConfig) {
		if tp != nil {
			c.tracer = tp
		}
	}
}

// WithWSCheckOrigin sets the websocket origin check.
// By default the origin host must equal the request host.
func WithWSCheckOrigin(fn func(origin, host string) bool) Option {
	return func(c *appConfig) {
		c.checkOrigin = fn
	}
}
