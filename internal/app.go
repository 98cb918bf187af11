package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/mosaic/pkg/health"
	"github.com/dmitrymomot/mosaic/pkg/logger"
	"github.com/dmitrymomot/mosaic/pkg/routetable"
)

// Default server timeouts (hardcoded, opinionated).
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second

	// abortTimeout bounds the cleanup of a NewApp that failed part way.
	abortTimeout = 10 * time.Second
)

const tracerName = "github.com/dmitrymomot/mosaic"

// App is one composed application: its modules, route table, middleware
// chain and error handlers. It is immutable once NewApp returns and safe
// for concurrent requests.
type App struct {
	name         string
	build        string
	hosts        []string
	logger       *slog.Logger
	list         CompositionList
	services     *Services
	routes       *routetable.Table[Action]
	middleware   Action
	wsMiddleware Action
	ws           map[string]*wsEndpoint
	contributors []contributor
	errors       ErrorRegistry
	notFoundPath string
	checks       health.Checks
	metrics      *Metrics
	tracer       trace.Tracer
	upgrader     websocket.Upgrader

	// built holds the modules whose services step ran.
	built map[string]bool
}

// NewApp composes an application.
//
// Modules are resolved from the registry and placed into a composition
// list. Init runs for every module, parents first, then services are built
// and extensions applied. Routes, middlewares, context contributors and
// error handlers are collected children first.
//
// Example:
//
//	app, err := mosaic.NewApp(ctx, "shop",
//	    mosaic.WithRegistry(reg),
//	    mosaic.WithHosts("shop.example.com"),
//	    mosaic.WithModules("requestid", "catalog", "checkout"),
//	)
func NewApp(ctx context.Context, name string, opts ...Option) (*App, error) {
	if name == "" {
		return nil, ErrEmptyAppName
	}

	cfg := &appConfig{
		logger:       logger.NewNope(),
		notFoundPath: defaultNotFoundPath,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.build == "" {
		cfg.build = uuid.NewString()
	}
	if cfg.registry == nil {
		cfg.registry = &Registry{}
	}
	if cfg.scopes == nil {
		cfg.scopes = NewScopeStore()
	}
	if cfg.scanner == nil {
		cfg.scanner = DirScanner{}
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.GetTracerProvider()
	}

	a := &App{
		name:         name,
		build:        cfg.build,
		hosts:        slices.Clone(cfg.hosts),
		logger:       cfg.logger.With(slog.String("app", name)),
		services:     newServices(cfg.scopes),
		routes:       routetable.New[Action](),
		ws:           make(map[string]*wsEndpoint),
		errors:       make(ErrorRegistry),
		notFoundPath: cfg.notFoundPath,
		checks:       make(health.Checks),
		metrics:      cfg.metrics,
		tracer:       cfg.tracer.Tracer(tracerName),
	}
	a.upgrader = newUpgrader(cfg.checkOrigin)

	root := ModuleConfig{
		AppName: name,
		Build:   cfg.build,
		AppPath: cfg.appPath,
		Arch:    cfg.arch,
	}
	roots := slices.Clone(cfg.modules)
	if cfg.arch == ArchModular {
		local, err := cfg.scanner.LocalModules(cfg.appPath)
		if err != nil {
			return nil, err
		}
		root.LocalModules = local
		for _, m := range local {
			if _, ok := cfg.registry.Get(m); ok && !slices.Contains(roots, m) {
				roots = append(roots, m)
			}
		}
	}

	list, err := Resolve(cfg.registry, roots, root, cfg.scanner)
	if err != nil {
		return nil, err
	}
	a.list = list.withScopes(cfg.scopes)

	seed := map[string]any{
		ServiceAppName: name,
		ServiceBuild:   cfg.build,
		ServiceConfig:  cfg.settings,
		ServiceLog:     a.logger,
	}
	for k, v := range cfg.services {
		seed[k] = v
	}
	if err := a.services.merge(seed); err != nil {
		return nil, err
	}

	if err := a.initModules(ctx); err != nil {
		return nil, err
	}
	if err := a.assemble(ctx); err != nil {
		return nil, errors.Join(err, a.abort(ctx))
	}
	a.collectRequestHooks()
	a.services.freeze()

	a.logger.InfoContext(ctx, "application composed",
		slog.String("build", a.build),
		slog.Any("hosts", a.hosts),
		slog.Any("modules", a.list.Names()),
		slog.Any("routes", a.Routes()),
	)
	return a, nil
}

func (a *App) initModules(ctx context.Context) error {
	for _, e := range a.list.RootFirst() {
		initFn := capsOf(e.Module).initialize
		if initFn == nil {
			continue
		}
		if err := initFn(ctx, e.Config, e.Scope); err != nil {
			return errors.Join(ErrInitFailed, fmt.Errorf("module %q: %w", e.Config.ModuleName, err))
		}
	}
	return nil
}

// assemble runs the steps that may acquire resources.
func (a *App) assemble(ctx context.Context) error {
	if err := a.buildServices(ctx); err != nil {
		return err
	}
	if err := a.applyExtensions(ctx); err != nil {
		return err
	}
	if err := a.buildRoutes(); err != nil {
		return err
	}
	return a.buildWS()
}

// abort shuts down the modules built so far.
func (a *App) abort(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortTimeout)
	defer cancel()
	return a.shutdown(ctx, func(e Entry) bool { return a.built[e.Config.ModuleName] })
}

func (a *App) buildServices(ctx context.Context) error {
	a.built = make(map[string]bool)
	for _, e := range a.list.RootFirst() {
		build := capsOf(e.Module).services
		if build == nil {
			a.built[e.Config.ModuleName] = true
			continue
		}
		values, err := build(ctx, e.Config, a.services)
		if err != nil {
			return errors.Join(ErrServicesFailed, fmt.Errorf("module %q: %w", e.Config.ModuleName, err))
		}
		a.built[e.Config.ModuleName] = true
		if err := a.services.merge(values); err != nil {
			return err
		}
	}
	return nil
}

// buildRoutes registers routes children first. A definition registered
// again replaces the earlier one, so a parent overrides its submodules.
func (a *App) buildRoutes() error {
	for _, e := range a.list.LeafFirst() {
		provide := capsOf(e.Module).routes
		if provide == nil {
			continue
		}
		routes, err := provide(e.Config, a.services)
		if err != nil {
			return errors.Join(ErrRoutesFailed, fmt.Errorf("module %q: %w", e.Config.ModuleName, err))
		}
		for _, def := range sortedKeys(routes) {
			action := Chain(routes[def]...)
			if action == nil {
				continue
			}
			if _, err := a.routes.Add(def, action); err != nil {
				return errors.Join(ErrRoutesFailed, fmt.Errorf("module %q: %w", e.Config.ModuleName, err))
			}
		}
	}
	return nil
}

// collectRequestHooks gathers middlewares, context contributors, error
// handlers and health checks, children first, once per module.
func (a *App) collectRequestHooks() {
	var middlewares, wsMiddlewares []Action
	for _, e := range a.list.LeafFirstUnique() {
		c := capsOf(e.Module)
		if c.middlewares != nil {
			middlewares = append(middlewares, c.middlewares(e.Config)...)
		}
		if c.wsMiddlewares != nil {
			wsMiddlewares = append(wsMiddlewares, c.wsMiddlewares(e.Config)...)
		}
		if c.context != nil {
			a.contributors = append(a.contributors, contributor{module: e.Config.ModuleName, scope: e.Scope, fn: c.context})
		}
		if c.errorHandlers != nil {
			handlers := c.errorHandlers(e.Config)
			kinds := make([]Kind, 0, len(handlers))
			for k := range handlers {
				kinds = append(kinds, k)
			}
			slices.Sort(kinds)
			for _, k := range kinds {
				a.errors.Add(k, handlers[k])
			}
		}
		if c.healthChecks != nil {
			for name, check := range c.healthChecks(e.Config, a.services) {
				a.checks[name] = check
			}
		}
	}
	a.middleware = Chain(middlewares...)
	a.wsMiddleware = Chain(wsMiddlewares...)
}

// Shutdown releases module resources, children first.
func (a *App) Shutdown(ctx context.Context) error {
	return a.shutdown(ctx, nil)
}

// shutdown runs the shutdown hooks of the entries keep accepts, or of all
// entries when keep is nil.
func (a *App) shutdown(ctx context.Context, keep func(Entry) bool) error {
	var errs []error
	for _, e := range a.list.LeafFirstUnique() {
		if keep != nil && !keep(e) {
			continue
		}
		stop := capsOf(e.Module).shutdown
		if stop == nil {
			continue
		}
		if err := stop(ctx, e.Config, a.services); err != nil {
			a.logger.ErrorContext(ctx, "module shutdown failed",
				slog.String("module", e.Config.ModuleName),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Errorf("module %q: %w", e.Config.ModuleName, err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) Name() string {
	return a.name
}

func (a *App) Build() string {
	return a.build
}

// Hosts returns the host patterns the application answers.
func (a *App) Hosts() []string {
	return slices.Clone(a.hosts)
}

// Routes returns the route definitions, sorted.
func (a *App) Routes() []string {
	routes := a.routes.Routes()
	defs := make([]string, len(routes))
	for i, r := range routes {
		defs[i] = r.Definition
	}
	return defs
}

// WSPaths returns the websocket endpoint paths, sorted.
func (a *App) WSPaths() []string {
	return sortedKeys(a.ws)
}

// Modules returns the composition list.
func (a *App) Modules() CompositionList {
	return slices.Clone(a.list)
}

func (a *App) Services() *Services {
	return a.services
}

// HealthChecks returns the readiness checks contributed by modules.
func (a *App) HealthChecks() health.Checks {
	out := make(health.Checks, len(a.checks))
	for k, v := range a.checks {
		out[k] = v
	}
	return out
}

func (a *App) Logger() *slog.Logger {
	return a.logger
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
