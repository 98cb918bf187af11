package internal

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrymomot/mosaic/pkg/health"
)

// Arch values for Descriptor.Arch.
const (
	// ArchModular scans the module directory for local modules.
	ArchModular = "modular"
)

// Descriptor is the static declaration of a module.
type Descriptor struct {
	// Name identifies the module in the registry and in composition.
	Name string

	// Alias is an alternative registry key.
	Alias string

	// SubModules are composed under this module.
	// Names starting with "#" are ignored.
	SubModules []string

	// AppPath scopes the module to a directory different from its parent's.
	AppPath string

	// Arch selects the directory layout, see ArchModular.
	Arch string

	// Namespace groups scoped data; inherited from the parent when empty.
	Namespace string

	// ScopeName overrides the module name as the scope key.
	ScopeName string
}

// Module is the unit of composition.
// Behavior is contributed by implementing any of the capability interfaces
// below, or by declaring a Definition.
type Module interface {
	Descriptor() Descriptor
}

// Routes maps route definitions to the handlers run for them.
// Handlers of one route are chained: the first non-nil result wins.
type Routes map[string][]Action

// Initializer runs once per application before services are built.
// Init calls are sequential in root-first order. scope is the namespace
// cell the module is composed in.
type Initializer interface {
	Init(ctx context.Context, cfg ModuleConfig, scope *Scope) error
}

// ServiceProvider contributes application services.
// Returned values are merged into the application's services.
type ServiceProvider interface {
	Services(ctx context.Context, cfg ModuleConfig, svc *Services) (map[string]any, error)
}

// MiddlewareProvider contributes request middlewares.
type MiddlewareProvider interface {
	Middlewares(cfg ModuleConfig) []Action
}

// ContextProvider contributes request context fields.
// It is invoked lazily, at most once per request, and only when a field
// that no earlier layer knows is requested. scope is the same cell Init
// received.
type ContextProvider interface {
	Context(c *Context, scope *Scope) (map[string]any, error)
}

// RouteProvider contributes routes.
type RouteProvider interface {
	Routes(cfg ModuleConfig, svc *Services) (Routes, error)
}

// ErrorHandlerProvider contributes error handlers keyed by error kind.
type ErrorHandlerProvider interface {
	ErrorHandlers(cfg ModuleConfig) map[Kind]ErrorHandler
}

// WSProvider contributes a websocket endpoint served at /<app>/<module>.
type WSProvider interface {
	WS(cfg ModuleConfig, svc *Services) (*WSRoutes, error)
}

// WSMiddlewareProvider contributes middlewares run before every websocket upgrade.
type WSMiddlewareProvider interface {
	WSMiddlewares(cfg ModuleConfig) []Action
}

// Extender publishes named extensions that other modules contribute to.
type Extender interface {
	Extensions(cfg ModuleConfig, svc *Services) (map[string]Extension, error)
}

// ExtensionContributor answers named extensions published by an Extender.
// Returning false skips the extension.
type ExtensionContributor interface {
	Contribute(extension string, cfg ModuleConfig, svc *Services) (any, bool)
}

// HealthReporter contributes readiness checks.
type HealthReporter interface {
	HealthChecks(cfg ModuleConfig, svc *Services) health.Checks
}

// Shutdowner releases application resources when the server stops.
type Shutdowner interface {
	Shutdown(ctx context.Context, cfg ModuleConfig, svc *Services) error
}

// Definition declares a module from plain functions.
// Nil fields are capabilities the module does not have.
//
// Example:
//
//	users := mosaic.Define(mosaic.Definition{
//	    Name: "users",
//	    RoutesFunc: func(mosaic.ModuleConfig, *mosaic.Services) (mosaic.Routes, error) {
//	        return mosaic.Routes{"/users/[id]": {showUser}}, nil
//	    },
//	})
type Definition struct {
	Name       string
	Alias      string
	SubModules []string
	AppPath    string
	Arch       string
	Namespace  string
	ScopeName  string

	InitFunc          func(ctx context.Context, cfg ModuleConfig, scope *Scope) error
	ServicesFunc      func(ctx context.Context, cfg ModuleConfig, svc *Services) (map[string]any, error)
	MiddlewaresFunc   func(cfg ModuleConfig) []Action
	ContextFunc       func(c *Context, scope *Scope) (map[string]any, error)
	RoutesFunc        func(cfg ModuleConfig, svc *Services) (Routes, error)
	ErrorHandlersFunc func(cfg ModuleConfig) map[Kind]ErrorHandler
	WSFunc            func(cfg ModuleConfig, svc *Services) (*WSRoutes, error)
	WSMiddlewaresFunc func(cfg ModuleConfig) []Action
	ExtensionsFunc    func(cfg ModuleConfig, svc *Services) (map[string]Extension, error)
	ContributeFunc    func(extension string, cfg ModuleConfig, svc *Services) (any, bool)
	HealthChecksFunc  func(cfg ModuleConfig, svc *Services) health.Checks
	ShutdownFunc      func(ctx context.Context, cfg ModuleConfig, svc *Services) error
}

// Define turns a Definition into a Module.
func Define(d Definition) Module {
	return &d
}

func (d *Definition) Descriptor() Descriptor {
	return Descriptor{
		Name:       d.Name,
		Alias:      d.Alias,
		SubModules: d.SubModules,
		AppPath:    d.AppPath,
		Arch:       d.Arch,
		Namespace:  d.Namespace,
		ScopeName:  d.ScopeName,
	}
}

// caps is the flattened capability set of a module.
type caps struct {
	initialize    func(ctx context.Context, cfg ModuleConfig, scope *Scope) error
	services      func(ctx context.Context, cfg ModuleConfig, svc *Services) (map[string]any, error)
	middlewares   func(cfg ModuleConfig) []Action
	context       func(c *Context, scope *Scope) (map[string]any, error)
	routes        func(cfg ModuleConfig, svc *Services) (Routes, error)
	errorHandlers func(cfg ModuleConfig) map[Kind]ErrorHandler
	ws            func(cfg ModuleConfig, svc *Services) (*WSRoutes, error)
	wsMiddlewares func(cfg ModuleConfig) []Action
	extensions    func(cfg ModuleConfig, svc *Services) (map[string]Extension, error)
	contribute    func(extension string, cfg ModuleConfig, svc *Services) (any, bool)
	healthChecks  func(cfg ModuleConfig, svc *Services) health.Checks
	shutdown      func(ctx context.Context, cfg ModuleConfig, svc *Services) error
}

func capsOf(m Module) caps {
	if d, ok := m.(*Definition); ok {
		return caps{
			initialize:    d.InitFunc,
			services:      d.ServicesFunc,
			middlewares:   d.MiddlewaresFunc,
			context:       d.ContextFunc,
			routes:        d.RoutesFunc,
			errorHandlers: d.ErrorHandlersFunc,
			ws:            d.WSFunc,
			wsMiddlewares: d.WSMiddlewaresFunc,
			extensions:    d.ExtensionsFunc,
			contribute:    d.ContributeFunc,
			healthChecks:  d.HealthChecksFunc,
			shutdown:      d.ShutdownFunc,
		}
	}

	var c caps
	if v, ok := m.(Initializer); ok {
		c.initialize = v.Init
	}
	if v, ok := m.(ServiceProvider); ok {
		c.services = v.Services
	}
	if v, ok := m.(MiddlewareProvider); ok {
		c.middlewares = v.Middlewares
	}
	if v, ok := m.(ContextProvider); ok {
		c.context = v.Context
	}
	if v, ok := m.(RouteProvider); ok {
		c.routes = v.Routes
	}
	if v, ok := m.(ErrorHandlerProvider); ok {
		c.errorHandlers = v.ErrorHandlers
	}
	if v, ok := m.(WSProvider); ok {
		c.ws = v.WS
	}
	if v, ok := m.(WSMiddlewareProvider); ok {
		c.wsMiddlewares = v.WSMiddlewares
	}
	if v, ok := m.(Extender); ok {
		c.extensions = v.Extensions
	}
	if v, ok := m.(ExtensionContributor); ok {
		c.contribute = v.Contribute
	}
	if v, ok := m.(HealthReporter); ok {
		c.healthChecks = v.HealthChecks
	}
	if v, ok := m.(Shutdowner); ok {
		c.shutdown = v.Shutdown
	}
	return c
}

// Registry holds the modules known to the process, keyed by name and alias.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry creates a registry holding the given modules.
func NewRegistry(modules ...Module) (*Registry, error) {
	r := &Registry{modules: make(map[string]Module)}
	for _, m := range modules {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a module under its name and alias.
// Registering a name again replaces the earlier module.
func (r *Registry) Register(m Module) error {
	if m == nil {
		return ErrNilModule
	}
	d := m.Descriptor()
	if d.Name == "" {
		return ErrEmptyModuleName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.modules == nil {
		r.modules = make(map[string]Module)
	}
	r.modules[d.Name] = m
	if d.Alias != "" {
		r.modules[d.Alias] = m
	}
	return nil
}

// Get returns the module registered under name.
func (r *Registry) Get(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// MustGet returns the module registered under name or an ErrModuleNotFound error.
func (r *Registry) MustGet(name string) (Module, error) {
	m, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, name)
	}
	return m, nil
}

// Names returns every registry key, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for n := range r.modules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
