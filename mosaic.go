package mosaic

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/mosaic/internal"
	"github.com/dmitrymomot/mosaic/pkg/health"
	"github.com/dmitrymomot/mosaic/pkg/logger"
)

// Type aliases - public API
type (
	// App is a composed application: its modules, route table, services and
	// error handlers.
	App = internal.App

	// Context is the per-request state handed to actions.
	Context = internal.Context

	// Action handles a request, returning a result, an error, or neither.
	Action = internal.Action

	// Routes maps route definitions to action chains.
	Routes = internal.Routes

	// Module is a unit of composition.
	Module = internal.Module

	// Definition builds a Module from plain functions.
	Definition = internal.Definition

	// Descriptor names a module and its place in the composition.
	Descriptor = internal.Descriptor

	// ModuleConfig is the configuration derived for one composed module.
	ModuleConfig = internal.ModuleConfig

	// Registry holds the modules applications are composed from.
	Registry = internal.Registry

	// Services is the per-application service map.
	Services = internal.Services

	// Scope is long-lived state shared by modules with the same scope name.
	Scope = internal.Scope

	// ScopeStore holds scopes by namespace and name.
	ScopeStore = internal.ScopeStore

	// Scanner lists the local module directories of a modular application.
	Scanner = internal.Scanner

	// ScannerFunc adapts a function to Scanner.
	ScannerFunc = internal.ScannerFunc

	// DirScanner lists the subdirectories of an application directory.
	DirScanner = internal.DirScanner

	// CompositionList is the resolved module list of an application.
	CompositionList = internal.CompositionList

	// Kind tags errors for the error handler registry.
	Kind = internal.Kind

	// Error is an error with a kind, a status and a user-facing message.
	Error = internal.Error

	// PanicError wraps a recovered panic.
	PanicError = internal.PanicError

	// ErrorOption configures an Error.
	ErrorOption = internal.ErrorOption

	// ErrorHandler turns an error into a response.
	ErrorHandler = internal.ErrorHandler

	// Response builds an HTTP response returned from an action.
	Response = internal.Response

	// ResponseWriter wraps http.ResponseWriter for the dispatch engine.
	ResponseWriter = internal.ResponseWriter

	// Extension receives the contributions of root modules.
	Extension = internal.Extension

	// Contribution is one module's value passed to an extension.
	Contribution = internal.Contribution

	// WSRoutes declares a module's websocket endpoint.
	WSRoutes = internal.WSRoutes

	// WSConn is an open websocket connection.
	WSConn = internal.WSConn

	// WSMessage is a websocket event.
	WSMessage = internal.WSMessage

	// Extractor reads a value from the first source that has one.
	Extractor = internal.Extractor

	// ExtractorSource reads one candidate value from a request.
	ExtractorSource = internal.ExtractorSource

	// Metrics records request metrics.
	Metrics = internal.Metrics

	// Dispatcher routes requests to applications by host.
	Dispatcher = internal.Dispatcher

	// Option configures an application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// OpsOption configures the ops router.
	OpsOption = internal.OpsOption

	// ContextExtractor extracts a slog attribute from context.
	ContextExtractor = logger.ContextExtractor

	// Scalar is a type parameters can be parsed into.
	Scalar = internal.Scalar
)

// Capabilities a module may implement.
type (
	Initializer          = internal.Initializer
	ServiceProvider      = internal.ServiceProvider
	MiddlewareProvider   = internal.MiddlewareProvider
	ContextProvider      = internal.ContextProvider
	RouteProvider        = internal.RouteProvider
	ErrorHandlerProvider = internal.ErrorHandlerProvider
	WSProvider           = internal.WSProvider
	WSMiddlewareProvider = internal.WSMiddlewareProvider
	Extender             = internal.Extender
	ExtensionContributor = internal.ExtensionContributor
	HealthReporter       = internal.HealthReporter
	Shutdowner           = internal.Shutdowner
)

// ArchModular composes the registered subdirectories of an application too.
const ArchModular = internal.ArchModular

// Built-in kinds.
const (
	KindInternal     = internal.KindInternal
	KindConfig       = internal.KindConfig
	KindNoRoute      = internal.KindNoRoute
	KindNoResponse   = internal.KindNoResponse
	KindBadRequest   = internal.KindBadRequest
	KindUnauthorized = internal.KindUnauthorized
	KindForbidden    = internal.KindForbidden
	KindNotFound     = internal.KindNotFound
	KindValidation   = internal.KindValidation
	KindConflict     = internal.KindConflict
	KindPanic        = internal.KindPanic
	KindAborted      = internal.KindAborted
)

// Names of the services and context fields every application provides.
const (
	ServiceAppName = internal.ServiceAppName
	ServiceBuild   = internal.ServiceBuild
	ServiceConfig  = internal.ServiceConfig
	ServiceLog     = internal.ServiceLog

	FieldAppName  = internal.FieldAppName
	FieldBuild    = internal.FieldBuild
	FieldHost     = internal.FieldHost
	FieldPath     = internal.FieldPath
	FieldMethod   = internal.FieldMethod
	FieldParams   = internal.FieldParams
	FieldRoute    = internal.FieldRoute
	FieldRequest  = internal.FieldRequest
	FieldResponse = internal.FieldResponse
)

// Errors
var (
	ErrModuleNotFound    = internal.ErrModuleNotFound
	ErrNilModule         = internal.ErrNilModule
	ErrEmptyModuleName   = internal.ErrEmptyModuleName
	ErrEmptyAppName      = internal.ErrEmptyAppName
	ErrNoApplications    = internal.ErrNoApplications
	ErrDuplicateApp      = internal.ErrDuplicateApp
	ErrScanLocalModules  = internal.ErrScanLocalModules
	ErrInitFailed        = internal.ErrInitFailed
	ErrServicesFailed    = internal.ErrServicesFailed
	ErrRoutesFailed      = internal.ErrRoutesFailed
	ErrExtensionFailed   = internal.ErrExtensionFailed
	ErrServicesFrozen    = internal.ErrServicesFrozen
	ErrDuplicateWSModule = internal.ErrDuplicateWSModule
	ErrServiceNotFound   = internal.ErrServiceNotFound
	ErrServiceType       = internal.ErrServiceType
	ErrAborted           = internal.ErrAborted
	ErrFieldNotFound     = internal.ErrFieldNotFound
	ErrFieldType         = internal.ErrFieldType
)

// Modules

// Define builds a Module from a Definition.
//
// Example:
//
//	var Catalog = mosaic.Define(mosaic.Definition{
//	    Name: "catalog",
//	    RoutesFunc: func(mosaic.ModuleConfig, *mosaic.Services) (mosaic.Routes, error) {
//	        return mosaic.Routes{"/products/[id]": {mosaic.GET(showProduct)}}, nil
//	    },
//	})
func Define(d Definition) Module {
	return internal.Define(d)
}

// NewRegistry creates a registry holding the given modules.
func NewRegistry(modules ...Module) (*Registry, error) {
	return internal.NewRegistry(modules...)
}

// NewScopeStore creates an empty scope store.
func NewScopeStore() *ScopeStore {
	return internal.NewScopeStore()
}

// Resolve computes the composition list of the given root modules.
func Resolve(reg *Registry, roots []string, parent ModuleConfig, scan Scanner) (CompositionList, error) {
	return internal.Resolve(reg, roots, parent, scan)
}

// Applications

// NewApp composes an application from its modules.
//
// Example:
//
//	shop, err := mosaic.NewApp(ctx, "shop",
//	    mosaic.WithRegistry(reg),
//	    mosaic.WithHosts("shop.example.com"),
//	    mosaic.WithModules("requestid", "catalog"),
//	)
func NewApp(ctx context.Context, name string, opts ...Option) (*App, error) {
	return internal.NewApp(ctx, name, opts...)
}

// Run serves the applications and blocks until shutdown.
//
// Example:
//
//	err := mosaic.Run(
//	    mosaic.Apps(shop, admin),
//	    mosaic.Address(":8080"),
//	    mosaic.Ops(":9090"),
//	)
func Run(opts ...RunOption) error {
	return internal.Run(opts...)
}

// NewDispatcher maps every host of every application.
func NewDispatcher(apps []*App, fallback *App, log *slog.Logger, m *Metrics) (*Dispatcher, error) {
	return internal.NewDispatcher(apps, fallback, log, m)
}

// NewMetrics registers request metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return internal.NewMetrics(reg)
}

// NewOpsRouter builds the health, metrics and route listing router.
func NewOpsRouter(apps []*App, log *slog.Logger, opts ...OpsOption) http.Handler {
	return internal.NewOpsRouter(apps, log, opts...)
}

// App options

func WithHosts(hosts ...string) Option          { return internal.WithHosts(hosts...) }
func WithModules(names ...string) Option        { return internal.WithModules(names...) }
func WithRegistry(r *Registry) Option           { return internal.WithRegistry(r) }
func WithAppPath(path string) Option            { return internal.WithAppPath(path) }
func WithArch(arch string) Option               { return internal.WithArch(arch) }
func WithScanner(s Scanner) Option              { return internal.WithScanner(s) }
func WithScopeStore(s *ScopeStore) Option       { return internal.WithScopeStore(s) }
func WithBuild(id string) Option                { return internal.WithBuild(id) }
func WithSettings(settings any) Option          { return internal.WithSettings(settings) }
func WithService(name string, value any) Option { return internal.WithService(name, value) }
func WithCustomLogger(l *slog.Logger) Option    { return internal.WithCustomLogger(l) }
func WithNotFoundPath(path string) Option       { return internal.WithNotFoundPath(path) }
func WithMetrics(m *Metrics) Option             { return internal.WithMetrics(m) }
func WithTracerProvider(tp trace.TracerProvider) Option {
	return internal.WithTracerProvider(tp)
}

// WithLogger creates a logger tagged with component, with optional context
// extractors.
func WithLogger(component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, extractors...)
}

// WithWSCheckOrigin sets the websocket origin check.
func WithWSCheckOrigin(fn func(origin, host string) bool) Option {
	return internal.WithWSCheckOrigin(fn)
}

// Run options

func Address(addr string) RunOption             { return internal.Address(addr) }
func Logger(l *slog.Logger) RunOption           { return internal.Logger(l) }
func ShutdownTimeout(d time.Duration) RunOption { return internal.ShutdownTimeout(d) }
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}
func Apps(apps ...*App) RunOption                  { return internal.Apps(apps...) }
func Fallback(app *App) RunOption                  { return internal.Fallback(app) }
func ServerMetrics(m *Metrics) RunOption           { return internal.ServerMetrics(m) }
func Ops(addr string, opts ...OpsOption) RunOption { return internal.Ops(addr, opts...) }
func WithContext(ctx context.Context) RunOption    { return internal.WithContext(ctx) }

// Ops options

func WithLivenessPath(path string) OpsOption  { return internal.WithLivenessPath(path) }
func WithReadinessPath(path string) OpsOption { return internal.WithReadinessPath(path) }
func WithGatherer(g prometheus.Gatherer) OpsOption {
	return internal.WithGatherer(g)
}

// WithReadinessCheck adds a readiness check next to the module ones.
func WithReadinessCheck(name string, fn health.CheckFunc) OpsOption {
	return internal.WithReadinessCheck(name, fn)
}

// Actions

// Chain runs actions in order until one returns a result or an error.
func Chain(actions ...Action) Action { return internal.Chain(actions...) }

// Methods restricts an action to the given HTTP methods.
func Methods(a Action, methods ...string) Action { return internal.Methods(a, methods...) }

func GET(a Action) Action    { return internal.GET(a) }
func POST(a Action) Action   { return internal.POST(a) }
func PUT(a Action) Action    { return internal.PUT(a) }
func PATCH(a Action) Action  { return internal.PATCH(a) }
func DELETE(a Action) Action { return internal.DELETE(a) }

// Handler adapts an http.Handler to an Action.
func Handler(h http.Handler) Action { return internal.Handler(h) }

// NewResponse creates an empty 200 response.
func NewResponse() *Response { return internal.NewResponse() }

// Generic helpers

// Field resolves a context field as a T.
func Field[T any](c *Context, name string) (T, error) {
	return internal.Field[T](c, name)
}

// FieldOr resolves a context field as a T, or returns fallback.
func FieldOr[T any](c *Context, name string, fallback T) (T, error) {
	return internal.FieldOr(c, name, fallback)
}

// Service returns the named service as a T.
func Service[T any](s *Services, name string) (T, error) {
	return internal.Service[T](s, name)
}

// ScopeFrom returns the scope value under key, creating it with fn once.
func ScopeFrom[T any](s *Scope, key string, fn func() T) T {
	return internal.ScopeFrom(s, key, fn)
}

// Param parses a route parameter.
func Param[T Scalar](c *Context, name string) (T, error) {
	return internal.Param[T](c, name)
}

// Query parses a query parameter.
func Query[T Scalar](c *Context, name string) (T, error) {
	return internal.Query[T](c, name)
}

// QueryDefault parses a query parameter, or returns defaultValue.
func QueryDefault[T Scalar](c *Context, name string, defaultValue T) T {
	return internal.QueryDefault(c, name, defaultValue)
}

// Extractors

func NewExtractor(sources ...ExtractorSource) Extractor { return internal.NewExtractor(sources...) }
func FromHeader(name string) ExtractorSource            { return internal.FromHeader(name) }
func FromQuery(name string) ExtractorSource             { return internal.FromQuery(name) }
func FromCookie(name string) ExtractorSource            { return internal.FromCookie(name) }
func FromParam(name string) ExtractorSource             { return internal.FromParam(name) }
func FromField(name string) ExtractorSource             { return internal.FromField(name) }
func FromBearerToken() ExtractorSource                  { return internal.FromBearerToken() }

// Errors

// NewKind registers a custom error kind, or returns the existing one.
func NewKind(name string) Kind { return internal.NewKind(name) }

// KindByName looks a kind up by name.
func KindByName(name string) (Kind, bool) { return internal.KindByName(name) }

// KindOf returns the kind of err, KindInternal when it carries none.
func KindOf(err error) Kind { return internal.KindOf(err) }

// AsError returns the *Error in the chain of err, or nil.
func AsError(err error) *Error { return internal.AsError(err) }

// NewError creates an error of the given kind.
func NewError(kind Kind, message string, opts ...ErrorOption) *Error {
	return internal.NewError(kind, message, opts...)
}

func WithCause(err error) ErrorOption { return internal.WithCause(err) }
func WithStatus(code int) ErrorOption { return internal.WithStatus(code) }

func ErrBadRequest(message string, opts ...ErrorOption) *Error {
	return internal.ErrBadRequest(message, opts...)
}

func ErrUnauthorized(message string, opts ...ErrorOption) *Error {
	return internal.ErrUnauthorized(message, opts...)
}

func ErrForbidden(message string, opts ...ErrorOption) *Error {
	return internal.ErrForbidden(message, opts...)
}

func ErrNotFound(message string, opts ...ErrorOption) *Error {
	return internal.ErrNotFound(message, opts...)
}

func ErrValidation(message string, opts ...ErrorOption) *Error {
	return internal.ErrValidation(message, opts...)
}

func ErrConflict(message string, opts ...ErrorOption) *Error {
	return internal.ErrConflict(message, opts...)
}

func ErrInternal(message string, opts ...ErrorOption) *Error {
	return internal.ErrInternal(message, opts...)
}
