package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/mosaic/pkg/hostrouter"
	"github.com/dmitrymomot/mosaic/pkg/routetable"
)

// Request fields every context resolves without a contributor.
const (
	FieldAppName  = "appName"
	FieldBuild    = "build"
	FieldHost     = "host"
	FieldPath     = "path"
	FieldMethod   = "method"
	FieldParams   = "params"
	FieldRoute    = "route"
	FieldRequest  = "req"
	FieldResponse = "res"
)

// Context is the per-request state passed to middlewares, handlers and
// error handlers. It implements context.Context.
// A Context belongs to the goroutine serving its request.
type Context struct {
	request  *http.Request
	writer   *ResponseWriter
	app      *App
	match    routetable.Match[Action]
	params   map[string]string
	resolver *Resolver
	logger   *slog.Logger
	aborted  bool
	ws       *WSConn
	msg      *WSMessage
}

func newContext(w *ResponseWriter, r *http.Request, app *App, m routetable.Match[Action]) *Context {
	c := &Context{
		request: r,
		writer:  w,
		app:     app,
		match:   m,
		logger:  app.logger,
	}
	c.resolver = newResolver(c, app.services, app.contributors)
	return c
}

func (c *Context) Request() *http.Request {
	return c.request
}

// Response returns the response writer. Writing to it directly takes the
// place of returning a result.
func (c *Context) Response() http.ResponseWriter {
	return c.writer
}

func (c *Context) ResponseWriter() *ResponseWriter {
	return c.writer
}

func (c *Context) Deadline() (time.Time, bool) {
	return c.request.Context().Deadline()
}

func (c *Context) Done() <-chan struct{} {
	return c.request.Context().Done()
}

func (c *Context) Err() error {
	return c.request.Context().Err()
}

func (c *Context) Value(key any) any {
	return c.request.Context().Value(key)
}

// Set stores a context.Context value visible to code receiving c as a context.
func (c *Context) Set(key, value any) {
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
}

func (c *Context) Get(key any) any {
	return c.request.Context().Value(key)
}

func (c *Context) AppName() string {
	return c.app.name
}

func (c *Context) Build() string {
	return c.app.build
}

func (c *Context) Host() string {
	return c.request.Host
}

// Domain returns the host without port.
func (c *Context) Domain() string {
	return hostrouter.GetDomain(c.request)
}

// Subdomain returns the part of the host before base, or "" when the host
// is base itself or outside it. Useful with wildcard hosts such as
// "*.shop.example.com".
func (c *Context) Subdomain(base string) string {
	return hostrouter.GetSubdomain(c.request, base)
}

func (c *Context) Method() string {
	return c.request.Method
}

func (c *Context) Path() string {
	return c.request.URL.Path
}

// Route returns the definition of the matched route, or "" when none matched.
func (c *Context) Route() string {
	if c.match.Route == nil {
		return ""
	}
	return c.match.Route.Definition
}

func (c *Context) Param(name string) string {
	return c.match.Param(name)
}

func (c *Context) Params() map[string]string {
	if c.params == nil {
		c.params = c.match.Params()
	}
	return c.params
}

func (c *Context) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *Context) QueryDefault(name, defaultValue string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	return defaultValue
}

func (c *Context) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *Context) SetHeader(name, value string) {
	c.writer.Header().Set(name, value)
}

// Services returns the application services.
func (c *Context) Services() *Services {
	return c.app.services
}

// Lookup resolves a context field.
// Fields come from the request, the application services, or the
// context contributors of the composed modules, which run on first demand.
func (c *Context) Lookup(name string) (any, bool, error) {
	return c.resolver.Resolve(name)
}

// Field resolves a context field and fails when no layer provides it.
func (c *Context) Field(name string) (any, error) {
	v, ok, err := c.resolver.Resolve(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, name)
	}
	return v, nil
}

// Put stores a context field for the rest of the request.
func (c *Context) Put(name string, value any) {
	c.resolver.put(name, value)
}

func (c *Context) requestField(name string) (any, bool) {
	switch name {
	case FieldAppName:
		return c.app.name, true
	case FieldBuild:
		return c.app.build, true
	case FieldHost:
		return c.request.Host, true
	case FieldPath:
		return c.request.URL.Path, true
	case FieldMethod:
		return c.request.Method, true
	case FieldParams:
		return c.Params(), true
	case FieldRoute:
		return c.Route(), true
	case FieldRequest:
		return c.request, true
	case FieldResponse:
		return c.writer, true
	}
	return nil, false
}

// Abort marks the request as abandoned. Nothing more is written and
// remaining chain steps are skipped.
func (c *Context) Abort() {
	c.aborted = true
}

// Aborted reports whether the request was abandoned by the peer, by a
// failed write, or by Abort.
func (c *Context) Aborted() bool {
	return c.aborted || c.writer.Failed() || c.request.Context().Err() != nil
}

func (c *Context) Written() bool {
	return c.writer.Written()
}

func (c *Context) Logger() *slog.Logger {
	return c.logger
}

func (c *Context) LogDebug(msg string, attrs ...any) {
	c.logger.DebugContext(c, msg, attrs...)
}

func (c *Context) LogInfo(msg string, attrs ...any) {
	c.logger.InfoContext(c, msg, attrs...)
}

func (c *Context) LogWarn(msg string, attrs ...any) {
	c.logger.WarnContext(c, msg, attrs...)
}

func (c *Context) LogError(msg string, attrs ...any) {
	c.logger.ErrorContext(c, msg, attrs...)
}

// JSON returns a JSON response.
func (c *Context) JSON(code int, v any) *Response {
	return NewResponse().Status(code).JSON(v)
}

// String returns a plain text response.
func (c *Context) String(code int, s string) *Response {
	return NewResponse().Status(code).Text(s)
}

// NoContent returns an empty response.
func (c *Context) NoContent(code int) *Response {
	return NewResponse().Status(code)
}

// Redirect returns a redirect response.
func (c *Context) Redirect(code int, url string) *Response {
	return NewResponse().Redirect(code, url)
}

// Field resolves a context field as a T.
//
// Example:
//
//	user, err := mosaic.Field[*User](c, "user")
func Field[T any](c *Context, name string) (T, error) {
	var zero T
	v, err := c.Field(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: field %q is %T", ErrFieldType, name, v)
	}
	return t, nil
}

// FieldOr resolves a context field as a T, returning fallback when the field
// is absent or has another type. Contributor errors are returned.
func FieldOr[T any](c *Context, name string, fallback T) (T, error) {
	v, err := Field[T](c, name)
	if errors.Is(err, ErrFieldNotFound) || errors.Is(err, ErrFieldType) {
		return fallback, nil
	}
	return v, err
}
