package internal

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/mosaic/pkg/routetable"
)

// ServeHTTP dispatches a request to the application.
//
// The request is routed, its middlewares run, then the route handler. The
// first non-nil result is written. Errors go through the error handlers
// registered for their kind, then the not-found route, then a bare
// 404 or 500 response.
func (a *App) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, span := a.tracer.Start(r.Context(), "mosaic.dispatch",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("mosaic.app", a.name),
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
		),
	)
	defer span.End()
	r = r.WithContext(ctx)

	w := NewResponseWriter(rw)

	if ep, ok := a.ws[r.URL.Path]; ok && websocket.IsWebSocketUpgrade(r) {
		a.serveWS(w, r, ep)
		return
	}

	m, found := a.routes.Lookup(r.URL.Path)
	c := newContext(w, r, a, m)

	if err := a.run(c, found); err != nil {
		kind := KindOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, kind.String())
		a.metrics.errorSeen(a.name, kind)
		a.fail(c, err)
	}

	route := c.Route()
	span.SetAttributes(
		attribute.String("mosaic.route", route),
		attribute.Int("http.status_code", w.Status()),
	)
	a.metrics.observe(a.name, route, w.Status(), time.Since(start))
}

// run executes the middleware chain and the route handler.
func (a *App) run(c *Context, found bool) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()

	if !found {
		return errNoRoute(c.Path())
	}

	if a.middleware != nil {
		res, err := a.middleware(c)
		if err != nil {
			return err
		}
		if res != nil {
			return a.respond(c, res, 0)
		}
	}

	if c.Aborted() {
		return ErrAborted
	}

	res, err := c.match.Route.Action(c)
	if err != nil {
		return err
	}
	if res == nil {
		if c.Written() {
			return nil
		}
		if c.Aborted() {
			return ErrAborted
		}
		return errNoResponse(c.Path())
	}
	return a.respond(c, res, 0)
}

// fail turns a request error into a response.
func (a *App) fail(c *Context, err error) {
	kind := KindOf(err)
	if kind == KindAborted || c.Aborted() {
		c.LogDebug("request aborted", slog.String("path", c.Path()), slog.Any("error", err))
		return
	}

	attrs := []any{
		slog.String("kind", kind.String()),
		slog.String("path", c.Path()),
		slog.Any("error", err),
	}
	var perr *PanicError
	if errors.As(err, &perr) {
		attrs = append(attrs, slog.String("stack", string(perr.Stack)))
	}
	c.LogError("request failed", attrs...)

	if c.Written() {
		return
	}

	for _, h := range a.errors.Handlers(kind) {
		res, herr := a.callErrorHandler(h, c, err)
		if herr != nil {
			c.LogError("error handler failed", slog.String("kind", kind.String()), slog.Any("error", herr))
			continue
		}
		if res != nil {
			if werr := a.respond(c, res, 0); werr == nil {
				return
			}
		}
		if c.Written() || c.Aborted() {
			return
		}
	}

	if a.notFound(c) {
		return
	}

	status := http.StatusInternalServerError
	if kind == KindNoRoute {
		status = http.StatusNotFound
	}
	if c.writer.claim() {
		http.Error(c.writer, http.StatusText(status), status)
	}
}

// notFound renders the application's not-found route, if it has one.
func (a *App) notFound(c *Context) bool {
	if a.notFoundPath == "" || c.Path() == a.notFoundPath {
		return false
	}
	m, ok := a.routes.Lookup(a.notFoundPath)
	if !ok || m.Route.IsWildcard() || len(m.Values) > 0 {
		return false
	}

	res, err := a.callAction(m.Route.Action, c)
	if err != nil {
		c.LogError("not-found route failed", slog.Any("error", err))
		return false
	}
	if res == nil {
		return false
	}
	return a.respond(c, res, http.StatusNotFound) == nil
}

func (a *App) callErrorHandler(h ErrorHandler, c *Context, cause error) (res any, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return h(c, cause)
}

func (a *App) callAction(action Action, c *Context) (res any, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return action(c)
}

// emptyMatch is used by contexts that are not bound to a route.
var emptyMatch routetable.Match[Action]
