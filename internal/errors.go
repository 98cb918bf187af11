package internal

import (
	"errors"
	"fmt"
	"net/http"
)

// Configuration errors. They abort application composition and are never
// turned into responses.
var (
	ErrModuleNotFound    = errors.New("mosaic: missing module")
	ErrNilModule         = errors.New("mosaic: nil module")
	ErrEmptyModuleName   = errors.New("mosaic: module without name")
	ErrEmptyAppName      = errors.New("mosaic: empty application name")
	ErrNoApplications    = errors.New("mosaic: no applications configured")
	ErrDuplicateApp      = errors.New("mosaic: application registered twice")
	ErrScanLocalModules  = errors.New("mosaic: failed to scan local modules")
	ErrInitFailed        = errors.New("mosaic: module init failed")
	ErrServicesFailed    = errors.New("mosaic: module services failed")
	ErrRoutesFailed      = errors.New("mosaic: module routes failed")
	ErrExtensionFailed   = errors.New("mosaic: module extension failed")
	ErrServicesFrozen    = errors.New("mosaic: services are read-only after composition")
	ErrDuplicateWSModule = errors.New("mosaic: websocket endpoint registered twice")
	ErrServiceNotFound   = errors.New("mosaic: service not found")
	ErrServiceType       = errors.New("mosaic: service has unexpected type")
)

// Request errors.
var (
	// ErrAborted is returned when the peer went away; nothing more is written.
	ErrAborted = &Error{kind: KindAborted, Message: "request aborted"}

	// ErrFieldNotFound is returned by Context.Field when no layer provides a field.
	ErrFieldNotFound = errors.New("mosaic: context field not found")

	// ErrFieldType is returned by Field when the value has another type.
	ErrFieldType = errors.New("mosaic: context field has unexpected type")
)

// Error is the error value carried through the dispatch engine.
// It implements the error interface and carries the Kind used to pick
// handlers from the error registry.
type Error struct {
	// Err is the underlying error (for logging, not exposed to users).
	Err error

	// Message is the user-facing error message.
	Message string

	// Code overrides the HTTP status derived from the kind.
	Code int

	kind Kind
}

// Kinded is implemented by any error that carries a Kind.
// Module-defined error types implement it to take part in the error cascade.
type Kinded interface {
	error
	Kind() Kind
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind returns the error kind.
func (e *Error) Kind() Kind {
	return e.kind
}

// StatusCode returns Code, or the status conventionally tied to the kind.
// The engine never reads it: without an error handler the response is a
// bare 500, or 404 for an unmatched route. Error handlers use it to pick
// their status:
//
//	func(c *mosaic.Context, err error) (any, error) {
//	    e := mosaic.AsError(err)
//	    return c.JSON(e.StatusCode(), map[string]string{"error": e.Message}), nil
//	}
func (e *Error) StatusCode() int {
	if e.Code != 0 {
		return e.Code
	}
	return e.kind.Status()
}

func (e *Error) StatusText() string {
	return http.StatusText(e.StatusCode())
}

// ErrorOption configures an Error.
type ErrorOption func(*Error)

// WithCause attaches the underlying error.
func WithCause(err error) ErrorOption {
	return func(e *Error) {
		e.Err = err
	}
}

// WithStatus overrides the status reported by StatusCode.
func WithStatus(code int) ErrorOption {
	return func(e *Error) {
		e.Code = code
	}
}

// NewError creates an error of the given kind.
func NewError(kind Kind, message string, opts ...ErrorOption) *Error {
	e := &Error{kind: kind, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Convenience constructors for common kinds.

func ErrBadRequest(message string, opts ...ErrorOption) *Error {
	return NewError(KindBadRequest, message, opts...)
}

func ErrUnauthorized(message string, opts ...ErrorOption) *Error {
	return NewError(KindUnauthorized, message, opts...)
}

func ErrForbidden(message string, opts ...ErrorOption) *Error {
	return NewError(KindForbidden, message, opts...)
}

func ErrNotFound(message string, opts ...ErrorOption) *Error {
	return NewError(KindNotFound, message, opts...)
}

func ErrValidation(message string, opts ...ErrorOption) *Error {
	return NewError(KindValidation, message, opts...)
}

func ErrConflict(message string, opts ...ErrorOption) *Error {
	return NewError(KindConflict, message, opts...)
}

func ErrInternal(message string, opts ...ErrorOption) *Error {
	return NewError(KindInternal, message, opts...)
}

func errNoRoute(path string) *Error {
	return NewError(KindNoRoute, "no action for "+path)
}

func errNoResponse(path string) *Error {
	return NewError(KindNoResponse, "no response from action for "+path)
}

// PanicError wraps a value recovered from a panicking middleware or handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Kind() Kind {
	return KindPanic
}

// KindOf returns the kind carried by err or by any error it wraps.
// Errors without a kind are KindInternal.
func KindOf(err error) Kind {
	var k Kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}

// AsError extracts the *Error from err if present.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// ErrorHandler converts a request error into a response.
// Returning a nil result passes the error on to the next handler in the cascade.
type ErrorHandler func(c *Context, err error) (any, error)

// ErrorRegistry maps error kinds to handlers in leaf-first module order.
type ErrorRegistry map[Kind][]ErrorHandler

// Add appends a handler for kind.
func (r ErrorRegistry) Add(kind Kind, h ErrorHandler) {
	if h == nil {
		return
	}
	r[kind] = append(r[kind], h)
}

// Handlers returns the handlers registered for kind.
func (r ErrorRegistry) Handlers(kind Kind) []ErrorHandler {
	return r[kind]
}
