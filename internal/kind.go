package internal

import (
	"net/http"
	"sync"
)

// Kind tags every error that reaches the dispatch boundary.
// The error-handler registry is keyed by Kind, so modules register handlers
// for a tag rather than for a Go type.
type Kind uint16

// Built-in kinds.
const (
	KindInternal Kind = iota
	KindConfig
	KindNoRoute
	KindNoResponse
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindValidation
	KindConflict
	KindPanic
	KindAborted

	firstCustomKind
)

var kinds = struct {
	mu     sync.RWMutex
	names  []string
	byName map[string]Kind
}{
	names: []string{
		KindInternal:     "InternalError",
		KindConfig:       "ConfigError",
		KindNoRoute:      "NoRouteError",
		KindNoResponse:   "NoResponseError",
		KindBadRequest:   "BadRequestError",
		KindUnauthorized: "UnauthorizedError",
		KindForbidden:    "ForbiddenError",
		KindNotFound:     "NotFoundError",
		KindValidation:   "ValidationError",
		KindConflict:     "ConflictError",
		KindPanic:        "PanicError",
		KindAborted:      "AbortedError",
	},
}

func init() {
	kinds.byName = make(map[string]Kind, len(kinds.names))
	for i, n := range kinds.names {
		kinds.byName[n] = Kind(i)
	}
}

// NewKind registers a module-defined error kind.
// Registering an existing name returns the kind already bound to it,
// so modules can declare their kinds in package-level vars.
//
// Example:
//
//	var KindPayment = mosaic.NewKind("PaymentError")
func NewKind(name string) Kind {
	kinds.mu.Lock()
	defer kinds.mu.Unlock()

	if k, ok := kinds.byName[name]; ok {
		return k
	}
	k := Kind(len(kinds.names))
	kinds.names = append(kinds.names, name)
	kinds.byName[name] = k
	return k
}

// KindByName returns the kind registered under name.
func KindByName(name string) (Kind, bool) {
	kinds.mu.RLock()
	defer kinds.mu.RUnlock()
	k, ok := kinds.byName[name]
	return k, ok
}

// String returns the registered name of the kind.
func (k Kind) String() string {
	kinds.mu.RLock()
	defer kinds.mu.RUnlock()
	if int(k) < len(kinds.names) {
		return kinds.names[k]
	}
	return "UnknownError"
}

// Builtin reports whether the kind is one of the predefined kinds.
func (k Kind) Builtin() bool {
	return k < firstCustomKind
}

// Status returns the HTTP status conventionally associated with the kind,
// for error handlers; the fallback response does not use it.
func (k Kind) Status() int {
	switch k {
	case KindNoRoute, KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
