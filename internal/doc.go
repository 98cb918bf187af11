// Package internal provides the core types and implementation for the Mosaic server.
//
// This package is internal and should not be used directly. Import "github.com/dmitrymomot/mosaic"
// instead, which re-exports the public API.
//
// # Composition
//
// An App is composed from modules registered in a Registry. Resolve walks the
// root module names of an application, expands sub-modules depth first and
// derives a ModuleConfig for every entry. A module is composed once per
// (namespace, name, path); repeated or cyclic references are skipped.
//
// The resulting CompositionList is read in two orders:
//
//   - RootFirst: initialization, services and extensions
//   - LeafFirstUnique: middlewares, context contributors, error handlers,
//     health checks, websocket endpoints and shutdown
//
// Routes are registered leaf first, so a parent module overrides the routes
// of its children.
//
// # Dispatch
//
// App.ServeHTTP looks the path up in the route table, runs the middleware
// chain and the route actions. An Action returns a result or an error:
//
//	func show(c *mosaic.Context) (any, error) {
//	    id, err := mosaic.Param[int64](c, "id")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return c.JSON(http.StatusOK, map[string]int64{"id": id}), nil
//	}
//
// The first action returning a non-nil result or an error ends the chain.
// A nil result from the last action is a NoResponseError.
//
// Errors carry a Kind. The handlers registered for that kind run leaf first
// until one produces a response; then the not-found route is tried, and
// finally a bare status is written.
//
// # Context fields
//
// Context resolves fields lazily. Request fields come first, then services,
// then the contributors of the composed modules, each run at most once per
// request and only when a field is still missing:
//
//	user, err := mosaic.Field[*User](c, "user")
//
// # Scopes
//
// A ScopeStore holds long-lived state keyed by namespace and scope name.
// Modules sharing a scope name share a Scope within one store.
package internal
