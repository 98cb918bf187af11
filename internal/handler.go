package internal

import "net/http"

// Methods restricts an action to the given HTTP methods. For other methods
// it returns a nil result, so the next handler of the route runs.
//
// Example:
//
//	mosaic.Routes{
//	    "/users/[id]": {mosaic.GET(showUser), mosaic.DELETE(deleteUser)},
//	}
func Methods(action Action, methods ...string) Action {
	allowed := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		allowed[m] = struct{}{}
	}
	return func(c *Context) (any, error) {
		if _, ok := allowed[c.Method()]; !ok {
			return nil, nil
		}
		return action(c)
	}
}

func GET(a Action) Action    { return Methods(a, http.MethodGet, http.MethodHead) }
func POST(a Action) Action   { return Methods(a, http.MethodPost) }
func PUT(a Action) Action    { return Methods(a, http.MethodPut) }
func PATCH(a Action) Action  { return Methods(a, http.MethodPatch) }
func DELETE(a Action) Action { return Methods(a, http.MethodDelete) }

// Handler adapts an http.Handler into an action. The handler writes the
// response itself.
func Handler(h http.Handler) Action {
	return func(c *Context) (any, error) {
		h.ServeHTTP(c.Response(), c.Request())
		return nil, nil
	}
}
