package internal_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mosaic/internal"
)

// newApp composes an application named "shop" from mods with roots as root modules.
func newApp(t *testing.T, roots []string, mods []internal.Module, opts ...internal.Option) *internal.App {
	t.Helper()
	base := []internal.Option{
		internal.WithRegistry(newRegistry(t, mods...)),
		internal.WithModules(roots...),
		internal.WithBuild("test-build"),
		internal.WithHosts("shop.test"),
	}
	app, err := internal.NewApp(context.Background(), "shop", append(base, opts...)...)
	require.NoError(t, err)
	return app
}

func routes(r internal.Routes) func(internal.ModuleConfig, *internal.Services) (internal.Routes, error) {
	return func(internal.ModuleConfig, *internal.Services) (internal.Routes, error) {
		return r, nil
	}
}

func text(s string) internal.Action {
	return func(*internal.Context) (any, error) { return s, nil }
}

func fail(err error) internal.Action {
	return func(*internal.Context) (any, error) { return nil, err }
}

func do(t *testing.T, h http.Handler, method, target string) (int, string, http.Header) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Host = "shop.test"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body), rec.Header()
}

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

func newRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Host = "shop.test"
	return req
}

func serve(h http.Handler, req *http.Request) (int, string) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code, rec.Body.String()
}
