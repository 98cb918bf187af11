package internal_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mosaic/internal"
)

type user struct{ Name string }

func TestContext_LazyFields(t *testing.T) {
	t.Parallel()

	var sessionCalls, userCalls atomic.Int32

	mods := []internal.Module{
		internal.Define(internal.Definition{
			Name:       "site",
			SubModules: []string{"session", "auth"},
			RoutesFunc: routes(internal.Routes{
				"/static": {text("no fields needed")},
				"/me": {func(c *internal.Context) (any, error) {
					u, err := internal.Field[*user](c, "user")
					if err != nil {
						return nil, err
					}
					again, err := internal.Field[*user](c, "user")
					if err != nil {
						return nil, err
					}
					require.Same(t, u, again)
					return u.Name, nil
				}},
				"/session": {func(c *internal.Context) (any, error) {
					v, err := c.Field("sessionID")
					if err != nil {
						return nil, err
					}
					return v, nil
				}},
				"/builtin": {func(c *internal.Context) (any, error) {
					app, err := internal.Field[string](c, internal.FieldAppName)
					if err != nil {
						return nil, err
					}
					greeting, err := internal.Field[string](c, "greeting")
					if err != nil {
						return nil, err
					}
					return app + ":" + greeting, nil
				}},
				"/missing": {func(c *internal.Context) (any, error) {
					_, err := c.Field("nope")
					require.ErrorIs(t, err, internal.ErrFieldNotFound)
					v, err := internal.FieldOr(c, "nope", "fallback")
					require.NoError(t, err)
					return v, nil
				}},
			}),
			ServicesFunc: func(_ context.Context, _ internal.ModuleConfig, _ *internal.Services) (map[string]any, error) {
				return map[string]any{"greeting": "hi"}, nil
			},
		}),
		internal.Define(internal.Definition{
			Name: "session",
			ContextFunc: func(c *internal.Context, _ *internal.Scope) (map[string]any, error) {
				sessionCalls.Add(1)
				return map[string]any{"sessionID": "s-1"}, nil
			},
		}),
		internal.Define(internal.Definition{
			Name: "auth",
			ContextFunc: func(c *internal.Context, _ *internal.Scope) (map[string]any, error) {
				userCalls.Add(1)
				sid, err := c.Field("sessionID")
				if err != nil {
					return nil, err
				}
				return map[string]any{"user": &user{Name: "ann/" + sid.(string)}}, nil
			},
		}),
	}
	app := newApp(t, []string{"site"}, mods)

	reset := func() {
		sessionCalls.Store(0)
		userCalls.Store(0)
	}

	t.Run("nothing runs when nothing is asked", func(t *testing.T) {
		reset()
		_, body, _ := do(t, app, http.MethodGet, "/static")
		require.Equal(t, "no fields needed", body)
		require.Zero(t, sessionCalls.Load())
		require.Zero(t, userCalls.Load())
	})

	t.Run("request fields and services skip contributors", func(t *testing.T) {
		reset()
		_, body, _ := do(t, app, http.MethodGet, "/builtin")
		require.Equal(t, "shop:hi", body)
		require.Zero(t, sessionCalls.Load())
		require.Zero(t, userCalls.Load())
	})

	t.Run("contributors run in order until the field appears", func(t *testing.T) {
		reset()
		_, body, _ := do(t, app, http.MethodGet, "/session")
		require.Equal(t, "s-1", body)
		require.Equal(t, int32(1), userCalls.Load(), "auth comes first leaf-first and is tried first")
		require.Equal(t, int32(1), sessionCalls.Load())
	})

	t.Run("each contributor runs at most once", func(t *testing.T) {
		reset()
		_, body, _ := do(t, app, http.MethodGet, "/me")
		require.Equal(t, "ann/s-1", body)
		require.Equal(t, int32(1), userCalls.Load())
		require.Equal(t, int32(1), sessionCalls.Load())
	})

	t.Run("missing field", func(t *testing.T) {
		reset()
		_, body, _ := do(t, app, http.MethodGet, "/missing")
		require.Equal(t, "fallback", body)
		require.Equal(t, int32(1), userCalls.Load())
		require.Equal(t, int32(1), sessionCalls.Load())
	})
}

func TestContext_ContributorError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	app := newApp(t, []string{"site"}, []internal.Module{
		internal.Define(internal.Definition{
			Name:       "site",
			SubModules: []string{"auth"},
			RoutesFunc: routes(internal.Routes{
				"/": {func(c *internal.Context) (any, error) {
					_, err := c.Field("user")
					require.Error(t, err)
					_, ok, err := c.Lookup("user")
					require.NoError(t, err, "the failing contributor is not run again")
					require.False(t, ok)
					return nil, internal.ErrUnauthorized("login required", internal.WithCause(errors.New("stale")))
				}},
			}),
			ErrorHandlersFunc: func(internal.ModuleConfig) map[internal.Kind]internal.ErrorHandler {
				return map[internal.Kind]internal.ErrorHandler{
					internal.KindUnauthorized: func(c *internal.Context, err error) (any, error) {
						return c.String(http.StatusUnauthorized, "please log in"), nil
					},
				}
			},
		}),
		internal.Define(internal.Definition{
			Name: "auth",
			ContextFunc: func(*internal.Context, *internal.Scope) (map[string]any, error) {
				calls.Add(1)
				return nil, internal.ErrUnauthorized("bad token")
			},
		}),
	})

	code, body, _ := do(t, app, http.MethodGet, "/")
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "please log in", body)
	require.Equal(t, int32(1), calls.Load())
}

func TestContext_PutAndValues(t *testing.T) {
	t.Parallel()

	type ctxKey struct{}

	app := newApp(t, []string{"site"}, []internal.Module{
		internal.Define(internal.Definition{
			Name: "site",
			MiddlewaresFunc: func(internal.ModuleConfig) []internal.Action {
				return []internal.Action{func(c *internal.Context) (any, error) {
					c.Put("tenant", "acme")
					c.Set(ctxKey{}, "traced")
					return nil, nil
				}}
			},
			RoutesFunc: routes(internal.Routes{
				"/[section]": {func(c *internal.Context) (any, error) {
					tenant, err := internal.Field[string](c, "tenant")
					if err != nil {
						return nil, err
					}
					return map[string]any{
						"tenant":  tenant,
						"value":   c.Get(ctxKey{}),
						"ctx":     c.Value(ctxKey{}),
						"section": c.Param("section"),
						"host":    c.Host(),
						"build":   c.Build(),
						"method":  c.Method(),
					}, nil
				}},
			}),
		}),
	})

	_, body, _ := do(t, app, http.MethodGet, "/docs")
	require.JSONEq(t, `{
		"tenant": "acme",
		"value": "traced",
		"ctx": "traced",
		"section": "docs",
		"host": "shop.test",
		"build": "test-build",
		"method": "GET"
	}`, body)
}

func TestContext_Subdomain(t *testing.T) {
	t.Parallel()

	app := newApp(t, []string{"site"}, []internal.Module{
		internal.Define(internal.Definition{
			Name: "site",
			RoutesFunc: routes(internal.Routes{
				"/": {func(c *internal.Context) (any, error) {
					return c.Domain() + "|" + c.Subdomain("shop.test"), nil
				}},
			}),
		}),
	})

	tests := []struct {
		host string
		want string
	}{
		{"acme.shop.test", "acme.shop.test|acme"},
		{"ACME.Shop.test:8443", "acme.shop.test|acme"},
		{"shop.test", "shop.test|"},
		{"other.test", "other.test|"},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()
			req := newRequest(http.MethodGet, "/")
			req.Host = tt.host
			code, body := serve(app, req)
			require.Equal(t, http.StatusOK, code)
			require.Equal(t, tt.want, body)
		})
	}
}
