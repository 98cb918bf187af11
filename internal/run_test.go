package internal_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mosaic/internal"
	"github.com/dmitrymomot/mosaic/pkg/health"
)

func hostApp(t *testing.T, name string, hosts ...string) *internal.App {
	t.Helper()
	reg := newRegistry(t, internal.Define(internal.Definition{
		Name:       "site",
		RoutesFunc: routes(internal.Routes{"/": {text(name)}}),
		HealthChecksFunc: func(internal.ModuleConfig, *internal.Services) health.Checks {
			return health.Checks{"site": func(context.Context) error { return nil }}
		},
	}))
	app, err := internal.NewApp(context.Background(), name,
		internal.WithRegistry(reg),
		internal.WithModules("site"),
		internal.WithHosts(hosts...),
	)
	require.NoError(t, err)
	return app
}

func TestDispatcher(t *testing.T) {
	t.Parallel()

	shop := hostApp(t, "shop", "shop.example.com")
	tenants := hostApp(t, "tenants", "*.example.com")

	d, err := internal.NewDispatcher([]*internal.App{shop, tenants}, nil, nil, nil)
	require.NoError(t, err)

	tests := []struct {
		host string
		want string
	}{
		{"shop.example.com", "shop"},
		{"SHOP.example.com:8080", "shop"},
		{"acme.example.com", "tenants"},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host
			rec := httptest.NewRecorder()
			d.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Body.String())
		})
	}

	t.Run("unknown host without hijacking", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "example.org"
		rec := httptest.NewRecorder()
		d.ServeHTTP(rec, req)
		require.Equal(t, http.StatusMisdirectedRequest, rec.Code)
		require.Empty(t, rec.Body.String())
	})

	t.Run("unknown host closes the connection", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(d)
		t.Cleanup(srv.Close)

		req, err := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
		require.NoError(t, err)
		req.Host = "example.org"
		resp, err := http.DefaultClient.Do(req)
		if resp != nil {
			resp.Body.Close()
		}
		require.Error(t, err)
	})
}

func TestDispatcher_Fallback(t *testing.T) {
	t.Parallel()

	shop := hostApp(t, "shop", "shop.example.com")
	landing := hostApp(t, "landing")

	d, err := internal.NewDispatcher([]*internal.App{shop}, landing, nil, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "unknown.test"
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)
	require.Equal(t, "landing", rec.Body.String())
}

func TestNewDispatcher_Errors(t *testing.T) {
	t.Parallel()

	_, err := internal.NewDispatcher(nil, nil, nil, nil)
	require.ErrorIs(t, err, internal.ErrNoApplications)

	a := hostApp(t, "a", "same.example.com")
	b := hostApp(t, "b", "same.example.com")
	_, err = internal.NewDispatcher([]*internal.App{a, b}, nil, nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), `app "b"`)

	dup := hostApp(t, "a", "other.example.com")
	_, err = internal.NewDispatcher([]*internal.App{a, dup}, nil, nil, nil)
	require.ErrorIs(t, err, internal.ErrDuplicateApp)
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := internal.NewMetrics(reg)

	app := newApp(t, []string{"site"}, []internal.Module{
		internal.Define(internal.Definition{
			Name:       "site",
			RoutesFunc: routes(internal.Routes{"/ok": {text("ok")}, "/fail": {fail(errors.New("x"))}}),
		}),
	}, internal.WithMetrics(m))

	d, err := internal.NewDispatcher([]*internal.App{app}, nil, nil, m)
	require.NoError(t, err)

	for _, target := range []string{"/ok", "/ok", "/fail", "/missing"} {
		do(t, d, http.MethodGet, target)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "nobody.test"
	d.ServeHTTP(httptest.NewRecorder(), req)

	expected := `
# HELP mosaic_request_errors_total Request errors, by application and kind.
# TYPE mosaic_request_errors_total counter
mosaic_request_errors_total{app="shop",kind="InternalError"} 1
mosaic_request_errors_total{app="shop",kind="NoRouteError"} 1
# HELP mosaic_requests_total Requests dispatched, by application, route and status.
# TYPE mosaic_requests_total counter
mosaic_requests_total{app="shop",route="/fail",status="500"} 1
mosaic_requests_total{app="shop",route="/ok",status="200"} 2
mosaic_requests_total{app="shop",route="unmatched",status="404"} 1
# HELP mosaic_unknown_host_total Requests for hosts no application answers.
# TYPE mosaic_unknown_host_total counter
mosaic_unknown_host_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, stringsReader(expected),
		"mosaic_requests_total", "mosaic_request_errors_total", "mosaic_unknown_host_total"))
}

func TestOpsRouter(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	internal.NewMetrics(reg)
	shop := hostApp(t, "shop", "shop.example.com")

	r := internal.NewOpsRouter([]*internal.App{shop}, nil,
		internal.WithGatherer(reg),
		internal.WithReadinessCheck("extra", func(context.Context) error { return nil }),
	)

	t.Run("readiness merges app checks", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready?format=json", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp health.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Contains(t, resp.Checks, "shop/site")
		require.Contains(t, resp.Checks, "extra")
	})

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("routes", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/routes", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var listing []struct {
			App    string   `json:"app"`
			Hosts  []string `json:"hosts"`
			Routes []string `json:"routes"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
		require.Len(t, listing, 1)
		require.Equal(t, "shop", listing[0].App)
		require.Equal(t, []string{"shop.example.com"}, listing[0].Hosts)
		require.Equal(t, []string{"/"}, listing[0].Routes)
	})
}

func TestRun_GracefulShutdown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	shut := make(chan struct{})
	reg := newRegistry(t, internal.Define(internal.Definition{
		Name:       "site",
		RoutesFunc: routes(internal.Routes{"/": {text("up")}}),
		ShutdownFunc: func(context.Context, internal.ModuleConfig, *internal.Services) error {
			close(shut)
			return nil
		},
	}))
	app, err := internal.NewApp(context.Background(), "shop",
		internal.WithRegistry(reg),
		internal.WithModules("site"),
		internal.WithHosts("127.0.0.1"),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- internal.Run(
			internal.Apps(app),
			internal.Address(addr),
			internal.WithContext(ctx),
			internal.ShutdownTimeout(time.Second),
		)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return string(body) == "up"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	<-shut
}
