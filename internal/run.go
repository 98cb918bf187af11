package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/mosaic/pkg/hostrouter"
	"github.com/dmitrymomot/mosaic/pkg/logger"
)

// Dispatcher routes requests to applications by host.
type Dispatcher struct {
	apps     *hostrouter.Table[*App]
	fallback *App
	logger   *slog.Logger
	metrics  *Metrics
}

// NewDispatcher maps every host of every application.
// Two applications claiming the same host is a configuration error.
func NewDispatcher(apps []*App, fallback *App, log *slog.Logger, m *Metrics) (*Dispatcher, error) {
	if len(apps) == 0 && fallback == nil {
		return nil, ErrNoApplications
	}
	if log == nil {
		log = logger.NewNope()
	}

	table := hostrouter.NewTable[*App]()
	names := make(map[string]struct{}, len(apps))
	for _, a := range apps {
		if _, dup := names[a.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateApp, a.Name())
		}
		names[a.Name()] = struct{}{}
		for _, h := range a.Hosts() {
			if err := table.Add(h, a); err != nil {
				return nil, fmt.Errorf("app %q: %w", a.Name(), err)
			}
		}
	}

	return &Dispatcher{apps: table, fallback: fallback, logger: log, metrics: m}, nil
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a, ok := d.apps.Match(r.Host); ok {
		a.ServeHTTP(w, r)
		return
	}
	if d.fallback != nil {
		d.fallback.ServeHTTP(w, r)
		return
	}

	d.metrics.hostMissed()
	d.logger.ErrorContext(r.Context(), "no application for host",
		slog.String("host", r.Host),
		slog.String("path", r.URL.Path),
	)
	reject(w)
}

// reject closes the connection without a response, or answers
// 421 Misdirected Request when the connection cannot be taken over.
func reject(w http.ResponseWriter) {
	if hj, ok := w.(http.Hijacker); ok {
		if conn, _, err := hj.Hijack(); err == nil {
			_ = conn.Close()
			return
		}
	}
	w.WriteHeader(http.StatusMisdirectedRequest)
}

// Run starts the server for the given applications and blocks until shutdown.
//
// Example:
//
//	shop, _ := mosaic.NewApp(ctx, "shop", mosaic.WithHosts("shop.example.com"), ...)
//	admin, _ := mosaic.NewApp(ctx, "admin", mosaic.WithHosts("admin.example.com"), ...)
//
//	err := mosaic.Run(
//	    mosaic.Apps(shop, admin),
//	    mosaic.Address(":8080"),
//	    mosaic.Ops(":9090", mosaic.WithGatherer(prometheus.DefaultGatherer)),
//	    mosaic.Logger(log),
//	)
func Run(opts ...RunOption) error {
	cfg := buildRunConfig(opts...)

	d, err := NewDispatcher(cfg.apps, cfg.fallback, cfg.logger, cfg.metrics)
	if err != nil {
		return err
	}

	all := cfg.apps
	if cfg.fallback != nil {
		all = append(all, cfg.fallback)
	}

	rc := runtimeConfig{
		handler:         d,
		address:         cfg.address,
		logger:          cfg.logger,
		shutdownTimeout: cfg.shutdownTimeout,
		apps:            all,
		shutdownHooks:   cfg.shutdownHooks,
		baseCtx:         cfg.baseCtx,
	}
	if cfg.opsEnabled {
		oc := newOpsConfig(cfg.ops...)
		rc.opsAddress = oc.address
		rc.opsHandler = NewOpsRouter(all, cfg.logger, cfg.ops...)
	}

	if err := runServer(rc); err != nil {
		return errors.Join(errors.New("mosaic: server stopped"), err)
	}
	return nil
}
