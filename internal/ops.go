package internal

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/mosaic/pkg/health"
)

// Default ops paths.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
	defaultMetricsPath   = "/metrics"
	defaultRoutesPath    = "/routes"
)

// opsConfig holds the ops router configuration.
type opsConfig struct {
	address       string
	livenessPath  string
	readinessPath string
	metricsPath   string
	gatherer      prometheus.Gatherer
	checks        health.Checks
}

// OpsOption configures the ops router.
type OpsOption func(*opsConfig)

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) OpsOption {
	return func(c *opsConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) OpsOption {
	return func(c *opsConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check next to the ones
// contributed by modules.
//
// Example:
//
//	mosaic.WithReadinessCheck("upstream", pingUpstream)
func WithReadinessCheck(name string, fn health.CheckFunc) OpsOption {
	return func(c *opsConfig) {
		if c.checks == nil {
			c.checks = make(health.Checks)
		}
		c.checks[name] = fn
	}
}

// WithGatherer serves metrics from g at "/metrics".
func WithGatherer(g prometheus.Gatherer) OpsOption {
	return func(c *opsConfig) {
		c.gatherer = g
	}
}

func newOpsConfig(opts ...OpsOption) *opsConfig {
	cfg := &opsConfig{
		livenessPath:  defaultLivenessPath,
		readinessPath: defaultReadinessPath,
		metricsPath:   defaultMetricsPath,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// appRoutes is the /routes listing of one application.
type appRoutes struct {
	App     string   `json:"app"`
	Build   string   `json:"build"`
	Hosts   []string `json:"hosts"`
	Modules []string `json:"modules"`
	Routes  []string `json:"routes"`
	WS      []string `json:"ws,omitempty"`
}

// NewOpsRouter builds the operational router: health probes, metrics and
// the composed route table of every application.
func NewOpsRouter(apps []*App, logger *slog.Logger, opts ...OpsOption) chi.Router {
	cfg := newOpsConfig(opts...)

	checks := make(health.Checks)
	checks.Merge("", cfg.checks)
	for _, a := range apps {
		checks.Merge(a.Name(), a.HealthChecks())
	}

	r := chi.NewRouter()
	r.Get(cfg.livenessPath, health.LivenessHandler())
	r.Get(cfg.readinessPath, health.ReadinessHandler(checks, health.WithLogger(logger)))
	if cfg.gatherer != nil {
		r.Handle(cfg.metricsPath, promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{}))
	}

	listing := make([]appRoutes, 0, len(apps))
	for _, a := range apps {
		listing = append(listing, appRoutes{
			App:     a.Name(),
			Build:   a.Build(),
			Hosts:   a.Hosts(),
			Modules: a.list.Names(),
			Routes:  a.Routes(),
			WS:      a.WSPaths(),
		})
	}
	r.Get(defaultRoutesPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(listing)
	})
	return r
}
