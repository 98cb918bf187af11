package internal

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/mosaic/pkg/logger"
)

// runtimeConfig holds configuration for running the HTTP servers.
type runtimeConfig struct {
	handler         http.Handler
	address         string
	opsHandler      http.Handler
	opsAddress      string
	logger          *slog.Logger
	shutdownTimeout time.Duration
	apps            []*App
	shutdownHooks   []func(context.Context) error
	baseCtx         context.Context
}

func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
	}
}

// runServer serves until a signal arrives, the base context ends or a
// listener fails, then shuts everything down within the shutdown timeout.
func runServer(cfg runtimeConfig) error {
	if cfg.address == "" {
		cfg.address = ":8080"
	}
	if cfg.shutdownTimeout == 0 {
		cfg.shutdownTimeout = defaultShutdownTimeout
	}

	log := cfg.logger
	if log == nil {
		log = logger.NewNope()
	}

	baseCtx := cfg.baseCtx
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(baseCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	servers := []*http.Server{newServer(cfg.address, cfg.handler)}
	if cfg.opsHandler != nil && cfg.opsAddress != "" {
		servers = append(servers, newServer(cfg.opsAddress, cfg.opsHandler))
	}

	// Listen first so address errors surface before anything is served.
	listeners := make([]net.Listener, 0, len(servers))
	for _, srv := range servers {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, l := range listeners {
				_ = l.Close()
			}
			return err
		}
		listeners = append(listeners, ln)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, srv := range servers {
		ln := listeners[i]
		g.Go(func() error {
			log.Info("server starting", slog.String("address", ln.Addr().String()))
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		log.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
		defer shutdownCancel()
		return shutdown(shutdownCtx, log, servers, cfg.apps, cfg.shutdownHooks)
	})

	return g.Wait()
}

// shutdown stops the servers, then the applications, then the hooks.
func shutdown(ctx context.Context, log *slog.Logger, servers []*http.Server, apps []*App, hooks []func(context.Context) error) error {
	var errs []error

	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	for _, a := range apps {
		if err := a.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
			log.Error("shutdown hook failed", slog.Any("error", err))
		}
	}

	if len(errs) > 0 {
		log.Error("shutdown completed with errors")
		return errors.Join(errs...)
	}

	log.Info("shutdown completed")
	return nil
}
