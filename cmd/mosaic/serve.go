package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mosaic"
)

func serveCmd(modules []mosaic.Module) *cobra.Command {
	var (
		flags   loadFlags
		addr    string
		port    int
		opsAddr string
		grace   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build the manifest applications and serve them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := flags.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			metrics := mosaic.NewMetrics(prometheus.DefaultRegisterer)
			l, err := flags.load(ctx, log, modules, mosaic.WithMetrics(metrics))
			if err != nil {
				return err
			}

			address, err := listenAddress(addr, l.manifest.Address, port)
			if err != nil {
				_ = l.shutdown(context.Background())
				return err
			}
			if opsAddr == "" {
				opsAddr = l.manifest.OpsAddress
			}

			printBanner(cmd.OutOrStdout())
			for _, app := range l.apps {
				log.Info("application ready",
					slog.String("app", app.Name()),
					slog.Any("hosts", app.Hosts()),
					slog.Int("routes", len(app.Routes())),
					slog.String("build", app.Build()),
				)
			}

			opts := []mosaic.RunOption{
				mosaic.WithContext(ctx),
				mosaic.Apps(l.apps...),
				mosaic.Address(address),
				mosaic.Logger(log),
				mosaic.ServerMetrics(metrics),
				mosaic.ShutdownTimeout(grace),
			}
			if opsAddr != "" {
				opts = append(opts, mosaic.Ops(opsAddr))
			}
			return mosaic.Run(opts...)
		},
	}

	flags.register(cmd)
	fs := cmd.Flags()
	fs.StringVar(&addr, "addr", "", "listen address (defaults to the manifest address or :8080)")
	fs.IntVar(&port, "port", 0, "override the port of the listen address")
	fs.StringVar(&opsAddr, "ops-addr", "", "ops server address for health and metrics")
	fs.DurationVar(&grace, "shutdown-timeout", 30*time.Second, "graceful shutdown timeout")
	return cmd
}
