package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mosaic"
	"github.com/dmitrymomot/mosaic/modules/requestid"
	"github.com/dmitrymomot/mosaic/pkg/appconfig"
	"github.com/dmitrymomot/mosaic/pkg/logger"
)

const defaultAddress = ":8080"

// loadFlags are shared by the commands that build applications.
type loadFlags struct {
	manifest  string
	appPath   string
	tags      []string
	build     string
	envFiles  []string
	logLevel  string
	logFormat string
}

func (f *loadFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.manifest, "apps", "apps.yaml", "application manifest")
	fs.StringVar(&f.appPath, "app-path", "", "root of the application directories (overrides the manifest)")
	fs.StringSliceVar(&f.tags, "tags", nil, "run only applications with one of these tags")
	fs.StringVar(&f.build, "build", "", "build id (random when empty)")
	fs.StringSliceVar(&f.envFiles, "env", []string{".env"}, "env files loaded before the manifest")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", logger.FormatJSON, "log format: json or text")
}

func (f *loadFlags) logger(w io.Writer) (*slog.Logger, error) {
	return logger.NewFromConfig(logger.Config{
		Level:             f.logLevel,
		Format:            f.logFormat,
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		SentryEnvironment: os.Getenv("SENTRY_ENVIRONMENT"),
	}, w, requestid.LogExtractor())
}

// loaded is a manifest with its applications built.
type loaded struct {
	manifest *appconfig.Manifest
	apps     []*mosaic.App
}

func (l *loaded) shutdown(ctx context.Context) error {
	var errs []error
	for _, app := range l.apps {
		errs = append(errs, app.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// load reads the env files and the manifest and builds the selected
// applications against one registry. Each application has its own scope
// store unless the manifest shares them. Applications already built are
// shut down when a later one fails.
func (f *loadFlags) load(ctx context.Context, log *slog.Logger, modules []mosaic.Module, extra ...mosaic.Option) (*loaded, error) {
	if err := appconfig.LoadEnv(f.envFiles...); err != nil {
		return nil, err
	}
	m, err := appconfig.LoadManifest(f.manifest)
	if err != nil {
		return nil, err
	}
	if f.appPath != "" {
		m.AppPath = f.appPath
	}
	selected, err := m.Select(f.tags...)
	if err != nil {
		return nil, err
	}

	reg, err := mosaic.NewRegistry(modules...)
	if err != nil {
		return nil, err
	}
	var scopes *mosaic.ScopeStore
	if m.SharedScopes {
		scopes = mosaic.NewScopeStore()
	}

	l := &loaded{manifest: m}
	for _, a := range selected {
		settings, err := a.LoadSettings(m.AppPath)
		if err != nil {
			return nil, errors.Join(err, l.shutdown(ctx))
		}
		opts := []mosaic.Option{
			mosaic.WithRegistry(reg),
			mosaic.WithScopeStore(scopes),
			mosaic.WithHosts(a.Hosts...),
			mosaic.WithModules(a.Modules...),
			mosaic.WithAppPath(a.Dir(m.AppPath)),
			mosaic.WithArch(a.Arch),
			mosaic.WithBuild(f.build),
			mosaic.WithSettings(settings),
			mosaic.WithCustomLogger(log),
		}
		app, err := mosaic.NewApp(ctx, a.Name, append(opts, extra...)...)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("app %q: %w", a.Name, err), l.shutdown(ctx))
		}
		l.apps = append(l.apps, app)
	}
	return l, nil
}

// listenAddress picks the flag, then the manifest, then the default
// address, and replaces its port when port is set.
func listenAddress(flag, manifest string, port int) (string, error) {
	addr := flag
	if addr == "" {
		addr = manifest
	}
	if addr == "" {
		addr = defaultAddress
	}
	if port == 0 {
		return addr, nil
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}
