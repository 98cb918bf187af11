// Package postgres provides the "db" service, a pgx connection pool.
//
// The URL comes from the "postgres.url" setting or DATABASE_URL. Modules
// built with migrations apply them, in a table of their own, when the pool
// is opened:
//
//	//go:embed migrations/*.sql
//	var migrations embed.FS
//
//	sub, _ := fs.Sub(migrations, "migrations")
//	reg, _ := mosaic.NewRegistry(postgres.New(postgres.WithMigrations(sub)), ...)
package postgres

import (
	"context"
	"io/fs"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/mosaic"
	"github.com/dmitrymomot/mosaic/modules/internal/modcfg"
	"github.com/dmitrymomot/mosaic/pkg/db"
	"github.com/dmitrymomot/mosaic/pkg/health"
)

const (
	// Name is the module name.
	Name = "postgres"

	// Service is the name of the pool service.
	Service = "db"

	// EnvURL is read when no URL is configured.
	EnvURL = "DATABASE_URL"
)

type options struct {
	migrations fs.FS
	table      string
}

// Option configures the module.
type Option func(*options)

// WithMigrations applies the goose migrations at the root of fsys.
func WithMigrations(fsys fs.FS) Option {
	return func(o *options) {
		o.migrations = fsys
	}
}

// WithMigrationsTable overrides the migrations table. Without it the
// "postgres.migrations_table" setting is used, then "<app>_schema_migrations".
func WithMigrationsTable(name string) Option {
	return func(o *options) {
		o.table = name
	}
}

// Module is the module without migrations.
var Module = New()

// New creates the module.
func New(opts ...Option) mosaic.Module {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	return mosaic.Define(mosaic.Definition{
		Name: Name,
		ServicesFunc: func(ctx context.Context, cfg mosaic.ModuleConfig, svc *mosaic.Services) (map[string]any, error) {
			var c db.Config
			if err := modcfg.Decode(svc, Name, &c); err != nil {
				return nil, err
			}
			if c.URL == "" {
				c.URL = os.Getenv(EnvURL)
			}

			pool, err := db.Open(ctx, c)
			if err != nil {
				return nil, err
			}

			if o.migrations != nil {
				table := o.table
				if table == "" {
					table = c.MigrationsTable
				}
				if table == "" {
					table = migrationsTable(cfg.AppName)
				}
				if err := db.Migrate(ctx, pool, o.migrations, table, svc.Logger()); err != nil {
					pool.Close()
					return nil, err
				}
			}
			return map[string]any{Service: pool}, nil
		},
		HealthChecksFunc: func(_ mosaic.ModuleConfig, svc *mosaic.Services) health.Checks {
			pool, err := mosaic.Service[*pgxpool.Pool](svc, Service)
			if err != nil {
				return nil
			}
			return health.Checks{"postgres": db.Healthcheck(pool)}
		},
		ShutdownFunc: func(_ context.Context, _ mosaic.ModuleConfig, svc *mosaic.Services) error {
			if pool, err := mosaic.Service[*pgxpool.Pool](svc, Service); err == nil {
				pool.Close()
			}
			return nil
		},
	})
}

func migrationsTable(app string) string {
	r := strings.NewReplacer("-", "_", ".", "_")
	return r.Replace(strings.ToLower(app)) + "_" + db.DefaultMigrationsTable
}
