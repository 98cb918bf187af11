package db

import "time"

// Config describes a PostgreSQL pool. Zero values take the defaults below.
type Config struct {
	// URL is a postgres:// connection string.
	URL             string        `mapstructure:"url"`
	MigrationsTable string        `mapstructure:"migrations_table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	HealthPeriod    time.Duration `mapstructure:"health_period"`
	RetryAttempts   int           `mapstructure:"retry_attempts"`
	RetryInterval   time.Duration `mapstructure:"retry_interval"`
}

const (
	DefaultMigrationsTable = "schema_migrations"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultMaxConnIdleTime = 10 * time.Minute
	DefaultMaxConnLifetime = 30 * time.Minute
	DefaultHealthPeriod    = time.Minute
	DefaultRetryAttempts   = 3
	DefaultRetryInterval   = 2 * time.Second
)

// WithDefaults fills zero fields.
func (c Config) WithDefaults() Config {
	if c.MigrationsTable == "" {
		c.MigrationsTable = DefaultMigrationsTable
	}
	if c.MaxConns <= 0 {
		c.MaxConns = DefaultMaxConns
	}
	if c.MinConns <= 0 {
		c.MinConns = min(DefaultMinConns, c.MaxConns)
	}
	if c.MaxConnIdleTime <= 0 {
		c.MaxConnIdleTime = DefaultMaxConnIdleTime
	}
	if c.MaxConnLifetime <= 0 {
		c.MaxConnLifetime = DefaultMaxConnLifetime
	}
	if c.HealthPeriod <= 0 {
		c.HealthPeriod = DefaultHealthPeriod
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	return c
}
