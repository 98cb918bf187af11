package redis

import "time"

// Config describes a Redis connection. Zero durations and sizes take the
// defaults below.
type Config struct {
	URL           string        `mapstructure:"url"`
	PoolSize      int           `mapstructure:"pool_size"`
	MinIdleConns  int           `mapstructure:"min_idle_conns"`
	MaxIdleTime   time.Duration `mapstructure:"max_idle_time"`
	MaxActiveTime time.Duration `mapstructure:"max_active_time"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
}

// Defaults.
const (
	DefaultPoolSize      = 10
	DefaultMinIdleConns  = 2
	DefaultMaxIdleTime   = 10 * time.Minute
	DefaultMaxActiveTime = 30 * time.Minute
	DefaultRetryAttempts = 3
	DefaultRetryInterval = time.Second
	DefaultReadTimeout   = 3 * time.Second
	DefaultWriteTimeout  = 3 * time.Second
	DefaultDialTimeout   = 5 * time.Second
)

func (c Config) withDefaults() Config {
	setDefault(&c.PoolSize, DefaultPoolSize)
	setDefault(&c.MinIdleConns, DefaultMinIdleConns)
	setDefault(&c.MaxIdleTime, DefaultMaxIdleTime)
	setDefault(&c.MaxActiveTime, DefaultMaxActiveTime)
	setDefault(&c.RetryAttempts, DefaultRetryAttempts)
	setDefault(&c.RetryInterval, DefaultRetryInterval)
	setDefault(&c.ReadTimeout, DefaultReadTimeout)
	setDefault(&c.WriteTimeout, DefaultWriteTimeout)
	setDefault(&c.DialTimeout, DefaultDialTimeout)
	return c
}

func setDefault[T int | time.Duration](v *T, def T) {
	if *v <= 0 {
		*v = def
	}
}
