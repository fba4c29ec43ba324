package config

import (
	"fmt"
	"strings"
	"time"
)

// StoreDriver selects the job and review store.
type StoreDriver string

const (
	// StoreDriverPostgres persists to PostgreSQL.
	StoreDriverPostgres StoreDriver = "postgres"
	// StoreDriverMemory keeps everything in process memory.
	StoreDriverMemory StoreDriver = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreDriver.
func (d *StoreDriver) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "postgres", "memory":
		*d = StoreDriver(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreDriver: %q (valid options: postgres, memory)", v)
	}
}

// StoreConfig selects the store implementation.
type StoreConfig struct {
	Driver StoreDriver `env:"STORE_DRIVER" envDefault:"postgres"`
	// JobNumberAttempts bounds retries when a generated job number collides.
	JobNumberAttempts int `env:"STORE_JOB_NUMBER_ATTEMPTS" envDefault:"3"`
}

// Sanitize clamps the job number retry budget.
func (s *StoreConfig) Sanitize() {
	if s.Driver == "" {
		s.Driver = StoreDriverPostgres
	}
	if s.JobNumberAttempts < 1 {
		s.JobNumberAttempts = 1
	}
}

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"bookings"`
	Password string `env:"PASSWORD"                envDefault:"bookings"`
	Name     string `env:"NAME"                    envDefault:"bookings"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
	// ConnectTimeout bounds the startup retry loop while the database comes up.
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"30s"`
}

// DSN renders the connection string for the pgx stdlib driver.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisConfig contains Redis configuration for the timeline cache.
// An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:""`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
	// Prefix namespaces every cache key.
	Prefix string `env:"PREFIX" envDefault:"bookings:"`
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

// TimelineConfig controls the cached timeline projection.
type TimelineConfig struct {
	CacheTTL time.Duration `env:"TIMELINE_CACHE_TTL" envDefault:"10m"`
}

// Sanitize restores the default TTL for non-positive values.
func (t *TimelineConfig) Sanitize() {
	if t.CacheTTL <= 0 {
		t.CacheTTL = 10 * time.Minute
	}
}
