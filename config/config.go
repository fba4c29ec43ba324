package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Identity verification
//   - database.go: Store selection, Postgres, and Redis
//   - integrations.go: Attachment blob storage and lifecycle events
//   - http.go: HTTP server configuration
//   - observability.go: Logging and OpenTelemetry
type AppConfig struct {
	// IsDev controls development mode behavior (text logs, static tokens allowed).
	// Set DEV=true or APP_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Authentication configuration
	Auth AuthConfig

	// Storage configuration
	Store    StoreConfig
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Timeline TimelineConfig

	// Integrations
	Blob   BlobConfig   `envPrefix:"BLOB_"`
	Events EventsConfig `envPrefix:"EVENTS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.Sanitize()
	c.Store.Sanitize()
	c.Timeline.Sanitize()
	c.Blob.Sanitize()
	c.Events.Sanitize()
	c.HTTP.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks APP_ENV as a fallback when DEV is unset.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// UsesPostgres reports whether the Postgres store is selected.
func (c *AppConfig) UsesPostgres() bool {
	return c.Store.Driver == StoreDriverPostgres
}
