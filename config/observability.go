package config

import (
	"strings"
	"time"
)

const defaultServiceName = "bookings"

// ObservabilityConfig groups configuration for logging and OpenTelemetry.
type ObservabilityConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel  string          `env:"LOG_LEVEL" envDefault:"info"`
	Telemetry TelemetryConfig `envPrefix:"TELEMETRY_"`
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Telemetry.Sanitize()
}

// TelemetryConfig controls span and metric export.
type TelemetryConfig struct {
	Enabled        bool          `env:"ENABLED"         envDefault:"false"`
	Exporter       string        `env:"EXPORTER"        envDefault:"stdout"` // stdout or otlp
	OTLPEndpoint   string        `env:"OTLP_ENDPOINT"`
	OTLPInsecure   bool          `env:"OTLP_INSECURE"   envDefault:"true"`
	ServiceName    string        `env:"SERVICE_NAME"    envDefault:"bookings"`
	MetricInterval time.Duration `env:"METRIC_INTERVAL" envDefault:"30s"`
}

// Sanitize normalises exporter settings. An otlp exporter without an endpoint is
// downgraded to stdout.
func (c *TelemetryConfig) Sanitize() {
	c.Exporter = strings.ToLower(strings.TrimSpace(c.Exporter))
	c.OTLPEndpoint = strings.TrimSpace(c.OTLPEndpoint)
	if c.Exporter != "otlp" || c.OTLPEndpoint == "" {
		c.Exporter = "stdout"
	}
	if c.ServiceName = strings.TrimSpace(c.ServiceName); c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}
	if c.MetricInterval <= 0 {
		c.MetricInterval = 30 * time.Second
	}
}
