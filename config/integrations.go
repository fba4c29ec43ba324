package config

import "strings"

// BlobConfig configures the MinIO/S3 bucket attachments are uploaded to.
// An empty Endpoint disables direct uploads; metadata-only attachments still work.
type BlobConfig struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET"     envDefault:"job-attachments"`
	UseTLS    bool   `env:"USE_TLS"    envDefault:"false"`
	// PublicURL is the base participants download objects from. Defaults to the endpoint.
	PublicURL string `env:"PUBLIC_URL"`
	// MaxUploadBytes caps one uploaded file.
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"26214400"`
	// AllowedDomains restricts attachment URLs recorded by reference. Empty allows any host.
	AllowedDomains []string `env:"ALLOWED_DOMAINS" envSeparator:","`
}

// Enabled reports whether an endpoint is configured.
func (c BlobConfig) Enabled() bool {
	return c.Endpoint != ""
}

// Sanitize trims values and drops empty domains.
func (c *BlobConfig) Sanitize() {
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.Bucket = strings.TrimSpace(c.Bucket)
	c.PublicURL = strings.TrimSpace(c.PublicURL)
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 25 << 20
	}
	domains := c.AllowedDomains[:0]
	for _, d := range c.AllowedDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains = append(domains, d)
		}
	}
	c.AllowedDomains = domains
}

// EventsConfig configures the AMQP lifecycle event publisher.
// An empty AMQPURL disables publishing.
type EventsConfig struct {
	AMQPURL  string `env:"AMQP_URL"`
	Exchange string `env:"EXCHANGE" envDefault:"bookings.lifecycle"`
}

// Enabled reports whether a broker URL is configured.
func (c EventsConfig) Enabled() bool {
	return c.AMQPURL != ""
}

// Sanitize trims the broker settings.
func (c *EventsConfig) Sanitize() {
	c.AMQPURL = strings.TrimSpace(c.AMQPURL)
	c.Exchange = strings.TrimSpace(c.Exchange)
	if c.Exchange == "" {
		c.Exchange = "bookings.lifecycle"
	}
}
