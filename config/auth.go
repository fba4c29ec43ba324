package config

import (
	"fmt"
	"strings"
)

// AuthMode represents how bearer tokens are verified.
type AuthMode string

const (
	// AuthModeOIDC verifies tokens against an OpenID Connect issuer.
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeStatic maps fixed tokens to subjects (for development only).
	AuthModeStatic AuthMode = "static"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oidc", "static":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oidc, static)", v)
	}
}

// OIDCConfig contains OpenID Connect verifier configuration.
type OIDCConfig struct {
	IssuerURL string `env:"ISSUER_URL"`
	ClientID  string `env:"CLIENT_ID"  envDefault:"bookings"`
	// UserInfoFallback resolves opaque access tokens through the userinfo endpoint.
	UserInfoFallback bool `env:"USERINFO_FALLBACK" envDefault:"false"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity verifier to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oidc"`

	// OIDC configuration (used when Mode=oidc).
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// StaticTokens is "token=subject;token=subject" (used when Mode=static).
	StaticTokens string `env:"AUTH_STATIC_TOKENS"`
}

// Sanitize trims whitespace from issuer and token settings.
func (a *AuthConfig) Sanitize() {
	a.OIDC.IssuerURL = strings.TrimSpace(a.OIDC.IssuerURL)
	a.OIDC.ClientID = strings.TrimSpace(a.OIDC.ClientID)
	a.StaticTokens = strings.TrimSpace(a.StaticTokens)
}
