// Package oidc verifies bearer credentials against an OpenID Connect issuer.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/auth"
)

// Verifier implements ports.IdentityVerifier using go-oidc.
// JWT bearer tokens are verified locally against the issuer's keys; when UserInfoFallback
// is set, opaque access tokens are resolved through the userinfo endpoint instead.
type Verifier struct {
	provider   *gooidc.Provider
	verifier   *gooidc.IDTokenVerifier
	httpClient *http.Client
	userInfo   bool
}

// VerifierConfig holds configuration for the OIDC verifier.
type VerifierConfig struct {
	IssuerURL        string
	ClientID         string
	UserInfoFallback bool
	HTTPClient       *http.Client // Optional, defaults to a 30s-timeout client
}

// DiscoveryDocument represents the subset of the OIDC discovery document the verifier needs.
type DiscoveryDocument struct {
	Issuer           string `json:"issuer"`
	UserinfoEndpoint string `json:"userinfo_endpoint"`
	JwksURI          string `json:"jwks_uri"`
}

// NewVerifier discovers the issuer and builds a token verifier.
func NewVerifier(ctx context.Context, config VerifierConfig) (*Verifier, error) {
	if config.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx = oidcContext(ctx, httpClient)
	issuer := strings.TrimSuffix(config.IssuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	return &Verifier{
		provider:   op,
		verifier:   op.Verifier(&gooidc.Config{ClientID: config.ClientID}),
		httpClient: httpClient,
		userInfo:   config.UserInfoFallback,
	}, nil
}

// Verify resolves token into an identity.
func (v *Verifier) Verify(ctx context.Context, token string) (domainauth.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domainauth.Identity{}, domainauth.ErrUnauthenticated
	}
	ctx = oidcContext(ctx, v.httpClient)

	idTok, err := v.verifier.Verify(ctx, token)
	if err != nil {
		if v.userInfo && !looksLikeJWT(token) {
			return v.fromUserInfo(ctx, token)
		}
		return domainauth.Identity{}, fmt.Errorf("verify token: %w: %w", domainauth.ErrUnauthenticated, err)
	}

	var c claims
	if claimsErr := idTok.Claims(&c); claimsErr != nil {
		return domainauth.Identity{}, fmt.Errorf("parse token claims: %w", claimsErr)
	}
	id := c.identity()
	if id.Subject == "" {
		id.Subject = idTok.Subject
	}
	if id.ExpiresAt.IsZero() {
		id.ExpiresAt = idTok.Expiry
	}
	if id.Subject == "" {
		return domainauth.Identity{}, fmt.Errorf("token has no subject: %w", domainauth.ErrUnauthenticated)
	}
	return id, nil
}

func (v *Verifier) fromUserInfo(ctx context.Context, accessToken string) (domainauth.Identity, error) {
	ui, err := v.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("fetch user info: %w: %w", domainauth.ErrUnauthenticated, err)
	}
	var c claims
	if claimsErr := ui.Claims(&c); claimsErr != nil {
		return domainauth.Identity{}, fmt.Errorf("decode user info: %w", claimsErr)
	}
	id := c.identity()
	id.Subject = firstNonEmpty(id.Subject, ui.Subject)
	id.Email = firstNonEmpty(id.Email, ui.Email)
	if id.Subject == "" {
		return domainauth.Identity{}, fmt.Errorf("user info has no subject: %w", domainauth.ErrUnauthenticated)
	}
	return id, nil
}

// claims is the superset of token and userinfo claim shapes the verifier maps.
type claims struct {
	Sub               string `json:"sub"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	ExpiresAt         int64  `json:"exp"`
}

func (c claims) identity() domainauth.Identity {
	id := domainauth.Identity{
		Subject: c.Sub,
		Email:   c.Email,
		Name:    firstNonEmpty(c.Name, c.PreferredUsername),
	}
	if c.ExpiresAt > 0 {
		id.ExpiresAt = time.Unix(c.ExpiresAt, 0).UTC()
	}
	return id
}

func oidcContext(ctx context.Context, client *http.Client) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}

// looksLikeJWT reports whether token has the three dot-separated segments of a compact JWS.
func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
