package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/auth"
)

// newIssuer serves a discovery document and a userinfo endpoint that accepts "good-token".
func newIssuer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/auth",
			"token_endpoint":         srv.URL + "/token",
			"userinfo_endpoint":      srv.URL + "/userinfo",
			"jwks_uri":               srv.URL + "/jwks",
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sub":   "vend-42",
			"email": "vendor@example.com",
			"name":  "Vera Vendor",
		})
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewVerifier_ValidationErrors(t *testing.T) {
	_, err := NewVerifier(context.Background(), VerifierConfig{ClientID: "c"})
	require.EqualError(t, err, "issuer URL is required")

	_, err = NewVerifier(context.Background(), VerifierConfig{IssuerURL: "http://example.com"})
	require.EqualError(t, err, "client ID is required")
}

func TestNewVerifier_DiscoveryURLSuffix(t *testing.T) {
	srv := newIssuer(t)
	v, err := NewVerifier(context.Background(), VerifierConfig{
		IssuerURL: srv.URL + "/.well-known/openid-configuration",
		ClientID:  "bookings",
	})
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestVerifier_UserInfoFallback(t *testing.T) {
	srv := newIssuer(t)
	v, err := NewVerifier(context.Background(), VerifierConfig{
		IssuerURL:        srv.URL,
		ClientID:         "bookings",
		UserInfoFallback: true,
	})
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, "vend-42", id.Subject)
	assert.Equal(t, "vendor@example.com", id.Email)
	assert.Equal(t, "Vera Vendor", id.Name)

	_, err = v.Verify(context.Background(), "bad-token")
	assert.True(t, errors.Is(err, domainauth.ErrUnauthenticated))
}

func TestVerifier_RejectsWithoutFallback(t *testing.T) {
	srv := newIssuer(t)
	v, err := NewVerifier(context.Background(), VerifierConfig{IssuerURL: srv.URL, ClientID: "bookings"})
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), "good-token")
	assert.True(t, errors.Is(err, domainauth.ErrUnauthenticated))

	_, err = v.Verify(context.Background(), "  ")
	assert.True(t, errors.Is(err, domainauth.ErrUnauthenticated))
}

func TestClaims_Identity(t *testing.T) {
	id := claims{Sub: "s", PreferredUsername: "sam", ExpiresAt: 1767225600}.identity()
	assert.Equal(t, "s", id.Subject)
	assert.Equal(t, "sam", id.Name)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), id.ExpiresAt)
}

func TestLooksLikeJWT(t *testing.T) {
	assert.True(t, looksLikeJWT("a.b.c"))
	assert.False(t, looksLikeJWT("opaque"))
}
