package bootstrap

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/config"
)

func TestBuildVerifier_Static(t *testing.T) {
	v, err := BuildVerifier(context.Background(), AuthConfig{
		Auth: config.AuthConfig{
			Mode:         config.AuthModeStatic,
			StaticTokens: "tok-c=cust-1;tok-v=vend-1",
		},
		IsDev:  true,
		Logger: slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), "tok-v")
	require.NoError(t, err)
	assert.Equal(t, "vend-1", id.Subject)
}

func TestBuildVerifier_Errors(t *testing.T) {
	tests := map[string]config.AuthConfig{
		"static without tokens": {Mode: config.AuthModeStatic},
		"static malformed":      {Mode: config.AuthModeStatic, StaticTokens: "no-separator"},
		"oidc without issuer":   {Mode: config.AuthModeOIDC, OIDC: config.OIDCConfig{ClientID: "bookings"}},
		"unknown mode":          {Mode: config.AuthMode("saml")},
	}
	for name, auth := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := BuildVerifier(context.Background(), AuthConfig{Auth: auth, Logger: slog.New(slog.DiscardHandler)})
			assert.Error(t, err)
		})
	}
}
