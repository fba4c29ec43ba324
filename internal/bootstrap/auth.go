package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/config"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/adapters/devauth"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/adapters/oidc"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/ports"
)

// AuthConfig contains configuration for the identity verifier.
type AuthConfig struct {
	Auth   config.AuthConfig
	IsDev  bool
	Logger *slog.Logger
}

// BuildVerifier creates the bearer-token verifier for the configured auth mode.
//
//nolint:ireturn // the router depends on the port, not the adapter.
func BuildVerifier(ctx context.Context, cfg AuthConfig) (ports.IdentityVerifier, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Auth.Mode {
	case config.AuthModeStatic:
		if !cfg.IsDev {
			logger.WarnContext(ctx, "static token auth enabled outside development mode")
		}
		tokens, err := devauth.ParseTokens(cfg.Auth.StaticTokens)
		if err != nil {
			return nil, err
		}
		v, err := devauth.NewStaticVerifier(tokens)
		if err != nil {
			return nil, fmt.Errorf("static verifier: %w", err)
		}
		logger.InfoContext(ctx, "static token auth enabled", "tokens", len(tokens))
		return v, nil

	case config.AuthModeOIDC, "":
		v, err := oidc.NewVerifier(ctx, oidc.VerifierConfig{
			IssuerURL:        cfg.Auth.OIDC.IssuerURL,
			ClientID:         cfg.Auth.OIDC.ClientID,
			UserInfoFallback: cfg.Auth.OIDC.UserInfoFallback,
		})
		if err != nil {
			return nil, fmt.Errorf("oidc verifier: %w", err)
		}
		logger.InfoContext(ctx, "oidc auth enabled", "issuer", cfg.Auth.OIDC.IssuerURL)
		return v, nil

	default:
		return nil, errors.New("unknown auth mode: " + string(cfg.Auth.Mode))
	}
}
