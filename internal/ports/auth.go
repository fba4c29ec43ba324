package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/http.

import (
	"context"

	domainauth "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/auth"
)

// IdentityVerifier turns a bearer credential into a stable subject.
// Implementations return an error wrapping domainauth.ErrUnauthenticated for any rejected credential.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (domainauth.Identity, error)
}
