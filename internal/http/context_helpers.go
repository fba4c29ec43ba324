package httpx

import (
	"context"

	domainauth "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/auth"
)

// identityKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type identityKey struct{}

// SetIdentityInContext returns a child context that carries the verified caller.
func SetIdentityInContext(ctx context.Context, id domainauth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the verified caller and whether one is present.
func IdentityFromContext(ctx context.Context) (domainauth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domainauth.Identity)
	if !ok || id.Subject == "" {
		return domainauth.Identity{}, false
	}
	return id, true
}

// SubjectFromContext returns the caller's subject, or "" when unauthenticated.
func SubjectFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.Subject
}
