package auth

// Package auth contains domain-level types for caller identity.
// It is pure and free of framework/adapter concerns.

import (
	"errors"
	"time"
)

// ErrUnauthenticated is returned by verifiers when a credential is missing, malformed, or rejected.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity represents the authenticated principal returned by an identity verifier.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	Subject   string // stable subject identifier; used as customer_id / vendor_id
	Email     string
	Name      string
	ExpiresAt time.Time // zero when the credential does not expire
}

// Expired reports whether the identity is past its expiry at now.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}
