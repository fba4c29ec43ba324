package ports_test

import (
	"testing"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/adapters/devauth"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/adapters/oidc"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/mocks"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/ports"
)

// This test only verifies that adapters and mocks conform to the ports at compile time.
func TestImplementationsSatisfyPorts(t *testing.T) {
	t.Helper()

	var _ ports.IdentityVerifier = (*devauth.StaticVerifier)(nil)
	var _ ports.IdentityVerifier = (*oidc.Verifier)(nil)
	var _ ports.IdentityVerifier = (*mocks.MockIdentityVerifier)(nil)
}
