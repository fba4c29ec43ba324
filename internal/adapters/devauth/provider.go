package devauth

// Package devauth provides a config-driven IdentityVerifier for local development and tests.

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	domainauth "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/auth"
)

// StaticVerifier implements ports.IdentityVerifier from a fixed token → subject table.
type StaticVerifier struct {
	tokens map[string]string
}

// NewStaticVerifier constructs a verifier from a token → subject map.
func NewStaticVerifier(tokens map[string]string) (*StaticVerifier, error) {
	if len(tokens) == 0 {
		return nil, errors.New("dev auth: at least one token is required")
	}
	copied := make(map[string]string, len(tokens))
	for tok, sub := range tokens {
		tok, sub = strings.TrimSpace(tok), strings.TrimSpace(sub)
		if tok == "" || sub == "" {
			return nil, errors.New("dev auth: tokens and subjects must be non-empty")
		}
		copied[tok] = sub
	}
	return &StaticVerifier{tokens: copied}, nil
}

// ParseTokens parses "token=subject;token2=subject2".
func ParseTokens(spec string) (map[string]string, error) {
	out := map[string]string{}
	for _, pair := range strings.Split(spec, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		tok, sub, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("dev auth: malformed token pair %q", pair)
		}
		out[strings.TrimSpace(tok)] = strings.TrimSpace(sub)
	}
	return out, nil
}

// Verify returns the subject bound to token.
func (v *StaticVerifier) Verify(_ context.Context, token string) (domainauth.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domainauth.Identity{}, domainauth.ErrUnauthenticated
	}
	for known, sub := range v.tokens {
		if subtle.ConstantTimeCompare([]byte(known), []byte(token)) == 1 {
			return domainauth.Identity{Subject: sub}, nil
		}
	}
	return domainauth.Identity{}, fmt.Errorf("dev auth: unknown token: %w", domainauth.ErrUnauthenticated)
}
