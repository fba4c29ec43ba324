package httpx

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/auth"
)

func TestBearerToken(t *testing.T) {
	tests := map[string]struct {
		header string
		want   string
		ok     bool
	}{
		"missing":      {"", "", false},
		"basic scheme": {"Basic abc", "", false},
		"only scheme":  {"Bearer ", "", false},
		"lower case":   {"bearer tok", "tok", true},
		"padded":       {"  Bearer   tok  ", "tok", true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", tt.header)
			got, ok := bearerToken(r)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

type verifierFunc func(token string) (auth.Identity, error)

func (f verifierFunc) Verify(_ context.Context, token string) (auth.Identity, error) { return f(token) }

func TestRequireBearer_Expired(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	verifier := verifierFunc(func(string) (auth.Identity, error) {
		return auth.Identity{Subject: "cust-1", ExpiresAt: now.Add(-time.Minute)}, nil
	})
	called := false
	h := RequireBearer(verifier, func() time.Time { return now })(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

func TestRequireBearer_SetsIdentity(t *testing.T) {
	verifier := verifierFunc(func(string) (auth.Identity, error) { return auth.Identity{Subject: "vend-1"}, nil })
	var subject string
	h := RequireBearer(verifier, nil)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		subject = SubjectFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer tok")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "vend-1", subject)
}

func TestRecover(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	h := Recover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, logs.String(), "boom")
}
