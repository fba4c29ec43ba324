package bootstrap

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/config"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/adapters/devauth"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/testutil"
)

func memoryConfig() *config.AppConfig {
	cfg := &config.AppConfig{}
	cfg.Store.Driver = config.StoreDriverMemory
	cfg.Sanitize()
	return cfg
}

func TestNewServices_MemoryStore(t *testing.T) {
	svc, err := NewServices(&ServiceDeps{Config: memoryConfig(), Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)
	require.NotNil(t, svc.Jobs)
	require.NotNil(t, svc.Reviews)
	assert.Empty(t, svc.Readiness)

	job, err := svc.Jobs.Create(context.Background(), testutil.NewJobRequest().Build())
	require.NoError(t, err)
	assert.NotEmpty(t, job.JobNumber)
}

func TestNewServices_RedisReadinessUsesTimelineCache(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	svc, err := NewServices(&ServiceDeps{Config: memoryConfig(), RedisClient: client, Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)
	require.Len(t, svc.Readiness, 1)
	assert.Equal(t, "redis", svc.Readiness[0].Name)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, svc.Readiness[0].Check(ctx), "unreachable redis is not ready")
}

func TestNewServices_Telemetry(t *testing.T) {
	cfg := memoryConfig()
	cfg.Observability.Telemetry.Enabled = true

	svc, err := NewServices(&ServiceDeps{Config: cfg, Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)

	_, err = svc.Jobs.Create(context.Background(), testutil.NewJobRequest().Build())
	assert.NoError(t, err)
}

func TestNewServices_Errors(t *testing.T) {
	_, err := NewServices(nil)
	assert.Error(t, err)

	cfg := memoryConfig()
	cfg.Store.Driver = config.StoreDriverPostgres
	_, err = NewServices(&ServiceDeps{Config: cfg, Logger: slog.New(slog.DiscardHandler)})
	assert.Error(t, err, "postgres driver needs a database")
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	svc, err := NewServices(&ServiceDeps{Config: memoryConfig(), Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)
	verifier, err := devauth.NewStaticVerifier(map[string]string{"tok": testutil.DefaultCustomerID})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	server := NewHTTPServer(HTTPServerConfig{
		HTTP:     config.HTTPConfig{Addr: addr, ReadHeaderTimeout: time.Second},
		Services: svc,
		Verifier: verifier,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, server, time.Second, slog.New(slog.DiscardHandler)) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewHTTPServer_DefaultAddr(t *testing.T) {
	server := NewHTTPServer(HTTPServerConfig{})
	assert.Equal(t, ":8080", server.Addr)

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
