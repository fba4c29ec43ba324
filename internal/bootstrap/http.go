package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/config"
	httpx "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/http"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/ports"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	HTTP     config.HTTPConfig
	Services ServiceContainer
	Verifier ports.IdentityVerifier
	// MaxUploadBytes caps multipart attachment bodies.
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// NewHTTPServer builds the server with the API router.
func NewHTTPServer(cfg HTTPServerConfig) *http.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := cfg.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	handler := httpx.NewRouter(httpx.RouterServices{
		Jobs:           cfg.Services.Jobs,
		Reviews:        cfg.Services.Reviews,
		Verifier:       cfg.Verifier,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logger,
		Readiness:      cfg.Services.Readiness,
	})

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Serve runs server until ctx is cancelled, then shuts it down within shutdownTimeout.
// A listener failure cancels the group and is returned.
func Serve(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(ctx, "starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(ctx, "shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.InfoContext(ctx, "HTTP server stopped")
		return nil
	})

	return g.Wait()
}
