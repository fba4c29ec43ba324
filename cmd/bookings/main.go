package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/config"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/bootstrap"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger(bootstrap.LoggerConfig{Level: os.Getenv("LOG_LEVEL")})
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.InitLogger(bootstrap.LoggerConfig{Level: cfg.Observability.LogLevel, Text: cfg.IsDev})
	logStartupInfo(ctx, logger, &cfg)

	providers, err := bootstrap.InitTelemetry(ctx, cfg.Observability.Telemetry, version)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if serr := providers.Shutdown(shutdownCtx); serr != nil {
			logger.ErrorContext(ctx, "telemetry shutdown failed", "error", serr)
		}
	}()

	infra, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer infra.close(ctx, logger)

	verifier, err := bootstrap.BuildVerifier(ctx, bootstrap.AuthConfig{Auth: cfg.Auth, IsDev: cfg.IsDev, Logger: logger})
	if err != nil {
		return err
	}

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          infra.db,
		RedisClient: infra.redis,
		Blobs:       infra.blobs,
		Publisher:   infra.publisher,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	server := bootstrap.NewHTTPServer(bootstrap.HTTPServerConfig{
		HTTP:           cfg.HTTP,
		Services:       services,
		Verifier:       verifier,
		MaxUploadBytes: cfg.Blob.MaxUploadBytes,
		Logger:         logger,
	})
	return bootstrap.Serve(ctx, server, cfg.HTTP.ShutdownTimeout, logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting bookings service",
		"version", version,
		"store", cfg.Store.Driver,
		"auth_mode", cfg.Auth.Mode,
		"timeline_cache", cfg.Redis.Enabled(),
		"blob_store", cfg.Blob.Enabled(),
		"lifecycle_events", cfg.Events.Enabled(),
		"telemetry", cfg.Observability.Telemetry.Enabled,
	)
}

type infrastructure struct {
	db        *sql.DB
	redis     redis.UniversalClient
	blobs     core.BlobStore
	publisher core.EventPublisher
	closers   []func() error
}

// initInfrastructure connects the optional backing services selected by cfg. On error
// everything opened so far is closed again.
func initInfrastructure(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (infra *infrastructure, err error) {
	infra = &infrastructure{}
	defer func() {
		if err != nil {
			infra.close(ctx, logger)
			infra = nil
		}
	}()

	if cfg.UsesPostgres() {
		db, dbErr := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
		if dbErr != nil {
			return infra, fmt.Errorf("connect db: %w", dbErr)
		}
		infra.db = db
		infra.closers = append(infra.closers, db.Close)

		if cfg.Postgres.RunMigrationsOnStart {
			if err := bootstrap.RunMigrations(ctx, db, logger); err != nil {
				return infra, err
			}
		} else {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		}
	}

	if cfg.Redis.Enabled() {
		client, redisErr := bootstrap.ConnectRedis(ctx, cfg.Redis, logger)
		if redisErr != nil {
			return infra, fmt.Errorf("connect redis: %w", redisErr)
		}
		infra.redis = client
		infra.closers = append(infra.closers, client.Close)
	}

	store, err := bootstrap.BuildBlobStore(ctx, cfg.Blob, logger)
	if err != nil {
		return infra, fmt.Errorf("blob store: %w", err)
	}
	if store != nil {
		infra.blobs = store
	}

	pub, err := bootstrap.BuildPublisher(ctx, cfg.Events, logger)
	if err != nil {
		return infra, fmt.Errorf("event publisher: %w", err)
	}
	if pub != nil {
		infra.publisher = pub
		infra.closers = append(infra.closers, pub.Close)
	}
	return infra, nil
}

func (i *infrastructure) close(ctx context.Context, logger *slog.Logger) {
	if i == nil {
		return
	}
	var errs []error
	for n := len(i.closers) - 1; n >= 0; n-- {
		errs = append(errs, i.closers[n]())
	}
	i.closers = nil
	if err := errors.Join(errs...); err != nil {
		logger.ErrorContext(ctx, "close infrastructure failed", "error", err)
	}
}
