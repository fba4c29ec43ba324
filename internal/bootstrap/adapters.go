package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/config"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/adapters/amqp"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/adapters/minio"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/telemetry"
)

// BuildBlobStore connects the attachment bucket. It returns nil when no endpoint is
// configured, which leaves AttachFile disabled.
func BuildBlobStore(ctx context.Context, cfg config.BlobConfig, logger *slog.Logger) (*minio.Store, error) {
	if !cfg.Enabled() {
		logger.InfoContext(ctx, "blob store disabled: no endpoint configured")
		return nil, nil
	}
	store, err := minio.New(minio.Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseTLS:    cfg.UseTLS,
		PublicURL: cfg.PublicURL,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %q: %w", cfg.Bucket, err)
	}
	logger.InfoContext(ctx, "blob store connected", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return store, nil
}

// BuildPublisher dials the lifecycle event exchange. It returns nil when no broker URL
// is configured.
func BuildPublisher(ctx context.Context, cfg config.EventsConfig, logger *slog.Logger) (*amqp.Publisher, error) {
	if !cfg.Enabled() {
		logger.InfoContext(ctx, "lifecycle events disabled: no broker configured")
		return nil, nil
	}
	pub, err := amqp.Dial(amqp.Config{URL: cfg.AMQPURL, Exchange: cfg.Exchange})
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "lifecycle event publisher connected", "exchange", cfg.Exchange)
	return pub, nil
}

// InitTelemetry installs the OpenTelemetry providers described by cfg.
func InitTelemetry(ctx context.Context, cfg config.TelemetryConfig, version string) (*telemetry.Providers, error) {
	return telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.Enabled,
		Exporter:       cfg.Exporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		OTLPInsecure:   cfg.OTLPInsecure,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		MetricInterval: cfg.MetricInterval,
	})
}
