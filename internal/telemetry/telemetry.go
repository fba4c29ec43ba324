// Package telemetry configures OpenTelemetry tracing and metrics for the bookings
// service and provides instrumented decorators for the storage ports.
//
// Telemetry is off unless enabled in configuration. When off, Setup installs no-op
// providers and the decorators are never constructed.
//
// # Exporters
//
//   - stdout: spans and metrics are pretty-printed to stdout (local development)
//   - otlp: metrics are pushed over OTLP/HTTP to the configured endpoint, spans are
//     still written to stdout
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationScope = "github.com/William-Ta0/Migo-Marketplcase-sub000"

// Exporter names accepted by Config.Exporter.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Config selects exporters for Setup.
type Config struct {
	Enabled        bool
	Exporter       string // stdout or otlp
	OTLPEndpoint   string // host:port of an OTLP/HTTP collector
	OTLPInsecure   bool
	ServiceName    string
	ServiceVersion string
	MetricInterval time.Duration
	// Output receives stdout exporter data. Defaults to os.Stdout.
	Output io.Writer
}

// Providers holds the installed providers until Shutdown.
type Providers struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider

	shutdown []func(context.Context) error
}

// Setup builds the providers for cfg and installs them as the otel globals.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	if !cfg.Enabled {
		p := &Providers{
			TracerProvider: tracenoop.NewTracerProvider(),
			MeterProvider:  metricnoop.NewMeterProvider(),
		}
		otel.SetTracerProvider(p.TracerProvider)
		otel.SetMeterProvider(p.MeterProvider)
		return p, nil
	}

	exporter := strings.ToLower(strings.TrimSpace(cfg.Exporter))
	if exporter == "" {
		exporter = ExporterStdout
	}
	if exporter != ExporterStdout && exporter != ExporterOTLP {
		return nil, fmt.Errorf("telemetry: unknown exporter %q", cfg.Exporter)
	}
	if exporter == ExporterOTLP && strings.TrimSpace(cfg.OTLPEndpoint) == "" {
		return nil, errors.New("telemetry: otlp exporter requires an endpoint")
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "bookings"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	tp, err := buildTracerProvider(res, out)
	if err != nil {
		return nil, fmt.Errorf("telemetry: trace provider: %w", err)
	}
	mp, err := buildMeterProvider(ctx, res, cfg, exporter, out)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("telemetry: meter provider: %w", err), tp.Shutdown(ctx))
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	return &Providers{
		TracerProvider: tp,
		MeterProvider:  mp,
		shutdown:       []func(context.Context) error{tp.Shutdown, mp.Shutdown},
	}, nil
}

func buildTracerProvider(res *resource.Resource, out io.Writer) (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
	), nil
}

func buildMeterProvider(ctx context.Context, res *resource.Resource, cfg Config, exporter string, out io.Writer) (*sdkmetric.MeterProvider, error) {
	interval := cfg.MetricInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	var (
		exp sdkmetric.Exporter
		err error
	)
	switch exporter {
	case ExporterOTLP:
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exp, err = otlpmetrichttp.New(ctx, opts...)
	default:
		exp, err = stdoutmetric.New(stdoutmetric.WithWriter(out))
	}
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))),
	), nil
}

// Shutdown flushes pending spans and metrics.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	for _, fn := range p.shutdown {
		errs = append(errs, fn(ctx))
	}
	p.shutdown = nil
	return errors.Join(errs...)
}

// Tracer returns a tracer from tp, falling back to the global provider.
func Tracer(tp trace.TracerProvider, name string) trace.Tracer {
	if name == "" {
		name = instrumentationScope
	}
	if tp == nil {
		return otel.Tracer(name)
	}
	return tp.Tracer(name)
}

// Meter returns a meter from mp, falling back to the global provider.
func Meter(mp metric.MeterProvider, name string) metric.Meter {
	if name == "" {
		name = instrumentationScope
	}
	if mp == nil {
		return otel.Meter(name)
	}
	return mp.Meter(name)
}
