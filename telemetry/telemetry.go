// Package telemetry exports run metrics over OTLP.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const serviceName = "ytscribe"

// Options configures the exporter.
type Options struct {
	Endpoint string // host:port of an OTLP gRPC collector
	Interval time.Duration
	Insecure bool
	Version  string
}

// Metrics records run and stage measurements.
type Metrics struct {
	provider      *sdkmetric.MeterProvider
	runsTotal     metric.Int64Counter
	failuresTotal metric.Int64Counter
	runDuration   metric.Float64Histogram
	stageDuration metric.Float64Histogram
}

// New creates Metrics exporting to an OTLP collector.
func New(ctx context.Context, opts Options) (*Metrics, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("telemetry: OTLP endpoint not configured")
	}

	grpcOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
	}
	exp, err := otlpmetricgrpc.New(ctx, grpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if opts.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(opts.Interval))
	}
	return NewWithReader(ctx, sdkmetric.NewPeriodicReader(exp, readerOpts...), opts.Version)
}

// NewWithReader creates Metrics on top of any reader.
func NewWithReader(ctx context.Context, reader sdkmetric.Reader, version string) (*Metrics, error) {
	if version == "" {
		version = "dev"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	meter := provider.Meter(serviceName)

	m := &Metrics{provider: provider}
	if m.runsTotal, err = meter.Int64Counter(
		"ytscribe_runs_total",
		metric.WithDescription("Finished runs by terminal state"),
		metric.WithUnit("{run}"),
	); err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}
	if m.failuresTotal, err = meter.Int64Counter(
		"ytscribe_failures_total",
		metric.WithDescription("Aborted runs by error kind"),
		metric.WithUnit("{run}"),
	); err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}
	if m.runDuration, err = meter.Float64Histogram(
		"ytscribe_run_duration_seconds",
		metric.WithDescription("Run duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating run histogram: %w", err)
	}
	if m.stageDuration, err = meter.Float64Histogram(
		"ytscribe_stage_duration_seconds",
		metric.WithDescription("Stage duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating stage histogram: %w", err)
	}
	return m, nil
}

// RecordStage records how long a stage took and whether it failed.
func (m *Metrics) RecordStage(ctx context.Context, stage string, d time.Duration, err error) {
	m.stageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.Bool("failed", err != nil),
	))
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(ctx context.Context, state, kind string, d time.Duration) {
	// a cancelled run context must not drop the measurement
	ctx = context.WithoutCancel(ctx)

	m.runsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
	m.runDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("state", state)))
	if kind != "" {
		m.failuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}

// Shutdown flushes pending metrics and stops the provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
