// Package telemetry sets up OpenTelemetry metrics for the dashboard server.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"ridership/internal/config"
)

// ServiceName identifies this service in exported metrics
const ServiceName = "ridership-dashboard"

// ShutdownFunc flushes and stops the meter provider
type ShutdownFunc func(context.Context) error

// Setup returns a meter provider for the given configuration.
// When telemetry is disabled a no-op provider is returned.
func Setup(ctx context.Context, cfg config.TelemetryConfig, serviceVersion string) (metric.MeterProvider, ShutdownFunc, error) {
	if !cfg.Enabled {
		return noop.NewMeterProvider(), func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(ctx, cfg.Endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("creating OTLP metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(cfg.Interval),
		)),
		sdkmetric.WithResource(res),
	)

	log.Printf("Exporting metrics to %s every %s", cfg.Endpoint, cfg.Interval)
	return provider, provider.Shutdown, nil
}

// newExporter builds an OTLP/HTTP exporter from an endpoint URL
func newExporter(ctx context.Context, endpoint string) (*otlpmetrichttp.Exporter, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(u.Host),
		otlpmetrichttp.WithTimeout(10 * time.Second),
	}
	if u.Path != "" && u.Path != "/" {
		opts = append(opts, otlpmetrichttp.WithURLPath(u.Path))
	}
	if u.Scheme == "http" {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(ctx, opts...)
}

// Instruments records dashboard computations
type Instruments struct {
	computations metric.Int64Counter
	duration     metric.Float64Histogram
	rowsScanned  metric.Int64Counter
}

// NewInstruments creates the dashboard instruments on the given provider
func NewInstruments(provider metric.MeterProvider) (*Instruments, error) {
	meter := provider.Meter("ridership/dashboard")

	computations, err := meter.Int64Counter(
		"dashboard.computations",
		metric.WithDescription("Number of dashboard computations by operation"),
		metric.WithUnit("{computation}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"dashboard.computation.duration",
		metric.WithDescription("Time spent filtering and aggregating"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rowsScanned, err := meter.Int64Counter(
		"dashboard.rows.selected",
		metric.WithDescription("Rows remaining after the filter step"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}

	return &Instruments{
		computations: computations,
		duration:     duration,
		rowsScanned:  rowsScanned,
	}, nil
}

// RecordComputation records one engine call. A nil receiver is a no-op.
func (i *Instruments) RecordComputation(ctx context.Context, operation string, rows int, elapsed time.Duration) {
	if i == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	i.computations.Add(ctx, 1, attrs)
	i.duration.Record(ctx, elapsed.Seconds(), attrs)
	i.rowsScanned.Add(ctx, int64(rows), attrs)
}

// RegisterDatasetGauge reports the number of loaded rows
func RegisterDatasetGauge(provider metric.MeterProvider, rows func() int) error {
	meter := provider.Meter("ridership/dashboard")
	_, err := meter.Int64ObservableGauge(
		"dashboard.dataset.rows",
		metric.WithDescription("Rows in the loaded transaction log"),
		metric.WithUnit("{row}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(rows()))
			return nil
		}),
	)
	return err
}
