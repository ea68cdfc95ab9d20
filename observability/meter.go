package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/collector/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	// Environment is the deployment environment (dev, staging, prod).
	Environment string `yaml:"environment" mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure allows insecure connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the global OpenTelemetry meter provider with an
// OTLP HTTP exporter. Shut the provider down on exit to flush.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// CollectorMetrics holds the instruments describing collector passes.
type CollectorMetrics struct {
	passes        metric.Int64Counter
	passDuration  metric.Float64Histogram
	items         metric.Int64Counter
	flushSize     metric.Int64Histogram
	failures      metric.Int64Counter
	queueDepth    metric.Int64Gauge
	activeWorkers metric.Int64Gauge
}

// NewCollectorMetrics creates the collector instruments on meter.
func NewCollectorMetrics(meter metric.Meter) (*CollectorMetrics, error) {
	passes, err := meter.Int64Counter("collector.passes",
		metric.WithDescription("Number of passes started"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collector.passes counter: %w", err)
	}

	passDuration, err := meter.Float64Histogram("collector.pass.duration",
		metric.WithDescription("Duration of a full pass in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collector.pass.duration histogram: %w", err)
	}

	items, err := meter.Int64Counter("collector.items",
		metric.WithDescription("Items seen per stage outcome (produced, transformed, inserted, dropped)"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collector.items counter: %w", err)
	}

	flushSize, err := meter.Int64Histogram("collector.flush.size",
		metric.WithDescription("Records persisted per storage call"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collector.flush.size histogram: %w", err)
	}

	failures, err := meter.Int64Counter("collector.failures",
		metric.WithDescription("Hook and storage failures by stage"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collector.failures counter: %w", err)
	}

	queueDepth, err := meter.Int64Gauge("collector.queue.depth",
		metric.WithDescription("Items waiting in a stage queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collector.queue.depth gauge: %w", err)
	}

	activeWorkers, err := meter.Int64Gauge("collector.workers.active",
		metric.WithDescription("Running workers by role"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collector.workers.active gauge: %w", err)
	}

	return &CollectorMetrics{
		passes:        passes,
		passDuration:  passDuration,
		items:         items,
		flushSize:     flushSize,
		failures:      failures,
		queueDepth:    queueDepth,
		activeWorkers: activeWorkers,
	}, nil
}

// MetricsSink records lifecycle events on CollectorMetrics.
type MetricsSink struct {
	m *CollectorMetrics
}

// NewMetricsSink creates a sink over m.
func NewMetricsSink(m *CollectorMetrics) *MetricsSink {
	return &MetricsSink{m: m}
}

// Emit updates the instruments matching event.
func (s *MetricsSink) Emit(ctx context.Context, event Event, fields map[string]interface{}) {
	name := attribute.String(FieldCollector, stringField(fields, FieldCollector))

	switch event {
	case EventLoopStart:
		s.m.passes.Add(ctx, 1, metric.WithAttributes(name))
	case EventLoopUpdate:
		s.m.queueDepth.Record(ctx, intField(fields, FieldProducerQueue),
			metric.WithAttributes(name, attribute.String("queue", "producer")))
		s.m.queueDepth.Record(ctx, intField(fields, FieldInsertQueue),
			metric.WithAttributes(name, attribute.String("queue", "insert")))
		s.m.activeWorkers.Record(ctx, intField(fields, FieldConsumers),
			metric.WithAttributes(name, attribute.String("role", "consumer")))
		s.m.activeWorkers.Record(ctx, intField(fields, FieldInserters),
			metric.WithAttributes(name, attribute.String("role", "inserter")))
	case EventInserterEnd:
		s.m.flushSize.Record(ctx, intField(fields, FieldInsertedCount),
			metric.WithAttributes(name, attribute.String(FieldTable, stringField(fields, FieldTable))))
	case EventFailure:
		s.m.failures.Add(ctx, 1, metric.WithAttributes(name,
			attribute.String(FieldStage, stringField(fields, FieldStage)),
			attribute.String(FieldCode, stringField(fields, FieldCode)),
		))
	case EventPassEnd:
		for _, outcome := range []string{FieldProduced, FieldTransformed, FieldInserted, FieldDropped} {
			if n := intField(fields, outcome); n > 0 {
				s.m.items.Add(ctx, n, metric.WithAttributes(name, attribute.String("outcome", outcome)))
			}
		}
		ms := intField(fields, FieldDurationMs)
		s.m.passDuration.Record(ctx, float64(ms)/1000, metric.WithAttributes(name))
	}
}

func stringField(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func intField(fields map[string]interface{}, key string) int64 {
	switch v := fields[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}
