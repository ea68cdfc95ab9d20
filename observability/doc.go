// Package observability reports what a collector is doing.
//
// Lifecycle events flow through a Sink. LogSink renders them as log lines,
// MetricsSink turns them into OpenTelemetry instruments, and MultiSink fans
// out to several sinks:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("track-collector"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewCollectorMetrics(observability.Meter("track-collector"))
//	sink := observability.MultiSink{
//	    observability.NewLogSink(log),
//	    observability.NewMetricsSink(metrics),
//	}
//
// Each collector pass runs inside a span named SpanPass started with
// StartSpan; set up the provider with InitTracer.
package observability
