package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/collector/logger"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	fields := map[string]interface{}{FieldInsertedCount: 3}
	r.Emit(context.Background(), EventInserterEnd, fields)
	r.Emit(context.Background(), EventStarterEnd, nil)
	fields[FieldInsertedCount] = 99

	if got := r.Names(); len(got) != 2 || got[0] != EventInserterEnd || got[1] != EventStarterEnd {
		t.Fatalf("unexpected names %v", got)
	}
	if got := r.Filter(EventInserterEnd)[0].Fields[FieldInsertedCount]; got != 3 {
		t.Errorf("expected recorded fields to be a copy, got %v", got)
	}
	if r.Count(EventLoopStart) != 0 {
		t.Error("expected zero loop_start events")
	}
	r.Reset()
	if len(r.Events()) != 0 {
		t.Error("expected Reset to clear events")
	}
}

func TestRecorderConcurrentEmit(t *testing.T) {
	r := &Recorder{}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Emit(context.Background(), EventConsumerStart, nil)
		}()
	}
	wg.Wait()
	if n := r.Count(EventConsumerStart); n != 20 {
		t.Errorf("expected 20 events, got %d", n)
	}
}

func TestMultiSink(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	var fn int
	sink := MultiSink{a, nil, b, SinkFunc(func(context.Context, Event, map[string]interface{}) { fn++ })}
	sink.Emit(context.Background(), EventLoopStart, nil)

	if a.Count(EventLoopStart) != 1 || b.Count(EventLoopStart) != 1 || fn != 1 {
		t.Errorf("expected every sink to receive the event: a=%d b=%d fn=%d",
			a.Count(EventLoopStart), b.Count(EventLoopStart), fn)
	}
	NopSink{}.Emit(context.Background(), EventLoopStart, nil)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "info", Format: "json"}, "svc", &buf)
	sink := NewLogSink(log)

	ctx := logger.ContextWithPassID(context.Background(), "pass-7")
	sink.Emit(ctx, EventLoopUpdate, map[string]interface{}{FieldCollector: "tracks"})
	sink.Emit(ctx, EventInserterEnd, map[string]interface{}{FieldCollector: "tracks", FieldInsertedCount: 15})
	sink.Emit(ctx, EventFailure, map[string]interface{}{FieldStage: "consume"})
	sink.Emit(ctx, Event("custom"), nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected loop_update to be filtered at info, got %d lines:\n%s", len(lines), buf.String())
	}

	var first map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if first["message"] != "[tracks] Records inserted" {
		t.Errorf("message = %v", first["message"])
	}
	if first[FieldInsertedCount] != float64(15) || first["pass_id"] != "pass-7" || first["event"] != "inserter_end" {
		t.Errorf("unexpected fields %v", first)
	}

	var second map[string]interface{}
	json.Unmarshal([]byte(lines[1]), &second)
	if second["level"] != "error" || second["message"] != "Stage failure" {
		t.Errorf("expected failure at error level, got %v", second)
	}
	if !strings.Contains(lines[2], `"message":"custom"`) {
		t.Errorf("expected unknown event name as message, got %s", lines[2])
	}
}

func newTestMetrics(t *testing.T) (*CollectorMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { mp.Shutdown(context.Background()) })

	m, err := NewCollectorMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewCollectorMetrics failed: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumWhere(t *testing.T, data metricdata.Aggregation, key, value string) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		if key == "" {
			total += dp.Value
			continue
		}
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestMetricsSink(t *testing.T) {
	m, reader := newTestMetrics(t)
	sink := NewMetricsSink(m)
	ctx := context.Background()
	name := map[string]interface{}{FieldCollector: "tracks"}

	sink.Emit(ctx, EventLoopStart, name)
	sink.Emit(ctx, EventLoopUpdate, map[string]interface{}{
		FieldCollector: "tracks", FieldProducerQueue: 70, FieldInsertQueue: 50, FieldConsumers: 1, FieldInserters: 0,
	})
	sink.Emit(ctx, EventInserterEnd, map[string]interface{}{FieldCollector: "tracks", FieldInsertedCount: 10, FieldTable: "t"})
	sink.Emit(ctx, EventInserterEnd, map[string]interface{}{FieldCollector: "tracks", FieldInsertedCount: 5, FieldTable: "t"})
	sink.Emit(ctx, EventFailure, map[string]interface{}{FieldCollector: "tracks", FieldStage: "consume", FieldCode: "HOOK_FAILURE"})
	sink.Emit(ctx, EventPassEnd, map[string]interface{}{
		FieldCollector: "tracks", FieldProduced: 120, FieldTransformed: 100, FieldInserted: 95, FieldDropped: 5,
		FieldDurationMs: int64(1500),
	})

	data := collect(t, reader)

	if got := sumWhere(t, data["collector.passes"], "", ""); got != 1 {
		t.Errorf("passes = %d, want 1", got)
	}
	if got := sumWhere(t, data["collector.failures"], FieldStage, "consume"); got != 1 {
		t.Errorf("consume failures = %d, want 1", got)
	}
	for outcome, want := range map[string]int64{FieldProduced: 120, FieldTransformed: 100, FieldInserted: 95, FieldDropped: 5} {
		if got := sumWhere(t, data["collector.items"], "outcome", outcome); got != want {
			t.Errorf("items[%s] = %d, want %d", outcome, got, want)
		}
	}

	flush, ok := data["collector.flush.size"].(metricdata.Histogram[int64])
	if !ok || len(flush.DataPoints) != 1 {
		t.Fatalf("unexpected flush histogram %#v", data["collector.flush.size"])
	}
	if flush.DataPoints[0].Count != 2 || flush.DataPoints[0].Sum != 15 {
		t.Errorf("flush histogram count=%d sum=%d", flush.DataPoints[0].Count, flush.DataPoints[0].Sum)
	}

	depth, ok := data["collector.queue.depth"].(metricdata.Gauge[int64])
	if !ok || len(depth.DataPoints) != 2 {
		t.Fatalf("unexpected queue gauge %#v", data["collector.queue.depth"])
	}

	dur, ok := data["collector.pass.duration"].(metricdata.Histogram[float64])
	if !ok || len(dur.DataPoints) != 1 || dur.DataPoints[0].Sum != 1.5 {
		t.Errorf("unexpected pass duration %#v", data["collector.pass.duration"])
	}
}

func TestIntField(t *testing.T) {
	fields := map[string]interface{}{"a": 1, "b": int64(2), "c": float64(3), "d": "x"}
	for key, want := range map[string]int64{"a": 1, "b": 2, "c": 3, "d": 0, "missing": 0} {
		if got := intField(fields, key); got != want {
			t.Errorf("intField(%q) = %d, want %d", key, got, want)
		}
	}
}

func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	prev := otel.GetTracerProvider()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		tp.Shutdown(context.Background())
	})
	return sr
}

func TestStartSpanAndSetSpanError(t *testing.T) {
	sr := useSpanRecorder(t)

	_, span := StartSpan(context.Background(), SpanPass)
	SetSpanError(span, fmt.Errorf("insert failed"))
	SetSpanError(span, nil)
	span.End()

	ended := sr.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Name() != SpanPass {
		t.Errorf("span name = %q", ended[0].Name())
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", ended[0].Status())
	}
	if len(ended[0].Events()) != 1 {
		t.Errorf("expected one recorded error event, got %d", len(ended[0].Events()))
	}
}

func TestDefaultConfigs(t *testing.T) {
	tc := DefaultTracerConfig("svc")
	if tc.ServiceName != "svc" || tc.Endpoint != "localhost:4318" || tc.SampleRate != 1.0 || !tc.Insecure {
		t.Errorf("unexpected tracer defaults %+v", tc)
	}
	mc := DefaultMeterConfig("svc")
	if mc.ServiceName != "svc" || mc.Interval != 15*time.Second {
		t.Errorf("unexpected meter defaults %+v", mc)
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tc := range tests {
		if got := samplerFor(tc.rate).Description(); got != tc.want {
			t.Errorf("samplerFor(%v) = %q, want %q", tc.rate, got, tc.want)
		}
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("svc", "1.2.3", "test")
	if err != nil {
		t.Fatalf("newResource failed: %v", err)
	}
	v, ok := res.Set().Value(attribute.Key(AttrServiceName))
	if !ok || v.AsString() != "svc" {
		t.Errorf("service.name = %v", v)
	}
}

func TestInitTracerAndMeter(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})
	logger.SetGlobalLogger(logger.Nop())
	t.Cleanup(func() { logger.SetGlobalLogger(nil) })

	ctx := context.Background()
	tp, err := InitTracer(ctx, DefaultTracerConfig("svc"))
	if err != nil {
		t.Fatalf("InitTracer failed: %v", err)
	}
	mp, err := InitMeter(ctx, DefaultMeterConfig("svc"))
	if err != nil {
		t.Fatalf("InitMeter failed: %v", err)
	}

	// No collector is listening; shutdown may report export errors.
	shutdownCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_ = tp.Shutdown(shutdownCtx)
	_ = mp.Shutdown(shutdownCtx)
}
