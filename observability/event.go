package observability

import (
	"context"
	"maps"
	"sync"
)

// Event names a collector lifecycle transition.
type Event string

const (
	EventLoopRestart   Event = "loop_restart"
	EventLoopStart     Event = "loop_start"
	EventLoopUpdate    Event = "loop_update"
	EventProducerStart Event = "producer_start"
	EventConsumerStart Event = "consumer_start"
	EventInserterStart Event = "inserter_start"
	EventInserterEnd   Event = "inserter_end"
	EventStarterEnd    Event = "starter_end"
	EventPassEnd       Event = "pass_end"
	EventFailure       Event = "failure"
)

// Event field keys.
const (
	FieldCollector     = "collector"
	FieldActiveThreads = "active_threads"
	FieldProducerQueue = "producer_queue"
	FieldConsumers     = "consumers"
	FieldInsertQueue   = "insert_queue"
	FieldInserters     = "inserters"
	FieldCeiling       = "ceiling"
	FieldInsertedCount = "inserted_count"
	FieldTable         = "table"

	FieldProduced    = "produced"
	FieldBatches     = "batches"
	FieldTransformed = "transformed"
	FieldInserted    = "inserted"
	FieldDropped     = "dropped"
	FieldFailures    = "failures"
	FieldDurationMs  = "duration_ms"

	FieldStage = "stage"
	FieldCode  = "code"
	FieldItems = "items"
	FieldError = "error"
)

// Sink receives lifecycle events. Implementations must be safe for
// concurrent use and must not block; they never influence scheduling.
type Sink interface {
	Emit(ctx context.Context, event Event, fields map[string]interface{})
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, event Event, fields map[string]interface{})

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, event Event, fields map[string]interface{}) {
	f(ctx, event, fields)
}

// MultiSink forwards every event to each sink in order.
type MultiSink []Sink

// Emit forwards to all sinks.
func (m MultiSink) Emit(ctx context.Context, event Event, fields map[string]interface{}) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, event, fields)
		}
	}
}

// NopSink discards events.
type NopSink struct{}

// Emit does nothing.
func (NopSink) Emit(context.Context, Event, map[string]interface{}) {}

// Recorded is one event captured by a Recorder.
type Recorded struct {
	Event  Event
	Fields map[string]interface{}
}

// Recorder keeps every event in memory. Useful for tests and dry runs.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

// Emit records a copy of the event.
func (r *Recorder) Emit(_ context.Context, event Event, fields map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Event: event, Fields: maps.Clone(fields)})
}

// Events returns the recorded events in emission order.
func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.events...)
}

// Filter returns the recorded events named event.
func (r *Recorder) Filter(event Event) []Recorded {
	var out []Recorded
	for _, e := range r.Events() {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many times event was recorded.
func (r *Recorder) Count(event Event) int {
	return len(r.Filter(event))
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []Event {
	events := r.Events()
	names := make([]Event, len(events))
	for i, e := range events {
		names[i] = e.Event
	}
	return names
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
