package observability

import (
	"context"

	"github.com/kbukum/collector/logger"
)

var eventMessages = map[Event]string{
	EventLoopRestart:   "Found more items for update, restarting loop",
	EventLoopStart:     "Starting collection",
	EventLoopUpdate:    "Scheduler update",
	EventProducerStart: "Producer started, gathering work items",
	EventConsumerStart: "Consumer started",
	EventInserterStart: "Inserter started",
	EventInserterEnd:   "Records inserted",
	EventStarterEnd:    "Finished",
	EventPassEnd:       "Pass complete",
	EventFailure:       "Stage failure",
}

// LogSink writes lifecycle events as structured log lines. The pass ID
// carried by the context is attached to every line.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a LogSink. A nil logger uses the global one.
func NewLogSink(log *logger.Logger) *LogSink {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &LogSink{log: log.WithComponent("collector")}
}

// Emit logs the event. Scheduler ticks and worker starts log at debug,
// failures at error, everything else at info.
func (s *LogSink) Emit(ctx context.Context, event Event, fields map[string]interface{}) {
	msg, ok := eventMessages[event]
	if !ok {
		msg = string(event)
	}
	if name, ok := fields[FieldCollector].(string); ok && name != "" {
		msg = "[" + name + "] " + msg
	}

	l := s.log.WithContext(ctx)
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[logger.FieldEvent] = string(event)

	switch event {
	case EventLoopUpdate, EventConsumerStart, EventInserterStart:
		l.Debug(msg, out)
	case EventFailure:
		l.Error(msg, out)
	default:
		l.Info(msg, out)
	}
}
