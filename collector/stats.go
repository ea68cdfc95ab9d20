package collector

import (
	"sync/atomic"
	"time"

	"github.com/kbukum/collector/observability"
)

// PassStats summarizes one pass.
//
// Every transformed record is either inserted or dropped, so
// Inserted+Dropped == Transformed holds after the drain barrier. Work items
// whose batch never produced records (consume failures, aborted passes)
// are counted in Skipped.
type PassStats struct {
	PassID      string        `json:"pass_id"`
	Produced    int64         `json:"produced"`
	Batches     int64         `json:"batches"`
	Transformed int64         `json:"transformed"`
	Inserted    int64         `json:"inserted"`
	Dropped     int64         `json:"dropped"`
	Skipped     int64         `json:"skipped"`
	Failures    int64         `json:"failures"`
	Flushes     int64         `json:"flushes"`
	Duration    time.Duration `json:"duration"`
}

// Fields renders the stats as pass_end event fields.
func (s PassStats) Fields() map[string]interface{} {
	return map[string]interface{}{
		observability.FieldProduced:    s.Produced,
		observability.FieldBatches:     s.Batches,
		observability.FieldTransformed: s.Transformed,
		observability.FieldInserted:    s.Inserted,
		observability.FieldDropped:     s.Dropped,
		"skipped":                      s.Skipped,
		observability.FieldFailures:    s.Failures,
		"flushes":                      s.Flushes,
		observability.FieldDurationMs:  s.Duration.Milliseconds(),
	}
}

// Balanced reports whether every transformed record was accounted for.
func (s PassStats) Balanced() bool {
	return s.Inserted+s.Dropped == s.Transformed
}

// passCounters collects PassStats from concurrent workers.
type passCounters struct {
	produced    atomic.Int64
	batches     atomic.Int64
	transformed atomic.Int64
	inserted    atomic.Int64
	dropped     atomic.Int64
	skipped     atomic.Int64
	failures    atomic.Int64
	flushes     atomic.Int64
}

func (c *passCounters) snapshot(passID string, d time.Duration) PassStats {
	return PassStats{
		PassID:      passID,
		Produced:    c.produced.Load(),
		Batches:     c.batches.Load(),
		Transformed: c.transformed.Load(),
		Inserted:    c.inserted.Load(),
		Dropped:     c.dropped.Load(),
		Skipped:     c.skipped.Load(),
		Failures:    c.failures.Load(),
		Flushes:     c.flushes.Load(),
		Duration:    d,
	}
}
