package kafka

import (
	kafkago "github.com/segmentio/kafka-go"
)

// WriterMetrics contains structured publisher metrics.
type WriterMetrics struct {
	Writes       int64   `json:"writes"`
	Messages     int64   `json:"messages"`
	Bytes        int64   `json:"bytes"`
	Errors       int64   `json:"errors"`
	Retries      int64   `json:"retries"`
	AvgWriteTime float64 `json:"avg_write_time_ms"`
	MaxWriteTime float64 `json:"max_write_time_ms"`
	Topic        string  `json:"topic,omitempty"`
}

// CollectWriterMetrics extracts structured metrics from kafka.WriterStats.
func CollectWriterMetrics(stats kafkago.WriterStats) WriterMetrics {
	return WriterMetrics{
		Writes:       stats.Writes,
		Messages:     stats.Messages,
		Bytes:        stats.Bytes,
		Errors:       stats.Errors,
		Retries:      stats.Retries,
		AvgWriteTime: float64(stats.WriteTime.Avg) / 1e6,
		MaxWriteTime: float64(stats.WriteTime.Max) / 1e6,
		Topic:        stats.Topic,
	}
}

// Fields returns the metrics as log fields.
func (m WriterMetrics) Fields() map[string]interface{} {
	return map[string]interface{}{
		"writes":            m.Writes,
		"messages":          m.Messages,
		"bytes":             m.Bytes,
		"errors":            m.Errors,
		"avg_write_time_ms": m.AvgWriteTime,
		"max_write_time_ms": m.MaxWriteTime,
	}
}
