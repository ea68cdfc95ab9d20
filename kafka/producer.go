package kafka

import (
	"context"
	"fmt"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/collector/logger"
)

// Writer is the subset of *kafkago.Writer the producer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Stats() kafkago.WriterStats
	Close() error
}

// Producer wraps a kafka-go Writer with TLS/SASL and collector logging.
// Each WriteMessages call is a single delivery attempt; a failed write is
// returned to the caller as is.
type Producer struct {
	writer Writer
	cfg    Config
	log    *logger.Logger
	mu     sync.RWMutex
	closed bool
}

// NewProducer creates a Kafka producer connected to cfg.Brokers.
func NewProducer(cfg Config, log *logger.Logger) (*Producer, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka producer config: %w", err)
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("kafka is disabled")
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("kafka.producer")

	w, err := newWriter(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("kafka producer transport: %w", err)
	}

	log.Info("Kafka producer initialized", map[string]interface{}{
		"brokers":     cfg.Brokers,
		"compression": cfg.Compression,
		"batch_size":  cfg.BatchSize,
	})
	return NewProducerWithWriter(cfg, w, log), nil
}

// NewProducerWithWriter creates a producer over an existing writer.
func NewProducerWithWriter(cfg Config, w Writer, log *logger.Logger) *Producer {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Producer{writer: w, cfg: cfg, log: log}
}

// WriteMessages sends messages to Kafka in one attempt.
func (p *Producer) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("producer is closed")
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.log.WithContext(ctx).Warn("kafka write failed", map[string]interface{}{
			"messages":  len(msgs),
			"retryable": IsRetryableError(err),
			"error":     err.Error(),
		})
		return err
	}
	return nil
}

// Metrics returns writer statistics accumulated since the last call.
func (p *Producer) Metrics() WriterMetrics {
	return CollectWriterMetrics(p.writer.Stats())
}

// Close shuts down the producer. Safe to call multiple times.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.log.Info("Kafka producer closing", p.Metrics().Fields())
	return p.writer.Close()
}
