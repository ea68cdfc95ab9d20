package kafkatopic

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	apperrors "github.com/kbukum/collector/errors"
	"github.com/kbukum/collector/kafka"
	"github.com/kbukum/collector/logger"
	"github.com/kbukum/collector/storage"
)

type fakePublisher struct {
	err    error
	calls  int
	msgs   []kafkago.Message
	closed bool
}

func (p *fakePublisher) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	p.calls++
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func TestInsertData(t *testing.T) {
	pub := &fakePublisher{}
	s := New(pub, "collector.")

	ids, err := s.InsertData(context.Background(), "tracks", []storage.Record{
		{"id": 7, "title": "one"},
		{"title": "two"},
	})
	if err != nil {
		t.Fatalf("InsertData() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "7" || ids[1] == "" {
		t.Fatalf("ids = %v", ids)
	}
	if len(pub.msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.msgs))
	}

	msg := pub.msgs[1]
	if msg.Topic != "collector.tracks" {
		t.Errorf("Topic = %q", msg.Topic)
	}
	if string(msg.Key) != ids[1] {
		t.Errorf("Key = %q, want %q", msg.Key, ids[1])
	}
	var row map[string]any
	if err := json.Unmarshal(msg.Value, &row); err != nil {
		t.Fatalf("Value is not JSON: %v", err)
	}
	if row["title"] != "two" || row["id"] != ids[1] {
		t.Errorf("Value = %v", row)
	}
}

func TestInsertDataErrors(t *testing.T) {
	tests := []struct {
		name    string
		pubErr  error
		records []storage.Record
		code    apperrors.ErrorCode
	}{
		{"unserializable", nil, []storage.Record{{"ch": make(chan int)}}, apperrors.ErrCodeInvalidInput},
		{"broker down", errors.New("dial tcp: connection refused"), []storage.Record{{"a": 1}}, apperrors.ErrCodeConnectionFailed},
		{"rejected", errors.New("message too large"), []storage.Record{{"a": 1}}, apperrors.ErrCodeExternalService},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pub := &fakePublisher{err: tc.pubErr}
			_, err := New(pub, "").InsertData(context.Background(), "tracks", tc.records)
			if !apperrors.Is(err, tc.code) {
				t.Errorf("error = %v, want %s", err, tc.code)
			}
			if len(pub.msgs) != 0 {
				t.Errorf("published %d messages on failure", len(pub.msgs))
			}
		})
	}
}

func TestWithProducer(t *testing.T) {
	pub := &fakePublisher{}
	producer := kafka.NewProducerWithWriter(kafka.Config{Enabled: true}, &writerAdapter{pub}, logger.Nop())
	s := New(producer, "")

	if _, err := s.InsertData(context.Background(), "albums", []storage.Record{{"title": "x"}}); err != nil {
		t.Fatalf("InsertData() error = %v", err)
	}
	if len(pub.msgs) != 1 || pub.msgs[0].Topic != "albums" {
		t.Errorf("msgs = %+v", pub.msgs)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !pub.closed {
		t.Error("Close did not reach the writer")
	}
}

func TestFailedFlushWritesOnce(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperrors.ErrorCode
	}{
		{"transient", errors.New("request timed out"), apperrors.ErrCodeServiceUnavailable},
		{"connection", errors.New("dial tcp: connection refused"), apperrors.ErrCodeConnectionFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pub := &fakePublisher{err: tc.err}
			producer := kafka.NewProducerWithWriter(kafka.Config{Enabled: true}, &writerAdapter{pub}, logger.Nop())

			_, err := New(producer, "").InsertData(context.Background(), "tracks", []storage.Record{{"a": 1}, {"a": 2}})
			if !apperrors.Is(err, tc.code) {
				t.Errorf("error = %v, want %s", err, tc.code)
			}
			if pub.calls != 1 {
				t.Errorf("writer calls = %d, want 1", pub.calls)
			}
		})
	}
}

func TestFactoryRequiresConfig(t *testing.T) {
	if _, err := storage.New(storage.Config{Provider: storage.ProviderKafka}, nil, logger.Nop()); err == nil {
		t.Error("expected error without provider config")
	}
	if _, err := storage.New(storage.Config{Provider: storage.ProviderKafka}, "brokers", logger.Nop()); err == nil {
		t.Error("expected error for wrong provider config type")
	}
}

type writerAdapter struct{ *fakePublisher }

func (writerAdapter) Stats() kafkago.WriterStats { return kafkago.WriterStats{} }
