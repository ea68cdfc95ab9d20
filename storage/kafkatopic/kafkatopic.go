// Package kafkatopic publishes collector records as Kafka messages, one
// topic per table. Messages are keyed by record id and carry the record as
// JSON.
package kafkatopic

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	apperrors "github.com/kbukum/collector/errors"
	"github.com/kbukum/collector/kafka"
	"github.com/kbukum/collector/logger"
	"github.com/kbukum/collector/storage"
)

// HeaderTable names the header carrying the source table.
const HeaderTable = "collector-table"

func init() {
	storage.RegisterFactory(storage.ProviderKafka, func(_ storage.Config, providerCfg any, log *logger.Logger) (storage.Storage, error) {
		switch pc := providerCfg.(type) {
		case *Config:
			return Open(*pc, log)
		case nil:
			return nil, fmt.Errorf("kafkatopic: provider config is required")
		default:
			return nil, fmt.Errorf("kafkatopic: expected *kafkatopic.Config, got %T", providerCfg)
		}
	})
}

// Config configures the topic backend.
type Config struct {
	Kafka kafka.Config `yaml:"kafka" mapstructure:"kafka"`

	// TopicPrefix is prepended to the table name to form the topic.
	TopicPrefix string `yaml:"topic_prefix" mapstructure:"topic_prefix"`
}

// Target names the brokers and topic prefix for component summaries.
func (c *Config) Target() string {
	return strings.Join(c.Kafka.Brokers, ",") + "/" + c.TopicPrefix + "*"
}

// Publisher sends messages. *kafka.Producer implements it.
type Publisher interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Store publishes records.
type Store struct {
	pub    Publisher
	prefix string
}

var (
	_ storage.Storage = (*Store)(nil)
	_ storage.Closer  = (*Store)(nil)
	_ Publisher       = (*kafka.Producer)(nil)
)

// New creates a store over pub.
func New(pub Publisher, topicPrefix string) *Store {
	return &Store{pub: pub, prefix: topicPrefix}
}

// Open creates a producer from cfg.
func Open(cfg Config, log *logger.Logger) (*Store, error) {
	cfg.Kafka.Enabled = true
	p, err := kafka.NewProducer(cfg.Kafka, log)
	if err != nil {
		return nil, err
	}
	return New(p, cfg.TopicPrefix), nil
}

// Topic returns the topic for table.
func (s *Store) Topic(table string) string {
	return s.prefix + table
}

// InsertData publishes one message per record in a single write and returns
// the record ids used as message keys.
func (s *Store) InsertData(ctx context.Context, table string, records []storage.Record) ([]string, error) {
	if len(records) == 0 {
		return []string{}, nil
	}
	topic := s.Topic(table)
	msgs := make([]kafkago.Message, len(records))
	ids := make([]string, len(records))
	for i, r := range records {
		row, id := storage.WithID(r)
		data, err := json.Marshal(row)
		if err != nil {
			return nil, apperrors.InvalidInput(table, fmt.Sprintf("record %d is not serializable", i)).WithCause(err)
		}
		ids[i] = id
		msgs[i] = kafkago.Message{
			Topic: topic,
			Key:   []byte(id),
			Value: data,
			Headers: []kafkago.Header{
				{Key: "content-type", Value: []byte("application/json")},
				{Key: HeaderTable, Value: []byte(table)},
			},
		}
	}

	if err := s.pub.WriteMessages(ctx, msgs...); err != nil {
		return nil, kafka.FromKafka(err, topic)
	}
	return ids, nil
}

// Close closes the publisher.
func (s *Store) Close() error {
	return s.pub.Close()
}
