// Package redisstream appends collector records to Redis streams, one stream
// per table. Each entry carries the record's id and its JSON encoding.
package redisstream

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	apperrors "github.com/kbukum/collector/errors"
	"github.com/kbukum/collector/logger"
	"github.com/kbukum/collector/redis"
	"github.com/kbukum/collector/storage"
	"github.com/kbukum/collector/validation"
)

// Entry field names.
const (
	FieldID   = "id"
	FieldData = "data"
)

func init() {
	storage.RegisterFactory(storage.ProviderRedis, func(_ storage.Config, providerCfg any, log *logger.Logger) (storage.Storage, error) {
		switch pc := providerCfg.(type) {
		case *Config:
			return Open(*pc, log)
		case nil:
			return nil, fmt.Errorf("redisstream: provider config is required")
		default:
			return nil, fmt.Errorf("redisstream: expected *redisstream.Config, got %T", providerCfg)
		}
	})
}

// Config configures the stream backend.
type Config struct {
	Redis redis.Config `yaml:"redis" mapstructure:"redis"`

	// KeyPrefix is prepended to the table name to form the stream key.
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`

	// MaxLen approximately caps each stream. Zero leaves streams unbounded.
	MaxLen int64 `yaml:"max_len" mapstructure:"max_len" validate:"gte=0"`
}

// ApplyDefaults fills in zero-valued fields. Stream writes are single
// attempts, so client retries default to off.
func (c *Config) ApplyDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "collector:"
	}
	if c.Redis.MaxRetries == 0 {
		c.Redis.MaxRetries = -1
	}
	c.Redis.ApplyDefaults()
}

// Validate checks the backend and connection settings.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	return c.Redis.Validate()
}

// Store writes records to streams.
type Store struct {
	client *redis.Client
	owned  bool
	prefix string
	maxLen int64
}

var (
	_ storage.Storage = (*Store)(nil)
	_ storage.Pinger  = (*Store)(nil)
	_ storage.Closer  = (*Store)(nil)
)

// New creates a store over an existing client. Close leaves client open.
func New(client *redis.Client, keyPrefix string, maxLen int64) *Store {
	return &Store{client: client, prefix: keyPrefix, maxLen: maxLen}
}

// Open connects to Redis as described by cfg.
func Open(cfg Config, log *logger.Logger) (*Store, error) {
	cfg.Redis.Enabled = true
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("redisstream config: %w", err)
	}
	client, err := redis.New(cfg.Redis, log)
	if err != nil {
		return nil, err
	}
	s := New(client, cfg.KeyPrefix, cfg.MaxLen)
	s.owned = true
	return s, nil
}

// Stream returns the stream key for table.
func (s *Store) Stream(table string) string {
	return s.prefix + table
}

// InsertData appends one entry per record and returns the stream entry IDs.
func (s *Store) InsertData(ctx context.Context, table string, records []storage.Record) ([]string, error) {
	if len(records) == 0 {
		return []string{}, nil
	}
	entries := make([]map[string]interface{}, len(records))
	for i, r := range records {
		row, id := storage.WithID(r)
		data, err := json.Marshal(row)
		if err != nil {
			return nil, apperrors.InvalidInput(table, fmt.Sprintf("record %d is not serializable", i)).WithCause(err)
		}
		entries[i] = map[string]interface{}{FieldID: id, FieldData: string(data)}
	}

	ids, err := s.client.XAddBatch(ctx, s.Stream(table), entries, s.maxLen)
	if err != nil {
		return nil, apperrors.ServiceUnavailable("redis").WithCause(err)
	}
	return ids, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close closes the client when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

// Target names the server and stream prefix for component summaries.
func (c *Config) Target() string { return c.Redis.Addr + "/" + c.KeyPrefix + "*" }
