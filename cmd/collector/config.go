package main

import (
	"fmt"

	"github.com/kbukum/collector/collector"
	"github.com/kbukum/collector/config"
	"github.com/kbukum/collector/database"
	"github.com/kbukum/collector/observability"
	"github.com/kbukum/collector/storage"
	"github.com/kbukum/collector/storage/kafkatopic"
	"github.com/kbukum/collector/storage/redisstream"
	"github.com/kbukum/collector/storage/s3"
	"github.com/kbukum/collector/validation"
)

// JobConfig is the configuration of the demo collector.
type JobConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Collector collector.Config   `yaml:"collector" mapstructure:"collector"`
	Source    SourceConfig       `yaml:"source" mapstructure:"source"`
	Database  database.Config    `yaml:"database" mapstructure:"database"`
	Storage   storage.Config     `yaml:"storage" mapstructure:"storage"`
	Redis     redisstream.Config `yaml:"redis_stream" mapstructure:"redis_stream"`
	Kafka     kafkatopic.Config  `yaml:"kafka_topic" mapstructure:"kafka_topic"`
	S3        s3.Config          `yaml:"s3" mapstructure:"s3"`
	Telemetry TelemetryConfig    `yaml:"telemetry" mapstructure:"telemetry"`
}

// SourceConfig controls the demo source table.
type SourceConfig struct {
	// ClaimLimit is the number of rows one pass claims.
	ClaimLimit int `yaml:"claim_limit" mapstructure:"claim_limit"`
	// Seed is the number of rows inserted on first start.
	Seed int `yaml:"seed" mapstructure:"seed"`
}

// TelemetryConfig enables OTLP export of collector metrics and pass spans.
type TelemetryConfig struct {
	Enabled bool                       `yaml:"enabled" mapstructure:"enabled"`
	Meter   observability.MeterConfig  `yaml:"meter" mapstructure:"meter"`
	Tracer  observability.TracerConfig `yaml:"tracer" mapstructure:"tracer"`
}

// ApplyDefaults fills unset fields.
func (c *JobConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Collector.ApplyDefaults()
	if c.Collector.Name == collector.DefaultName && c.Name != "" {
		c.Collector.Name = c.Name
	}
	if c.Source.ClaimLimit <= 0 {
		c.Source.ClaimLimit = 500
	}
	c.Database.ApplyDefaults()
	c.Storage.ApplyDefaults()
	if c.Telemetry.Meter.ServiceName == "" {
		c.Telemetry.Meter = observability.DefaultMeterConfig(c.Name)
	}
	if c.Telemetry.Tracer.ServiceName == "" {
		c.Telemetry.Tracer = observability.DefaultTracerConfig(c.Name)
	}
}

// Validate checks the settings the job depends on.
func (c *JobConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Collector.Validate(); err != nil {
		return fmt.Errorf("collector: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	v := validation.New().
		Custom(c.Database.Enabled, "database.enabled", "must be true: the database holds the source table").
		Min("source.claim_limit", c.Source.ClaimLimit, 1).
		Min("source.seed", c.Source.Seed, 0).
		OneOf("storage.provider", c.Storage.Provider, storage.Providers())
	if c.Storage.Enabled {
		switch c.Storage.Provider {
		case storage.ProviderRedis:
			v.Required("redis_stream.redis.addr", c.Redis.Redis.Addr)
		case storage.ProviderKafka:
			v.Custom(len(c.Kafka.Kafka.Brokers) > 0, "kafka_topic.kafka.brokers", "is required")
		case storage.ProviderS3:
			v.Required("s3.bucket", c.S3.Bucket)
		}
	}
	return v.Validate()
}

// providerConfig returns the provider config for the selected backend. The
// sqlite backend shares the source database connection.
func providerConfig(cfg *JobConfig, db *database.Component) (any, error) {
	switch cfg.Storage.Provider {
	case storage.ProviderSQLite:
		if db.DB() == nil {
			return nil, fmt.Errorf("sqlite storage needs a started database")
		}
		return db.DB(), nil
	case storage.ProviderRedis:
		return &cfg.Redis, nil
	case storage.ProviderKafka:
		return &cfg.Kafka, nil
	case storage.ProviderS3:
		return &cfg.S3, nil
	default:
		return nil, nil
	}
}
