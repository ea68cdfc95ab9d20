package collector

import (
	"time"

	"github.com/kbukum/collector/validation"
)

// FailurePolicy selects what a pass does after a hook or storage failure.
type FailurePolicy string

const (
	// FailureAbort cancels the pass on the first failure; Run returns the
	// joined failures.
	FailureAbort FailurePolicy = "abort"
	// FailureIsolate drops the failing batch or buffer and keeps going.
	FailureIsolate FailurePolicy = "isolate"
)

// Defaults applied by Config.ApplyDefaults.
const (
	DefaultName               = "collector"
	DefaultCeiling            = 1
	DefaultBatchSize          = 50
	DefaultSizeCeiling  int64 = 100_000_000
	DefaultPollInterval       = 50 * time.Millisecond
)

// Config tunes one collector.
type Config struct {
	// Name tags every log line and metric emitted by the collector.
	Name string `yaml:"name" mapstructure:"name"`
	// Ceiling caps consumers plus inserters running at once.
	Ceiling int `yaml:"ceiling" mapstructure:"ceiling" validate:"gte=1"`
	// BatchSize is the number of work items handed to one Consume call.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size" validate:"gte=1"`
	// SizeCeiling bounds the JSON-encoded bytes of one storage call.
	SizeCeiling int64 `yaml:"size_ceiling" mapstructure:"size_ceiling" validate:"gte=1"`
	// Table is the storage destination passed to InsertData.
	Table string `yaml:"table" mapstructure:"table" validate:"required"`
	// FailurePolicy is abort or isolate.
	FailurePolicy FailurePolicy `yaml:"failure_policy" mapstructure:"failure_policy" validate:"oneof=abort isolate"`
	// PollInterval is how long the scheduler parks without a wake-up.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval" validate:"gt=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Ceiling == 0 {
		c.Ceiling = DefaultCeiling
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.SizeCeiling == 0 {
		c.SizeCeiling = DefaultSizeCeiling
	}
	if c.FailurePolicy == "" {
		c.FailurePolicy = FailureAbort
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
}

// Validate checks the config after defaults are applied.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
