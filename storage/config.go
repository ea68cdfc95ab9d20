package storage

import (
	"github.com/kbukum/collector/validation"
)

// Provider names for the supported backends.
const (
	ProviderMemory = "memory"
	ProviderSQLite = "sqlite"
	ProviderRedis  = "redis"
	ProviderKafka  = "kafka"
	ProviderS3     = "s3"
)

// DefaultProvider is used when Config.Provider is empty.
const DefaultProvider = ProviderMemory

// Config selects the storage backend. Backend settings travel separately as
// the provider config handed to New.
type Config struct {
	// Provider selects the backend: memory, sqlite, redis, kafka or s3.
	Provider string `yaml:"provider" mapstructure:"provider" json:"provider" validate:"oneof=memory sqlite redis kafka s3"`

	// Enabled controls whether the storage component is active.
	Enabled bool `yaml:"enabled" mapstructure:"enabled" json:"enabled"`

	// CircuitBreaker stops calling a backend that keeps failing.
	CircuitBreaker BreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker" json:"circuit_breaker"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
}

// Validate checks that the configuration names a known provider.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
