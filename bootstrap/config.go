package bootstrap

import (
	"github.com/kbukum/collector/config"
)

// Config is the constraint for application configuration types. Any struct
// embedding config.ServiceConfig satisfies it through promoted methods:
//
//	type JobConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Collector collector.Config `yaml:"collector" mapstructure:"collector"`
//	}
//
//	app, err := bootstrap.NewApp[*JobConfig](&cfg)
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
