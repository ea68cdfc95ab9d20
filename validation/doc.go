// Package validation checks configuration and input values and reports
// failures as INVALID_INPUT application errors with per-field details.
//
// Struct tags are checked with go-playground/validator, naming fields by
// their mapstructure key so messages match the config file:
//
//	type Config struct {
//	    Ceiling int    `mapstructure:"ceiling" validate:"gte=1"`
//	    Table   string `mapstructure:"table" validate:"required"`
//	}
//	err := validation.Validate(cfg) // "ceiling: must be at least 1"
//
// Rules that depend on other fields use the programmatic Validator:
//
//	v := validation.New()
//	v.Required("bucket", cfg.Bucket)
//	err := v.Validate()
package validation
