// Package config loads service configuration for collector jobs.
//
// LoadConfig reads config.yml with Viper, loads a .env file with godotenv,
// and overlays environment variables that carry the service prefix.
// Underscores in the variable name may stand for nesting or for word
// breaks, so both shapes are bound:
//
//	var cfg JobConfig
//	err := config.LoadConfig("track-collector", &cfg)
//	// TRACK_COLLECTOR_COLLECTOR_BATCH_SIZE=100 sets collector.batch_size
//
// ServiceConfig holds the fields shared by every service and is embedded
// with mapstructure ",squash".
package config
