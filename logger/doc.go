// Package logger provides structured logging for collector applications
// using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "track-collector").WithComponent("collector")
//	log.Info("pass complete", logger.Fields("inserted", 120))
package logger
