// Package kafka provides a Kafka producer with TLS/SASL transport, error
// classification and structured writer metrics. Writes are single
// attempts: kafka-go's internal retries are disabled and failures are
// returned to the caller.
//
// It wraps segmentio/kafka-go with collector logging and configuration
// conventions. The kafka storage backend publishes each flushed buffer
// through a Producer.
//
// # Configuration
//
//	kafka:
//	  enabled: true
//	  brokers: ["localhost:9092"]
//	  compression: snappy
//	  required_acks: -1
package kafka
