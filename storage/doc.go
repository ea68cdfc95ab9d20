// Package storage defines the persistence collaborator of a collector and
// the pluggable backends behind it.
//
// A backend implements a single operation, InsertData, which writes a
// batch of Records into a named table and returns one identifier per
// record. Backends register themselves with RegisterFactory and are
// selected by Config.Provider.
//
// # Backends
//
//   - storage/memory: in-process tables for tests and dry runs
//   - storage/sqldb: GORM table inserts (sqlite)
//   - storage/redisstream: one Redis stream per table
//   - storage/kafkatopic: one Kafka topic per table
//   - storage/s3: one JSON-lines object per batch
//
// # Configuration
//
//	storage:
//	  provider: "sqlite"
//	  enabled: true
//	  circuit_breaker:
//	    enabled: true
//	    max_failures: 5
//	    timeout: 30s
//
// With circuit_breaker enabled, New wraps the backend in a Guarded store
// that fails fast with resilience.ErrCircuitOpen after consecutive
// transient failures.
package storage
