package storage

import (
	"context"
	"fmt"
	"maps"

	"github.com/google/uuid"
)

// IDField is the column that carries a record's identifier.
const IDField = "id"

// Record is one persisted row: column name to value.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Storage persists batches of records into a named table.
type Storage interface {
	// InsertData writes records into table and returns one identifier per
	// record, in order. An error means none of the records can be assumed
	// persisted.
	InsertData(ctx context.Context, table string, records []Record) ([]string, error)
}

// Func adapts a function to Storage.
type Func func(ctx context.Context, table string, records []Record) ([]string, error)

// InsertData calls f.
func (f Func) InsertData(ctx context.Context, table string, records []Record) ([]string, error) {
	return f(ctx, table, records)
}

// Pinger is optionally implemented by backends that can verify their
// connection for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Closer is optionally implemented by backends holding connections.
type Closer interface {
	Close() error
}

// WithID returns a copy of r that carries an IDField, generating a UUID when
// the record has none, along with the identifier as a string.
func WithID(r Record) (Record, string) {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	if v, ok := out[IDField]; ok && v != nil {
		return out, fmt.Sprint(v)
	}
	id := uuid.NewString()
	out[IDField] = id
	return out, id
}
