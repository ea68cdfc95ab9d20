// Package memory keeps inserted records in process. It backs tests and dry
// runs of a collector.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/kbukum/collector/logger"
	"github.com/kbukum/collector/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderMemory, func(_ storage.Config, _ any, _ *logger.Logger) (storage.Storage, error) {
		return New(), nil
	})
}

// Store is a set of in-memory tables. Records missing an id are assigned a
// UUID on insert.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]storage.Record
}

var _ storage.Storage = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{tables: make(map[string][]storage.Record)}
}

// InsertData appends copies of records to table.
func (s *Store) InsertData(ctx context.Context, table string, records []storage.Record) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows := make([]storage.Record, len(records))
	ids := make([]string, len(records))
	for i, r := range records {
		rows[i], ids[i] = storage.WithID(r)
	}

	s.mu.Lock()
	s.tables[table] = append(s.tables[table], rows...)
	s.mu.Unlock()
	return ids, nil
}

// Rows returns a copy of the records stored in table.
func (s *Store) Rows(table string) []storage.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storage.Record, len(s.tables[table]))
	for i, r := range s.tables[table] {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the number of records in table.
func (s *Store) Len(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table])
}

// Tables lists the tables that hold records.
func (s *Store) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Reset drops every table.
func (s *Store) Reset() {
	s.mu.Lock()
	s.tables = make(map[string][]storage.Record)
	s.mu.Unlock()
}
