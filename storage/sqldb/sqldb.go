// Package sqldb stores collector records in SQL tables through GORM. Each
// flush is written in one transaction.
package sqldb

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kbukum/collector/database"
	"github.com/kbukum/collector/logger"
	"github.com/kbukum/collector/storage"
)

// DefaultChunkSize bounds the number of rows per INSERT statement. sqlite
// limits the number of bound parameters per statement.
const DefaultChunkSize = 500

func init() {
	storage.RegisterFactory(storage.ProviderSQLite, func(_ storage.Config, providerCfg any, log *logger.Logger) (storage.Storage, error) {
		switch pc := providerCfg.(type) {
		case *database.DB:
			return New(pc, log), nil
		case *database.Config:
			return Open(context.Background(), *pc, log)
		case nil:
			return nil, fmt.Errorf("sqldb: provider config is required")
		default:
			return nil, fmt.Errorf("sqldb: expected *database.Config or *database.DB, got %T", providerCfg)
		}
	})
}

// Store inserts records into tables of a database.
type Store struct {
	db        *database.DB
	owned     bool
	chunkSize int
	log       *logger.Logger
}

var (
	_ storage.Storage = (*Store)(nil)
	_ storage.Pinger  = (*Store)(nil)
	_ storage.Closer  = (*Store)(nil)
)

// New creates a store over an existing connection. Close leaves db open.
func New(db *database.DB, log *logger.Logger) *Store {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Store{db: db, chunkSize: DefaultChunkSize, log: log.WithComponent("sqldb")}
}

// Open connects to the database described by cfg. Close releases the
// connection.
func Open(ctx context.Context, cfg database.Config, log *logger.Logger) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sqldb config: %w", err)
	}
	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	s := New(db, log)
	s.owned = true
	return s, nil
}

// WithChunkSize overrides DefaultChunkSize.
func (s *Store) WithChunkSize(n int) *Store {
	if n > 0 {
		s.chunkSize = n
	}
	return s
}

// InsertData writes records into table inside one transaction and returns
// the value of each row's id column.
func (s *Store) InsertData(ctx context.Context, table string, records []storage.Record) ([]string, error) {
	if len(records) == 0 {
		return []string{}, nil
	}
	rows := make([]map[string]interface{}, len(records))
	ids := make([]string, len(records))
	for i, r := range records {
		var row storage.Record
		row, ids[i] = storage.WithID(r)
		rows[i] = row
	}

	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		return tx.Table(table).CreateInBatches(rows, s.chunkSize).Error
	})
	if err != nil {
		return nil, database.FromDatabase(err, table)
	}
	s.log.WithContext(ctx).Debug("rows inserted", map[string]interface{}{
		"table": table,
		"rows":  len(rows),
	})
	return ids, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the connection when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
