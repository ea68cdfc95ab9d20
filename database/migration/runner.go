package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/kbukum/collector/logger"
)

// Migration describes a single programmatic migration, typically seed data
// that SQL files cannot express.
type Migration struct {
	ID          string
	Description string
	Up          func(*gorm.DB) error
}

// Runner applies programmatic migrations tracked in a gorm_migrations table.
type Runner struct {
	db         *gorm.DB
	log        *logger.Logger
	migrations []Migration
}

// NewRunner creates a runner bound to db.
func NewRunner(db *gorm.DB, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Runner{db: db, log: log.WithComponent("migration")}
}

// Add registers migrations in application order.
func (r *Runner) Add(migrations ...Migration) *Runner {
	r.migrations = append(r.migrations, migrations...)
	return r
}

// Run applies every pending migration, each in its own transaction, and
// returns how many were applied.
func (r *Runner) Run() (int, error) {
	if err := r.db.Exec(`CREATE TABLE IF NOT EXISTS gorm_migrations (
		id VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`).Error; err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := 0
	for _, m := range r.migrations {
		var count int64
		if err := r.db.Table("gorm_migrations").Where("id = ?", m.ID).Count(&count).Error; err != nil {
			return applied, fmt.Errorf("failed to check migration %s: %w", m.ID, err)
		}
		if count > 0 {
			r.log.Debug("Migration already applied", map[string]interface{}{"id": m.ID})
			continue
		}

		r.log.Info("Applying migration", map[string]interface{}{
			"id":          m.ID,
			"description": m.Description,
		})
		if err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Exec("INSERT INTO gorm_migrations (id) VALUES (?)", m.ID).Error
		}); err != nil {
			return applied, fmt.Errorf("failed to apply migration %s: %w", m.ID, err)
		}
		applied++
	}
	return applied, nil
}
