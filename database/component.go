package database

import (
	"context"
	"fmt"
	"io/fs"

	"gorm.io/gorm"

	"github.com/kbukum/collector/component"
	"github.com/kbukum/collector/database/migration"
	"github.com/kbukum/collector/logger"
)

// Component wraps DB and implements component.Component for lifecycle management.
type Component struct {
	db        *DB
	cfg       Config
	log       *logger.Logger
	dialector gorm.Dialector

	migrations fs.FS
	migrateDir string
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a database component for use with the component registry.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Component{
		cfg: cfg,
		log: log.WithComponent("database"),
	}
}

// WithDialector replaces the default sqlite dialector.
func (c *Component) WithDialector(d gorm.Dialector) *Component {
	c.dialector = d
	return c
}

// WithMigrations registers SQL migrations applied on Start when Config.Migrate
// is set. dir is the path of the migration files inside fsys.
func (c *Component) WithMigrations(fsys fs.FS, dir string) *Component {
	c.migrations, c.migrateDir = fsys, dir
	return c
}

// DB returns the underlying *DB, or nil if not started.
func (c *Component) DB() *DB {
	return c.db
}

// Name returns the component name.
func (c *Component) Name() string { return "database" }

// Start connects to the database and optionally runs migrations.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Info("database component is disabled")
		return nil
	}
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	var (
		db  *DB
		err error
	)
	if c.dialector != nil {
		db, err = NewWithDialector(ctx, c.dialector, c.cfg, c.log)
	} else {
		db, err = Open(ctx, c.cfg, c.log)
	}
	if err != nil {
		return fmt.Errorf("database start: %w", err)
	}
	c.db = db

	if c.cfg.Migrate && c.migrations != nil {
		if err := migration.MigrateUp(db.GormDB, c.migrations, c.migrateDir, migration.SQLite); err != nil {
			return fmt.Errorf("database migrate: %w", err)
		}
		c.log.Info("Database migrations applied", map[string]interface{}{"dir": c.migrateDir})
	}
	return nil
}

// Stop gracefully closes the database connection.
func (c *Component) Stop(_ context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Health returns the current health status of the database.
func (c *Component) Health(ctx context.Context) component.Health {
	if !c.cfg.Enabled {
		return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: "disabled"}
	}
	if c.db == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "database not initialized",
		}
	}
	if err := c.db.Ping(ctx); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("dsn=%s pool=%d/%d", c.cfg.DSN, c.cfg.MaxOpenConns, c.cfg.MaxIdleConns)
	if c.cfg.Migrate {
		details += " migrate=on"
	}
	return component.Description{
		Name:    "Database",
		Type:    "database",
		Details: details,
	}
}
