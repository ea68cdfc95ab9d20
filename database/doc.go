// Package database provides a GORM-based sqlite component with connection
// pooling, retry on connect, health checks, and migration support.
//
// The component respects the Enabled flag: when disabled, Start returns
// immediately and Health reports "disabled".
//
//	db := database.NewComponent(database.Config{
//		Enabled: true,
//		DSN:     "file:collector.db?_busy_timeout=5000",
//		Migrate: true,
//	}, log).WithMigrations(migrationsFS, "migrations")
//	registry.Register(db)
//
// GORM statements are logged through the collector logger; those issued
// with a pass context carry its pass_id.
package database
