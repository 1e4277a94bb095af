package database

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/civicworks/idlewatch/internal/config"
	"github.com/civicworks/idlewatch/internal/models"
)

// Database wraps the GORM handle and provides lifecycle operations.
type Database struct {
	Gorm *gorm.DB
}

// Connect opens a PostgreSQL connection using GORM and verifies it with a
// ping. GORM's own logger is silenced; the application logs through
// internal/logger instead.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Database, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode, cfg.Timezone,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s:%s/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}

	d := &Database{Gorm: db}
	if err := d.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return d, nil
}

// ConnectMemory opens an in-memory SQLite database with the full schema
// migrated. Used by tests and by the fake-data tooling when no Postgres
// is around.
func ConnectMemory() (*Database, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	// A second connection to ":memory:" would be a second database.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	d := &Database{Gorm: db}
	if err := d.AutoMigrate(); err != nil {
		return nil, err
	}
	return d, nil
}

// AutoMigrate creates or updates all application tables.
func (d *Database) AutoMigrate() error {
	if err := d.Gorm.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Recreate drops every application table and migrates from scratch.
// Intended for local development only.
func (d *Database) Recreate() error {
	if err := d.Gorm.Migrator().DropTable(models.AllModels()...); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return d.AutoMigrate()
}

// Ping checks if the database connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close gracefully closes the underlying connection pool.
func (d *Database) Close() error {
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
