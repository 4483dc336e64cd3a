// Package database opens the gorm connection, migrates the schema and seeds
// the sample team and task records.
package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Config contains database connection options.
type Config struct {
	Driver   string
	Path     string // SQLite database path when Driver == sqlite
	DSN      string // Optional DSN override
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	Options  map[string]string

	// SlowQuery is the threshold above which queries are logged. Zero picks
	// the default; negative disables query logging.
	SlowQuery time.Duration
}

// Open initialises a gorm.DB for the configured driver. An empty driver
// selects sqlite.
func Open(cfg Config) (*gorm.DB, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if name == "" {
		name = "sqlite"
	}
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	dialector, err := d.dial(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: queryLogger(cfg.SlowQuery)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if d.after != nil {
		if err := d.after(db, cfg); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// AutoMigrateAndSeed migrates the schema and inserts the sample dataset.
func AutoMigrateAndSeed(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := SeedFixtures(db); err != nil {
		return fmt.Errorf("seed fixtures: %w", err)
	}

	return nil
}

// Ping checks that the underlying connection is alive.
func Ping(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
