// File: /database/database.go
package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"raceday-api/models"
)

// StandardDistances are seeded on a fresh database
var StandardDistances = []int{5, 10, 21, 42}

// Dialector picks the gorm driver from the shape of the DSN.
// postgres:// and postgresql:// use PostgreSQL, sqlite: and file: use SQLite,
// anything else is treated as a MySQL DSN.
func Dialector(databaseURL string) gorm.Dialector {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite:"):
		return openSQLite(strings.TrimPrefix(databaseURL, "sqlite:"))
	case strings.HasPrefix(databaseURL, "file:"), databaseURL == ":memory:":
		return openSQLite(databaseURL)
	default:
		return mysql.Open(databaseURL)
	}
}

// sqliteDSN turns on foreign key enforcement so registration rows cascade
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

// Initialize opens the database. SQL logging goes through log's handler.
func Initialize(databaseURL string, debug bool, log *slog.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(Dialector(databaseURL), &gorm.Config{
		Logger:         NewGormLogger(log, level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// NewGormLogger writes gorm's query and slow-query lines as slog records
func NewGormLogger(log *slog.Logger, level logger.LogLevel) logger.Interface {
	return logger.New(slog.NewLogLogger(log.Handler(), slog.LevelInfo), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Runner{},
		&models.Distance{},
		&models.Event{},
		&models.Registration{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := addCustomIndexes(db); err != nil {
		return fmt.Errorf("failed to add custom indexes: %w", err)
	}

	return nil
}

func addCustomIndexes(db *gorm.DB) error {
	// "my registrations" lists by runner, start lists by event + distance
	if !db.Migrator().HasIndex(&models.Registration{}, "idx_registrations_runner_event") {
		if err := db.Exec("CREATE INDEX idx_registrations_runner_event ON registrations(runner_id, event_id)").Error; err != nil {
			return err
		}
	}
	if !db.Migrator().HasIndex(&models.Registration{}, "idx_registrations_event_distance") {
		if err := db.Exec("CREATE INDEX idx_registrations_event_distance ON registrations(event_id, distance_id)").Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedData creates the standard distances when the distance table is empty
func SeedData(db *gorm.DB, log *slog.Logger) error {
	var count int64
	if err := db.Model(&models.Distance{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count distances: %w", err)
	}

	if count > 0 {
		log.Info("Database already has distances, skipping seed")
		return nil
	}

	for _, km := range StandardDistances {
		if err := db.Create(&models.Distance{Km: km}).Error; err != nil {
			return fmt.Errorf("failed to create %d km distance: %w", km, err)
		}
	}

	log.Info("Database seeded with standard distances", slog.Any("kms", StandardDistances))
	return nil
}
