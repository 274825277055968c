// Package testutils builds throwaway databases and fixtures for tests.
package testutils

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"raceday-api/database"
	"raceday-api/models"
)

// NewTestDB opens a private in-memory SQLite database with the schema applied
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Initialize("sqlite::memory:", false, DiscardLogger())
	require.NoError(t, err)
	db.Logger = logger.Default.LogMode(logger.Silent)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// DiscardLogger swallows log output
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// FixedClock always reports now
func FixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

func CreateDistance(t testing.TB, db *gorm.DB, km int) models.Distance {
	t.Helper()
	d := models.Distance{Km: km}
	require.NoError(t, db.Create(&d).Error)
	return d
}

func CreateRunner(t testing.TB, db *gorm.DB, username string, staff bool) models.Runner {
	t.Helper()
	dob := models.NewDate(2000, time.January, 1)
	r := models.Runner{
		Username:    username,
		FirstName:   "Test",
		LastName:    username,
		City:        "Kyiv",
		DateOfBirth: &dob,
		Gender:      models.GenderMale,
		Password:    "$2a$10$notarealhash",
		IsStaff:     staff,
	}
	require.NoError(t, db.Omit("Registrations").Create(&r).Error)
	return r
}

// CreateEvent stores an event offering distances, with the activity flag
// derived from now.
func CreateEvent(t testing.TB, db *gorm.DB, name, location string, start, now time.Time, distances ...models.Distance) models.Event {
	t.Helper()
	e := models.Event{
		Name:          name,
		StartDatetime: start.UTC(),
		Location:      location,
		Description:   "Test Description",
		EventType:     models.EventTypeRunning,
		Organiser:     "New Run",
	}
	e.RecomputeActive(now)
	require.NoError(t, db.Omit("Distances", "Registrations").Create(&e).Error)
	if len(distances) > 0 {
		require.NoError(t, db.Model(&e).Association("Distances").Replace(distances))
	}
	e.Distances = distances
	return e
}

func CreateRegistration(t testing.TB, db *gorm.DB, event models.Event, runner models.Runner, distance models.Distance, at time.Time) models.Registration {
	t.Helper()
	reg := models.Registration{
		EventID:          event.ID,
		RunnerID:         runner.ID,
		DistanceID:       distance.ID,
		RegistrationDate: at.UTC(),
	}
	require.NoError(t, db.WithContext(context.Background()).Omit("Event", "Runner", "Distance").Create(&reg).Error)
	return reg
}
