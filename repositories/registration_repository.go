package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"raceday-api/models"
)

// RegistrationFilter narrows the administrative registration listing
type RegistrationFilter struct {
	// Search matches runner first/last name and event name
	Search    string
	EventID   uint
	StartFrom *time.Time
	StartTo   *time.Time
}

type RegistrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Exists reports whether the runner already holds a registration for the event
func (r *RegistrationRepository) Exists(ctx context.Context, eventID, runnerID uint) (bool, error) {
	return exists(r.db.WithContext(ctx), eventID, runnerID)
}

func exists(db *gorm.DB, eventID, runnerID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Registration{}).
		Where("event_id = ? AND runner_id = ?", eventID, runnerID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check registration: %w", err)
	}
	return count > 0, nil
}

// Create inserts the row as is. A second row for the same event and runner
// fails on the unique index with ErrDuplicate.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	return create(r.db.WithContext(ctx), reg)
}

func create(db *gorm.DB, reg *models.Registration) error {
	if err := db.Omit("Event", "Runner", "Distance").Create(reg).Error; err != nil {
		return fmt.Errorf("failed to create registration: %w", translate(err))
	}
	return nil
}

// CreateUnique checks for an existing (event, runner) row and inserts in one
// transaction. Both the check and a lost insert race report ErrDuplicate.
func (r *RegistrationRepository) CreateUnique(ctx context.Context, reg *models.Registration) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := exists(tx, reg.EventID, reg.RunnerID)
		if err != nil {
			return err
		}
		if found {
			return ErrDuplicate
		}
		return create(tx, reg)
	})
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id uint) (*models.Registration, error) {
	var reg models.Registration
	err := r.db.WithContext(ctx).
		Preload("Event.Distances").
		Preload("Runner").
		Preload("Distance").
		First(&reg, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

// UpdateDistance is the only mutation a registration supports
func (r *RegistrationRepository) UpdateDistance(ctx context.Context, id, distanceID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Registration{}).
		Where("id = ?", id).
		UpdateColumn("distance_id", distanceID)
	if res.Error != nil {
		return fmt.Errorf("failed to update registration: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RegistrationRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Registration{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete registration: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForEvent pages an event's start list by distance, then sign-up order
func (r *RegistrationRepository) ListForEvent(ctx context.Context, eventID uint, req PageRequest) (*Page[models.Registration], error) {
	q := r.db.WithContext(ctx).Model(&models.Registration{}).
		Joins("JOIN distances ON distances.id = registrations.distance_id").
		Where("registrations.event_id = ?", eventID)
	return Paginate[models.Registration](q, "distances.km ASC, registrations.registration_date ASC, registrations.id ASC", req, "Runner", "Distance")
}

// StartList loads every registration of the event in start list order
func (r *RegistrationRepository) StartList(ctx context.Context, eventID uint) ([]models.Registration, error) {
	var regs []models.Registration
	err := r.db.WithContext(ctx).
		Joins("JOIN distances ON distances.id = registrations.distance_id").
		Joins("JOIN runners ON runners.id = registrations.runner_id").
		Where("registrations.event_id = ?", eventID).
		Order("distances.km ASC, runners.last_name ASC, runners.first_name ASC, registrations.id ASC").
		Preload("Runner").
		Preload("Distance").
		Find(&regs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load start list: %w", err)
	}
	return regs, nil
}

// ListForRunner pages the runner's registrations by event start
func (r *RegistrationRepository) ListForRunner(ctx context.Context, runnerID uint, req PageRequest) (*Page[models.Registration], error) {
	q := r.db.WithContext(ctx).Model(&models.Registration{}).
		Joins("JOIN events ON events.id = registrations.event_id").
		Where("registrations.runner_id = ?", runnerID)
	return Paginate[models.Registration](q, "events.start_datetime ASC, registrations.id ASC", req, "Event.Distances", "Distance")
}

// List is the administrative listing, newest events first
func (r *RegistrationRepository) List(ctx context.Context, filter RegistrationFilter, req PageRequest) (*Page[models.Registration], error) {
	q := r.db.WithContext(ctx).Model(&models.Registration{}).
		Joins("JOIN events ON events.id = registrations.event_id").
		Joins("JOIN runners ON runners.id = registrations.runner_id")
	q = whereContains(q, filter.Search, "runners.last_name", "runners.first_name", "events.name")
	if filter.EventID != 0 {
		q = q.Where("registrations.event_id = ?", filter.EventID)
	}
	if filter.StartFrom != nil {
		q = q.Where("events.start_datetime >= ?", filter.StartFrom.UTC())
	}
	if filter.StartTo != nil {
		q = q.Where("events.start_datetime < ?", filter.StartTo.UTC())
	}
	return Paginate[models.Registration](q, "events.start_datetime DESC, registrations.id ASC", req, "Event", "Runner", "Distance")
}
