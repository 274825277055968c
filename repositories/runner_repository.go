package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"raceday-api/models"
)

type RunnerRepository struct {
	db *gorm.DB
}

func NewRunnerRepository(db *gorm.DB) *RunnerRepository {
	return &RunnerRepository{db: db}
}

func (r *RunnerRepository) Create(ctx context.Context, runner *models.Runner) error {
	if err := r.db.WithContext(ctx).Omit("Registrations").Create(runner).Error; err != nil {
		return fmt.Errorf("failed to create runner: %w", translate(err))
	}
	return nil
}

func (r *RunnerRepository) FindByID(ctx context.Context, id uint) (*models.Runner, error) {
	var runner models.Runner
	if err := r.db.WithContext(ctx).First(&runner, id).Error; err != nil {
		return nil, translate(err)
	}
	return &runner, nil
}

func (r *RunnerRepository) FindByUsername(ctx context.Context, username string) (*models.Runner, error) {
	var runner models.Runner
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&runner).Error; err != nil {
		return nil, translate(err)
	}
	return &runner, nil
}

func (r *RunnerRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Update writes the profile columns. The username is never rewritten.
func (r *RunnerRepository) Update(ctx context.Context, runner *models.Runner) error {
	err := r.db.WithContext(ctx).Model(runner).
		Select("first_name", "last_name", "city", "date_of_birth", "gender", "phone_number", "email", "password", "is_staff", "updated_at").
		Updates(runner).Error
	if err != nil {
		return fmt.Errorf("failed to update runner: %w", translate(err))
	}
	return nil
}

// Delete removes the runner and every registration they hold
func (r *RunnerRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var runner models.Runner
		if err := tx.First(&runner, id).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("runner_id = ?", id).Delete(&models.Registration{}).Error; err != nil {
			return fmt.Errorf("failed to delete registrations: %w", err)
		}
		if err := tx.Delete(&runner).Error; err != nil {
			return fmt.Errorf("failed to delete runner: %w", err)
		}
		return nil
	})
}

// List pages runners by last then first name, optionally matching search
// against the username and both names.
func (r *RunnerRepository) List(ctx context.Context, search string, req PageRequest) (*Page[models.Runner], error) {
	q := r.db.WithContext(ctx).Model(&models.Runner{})
	q = whereContains(q, search, "username", "first_name", "last_name")
	return Paginate[models.Runner](q, "last_name ASC, first_name ASC, id ASC", req)
}
