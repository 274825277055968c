package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"raceday-api/models"
)

type DistanceRepository struct {
	db *gorm.DB
}

func NewDistanceRepository(db *gorm.DB) *DistanceRepository {
	return &DistanceRepository{db: db}
}

func (r *DistanceRepository) List(ctx context.Context) ([]models.Distance, error) {
	var distances []models.Distance
	if err := r.db.WithContext(ctx).Order("km ASC").Find(&distances).Error; err != nil {
		return nil, fmt.Errorf("failed to list distances: %w", err)
	}
	return distances, nil
}

func (r *DistanceRepository) FindByID(ctx context.Context, id uint) (*models.Distance, error) {
	var distance models.Distance
	if err := r.db.WithContext(ctx).First(&distance, id).Error; err != nil {
		return nil, translate(err)
	}
	return &distance, nil
}

func (r *DistanceRepository) Create(ctx context.Context, distance *models.Distance) error {
	if err := r.db.WithContext(ctx).Create(distance).Error; err != nil {
		return fmt.Errorf("failed to create distance: %w", translate(err))
	}
	return nil
}

// Delete removes a distance that no event offers and no registration uses
func (r *DistanceRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var distance models.Distance
		if err := tx.First(&distance, id).Error; err != nil {
			return translate(err)
		}

		var links int64
		if err := tx.Table("event_distances").Where("distance_id = ?", id).Count(&links).Error; err != nil {
			return fmt.Errorf("failed to check event distances: %w", err)
		}
		var registrations int64
		if err := tx.Model(&models.Registration{}).Where("distance_id = ?", id).Count(&registrations).Error; err != nil {
			return fmt.Errorf("failed to check registrations: %w", err)
		}
		if links > 0 || registrations > 0 {
			return ErrInUse
		}

		return tx.Delete(&distance).Error
	})
}
