package services

import (
	"context"
	"errors"
	"log/slog"

	"raceday-api/models"
	"raceday-api/repositories"
)

type DistanceService struct {
	distances *repositories.DistanceRepository
	logger    *slog.Logger
}

func NewDistanceService(distances *repositories.DistanceRepository, logger *slog.Logger) *DistanceService {
	return &DistanceService{distances: distances, logger: logger}
}

func (s *DistanceService) List(ctx context.Context) ([]models.Distance, error) {
	return s.distances.List(ctx)
}

func (s *DistanceService) Create(ctx context.Context, actor Actor, km int) (*models.Distance, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if km <= 0 {
		return nil, Invalidf("km", "Ensure this value is greater than 0.")
	}
	distance := &models.Distance{Km: km}
	if err := s.distances.Create(ctx, distance); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, Invalidf("km", "Distance with this km already exists.")
		}
		return nil, err
	}
	s.logger.Info("Distance created", slog.Uint64("distance_id", uint64(distance.ID)), slog.Int("km", km))
	return distance, nil
}

func (s *DistanceService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if err := s.distances.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrInUse) {
			return ErrDistanceInUse
		}
		return notFound(err)
	}
	s.logger.Info("Distance deleted", slog.Uint64("distance_id", uint64(id)))
	return nil
}
