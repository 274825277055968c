package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"raceday-api/models"
	"raceday-api/repositories"
)

// Registration attempt outcomes reported to RegistrationMetrics
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
)

type RegistrationMetrics interface {
	RegistrationAttempt(outcome string)
}

type noopRegistrationMetrics struct{}

func (noopRegistrationMetrics) RegistrationAttempt(string) {}

// EventRegistrations is an event's start list page with the event it belongs to
type EventRegistrations struct {
	Event         models.EventSummary                       `json:"event"`
	Registrations *repositories.Page[models.Registration] `json:"registrations"`
}

type RegistrationService struct {
	registrations *repositories.RegistrationRepository
	events        *repositories.EventRepository
	runners       *repositories.RunnerRepository
	mailer        Mailer
	metrics       RegistrationMetrics
	logger        *slog.Logger
	clock         Clock
}

func NewRegistrationService(
	registrations *repositories.RegistrationRepository,
	events *repositories.EventRepository,
	runners *repositories.RunnerRepository,
	mailer Mailer,
	metrics RegistrationMetrics,
	logger *slog.Logger,
	clock Clock,
) *RegistrationService {
	if metrics == nil {
		metrics = noopRegistrationMetrics{}
	}
	return &RegistrationService{
		registrations: registrations,
		events:        events,
		runners:       runners,
		mailer:        mailer,
		metrics:       metrics,
		logger:        logger,
		clock:         clock,
	}
}

// Create registers runnerID for the event at the chosen distance. A zero
// runnerID registers the actor. Only staff may register someone else.
func (s *RegistrationService) Create(ctx context.Context, actor Actor, eventID, runnerID, distanceID uint) (*models.Registration, error) {
	if runnerID == 0 {
		runnerID = actor.RunnerID
	}
	if !CanModify(actor, runnerID) {
		return nil, ErrForbidden
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err)
	}
	runner, err := s.runners.FindByID(ctx, runnerID)
	if err != nil {
		return nil, notFound(err)
	}

	now := s.clock()
	if !models.IsActiveAt(event.StartDatetime, now) {
		s.metrics.RegistrationAttempt(OutcomeRejected)
		return nil, Invalid("event_id", ErrEventStarted)
	}
	distance, ok := offeredDistance(event, distanceID)
	if !ok {
		s.metrics.RegistrationAttempt(OutcomeRejected)
		return nil, Invalid("distance_id", ErrDistanceNotOffered)
	}

	reg := &models.Registration{
		EventID:          event.ID,
		RunnerID:         runner.ID,
		DistanceID:       distance.ID,
		RegistrationDate: now,
	}
	if err := s.registrations.CreateUnique(ctx, reg); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			s.metrics.RegistrationAttempt(OutcomeDuplicate)
			return nil, Invalid("event_id", ErrDuplicateRegistration)
		}
		return nil, err
	}
	s.metrics.RegistrationAttempt(OutcomeCreated)

	s.logger.Info("Runner registered",
		slog.Uint64("registration_id", uint64(reg.ID)),
		slog.Uint64("event_id", uint64(event.ID)),
		slog.Uint64("runner_id", uint64(runner.ID)),
		slog.Int("distance_km", distance.Km),
	)

	if err := s.mailer.SendRegistrationConfirmation(*runner, *event, distance); err != nil {
		s.logger.Warn("Failed to send registration confirmation",
			slog.Uint64("registration_id", uint64(reg.ID)),
			slog.Any("error", err),
		)
	}

	reg.Event = *event
	reg.Runner = *runner
	reg.Distance = distance
	return reg, nil
}

func offeredDistance(event *models.Event, distanceID uint) (models.Distance, bool) {
	for _, d := range event.Distances {
		if d.ID == distanceID {
			return d, true
		}
	}
	return models.Distance{}, false
}

func (s *RegistrationService) Get(ctx context.Context, actor Actor, id uint) (*models.Registration, error) {
	reg, err := s.registrations.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !CanModify(actor, reg.RunnerID) {
		return nil, ErrForbidden
	}
	return reg, nil
}

// Update changes the distance of a registration. Event and runner are fixed
// for the life of the record.
func (s *RegistrationService) Update(ctx context.Context, actor Actor, id, distanceID uint) (*models.Registration, error) {
	reg, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	distance, ok := offeredDistance(&reg.Event, distanceID)
	if !ok {
		return nil, Invalid("distance_id", ErrDistanceNotOffered)
	}
	if err := s.registrations.UpdateDistance(ctx, reg.ID, distance.ID); err != nil {
		return nil, notFound(err)
	}

	s.logger.Info("Registration distance changed",
		slog.Uint64("registration_id", uint64(reg.ID)),
		slog.Int("distance_km", distance.Km),
	)

	reg.DistanceID = distance.ID
	reg.Distance = distance
	return reg, nil
}

func (s *RegistrationService) Delete(ctx context.Context, actor Actor, id uint) error {
	reg, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.registrations.Delete(ctx, reg.ID); err != nil {
		return notFound(err)
	}
	s.logger.Info("Registration deleted",
		slog.Uint64("registration_id", uint64(reg.ID)),
		slog.Uint64("event_id", uint64(reg.EventID)),
		slog.Uint64("runner_id", uint64(reg.RunnerID)),
	)
	return nil
}

// ForEvent returns one page of the event's start list
func (s *RegistrationService) ForEvent(ctx context.Context, eventID uint, page repositories.PageRequest) (*EventRegistrations, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err)
	}
	regs, err := s.registrations.ListForEvent(ctx, eventID, page)
	if err != nil {
		return nil, err
	}
	return &EventRegistrations{
		Event:         repositories.Summarize(*event, regs.Total),
		Registrations: regs,
	}, nil
}

// Mine pages the actor's own registrations
func (s *RegistrationService) Mine(ctx context.Context, actor Actor, page repositories.PageRequest) (*repositories.Page[models.Registration], error) {
	return s.registrations.ListForRunner(ctx, actor.RunnerID, page)
}

func (s *RegistrationService) List(ctx context.Context, filter repositories.RegistrationFilter, page repositories.PageRequest) (*repositories.Page[models.Registration], error) {
	return s.registrations.List(ctx, filter, page)
}

// StartList flattens every registration of the event into printable rows.
// Ages are taken on the event day.
func (s *RegistrationService) StartList(ctx context.Context, eventID uint) (*models.Event, []models.StartListEntry, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, nil, notFound(err)
	}
	regs, err := s.registrations.StartList(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load start list: %w", err)
	}

	entries := make([]models.StartListEntry, 0, len(regs))
	for _, reg := range regs {
		entries = append(entries, models.StartListEntry{
			RegistrationID:   reg.ID,
			RunnerID:         reg.RunnerID,
			FullName:         reg.Runner.FullName(),
			Gender:           reg.Runner.Gender,
			City:             reg.Runner.City,
			Age:              reg.Runner.AgeOn(event.StartDatetime),
			DistanceKm:       reg.Distance.Km,
			RegistrationDate: reg.RegistrationDate,
		})
	}
	return event, entries, nil
}
