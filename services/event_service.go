package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"raceday-api/models"
	"raceday-api/repositories"
	"raceday-api/utils"
)

// EventInput carries the editable fields of an event
type EventInput struct {
	Name          string
	StartDatetime time.Time
	Location      string
	Description   string
	EventType     models.EventType
	Organiser     string
	DistanceIDs   []uint
}

func (in EventInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return Invalidf("name", "This field is required.")
	case utils.TooLong(in.Name, 100):
		return Invalidf("name", "Ensure this value has at most 100 characters.")
	case strings.TrimSpace(in.Location) == "":
		return Invalidf("location", "This field is required.")
	case utils.TooLong(in.Location, 100):
		return Invalidf("location", "Ensure this value has at most 100 characters.")
	case strings.TrimSpace(in.Organiser) == "":
		return Invalidf("organiser", "This field is required.")
	case utils.TooLong(in.Organiser, 100):
		return Invalidf("organiser", "Ensure this value has at most 100 characters.")
	case in.StartDatetime.IsZero():
		return Invalidf("start_datetime", "This field is required.")
	case !in.EventType.Valid():
		return Invalidf("event_type", "Select a valid choice. %s is not one of the available choices.", in.EventType)
	case len(in.DistanceIDs) == 0:
		return Invalidf("distance_ids", "Select at least one distance.")
	}
	return nil
}

func (in EventInput) apply(e *models.Event) {
	e.Name = strings.TrimSpace(in.Name)
	e.StartDatetime = in.StartDatetime.UTC()
	e.Location = strings.TrimSpace(in.Location)
	e.Description = in.Description
	e.EventType = in.EventType
	e.Organiser = strings.TrimSpace(in.Organiser)
}

type EventService struct {
	events *repositories.EventRepository
	logger *slog.Logger
	clock  Clock
}

func NewEventService(events *repositories.EventRepository, logger *slog.Logger, clock Clock) *EventService {
	return &EventService{
		events: events,
		logger: logger,
		clock:  clock,
	}
}

// ListUpcoming pages events that have not started yet, earliest first
func (s *EventService) ListUpcoming(ctx context.Context, filter repositories.EventFilter, page repositories.PageRequest) (*repositories.Page[models.EventSummary], error) {
	active := true
	filter.Active = &active
	return s.events.List(ctx, filter, page, s.clock())
}

// ListArchive pages events that already started, most recent first
func (s *EventService) ListArchive(ctx context.Context, filter repositories.EventFilter, page repositories.PageRequest) (*repositories.Page[models.EventSummary], error) {
	active := false
	filter.Active = &active
	return s.events.List(ctx, filter, page, s.clock())
}

// List pages events with exactly the given filter
func (s *EventService) List(ctx context.Context, filter repositories.EventFilter, page repositories.PageRequest) (*repositories.Page[models.EventSummary], error) {
	return s.events.List(ctx, filter, page, s.clock())
}

func (s *EventService) Get(ctx context.Context, id uint) (*models.EventSummary, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	count, err := s.events.CountRegistrations(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	summary := repositories.Summarize(*event, count)
	return &summary, nil
}

func (s *EventService) Create(ctx context.Context, actor Actor, in EventInput) (*models.Event, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	event := &models.Event{}
	in.apply(event)
	if err := s.events.Create(ctx, event, in.DistanceIDs, s.clock()); err != nil {
		return nil, s.writeError(err)
	}

	s.logger.Info("Event created",
		slog.Uint64("event_id", uint64(event.ID)),
		slog.String("name", event.Name),
		slog.Bool("is_active", event.IsActive),
	)
	return event, nil
}

func (s *EventService) Update(ctx context.Context, actor Actor, id uint, in EventInput) (*models.Event, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	in.apply(event)
	if err := s.events.Update(ctx, event, in.DistanceIDs, s.clock()); err != nil {
		return nil, s.writeError(err)
	}

	s.logger.Info("Event updated",
		slog.Uint64("event_id", uint64(event.ID)),
		slog.Bool("is_active", event.IsActive),
	)
	return event, nil
}

func (s *EventService) writeError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return Invalid("distance_ids", ErrUnknownDistance)
	}
	return err
}

func (s *EventService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	s.logger.Info("Event deleted", slog.Uint64("event_id", uint64(id)))
	return nil
}

// RefreshActivity brings every stored activity flag in line with the clock
func (s *EventService) RefreshActivity(ctx context.Context) (int64, error) {
	changed, err := s.events.RefreshActivity(ctx, s.clock())
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		s.logger.Info("Event activity refreshed", slog.Int64("changed", changed))
	}
	return changed, nil
}
