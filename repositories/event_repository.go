package repositories

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"raceday-api/models"
)

// EventFilter narrows an event listing. Zero values impose no constraint.
type EventFilter struct {
	Name      string
	Location  string
	EventType models.EventType
	// Active partitions on the live clock: true keeps events starting after
	// now, false keeps the archive.
	Active    *bool
	StartFrom *time.Time
	StartTo   *time.Time
}

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create stores the event with the given distances. The activity flag is
// always derived from now, whatever the caller set.
func (r *EventRepository) Create(ctx context.Context, event *models.Event, distanceIDs []uint, now time.Time) error {
	event.StartDatetime = event.StartDatetime.UTC()
	event.RecomputeActive(now)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(event).Error; err != nil {
			return fmt.Errorf("failed to create event: %w", translate(err))
		}
		return replaceDistances(tx, event, distanceIDs)
	})
}

// Update persists every column of event and replaces its distances
func (r *EventRepository) Update(ctx context.Context, event *models.Event, distanceIDs []uint, now time.Time) error {
	event.StartDatetime = event.StartDatetime.UTC()
	event.RecomputeActive(now)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(event).Error; err != nil {
			return fmt.Errorf("failed to update event: %w", translate(err))
		}
		return replaceDistances(tx, event, distanceIDs)
	})
}

func replaceDistances(tx *gorm.DB, event *models.Event, distanceIDs []uint) error {
	var distances []models.Distance
	if len(distanceIDs) > 0 {
		if err := tx.Where("id IN ?", distanceIDs).Order("km ASC").Find(&distances).Error; err != nil {
			return fmt.Errorf("failed to load distances: %w", err)
		}
		if len(distances) != len(uniqueIDs(distanceIDs)) {
			return fmt.Errorf("unknown distance in %v: %w", distanceIDs, ErrNotFound)
		}
	}
	if err := tx.Model(event).Association("Distances").Replace(distances); err != nil {
		return fmt.Errorf("failed to set event distances: %w", err)
	}
	event.Distances = distances
	return nil
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Preload("Distances", func(db *gorm.DB) *gorm.DB { return db.Order("km ASC") }).
		First(&event, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

// Delete removes the event together with its registrations and distance links
func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event := models.Event{ID: id}
		if err := tx.First(&event).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.Registration{}).Error; err != nil {
			return fmt.Errorf("failed to delete registrations: %w", err)
		}
		if err := tx.Model(&event).Association("Distances").Clear(); err != nil {
			return fmt.Errorf("failed to clear event distances: %w", err)
		}
		if err := tx.Delete(&event).Error; err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		return nil
	})
}

// List returns one page of events matching filter, with distances and
// registration counts attached.
func (r *EventRepository) List(ctx context.Context, filter EventFilter, req PageRequest, now time.Time) (*Page[models.EventSummary], error) {
	db := r.db.WithContext(ctx)
	q := db.Model(&models.Event{})
	q = whereContains(q, filter.Name, "name")
	q = whereContains(q, filter.Location, "location")
	if filter.EventType != "" {
		q = q.Where("event_type = ?", filter.EventType)
	}
	if filter.Active != nil {
		if *filter.Active {
			q = q.Where("start_datetime > ?", now.UTC())
		} else {
			q = q.Where("start_datetime <= ?", now.UTC())
		}
	}
	if filter.StartFrom != nil {
		q = q.Where("start_datetime >= ?", filter.StartFrom.UTC())
	}
	if filter.StartTo != nil {
		q = q.Where("start_datetime < ?", filter.StartTo.UTC())
	}

	order := "start_datetime ASC, id ASC"
	if filter.Active != nil && !*filter.Active {
		order = "start_datetime DESC, id DESC"
	}

	events, err := Paginate[models.Event](q, order, PageRequest{Page: req.Page}, "Distances")
	if err != nil {
		return nil, err
	}

	counts, err := r.registrationCounts(db, events.Items)
	if err != nil {
		return nil, err
	}

	page := &Page[models.EventSummary]{
		Items:      make([]models.EventSummary, 0, len(events.Items)),
		Page:       events.Page,
		PageSize:   events.PageSize,
		Total:      events.Total,
		TotalPages: events.TotalPages,
	}
	for _, e := range events.Items {
		page.Items = append(page.Items, Summarize(e, counts[e.ID]))
	}
	return page, nil
}

// Summarize attaches the derived listing fields to an event
func Summarize(e models.Event, registrations int64) models.EventSummary {
	sortDistances(e.Distances)
	return models.EventSummary{
		Event:             e,
		DistanceKms:       e.DistanceKms(),
		RegistrationCount: registrations,
	}
}

func sortDistances(ds []models.Distance) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Km < ds[j].Km })
}

func (r *EventRepository) registrationCounts(db *gorm.DB, events []models.Event) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(events))
	if len(events) == 0 {
		return counts, nil
	}
	ids := make([]uint, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}

	var rows []struct {
		EventID uint
		Total   int64
	}
	err := db.Model(&models.Registration{}).
		Select("event_id, COUNT(*) AS total").
		Where("event_id IN ?", ids).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	for _, row := range rows {
		counts[row.EventID] = row.Total
	}
	return counts, nil
}

// CountRegistrations returns how many runners are registered for the event
func (r *EventRepository) CountRegistrations(ctx context.Context, eventID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Registration{}).Where("event_id = ?", eventID).Count(&total).Error
	return total, err
}

// RefreshActivity rewrites stored activity flags that no longer match the
// clock and reports how many rows changed.
func (r *EventRepository) RefreshActivity(ctx context.Context, now time.Time) (int64, error) {
	var changed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		archived := tx.Model(&models.Event{}).
			Where("is_active = ? AND start_datetime <= ?", true, now.UTC()).
			UpdateColumn("is_active", false)
		if archived.Error != nil {
			return fmt.Errorf("failed to archive events: %w", archived.Error)
		}
		reopened := tx.Model(&models.Event{}).
			Where("is_active = ? AND start_datetime > ?", false, now.UTC()).
			UpdateColumn("is_active", true)
		if reopened.Error != nil {
			return fmt.Errorf("failed to reactivate events: %w", reopened.Error)
		}
		changed = archived.RowsAffected + reopened.RowsAffected
		return nil
	})
	return changed, err
}
