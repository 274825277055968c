// File: /models/event.go
package models

import (
	"time"
)

type Event struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"not null;size:100;index"`
	StartDatetime time.Time `json:"start_datetime" gorm:"not null;index"`
	Location      string    `json:"location" gorm:"not null;size:100"`
	Description   string    `json:"description" gorm:"type:text"`
	EventType     EventType `json:"event_type" gorm:"not null;size:100"`
	Organiser     string    `json:"organiser" gorm:"not null;size:100"`
	IsActive      bool      `json:"is_active" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Distances     []Distance     `json:"distances" gorm:"many2many:event_distances;constraint:OnDelete:CASCADE"`
	Registrations []Registration `json:"-" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
}

// IsActiveAt reports whether an event starting at start is still upcoming at
// now. An event starting exactly now is already archived.
func IsActiveAt(start, now time.Time) bool {
	return start.After(now)
}

// RecomputeActive overwrites the stored activity flag from the start time.
// The flag is only a snapshot of the clock at save time.
func (e *Event) RecomputeActive(now time.Time) bool {
	e.IsActive = IsActiveAt(e.StartDatetime, now)
	return e.IsActive
}

// DistanceKms lists the offered distances in kilometres
func (e Event) DistanceKms() []int {
	kms := make([]int, 0, len(e.Distances))
	for _, d := range e.Distances {
		kms = append(kms, d.Km)
	}
	return kms
}

// OffersDistance reports whether distanceID is one of the event's distances
func (e Event) OffersDistance(distanceID uint) bool {
	for _, d := range e.Distances {
		if d.ID == distanceID {
			return true
		}
	}
	return false
}

// EventSummary is an event with the derived fields listings show
type EventSummary struct {
	Event
	DistanceKms       []int `json:"distance_kms"`
	RegistrationCount int64 `json:"registration_count"`
}
