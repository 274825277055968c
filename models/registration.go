// File: /models/registration.go
package models

import (
	"time"
)

type Registration struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	EventID          uint      `json:"event_id" gorm:"not null;uniqueIndex:uk_registrations_event_runner,priority:1"`
	RunnerID         uint      `json:"runner_id" gorm:"not null;uniqueIndex:uk_registrations_event_runner,priority:2"`
	DistanceID       uint      `json:"distance_id" gorm:"not null;index"`
	RegistrationDate time.Time `json:"registration_date" gorm:"not null;<-:create"`

	Event    Event    `json:"event" gorm:"foreignKey:EventID"`
	Runner   Runner   `json:"runner" gorm:"foreignKey:RunnerID"`
	Distance Distance `json:"distance" gorm:"foreignKey:DistanceID;constraint:OnDelete:RESTRICT"`
}

// StartListEntry is one row of an event's start list
type StartListEntry struct {
	RegistrationID   uint      `json:"registration_id"`
	RunnerID         uint      `json:"runner_id"`
	FullName         string    `json:"full_name"`
	Gender           Gender    `json:"gender"`
	City             string    `json:"city"`
	Age              *int      `json:"age"`
	DistanceKm       int       `json:"distance_km"`
	RegistrationDate time.Time `json:"registration_date"`
}
