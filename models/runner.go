// File: /models/runner.go
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

type Runner struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"uniqueIndex;not null;size:150"`
	FirstName   string    `json:"first_name" gorm:"not null;size:30"`
	LastName    string    `json:"last_name" gorm:"not null;size:30"`
	City        string    `json:"city" gorm:"size:30"`
	DateOfBirth *Date     `json:"date_of_birth"`
	Gender      Gender    `json:"gender" gorm:"size:10"`
	PhoneNumber *string   `json:"phone_number" gorm:"size:15"`
	Email       string    `json:"email" gorm:"size:254"`
	Password    string    `json:"-" gorm:"not null;size:255"`
	IsStaff     bool      `json:"is_staff" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Registrations []Registration `json:"registrations,omitempty" gorm:"foreignKey:RunnerID;constraint:OnDelete:CASCADE"`
}

// FullName renders the runner the way start lists print them
func (r Runner) FullName() string {
	return r.LastName + " " + r.FirstName
}

// CredentialFingerprint identifies the current password hash. Sessions and
// tokens carry it so a password change signs out every other client.
func (r Runner) CredentialFingerprint() string {
	sum := sha256.Sum256([]byte(r.Password))
	return hex.EncodeToString(sum[:8])
}

// AgeOn returns the runner's age on the given day, or nil when the date of
// birth is unknown.
func (r Runner) AgeOn(today time.Time) *int {
	if r.DateOfBirth == nil {
		return nil
	}
	age := Age(r.DateOfBirth.Time, today)
	return &age
}

// Age counts completed years between dob and today.
func Age(dob, today time.Time) int {
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}
