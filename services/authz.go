package services

import (
	"time"
)

// Actor is the authenticated runner behind a request
type Actor struct {
	RunnerID uint
	IsStaff  bool
}

// Credentials is what a session cookie or bearer token claims: a runner and
// the fingerprint of their password hash when it was issued.
type Credentials struct {
	RunnerID    uint
	Fingerprint string
}

// CanModify is the single owner-or-staff check guarding runner and
// registration writes.
func CanModify(actor Actor, ownerID uint) bool {
	return actor.IsStaff || (actor.RunnerID != 0 && actor.RunnerID == ownerID)
}

func requireStaff(actor Actor) error {
	if !actor.IsStaff {
		return ErrForbidden
	}
	return nil
}

// Clock supplies the current time. Services never read the wall clock directly.
type Clock func() time.Time

// SystemClock reads the wall clock in UTC
func SystemClock() time.Time {
	return time.Now().UTC()
}
