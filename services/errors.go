package services

import (
	"errors"
	"fmt"

	"raceday-api/repositories"
)

var (
	ErrNotFound              = errors.New("resource not found")
	ErrForbidden             = errors.New("access denied")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrDuplicateRegistration = errors.New("runner is already registered for this event")
	ErrUsernameTaken         = errors.New("a runner with that username already exists")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrEventStarted          = errors.New("event has already started")
	ErrDistanceNotOffered    = errors.New("distance is not offered by this event")
	ErrUnknownDistance       = errors.New("unknown distance")
	ErrDistanceInUse         = errors.New("distance is used by events or registrations")
	ErrInvalidInput          = errors.New("invalid input")
)

// ValidationError is a user-correctable problem with one submitted field.
// An empty Field marks a form-level error.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid builds a validation error on field whose message is err's text
func Invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: err.Error(), Err: err}
}

// Invalidf builds a validation error wrapping ErrInvalidInput
func Invalidf(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Err: ErrInvalidInput}
}

// notFound maps the repository sentinel onto the service one and leaves
// every other error alone.
func notFound(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
