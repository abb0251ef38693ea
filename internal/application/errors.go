package application

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when the requested room, booking or user does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrPermission is returned when the requester may not perform the mutation.
	ErrPermission = errors.New("application: permission denied")
	// ErrPastTime is returned when a booking would start, or be edited, in the past.
	ErrPastTime = errors.New("application: booking time is in the past")
	// ErrEmptyRange is returned when a recurrence request produces zero slots.
	ErrEmptyRange = errors.New("application: recurrence produced no dates")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when a deactivated account attempts to act.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrAlreadyExists is returned when a uniqueness rule rejects a create.
	ErrAlreadyExists = errors.New("application: already exists")
)

// ConflictError reports an overlap with an existing confirmed booking. For
// recurring series the Date names the first slot that could not be placed.
type ConflictError struct {
	RoomID string
	Date   time.Time
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil {
		return ""
	}
	if c.Date.IsZero() {
		return fmt.Sprintf("room %s is already booked for the requested time", c.RoomID)
	}
	return fmt.Sprintf("room %s is already booked on %s; the entire series was discarded", c.RoomID, c.Date.Format("2006-01-02"))
}

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
