package model

import (
	"time"

	"github.com/Shivanand-hulikatti/eventsphere/internal/apperr"
)

// RegistrationStatus is the state of a registration row.
type RegistrationStatus string

const (
	StatusRegistered RegistrationStatus = "registered"
	StatusCancelled  RegistrationStatus = "cancelled"
)

const (
	ReasonCancelledByUser    = "Cancelled By User"
	ReasonUserAccountDeleted = "User Account Deleted"
)

// Registration is a user's claim on one seat at one event. Exactly one row
// exists per (event, user); once created it moves between Registered and
// Cancelled and is never removed.
type Registration struct {
	ID                 string             `json:"id"`
	EventID            string             `json:"event_id"`
	UserID             string             `json:"user_id"`
	Status             RegistrationStatus `json:"status"`
	RegisteredAt       time.Time          `json:"registered_at"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	CancellationReason *string            `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// NewRegistration creates the row for a first-time registration.
func NewRegistration(id, eventID, userID string, now time.Time) *Registration {
	return &Registration{
		ID:           id,
		EventID:      eventID,
		UserID:       userID,
		Status:       StatusRegistered,
		RegisteredAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Active reports whether the registration holds a seat.
func (r *Registration) Active() bool {
	return r.Status == StatusRegistered
}

// Reregister moves a cancelled registration back to registered.
func (r *Registration) Reregister(now time.Time) error {
	if r.Status == StatusRegistered {
		return apperr.ErrAlreadyRegistered
	}
	r.Status = StatusRegistered
	r.RegisteredAt = now
	r.CancelledAt = nil
	r.CancellationReason = nil
	r.UpdatedAt = now
	return nil
}

// Cancel releases the seat and records why.
func (r *Registration) Cancel(now time.Time, reason string) error {
	if r.Status == StatusCancelled {
		return apperr.ErrAlreadyCancelled
	}
	r.Status = StatusCancelled
	r.CancelledAt = &now
	r.CancellationReason = &reason
	r.UpdatedAt = now
	return nil
}
