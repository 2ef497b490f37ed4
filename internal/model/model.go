// Package model defines the core domain types for the event registration system.
package model

import "time"

// Role is the access level attached to a user account.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleOrganiser Role = "organiser"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleOrganiser:
		return true
	}
	return false
}

// Event represents a schedulable happening with a finite number of seats.
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Capacity    int       `json:"capacity"`
	OrganiserID string    `json:"organiser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InPast reports whether the event has already started at now.
func (e *Event) InPast(now time.Time) bool {
	return e.Date.Before(now)
}

// User is an account. PasswordHash is never serialized.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	IsDeleted    bool       `json:"is_deleted"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Attendee is a registered user as listed for an event.
type Attendee struct {
	RegistrationID string    `json:"registration_id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	RegisteredAt   time.Time `json:"registered_at"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	Total       int `json:"total"`
}

// NewPagination derives the page count for total items split by limit.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{CurrentPage: page, TotalPages: pages, Total: total}
}

// AttendeePage is one page of an event's attendee list.
type AttendeePage struct {
	Attendees  []Attendee `json:"attendees"`
	Pagination Pagination `json:"pagination"`
}

// EventPage is one page of the public event listing.
type EventPage struct {
	Events     []Event    `json:"events"`
	Pagination Pagination `json:"pagination"`
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// EventWithCounts is an event annotated with its ledger counts.
type EventWithCounts struct {
	Event
	RegistrationCount int `json:"registration_count"`
	AvailableSpots    int `json:"available_spots"`
}

// PopularEvent is a row of the popular-events report.
type PopularEvent struct {
	EventID                 string    `json:"event_id"`
	EventName               string    `json:"event_name"`
	EventDate               time.Time `json:"event_date"`
	Capacity                int       `json:"capacity"`
	RegistrationCount       int       `json:"registration_count"`
	RegistrationRatePercent float64   `json:"registration_rate_percent"`
}

// ActiveUser is a row of the most-active-users report.
type ActiveUser struct {
	UserID             string `json:"user_id"`
	UserName           string `json:"user_name"`
	UserEmail          string `json:"user_email"`
	TotalRegistrations int    `json:"total_registrations"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	Date        time.Time `json:"date" validate:"required"`
	Location    string    `json:"location" validate:"required,max=500"`
	Capacity    int       `json:"capacity" validate:"required,gt=0,lte=100000"`
}

// UpdateEventRequest is a partial update; nil fields are left unchanged.
type UpdateEventRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Date        *time.Time `json:"date"`
	Location    *string    `json:"location" validate:"omitempty,min=1,max=500"`
	Capacity    *int       `json:"capacity" validate:"omitempty,gt=0,lte=100000"`
}

// SignupRequest is the payload for creating an account.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest is the payload for signing in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Envelope is the standard JSON success wrapper.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
