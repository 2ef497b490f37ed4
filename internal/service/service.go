// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
	"github.com/Shivanand-hulikatti/eventsphere/internal/notify"
	"github.com/Shivanand-hulikatti/eventsphere/internal/repository"
)

var tracer = otel.Tracer("github.com/Shivanand-hulikatti/eventsphere/internal/service")

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Transactor runs fn inside one database transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx repository.Tx) error) error
}

// EventStore is the event persistence the services read and write outside
// transactions.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, page, limit int) ([]model.Event, int, error)
	ListWithCounts(ctx context.Context) ([]model.EventWithCounts, error)
	Delete(ctx context.Context, id string) error
}

// UserStore is the account persistence.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, page, limit int) ([]model.User, int, error)
}

// RegistrationStore is the read side of registrations.
type RegistrationStore interface {
	CountActive(ctx context.Context, eventID string) (int, error)
	CountByStatus(ctx context.Context, eventID string) (active, cancelled int, err error)
	ListAttendees(ctx context.Context, eventID string, page, limit int) ([]model.Attendee, int, error)
	PopularEvents(ctx context.Context, limit int) ([]model.PopularEvent, error)
	ActiveUsers(ctx context.Context, limit int) ([]model.ActiveUser, error)
}

// Notifier fires a best-effort notification. It must not block on delivery.
type Notifier interface {
	Dispatch(ctx context.Context, user *model.User, event *model.Event, kind notify.Kind)
}

// validID reports whether id can name a row. Malformed ids are treated as
// missing rows rather than storage errors.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

func newID() string {
	return uuid.New().String()
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// normalizePage applies listing defaults and bounds.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
