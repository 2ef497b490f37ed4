package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/eventsphere/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsphere/internal/ledger"
	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
	"github.com/Shivanand-hulikatti/eventsphere/internal/repository"
)

const maxCapacity = 100_000

// EventService orchestrates event-related business operations.
type EventService struct {
	tx            Transactor
	events        EventStore
	registrations RegistrationStore
	ledger        *ledger.Ledger

	clock func() time.Time
	newID func() string
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(tx Transactor, events EventStore, registrations RegistrationStore) *EventService {
	return &EventService{
		tx:            tx,
		events:        events,
		registrations: registrations,
		ledger:        ledger.New(),
		clock:         utcNow,
		newID:         newID,
	}
}

// CreateEvent validates the request and stores a new event owned by organiserID.
func (s *EventService) CreateEvent(ctx context.Context, organiserID string, req model.CreateEventRequest) (*model.Event, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Location = strings.TrimSpace(req.Location)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" {
		return nil, apperr.Invalid("event name is required")
	}
	if req.Location == "" {
		return nil, apperr.Invalid("event location is required")
	}
	if err := checkCapacity(req.Capacity); err != nil {
		return nil, err
	}

	now := s.clock()
	if req.Date.Before(now) {
		return nil, apperr.Invalid("event date must be in the future")
	}

	event := &model.Event{
		ID:          s.newID(),
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date.UTC(),
		Location:    req.Location,
		Capacity:    req.Capacity,
		OrganiserID: organiserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// ListEvents returns one page of events, soonest first.
func (s *EventService) ListEvents(ctx context.Context, page, limit int) (*model.EventPage, error) {
	page, limit = normalizePage(page, limit)
	events, total, err := s.events.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []model.Event{}
	}
	return &model.EventPage{Events: events, Pagination: model.NewPagination(page, limit, total)}, nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if !validID(id) {
		return nil, apperr.ErrEventNotFound
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// UpdateEvent applies the non-nil fields of req. Capacity may not drop below
// the number of seats already taken; the check and the write share the
// event's row lock with admissions.
func (s *EventService) UpdateEvent(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	ctx, span := tracer.Start(ctx, "EventService.UpdateEvent", trace.WithAttributes(attribute.String("event.id", id)))
	defer span.End()

	if !validID(id) {
		return nil, apperr.ErrEventNotFound
	}

	var event *model.Event
	err := s.tx.InTx(ctx, func(tx repository.Tx) error {
		var err error
		event, err = tx.LockEvent(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.ErrEventNotFound
			}
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return apperr.Invalid("event name is required")
			}
			event.Name = name
		}
		if req.Description != nil {
			event.Description = strings.TrimSpace(*req.Description)
		}
		if req.Location != nil {
			loc := strings.TrimSpace(*req.Location)
			if loc == "" {
				return apperr.Invalid("event location is required")
			}
			event.Location = loc
		}
		now := s.clock()
		if req.Date != nil {
			if req.Date.Before(now) {
				return apperr.Invalid("event date must be in the future")
			}
			event.Date = req.Date.UTC()
		}
		if req.Capacity != nil && *req.Capacity != event.Capacity {
			if err := checkCapacity(*req.Capacity); err != nil {
				return err
			}
			active, err := tx.CountActive(ctx, id)
			if err != nil {
				return err
			}
			if err := s.ledger.CheckResize(active, *req.Capacity); err != nil {
				return err
			}
			event.Capacity = *req.Capacity
		}

		event.UpdatedAt = now
		return tx.UpdateEvent(ctx, event)
	})
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

// DeleteEvent removes an event together with its registrations.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if !validID(id) {
		return apperr.ErrEventNotFound
	}
	if err := s.events.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrEventNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// ListEventsWithCounts returns every event with its active registration count
// and remaining seats, for the admin dashboard.
func (s *EventService) ListEventsWithCounts(ctx context.Context) ([]model.EventWithCounts, error) {
	events, err := s.events.ListWithCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		return []model.EventWithCounts{}, nil
	}
	for i := range events {
		events[i].AvailableSpots = s.ledger.Available(events[i].Capacity, events[i].RegistrationCount)
	}
	return events, nil
}

func checkCapacity(capacity int) error {
	if capacity <= 0 {
		return apperr.Invalid("capacity must be a positive integer")
	}
	if capacity > maxCapacity {
		return apperr.Invalid("capacity cannot exceed 100,000")
	}
	return nil
}
