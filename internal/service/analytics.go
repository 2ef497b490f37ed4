package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/eventsphere/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsphere/internal/ledger"
	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
	"github.com/Shivanand-hulikatti/eventsphere/internal/repository"
)

const topN = 5

// EventStats pairs an event with its ledger snapshot.
type EventStats struct {
	Event *model.Event `json:"event"`
	Stats ledger.Stats `json:"stats"`
}

// AnalyticsService serves the read-only reports.
type AnalyticsService struct {
	events        EventStore
	registrations RegistrationStore
	ledger        *ledger.Ledger
	clock         func() time.Time
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(events EventStore, registrations RegistrationStore) *AnalyticsService {
	return &AnalyticsService{
		events:        events,
		registrations: registrations,
		ledger:        ledger.New(),
		clock:         utcNow,
	}
}

// PopularEvents returns the five events with the most active registrations.
func (s *AnalyticsService) PopularEvents(ctx context.Context) ([]model.PopularEvent, error) {
	out, err := s.registrations.PopularEvents(ctx, topN)
	if err != nil {
		return nil, fmt.Errorf("popular events: %w", err)
	}
	if out == nil {
		return []model.PopularEvent{}, nil
	}
	for i := range out {
		if out[i].Capacity > 0 {
			out[i].RegistrationRatePercent = float64(out[i].RegistrationCount) / float64(out[i].Capacity) * 100
		}
	}
	return out, nil
}

// ActiveUsers returns the five users holding the most active registrations.
func (s *AnalyticsService) ActiveUsers(ctx context.Context) ([]model.ActiveUser, error) {
	out, err := s.registrations.ActiveUsers(ctx, topN)
	if err != nil {
		return nil, fmt.Errorf("active users: %w", err)
	}
	if out == nil {
		return []model.ActiveUser{}, nil
	}
	return out, nil
}

// EventStats returns the ledger snapshot for one event.
func (s *AnalyticsService) EventStats(ctx context.Context, eventID string) (*EventStats, error) {
	if !validID(eventID) {
		return nil, apperr.ErrEventNotFound
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	active, cancelled, err := s.registrations.CountByStatus(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("event stats: %w", err)
	}
	return &EventStats{Event: event, Stats: s.ledger.Snapshot(event, active, cancelled, s.clock())}, nil
}
