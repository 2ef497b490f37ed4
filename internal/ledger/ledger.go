// Package ledger answers "how many seats does an event have left" and gates
// admission on that answer.
//
// The count is always recomputed from registration rows; there is no stored
// running counter. Callers that admit must hold the event's row lock for the
// duration of the count and the write that follows, otherwise two concurrent
// admissions can both see a free seat.
package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Shivanand-hulikatti/eventsphere/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
)

// CapacityStatus buckets how full an event is.
type CapacityStatus string

const (
	StatusAvailable  CapacityStatus = "AVAILABLE"
	StatusHalfway    CapacityStatus = "HALFWAY"
	StatusAlmostFull CapacityStatus = "ALMOST_FULL"
	StatusFull       CapacityStatus = "FULL"
)

// Counter counts registrations currently holding a seat.
type Counter interface {
	CountActive(ctx context.Context, eventID string) (int, error)
}

// Stats is a point-in-time view of one event's ledger.
type Stats struct {
	TotalRegistrations      int            `json:"total_registrations"`
	ActiveRegistrations     int            `json:"active_registrations"`
	CancelledRegistrations  int            `json:"cancelled_registrations"`
	AvailableSpots          int            `json:"available_spots"`
	RegistrationRatePercent float64        `json:"registration_rate_percent"`
	CapacityStatus          CapacityStatus `json:"capacity_status"`
	DaysUntilEvent          int            `json:"days_until_event"`
}

// Ledger holds the admission rules.
type Ledger struct{}

// New returns a Ledger.
func New() *Ledger {
	return &Ledger{}
}

// Admit returns nil when one more registration fits into event at now.
func (l *Ledger) Admit(ctx context.Context, c Counter, event *model.Event, now time.Time) error {
	if event.InPast(now) {
		return apperr.ErrEventInPast
	}
	active, err := c.CountActive(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("count active registrations: %w", err)
	}
	if active >= event.Capacity {
		return apperr.ErrCapacityExceeded
	}
	return nil
}

// CheckResize rejects a capacity that would strand already admitted attendees.
func (l *Ledger) CheckResize(active, capacity int) error {
	if capacity < active {
		return apperr.ErrCapacityBelowActive
	}
	return nil
}

// Available returns the free seats, never negative.
func (l *Ledger) Available(capacity, active int) int {
	if active >= capacity {
		return 0
	}
	return capacity - active
}

// Snapshot builds the stats view for event from its row counts.
func (l *Ledger) Snapshot(event *model.Event, active, cancelled int, now time.Time) Stats {
	return Stats{
		TotalRegistrations:      active + cancelled,
		ActiveRegistrations:     active,
		CancelledRegistrations:  cancelled,
		AvailableSpots:          l.Available(event.Capacity, active),
		RegistrationRatePercent: ratePercent(active, event.Capacity),
		CapacityStatus:          classify(active, event.Capacity),
		DaysUntilEvent:          int(math.Ceil(event.Date.Sub(now).Hours() / 24)),
	}
}

func ratePercent(active, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(active) / float64(capacity) * 100
}

func classify(active, capacity int) CapacityStatus {
	c := float64(capacity)
	a := float64(active)
	switch {
	case active >= capacity:
		return StatusFull
	case a >= c*0.8:
		return StatusAlmostFull
	case a >= c*0.5:
		return StatusHalfway
	default:
		return StatusAvailable
	}
}
