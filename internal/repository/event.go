package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
)

const eventColumns = `id, name, description, date, location, capacity, organiser_id, created_at, updated_at`

// EventRepository handles persistence for events.
type EventRepository struct {
	db DBTX
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db DBTX) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Date, &e.Location,
		&e.Capacity, &e.OrganiserID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event. The caller assigns the ID and timestamps.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Name, e.Description, e.Date, e.Location, e.Capacity, e.OrganiserID, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// List returns one page of events ordered by date ascending, plus the total.
func (r *EventRepository) List(ctx context.Context, page, limit int) ([]model.Event, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 ORDER BY date ASC, id ASC
		 LIMIT $1 OFFSET $2`,
		limit, offset(page, limit),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, total, rows.Err()
}

// ListWithCounts returns every event with its active registration count.
func (r *EventRepository) ListWithCounts(ctx context.Context) ([]model.EventWithCounts, error) {
	rows, err := r.db.Query(ctx,
		`SELECT e.id, e.name, e.description, e.date, e.location, e.capacity, e.organiser_id,
		        e.created_at, e.updated_at,
		        COUNT(r.id) FILTER (WHERE r.status = 'registered')
		 FROM events e
		 LEFT JOIN registrations r ON r.event_id = e.id
		 GROUP BY e.id
		 ORDER BY e.date ASC, e.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events with counts: %w", err)
	}
	defer rows.Close()

	var out []model.EventWithCounts
	for rows.Next() {
		var ec model.EventWithCounts
		e := &ec.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Date, &e.Location, &e.Capacity,
			&e.OrganiserID, &e.CreatedAt, &e.UpdatedAt, &ec.RegistrationCount); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, ec)
	}
	return out, rows.Err()
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	return r.getByID(ctx, id, false)
}

func (r *EventRepository) getByID(ctx context.Context, id string, forUpdate bool) (*model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	if forUpdate {
		// Serializes admissions for this event until the surrounding
		// transaction ends.
		q += ` FOR UPDATE`
	}
	e, err := scanEvent(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// Update writes the mutable fields of e.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE events
		 SET name = $2, description = $3, date = $4, location = $5, capacity = $6, updated_at = $7
		 WHERE id = $1`,
		e.ID, e.Name, e.Description, e.Date, e.Location, e.Capacity, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an event; its registrations go with it.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
