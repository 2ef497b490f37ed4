package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
)

const registrationColumns = `id, event_id, user_id, status, registered_at, cancelled_at, cancellation_reason, created_at, updated_at`

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db DBTX
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db DBTX) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// CountActive counts registrations holding a seat at eventID.
func (r *RegistrationRepository) CountActive(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = 'registered'`,
		eventID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active registrations: %w", err)
	}
	return n, nil
}

// CountByStatus returns the active and cancelled counts for eventID.
func (r *RegistrationRepository) CountByStatus(ctx context.Context, eventID string) (active, cancelled int, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE status = 'registered'),
		        COUNT(*) FILTER (WHERE status = 'cancelled')
		 FROM registrations WHERE event_id = $1`,
		eventID,
	).Scan(&active, &cancelled)
	if err != nil {
		return 0, 0, fmt.Errorf("count registrations: %w", err)
	}
	return active, cancelled, nil
}

// findForUpdate returns the registration row for (eventID, userID) and holds
// its row lock, or ErrNotFound.
func (r *RegistrationRepository) findForUpdate(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1 AND user_id = $2 FOR UPDATE`
	var reg model.Registration
	err := r.db.QueryRow(ctx, q, eventID, userID).Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.Status, &reg.RegisteredAt,
		&reg.CancelledAt, &reg.CancellationReason, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &reg, nil
}

// Insert creates the row for a first registration. A concurrent insert for
// the same (event, user) yields ErrDuplicate.
func (r *RegistrationRepository) Insert(ctx context.Context, reg *model.Registration) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO registrations (`+registrationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		reg.ID, reg.EventID, reg.UserID, reg.Status, reg.RegisteredAt,
		reg.CancelledAt, reg.CancellationReason, reg.CreatedAt, reg.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// Update writes the state-machine fields of an existing row.
func (r *RegistrationRepository) Update(ctx context.Context, reg *model.Registration) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE registrations
		 SET status = $2, registered_at = $3, cancelled_at = $4, cancellation_reason = $5, updated_at = $6
		 WHERE id = $1`,
		reg.ID, reg.Status, reg.RegisteredAt, reg.CancelledAt, reg.CancellationReason, reg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelAllForUser cancels every active registration of userID.
func (r *RegistrationRepository) CancelAllForUser(ctx context.Context, userID string, at time.Time, reason string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE registrations
		 SET status = 'cancelled', cancelled_at = $2, cancellation_reason = $3, updated_at = $2
		 WHERE user_id = $1 AND status = 'registered'`,
		userID, at, reason,
	)
	if err != nil {
		return 0, fmt.Errorf("cancel user registrations: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListAttendees returns one page of registered users for eventID, earliest
// registration first, plus the total number of registered users.
func (r *RegistrationRepository) ListAttendees(ctx context.Context, eventID string, page, limit int) ([]model.Attendee, int, error) {
	total, err := r.CountActive(ctx, eventID)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT r.id, u.id, u.name, u.email, r.registered_at
		 FROM registrations r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.event_id = $1 AND r.status = 'registered'
		 ORDER BY r.registered_at ASC, r.id ASC
		 LIMIT $2 OFFSET $3`,
		eventID, limit, offset(page, limit),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	var out []model.Attendee
	for rows.Next() {
		var a model.Attendee
		if err := rows.Scan(&a.RegistrationID, &a.UserID, &a.Name, &a.Email, &a.RegisteredAt); err != nil {
			return nil, 0, fmt.Errorf("scan attendee: %w", err)
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// PopularEvents returns the events with the most active registrations.
func (r *RegistrationRepository) PopularEvents(ctx context.Context, limit int) ([]model.PopularEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT e.id, e.name, e.date, e.capacity, COUNT(r.id) AS registration_count
		 FROM registrations r
		 JOIN events e ON e.id = r.event_id
		 WHERE r.status = 'registered'
		 GROUP BY e.id
		 ORDER BY registration_count DESC, e.date ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("popular events: %w", err)
	}
	defer rows.Close()

	var out []model.PopularEvent
	for rows.Next() {
		var p model.PopularEvent
		if err := rows.Scan(&p.EventID, &p.EventName, &p.EventDate, &p.Capacity, &p.RegistrationCount); err != nil {
			return nil, fmt.Errorf("scan popular event: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ActiveUsers returns the users holding the most active registrations.
func (r *RegistrationRepository) ActiveUsers(ctx context.Context, limit int) ([]model.ActiveUser, error) {
	rows, err := r.db.Query(ctx,
		`SELECT u.id, u.name, u.email, COUNT(r.id) AS total_registrations
		 FROM registrations r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.status = 'registered'
		 GROUP BY u.id
		 ORDER BY total_registrations DESC, u.name ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("active users: %w", err)
	}
	defer rows.Close()

	var out []model.ActiveUser
	for rows.Next() {
		var a model.ActiveUser
		if err := rows.Scan(&a.UserID, &a.UserName, &a.UserEmail, &a.TotalRegistrations); err != nil {
			return nil, fmt.Errorf("scan active user: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
