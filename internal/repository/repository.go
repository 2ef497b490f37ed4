// Package repository implements all database queries for the event registration system.
// It uses pgx directly (no ORM) so every statement and lock is visible.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a write violates a unique constraint.
var ErrDuplicate = errors.New("duplicate key")

const uniqueViolation = "23505"

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so every repository can run
// either standalone or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is the set of statements the services run inside one transaction.
type Tx interface {
	// LockEvent reads the event and holds its row lock until commit.
	LockEvent(ctx context.Context, eventID string) (*model.Event, error)
	// LockUser holds a share lock on a live user until commit. Missing and
	// soft-deleted users yield ErrNotFound.
	LockUser(ctx context.Context, userID string) error
	UpdateEvent(ctx context.Context, e *model.Event) error
	CountActive(ctx context.Context, eventID string) (int, error)
	// FindRegistration reads the (event, user) row and holds its row lock.
	FindRegistration(ctx context.Context, eventID, userID string) (*model.Registration, error)
	InsertRegistration(ctx context.Context, reg *model.Registration) error
	UpdateRegistration(ctx context.Context, reg *model.Registration) error
	SoftDeleteUser(ctx context.Context, userID string, at time.Time) (*model.User, error)
	CancelUserRegistrations(ctx context.Context, userID string, at time.Time, reason string) (int64, error)
}

// Store opens transactions over the pool.
type Store struct {
	db *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// InTx runs fn inside a transaction. fn's error, or a failed commit, rolls
// back every statement fn issued.
func (s *Store) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback after a successful commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(newTxQueries(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txQueries struct {
	events        *EventRepository
	users         *UserRepository
	registrations *RegistrationRepository
}

func newTxQueries(tx pgx.Tx) *txQueries {
	return &txQueries{
		events:        NewEventRepository(tx),
		users:         NewUserRepository(tx),
		registrations: NewRegistrationRepository(tx),
	}
}

func (q *txQueries) LockEvent(ctx context.Context, eventID string) (*model.Event, error) {
	return q.events.getByID(ctx, eventID, true)
}

func (q *txQueries) LockUser(ctx context.Context, userID string) error {
	return q.users.lockLive(ctx, userID)
}

func (q *txQueries) UpdateEvent(ctx context.Context, e *model.Event) error {
	return q.events.Update(ctx, e)
}

func (q *txQueries) CountActive(ctx context.Context, eventID string) (int, error) {
	return q.registrations.CountActive(ctx, eventID)
}

func (q *txQueries) FindRegistration(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	return q.registrations.findForUpdate(ctx, eventID, userID)
}

func (q *txQueries) InsertRegistration(ctx context.Context, reg *model.Registration) error {
	return q.registrations.Insert(ctx, reg)
}

func (q *txQueries) UpdateRegistration(ctx context.Context, reg *model.Registration) error {
	return q.registrations.Update(ctx, reg)
}

func (q *txQueries) SoftDeleteUser(ctx context.Context, userID string, at time.Time) (*model.User, error) {
	return q.users.SoftDelete(ctx, userID, at)
}

func (q *txQueries) CancelUserRegistrations(ctx context.Context, userID string, at time.Time, reason string) (int64, error) {
	return q.registrations.CancelAllForUser(ctx, userID, at, reason)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func offset(page, limit int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * limit
}
