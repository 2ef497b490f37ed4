package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/eventsphere/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsphere/internal/ledger"
	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
	"github.com/Shivanand-hulikatti/eventsphere/internal/notify"
	"github.com/Shivanand-hulikatti/eventsphere/internal/repository"
)

// RegistrationService is the only writer of registration rows. It runs every
// state transition inside a transaction that holds the event's row lock, so
// the capacity count and the write that depends on it cannot interleave with
// another admission for the same event.
type RegistrationService struct {
	tx            Transactor
	events        EventStore
	users         UserStore
	registrations RegistrationStore
	ledger        *ledger.Ledger
	notifier      Notifier
	log           *zap.Logger

	clock func() time.Time
	newID func() string
}

// NewRegistrationService constructs a RegistrationService with its dependencies.
func NewRegistrationService(
	tx Transactor,
	events EventStore,
	users UserStore,
	registrations RegistrationStore,
	notifier Notifier,
	log *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		tx:            tx,
		events:        events,
		users:         users,
		registrations: registrations,
		ledger:        ledger.New(),
		notifier:      notifier,
		log:           log,
		clock:         utcNow,
		newID:         newID,
	}
}

// Register admits userID to eventID. A first registration inserts the row; a
// previously cancelled one is reused. A confirmation email is dispatched
// after commit.
func (s *RegistrationService) Register(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	ctx, span := tracer.Start(ctx, "RegistrationService.Register", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.String("user.id", userID),
	))
	defer span.End()

	if !validID(eventID) {
		return nil, apperr.ErrEventNotFound
	}
	if !validID(userID) {
		return nil, apperr.ErrUserNotFound
	}

	var (
		event *model.Event
		reg   *model.Registration
	)
	err := s.tx.InTx(ctx, func(tx repository.Tx) error {
		var err error
		event, err = tx.LockEvent(ctx, eventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.ErrEventNotFound
			}
			return err
		}
		// Serializes against CascadeDeleteForUser for the same account.
		if err := tx.LockUser(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.ErrUserNotFound
			}
			return err
		}

		now := s.clock()
		if err := s.ledger.Admit(ctx, tx, event, now); err != nil {
			return err
		}

		existing, err := tx.FindRegistration(ctx, eventID, userID)
		if errors.Is(err, repository.ErrNotFound) {
			reg = model.NewRegistration(s.newID(), eventID, userID, now)
			if err := tx.InsertRegistration(ctx, reg); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return apperr.ErrAlreadyRegistered
				}
				return err
			}
			return nil
		}
		if err != nil {
			return err
		}

		if err := existing.Reregister(now); err != nil {
			return err
		}
		reg = existing
		return tx.UpdateRegistration(ctx, reg)
	})
	if err != nil {
		return nil, s.fail(span, "register for event", err)
	}

	span.SetAttributes(attribute.String("registration.id", reg.ID))
	s.notify(ctx, userID, event, notify.KindRegistration)
	return reg, nil
}

// Cancel releases userID's seat at eventID.
func (s *RegistrationService) Cancel(ctx context.Context, eventID, userID string) error {
	ctx, span := tracer.Start(ctx, "RegistrationService.Cancel", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.String("user.id", userID),
	))
	defer span.End()

	if !validID(eventID) || !validID(userID) {
		return apperr.ErrRegistrationNotFound
	}

	err := s.tx.InTx(ctx, func(tx repository.Tx) error {
		reg, err := tx.FindRegistration(ctx, eventID, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.ErrRegistrationNotFound
			}
			return err
		}
		if err := reg.Cancel(s.clock(), model.ReasonCancelledByUser); err != nil {
			return err
		}
		return tx.UpdateRegistration(ctx, reg)
	})
	if err != nil {
		return s.fail(span, "cancel registration", err)
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		s.log.Warn("cancellation notice skipped, event lookup failed",
			zap.String("event_id", eventID), zap.Error(err))
		return nil
	}
	s.notify(ctx, userID, event, notify.KindCancellation)
	return nil
}

// ListAttendees returns one page of users currently registered for eventID,
// in registration order.
func (s *RegistrationService) ListAttendees(ctx context.Context, eventID string, page, limit int) (*model.AttendeePage, error) {
	if !validID(eventID) {
		return nil, apperr.ErrEventNotFound
	}
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	page, limit = normalizePage(page, limit)
	attendees, total, err := s.registrations.ListAttendees(ctx, eventID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	if attendees == nil {
		attendees = []model.Attendee{}
	}
	return &model.AttendeePage{
		Attendees:  attendees,
		Pagination: model.NewPagination(page, limit, total),
	}, nil
}

// CascadeDeleteForUser soft-deletes userID and cancels all of their active
// registrations in one transaction. Either both writes land or neither does.
// It returns the tombstoned user and how many registrations were cancelled.
func (s *RegistrationService) CascadeDeleteForUser(ctx context.Context, userID string) (*model.User, int64, error) {
	ctx, span := tracer.Start(ctx, "RegistrationService.CascadeDeleteForUser", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()

	if !validID(userID) {
		return nil, 0, apperr.ErrUserNotFound
	}

	var (
		user      *model.User
		cancelled int64
	)
	err := s.tx.InTx(ctx, func(tx repository.Tx) error {
		now := s.clock()
		var err error
		user, err = tx.SoftDeleteUser(ctx, userID, now)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.ErrUserNotFound
			}
			return err
		}
		cancelled, err = tx.CancelUserRegistrations(ctx, userID, now, model.ReasonUserAccountDeleted)
		return err
	})
	if err != nil {
		return nil, 0, s.fail(span, "delete user", err)
	}

	span.SetAttributes(attribute.Int64("registrations.cancelled", cancelled))
	s.log.Info("user soft-deleted",
		zap.String("user_id", userID),
		zap.Int64("registrations_cancelled", cancelled),
	)
	return user, cancelled, nil
}

// notify looks up the recipient and hands off to the notifier. Nothing here
// can fail the operation that triggered it.
func (s *RegistrationService) notify(ctx context.Context, userID string, event *model.Event, kind notify.Kind) {
	if s.notifier == nil || event == nil {
		return
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.log.Warn("notification skipped, user lookup failed",
			zap.String("user_id", userID), zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	s.notifier.Dispatch(ctx, user, event, kind)
}

// fail records err on span and wraps storage failures with op. Domain errors
// keep their kind through the wrap.
func (s *RegistrationService) fail(span trace.Span, op string, err error) error {
	if apperr.KindOf(err) == apperr.KindInternal {
		span.RecordError(err)
		span.SetStatus(codes.Error, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}
