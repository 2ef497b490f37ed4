// Package notify sends registration and cancellation emails on a best-effort
// basis. A failed or slow delivery never reaches the caller.
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
)

// Dispatcher makes one delivery attempt per notification, off the caller's
// goroutine. There is no retry and no queue.
type Dispatcher struct {
	mailer  Mailer
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher constructs a Dispatcher. timeout bounds each attempt.
func NewDispatcher(mailer Mailer, log *zap.Logger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{mailer: mailer, log: log, timeout: timeout}
}

// Dispatch starts a delivery attempt and returns immediately. The attempt
// outlives ctx's cancellation but keeps its values.
func (d *Dispatcher) Dispatch(ctx context.Context, user *model.User, event *model.Event, kind Kind) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("notification panicked", zap.Any("panic", r), zap.String("kind", string(kind)))
			}
		}()
		d.Deliver(ctx, user, event, kind)
	}()
}

// Deliver renders and sends synchronously. Errors are logged and dropped;
// it reports whether the mailer accepted the message.
func (d *Dispatcher) Deliver(ctx context.Context, user *model.User, event *model.Event, kind Kind) bool {
	fields := []zap.Field{
		zap.String("kind", string(kind)),
		zap.String("user_id", user.ID),
		zap.String("event_id", event.ID),
	}

	subject, body, err := Render(kind, user, event)
	if err != nil {
		d.log.Error("render notification", append(fields, zap.Error(err))...)
		return false
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := d.mailer.Send(ctx, user.Email, subject, body); err != nil {
		d.log.Warn("notification not delivered", append(fields, zap.Error(err))...)
		return false
	}
	d.log.Debug("notification delivered", fields...)
	return true
}

// Wait blocks until every dispatched attempt has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
