package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/eventsphere/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
	"github.com/Shivanand-hulikatti/eventsphere/internal/notify"
)

func TestRegisterCapacityScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := f.addEvent(1, f.now.Add(48*time.Hour))
	a, b := f.addUser("alice"), f.addUser("bob")

	if _, err := f.regs.Register(ctx, ev, a); err != nil {
		t.Fatalf("alice register: %v", err)
	}
	if _, err := f.regs.Register(ctx, ev, b); !errors.Is(err, apperr.ErrCapacityExceeded) {
		t.Fatalf("expected capacity exceeded for bob, got %v", err)
	}
	if err := f.regs.Cancel(ctx, ev, a); err != nil {
		t.Fatalf("alice cancel: %v", err)
	}
	if _, err := f.regs.Register(ctx, ev, b); err != nil {
		t.Fatalf("bob register after cancel: %v", err)
	}
	if got := f.store.countActive(ev); got != 1 {
		t.Fatalf("expected 1 active registration, got %d", got)
	}
}

func TestRegisterFillsLastSeat(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := f.addEvent(3, f.now.Add(time.Hour))
	for _, name := range []string{"a", "b"} {
		if _, err := f.regs.Register(ctx, ev, f.addUser(name)); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	if _, err := f.regs.Register(ctx, ev, f.addUser("c")); err != nil {
		t.Fatalf("expected last seat to be admitted: %v", err)
	}
	if got := f.store.countActive(ev); got != 3 {
		t.Fatalf("expected count to reach capacity, got %d", got)
	}
	if _, err := f.regs.Register(ctx, ev, f.addUser("d")); !errors.Is(err, apperr.ErrCapacityExceeded) {
		t.Fatalf("expected capacity exceeded, got %v", err)
	}
}

func TestRegisterPastEventCreatesNothing(t *testing.T) {
	f := newFixture()
	ev := f.addEvent(10, f.now.Add(-time.Minute))
	u := f.addUser("late")

	_, err := f.regs.Register(context.Background(), ev, u)
	if !errors.Is(err, apperr.ErrEventInPast) {
		t.Fatalf("expected event in past, got %v", err)
	}
	if apperr.KindOf(err) != apperr.KindPreconditionFailed {
		t.Fatalf("expected precondition kind, got %s", apperr.KindOf(err))
	}
	if len(f.store.registrations) != 0 {
		t.Fatalf("expected no rows, got %d", len(f.store.registrations))
	}
	if len(f.notifier.sent) != 0 {
		t.Fatal("expected no notification")
	}
}

func TestRegisterUnknownEvent(t *testing.T) {
	f := newFixture()
	u := f.addUser("u")

	for _, id := range []string{"not-a-uuid", "6f1c1c9e-1a43-4a8e-9b3e-000000000000"} {
		if _, err := f.regs.Register(context.Background(), id, u); !errors.Is(err, apperr.ErrEventNotFound) {
			t.Fatalf("%s: expected event not found, got %v", id, err)
		}
	}
}

func TestRegisterDeletedUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := f.addEvent(1, f.now.Add(time.Hour))
	gone, live := f.addUser("gone"), f.addUser("live")

	if _, _, err := f.regs.CascadeDeleteForUser(ctx, gone); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}
	if _, err := f.regs.Register(ctx, ev, gone); !errors.Is(err, apperr.ErrUserNotFound) {
		t.Fatalf("expected deleted user to be rejected, got %v", err)
	}
	if got := f.store.countActive(ev); got != 0 {
		t.Fatalf("deleted user took a seat, active=%d", got)
	}
	if _, err := f.regs.Register(ctx, ev, live); err != nil {
		t.Fatalf("live user register: %v", err)
	}

	unknown := "6f1c1c9e-1a43-4a8e-9b3e-0000000000ff"
	if _, err := f.regs.Register(ctx, ev, unknown); !errors.Is(err, apperr.ErrUserNotFound) {
		t.Fatalf("expected unknown user to be rejected, got %v", err)
	}
}

func TestRegisterTwiceIsRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := f.addEvent(5, f.now.Add(time.Hour))
	u := f.addUser("u")

	if _, err := f.regs.Register(ctx, ev, u); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.regs.Register(ctx, ev, u); !errors.Is(err, apperr.ErrAlreadyRegistered) {
		t.Fatalf("expected already registered, got %v", err)
	}
	if len(f.store.registrations) != 1 {
		t.Fatalf("expected a single row, got %d", len(f.store.registrations))
	}
}

func TestReregisterReusesRow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := f.addEvent(5, f.now.Add(time.Hour))
	u := f.addUser("u")

	first, err := f.regs.Register(ctx, ev, u)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := f.regs.Cancel(ctx, ev, u); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	later := f.now.Add(10 * time.Minute)
	f.regs.clock = func() time.Time { return later }
	second, err := f.regs.Register(ctx, ev, u)
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected row %s to be reused, got %s", first.ID, second.ID)
	}
	if !second.RegisteredAt.Equal(later) || second.CancelledAt != nil || second.CancellationReason != nil {
		t.Fatalf("expected refreshed active row, got %+v", second)
	}
	if len(f.store.registrations) != 1 {
		t.Fatalf("expected a single row, got %d", len(f.store.registrations))
	}
}

func TestCancelTwice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := f.addEvent(5, f.now.Add(time.Hour))
	u := f.addUser("u")

	reg, err := f.regs.Register(ctx, ev, u)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := f.regs.Cancel(ctx, ev, u); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	before := f.store.registrations[reg.ID]

	f.regs.clock = func() time.Time { return f.now.Add(time.Hour) }
	if err := f.regs.Cancel(ctx, ev, u); !errors.Is(err, apperr.ErrAlreadyCancelled) {
		t.Fatalf("expected already cancelled, got %v", err)
	}
	after := f.store.registrations[reg.ID]
	if !after.UpdatedAt.Equal(before.UpdatedAt) || !after.CancelledAt.Equal(*before.CancelledAt) {
		t.Fatalf("row changed on rejected cancel: %+v -> %+v", before, after)
	}
	if got := *after.CancellationReason; got != model.ReasonCancelledByUser {
		t.Fatalf("unexpected reason %q", got)
	}
}

func TestCancelWithoutRegistration(t *testing.T) {
	f := newFixture()
	ev := f.addEvent(5, f.now.Add(time.Hour))
	if err := f.regs.Cancel(context.Background(), ev, f.addUser("u")); !errors.Is(err, apperr.ErrRegistrationNotFound) {
		t.Fatalf("expected registration not found, got %v", err)
	}
}

func TestNotificationsFollowCommits(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := f.addEvent(5, f.now.Add(time.Hour))
	u := f.addUser("u")

	if _, err := f.regs.Register(ctx, ev, u); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := f.regs.Cancel(ctx, ev, u); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_ = f.regs.Cancel(ctx, ev, u)

	want := []notify.Kind{notify.KindRegistration, notify.KindCancellation}
	if len(f.notifier.sent) != len(want) {
		t.Fatalf("expected %v, got %v", want, f.notifier.sent)
	}
	for i := range want {
		if f.notifier.sent[i] != want[i] || f.notifier.users[i] != u {
			t.Fatalf("expected %v to %s, got %v to %v", want, u, f.notifier.sent, f.notifier.users)
		}
	}
}

func TestNotificationFailureDoesNotChangeResult(t *testing.T) {
	f := newFixture()
	mailer := &failingMailer{}
	dispatcher := notify.NewDispatcher(mailer, zap.NewNop(), time.Second)
	f.regs.notifier = dispatcher

	ev := f.addEvent(5, f.now.Add(time.Hour))
	u := f.addUser("u")
	reg, err := f.regs.Register(context.Background(), ev, u)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	dispatcher.Wait()

	if mailer.calls != 1 {
		t.Fatalf("expected one send attempt, got %d", mailer.calls)
	}
	if r := f.store.registrations[reg.ID]; !r.Active() {
		t.Fatal("expected registration to stay active")
	}
}

func TestRegisterConcurrentlyNeverOverbooks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := f.addEvent(3, f.now.Add(time.Hour))

	users := make([]string, 20)
	for i := range users {
		users[i] = f.addUser(strings.Repeat("x", i+1))
	}

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.regs.Register(ctx, ev, u)
		}()
	}
	wg.Wait()

	if got := f.store.countActive(ev); got != 3 {
		t.Fatalf("expected exactly 3 admissions, got %d", got)
	}
}

func TestListAttendees(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := f.addEvent(10, f.now.Add(time.Hour))

	for i, name := range []string{"first", "second", "third"} {
		at := f.now.Add(time.Duration(i) * time.Minute)
		f.regs.clock = func() time.Time { return at }
		if _, err := f.regs.Register(ctx, ev, f.addUser(name)); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	page, err := f.regs.ListAttendees(ctx, ev, 2, 2)
	if err != nil {
		t.Fatalf("list attendees: %v", err)
	}
	if len(page.Attendees) != 1 || page.Attendees[0].Name != "third" {
		t.Fatalf("unexpected page %+v", page.Attendees)
	}
	if page.Pagination.Total != 3 || page.Pagination.TotalPages != 2 || page.Pagination.CurrentPage != 2 {
		t.Fatalf("unexpected pagination %+v", page.Pagination)
	}

	if _, err := f.regs.ListAttendees(ctx, "6f1c1c9e-1a43-4a8e-9b3e-000000000000", 1, 10); !errors.Is(err, apperr.ErrEventNotFound) {
		t.Fatalf("expected event not found, got %v", err)
	}
}

func TestCascadeDeleteForUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.addUser("leaver")
	evA := f.addEvent(5, f.now.Add(time.Hour))
	evB := f.addEvent(5, f.now.Add(2*time.Hour))
	for _, ev := range []string{evA, evB} {
		if _, err := f.regs.Register(ctx, ev, u); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	user, n, err := f.regs.CascadeDeleteForUser(ctx, u)
	if err != nil {
		t.Fatalf("cascade delete: %v", err)
	}
	if n != 2 || !user.IsDeleted || !strings.HasPrefix(user.Email, "deleted_") {
		t.Fatalf("unexpected result n=%d user=%+v", n, user)
	}
	for _, r := range f.store.registrations {
		if r.Active() || *r.CancellationReason != model.ReasonUserAccountDeleted {
			t.Fatalf("expected cancelled row, got %+v", r)
		}
	}

	if _, _, err := f.regs.CascadeDeleteForUser(ctx, u); !errors.Is(err, apperr.ErrUserNotFound) {
		t.Fatalf("expected second delete to miss, got %v", err)
	}
}

func TestCascadeDeleteRollsBack(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.addUser("stayer")
	ev := f.addEvent(5, f.now.Add(time.Hour))
	if _, err := f.regs.Register(ctx, ev, u); err != nil {
		t.Fatalf("register: %v", err)
	}
	f.store.failCancelAll = true

	_, _, err := f.regs.CascadeDeleteForUser(ctx, u)
	if !errors.Is(err, errStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if f.store.users[u].IsDeleted {
		t.Fatal("user deleted despite failed cancellation")
	}
	if f.store.countActive(ev) != 1 {
		t.Fatal("registration changed despite rollback")
	}
}
