package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
	"github.com/Shivanand-hulikatti/eventsphere/internal/notify"
	"github.com/Shivanand-hulikatti/eventsphere/internal/repository"
)

var errStorage = errors.New("storage unavailable")

// memStore is an in-memory stand-in for the pgx repositories. InTx snapshots
// the maps and restores them when fn fails, mirroring a rollback.
type memStore struct {
	mu            sync.Mutex
	events        map[string]model.Event
	users         map[string]model.User
	registrations map[string]model.Registration

	failCancelAll bool
}

func newMemStore() *memStore {
	return &memStore{
		events:        map[string]model.Event{},
		users:         map[string]model.User{},
		registrations: map[string]model.Registration{},
	}
}

func (m *memStore) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := cloneMap(m.events)
	users := cloneMap(m.users)
	regs := cloneMap(m.registrations)
	if err := fn(memTx{m}); err != nil {
		m.events, m.users, m.registrations = events, users, regs
		return err
	}
	return nil
}

func cloneMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// memTx runs with memStore.mu held.
type memTx struct{ m *memStore }

func (t memTx) LockEvent(_ context.Context, id string) (*model.Event, error) {
	e, ok := t.m.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (t memTx) LockUser(_ context.Context, id string) error {
	u, ok := t.m.users[id]
	if !ok || u.IsDeleted {
		return repository.ErrNotFound
	}
	return nil
}

func (t memTx) UpdateEvent(_ context.Context, e *model.Event) error {
	if _, ok := t.m.events[e.ID]; !ok {
		return repository.ErrNotFound
	}
	t.m.events[e.ID] = *e
	return nil
}

func (t memTx) CountActive(_ context.Context, eventID string) (int, error) {
	return t.m.countActive(eventID), nil
}

func (t memTx) FindRegistration(_ context.Context, eventID, userID string) (*model.Registration, error) {
	return t.m.find(eventID, userID)
}

func (t memTx) InsertRegistration(_ context.Context, reg *model.Registration) error {
	if _, err := t.m.find(reg.EventID, reg.UserID); err == nil {
		return repository.ErrDuplicate
	}
	t.m.registrations[reg.ID] = *reg
	return nil
}

func (t memTx) UpdateRegistration(_ context.Context, reg *model.Registration) error {
	if _, ok := t.m.registrations[reg.ID]; !ok {
		return repository.ErrNotFound
	}
	t.m.registrations[reg.ID] = *reg
	return nil
}

func (t memTx) SoftDeleteUser(_ context.Context, userID string, at time.Time) (*model.User, error) {
	u, ok := t.m.users[userID]
	if !ok || u.IsDeleted {
		return nil, repository.ErrNotFound
	}
	u.Email = fmt.Sprintf("deleted_%d_%s", at.UnixMilli(), u.Email)
	u.IsDeleted = true
	u.DeletedAt = &at
	u.UpdatedAt = at
	t.m.users[userID] = u
	return &u, nil
}

func (t memTx) CancelUserRegistrations(_ context.Context, userID string, at time.Time, reason string) (int64, error) {
	if t.m.failCancelAll {
		return 0, errStorage
	}
	var n int64
	for id, r := range t.m.registrations {
		if r.UserID == userID && r.Active() {
			if err := r.Cancel(at, reason); err != nil {
				return 0, err
			}
			t.m.registrations[id] = r
			n++
		}
	}
	return n, nil
}

func (m *memStore) countActive(eventID string) int {
	n := 0
	for _, r := range m.registrations {
		if r.EventID == eventID && r.Active() {
			n++
		}
	}
	return n
}

func (m *memStore) find(eventID, userID string) (*model.Registration, error) {
	for _, r := range m.registrations {
		if r.EventID == eventID && r.UserID == userID {
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

// memEvents, memUsers and memRegs expose the read side of memStore.
type memEvents struct{ m *memStore }

func (s memEvents) Create(_ context.Context, e *model.Event) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.events[e.ID] = *e
	return nil
}

func (s memEvents) GetByID(_ context.Context, id string) (*model.Event, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	e, ok := s.m.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (s memEvents) List(_ context.Context, page, limit int) ([]model.Event, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	all := make([]model.Event, 0, len(s.m.events))
	for _, e := range s.m.events {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Date.Before(all[j].Date) })
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := min(start+limit, len(all))
	return all[start:end], len(all), nil
}

func (s memEvents) ListWithCounts(_ context.Context) ([]model.EventWithCounts, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.EventWithCounts
	for _, e := range s.m.events {
		out = append(out, model.EventWithCounts{Event: e, RegistrationCount: s.m.countActive(e.ID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s memEvents) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.m.events, id)
	for rid, r := range s.m.registrations {
		if r.EventID == id {
			delete(s.m.registrations, rid)
		}
	}
	return nil
}

type memUsers struct{ m *memStore }

func (s memUsers) Create(_ context.Context, u *model.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	s.m.users[u.ID] = *u
	return nil
}

func (s memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if !u.IsDeleted && strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s memUsers) List(_ context.Context, page, limit int) ([]model.User, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	all := make([]model.User, 0, len(s.m.users))
	for _, u := range s.m.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	start := min((page-1)*limit, len(all))
	end := min(start+limit, len(all))
	return all[start:end], len(all), nil
}

type memRegs struct{ m *memStore }

func (s memRegs) CountActive(_ context.Context, eventID string) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.countActive(eventID), nil
}

func (s memRegs) CountByStatus(_ context.Context, eventID string) (int, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var active, cancelled int
	for _, r := range s.m.registrations {
		if r.EventID != eventID {
			continue
		}
		if r.Active() {
			active++
		} else {
			cancelled++
		}
	}
	return active, cancelled, nil
}

func (s memRegs) ListAttendees(_ context.Context, eventID string, page, limit int) ([]model.Attendee, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var all []model.Attendee
	for _, r := range s.m.registrations {
		if r.EventID != eventID || !r.Active() {
			continue
		}
		u := s.m.users[r.UserID]
		all = append(all, model.Attendee{RegistrationID: r.ID, UserID: u.ID, Name: u.Name, Email: u.Email, RegisteredAt: r.RegisteredAt})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].RegisteredAt.Equal(all[j].RegisteredAt) {
			return all[i].RegistrationID < all[j].RegistrationID
		}
		return all[i].RegisteredAt.Before(all[j].RegisteredAt)
	})
	start := min((page-1)*limit, len(all))
	end := min(start+limit, len(all))
	return all[start:end], len(all), nil
}

func (s memRegs) PopularEvents(_ context.Context, limit int) ([]model.PopularEvent, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.PopularEvent
	for _, e := range s.m.events {
		if n := s.m.countActive(e.ID); n > 0 {
			out = append(out, model.PopularEvent{EventID: e.ID, EventName: e.Name, EventDate: e.Date, Capacity: e.Capacity, RegistrationCount: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegistrationCount > out[j].RegistrationCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s memRegs) ActiveUsers(_ context.Context, limit int) ([]model.ActiveUser, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	counts := map[string]int{}
	for _, r := range s.m.registrations {
		if r.Active() {
			counts[r.UserID]++
		}
	}
	var out []model.ActiveUser
	for id, n := range counts {
		u := s.m.users[id]
		out = append(out, model.ActiveUser{UserID: id, UserName: u.Name, UserEmail: u.Email, TotalRegistrations: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalRegistrations > out[j].TotalRegistrations })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// recordingNotifier captures dispatches synchronously.
type recordingNotifier struct {
	mu    sync.Mutex
	sent  []notify.Kind
	users []string
}

func (n *recordingNotifier) Dispatch(_ context.Context, user *model.User, _ *model.Event, kind notify.Kind) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, kind)
	n.users = append(n.users, user.ID)
}

// failingMailer rejects every send.
type failingMailer struct{ calls int }

func (f *failingMailer) Send(context.Context, string, string, string) error {
	f.calls++
	return errStorage
}

type fixture struct {
	store    *memStore
	notifier *recordingNotifier
	regs     *RegistrationService
	events   *EventService
	now      time.Time
}

func newFixture() *fixture {
	store := newMemStore()
	notifier := &recordingNotifier{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	seq := 0
	ids := func() string {
		seq++
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("id-%d", seq))).String()
	}

	regs := NewRegistrationService(store, memEvents{store}, memUsers{store}, memRegs{store}, notifier, zap.NewNop())
	regs.clock = clock
	regs.newID = ids
	events := NewEventService(store, memEvents{store}, memRegs{store})
	events.clock = clock
	events.newID = ids

	return &fixture{store: store, notifier: notifier, regs: regs, events: events, now: now}
}

func (f *fixture) addUser(name string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
	f.store.users[id] = model.User{ID: id, Name: name, Email: name + "@example.com", Role: model.RoleUser, CreatedAt: f.now}
	return id
}

func (f *fixture) addEvent(capacity int, date time.Time) string {
	id := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(fmt.Sprintf("event-%d", len(f.store.events)))).String()
	f.store.events[id] = model.Event{ID: id, Name: "Go Meetup", Date: date, Location: "Hall", Capacity: capacity, CreatedAt: f.now}
	return id
}
