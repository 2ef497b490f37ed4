package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
)

type sent struct {
	to, subject, body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sent{to, subject, body})
	return m.err
}

func fixtures() (*model.User, *model.Event) {
	user := &model.User{ID: "usr-1", Name: "Ada <script>", Email: "ada@example.com"}
	event := &model.Event{
		ID:          "evt-1",
		Name:        "GopherCon",
		Description: "Talks",
		Location:    "Hall A",
		Date:        time.Date(2026, 11, 5, 18, 30, 0, 0, time.UTC),
	}
	return user, event
}

func TestRender(t *testing.T) {
	user, event := fixtures()

	subject, body, err := Render(KindRegistration, user, event)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "Registration Confirmed: GopherCon" {
		t.Fatalf("unexpected subject %q", subject)
	}
	for _, want := range []string{"Hall A", "Thursday, November 5, 2026", "18:30 UTC", "Talks", "Ada &lt;script&gt;"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q:\n%s", want, body)
		}
	}

	subject, body, err = Render(KindCancellation, user, event)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "Registration Cancelled: GopherCon" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if strings.Contains(body, "Talks") {
		t.Fatal("cancellation template does not include the description")
	}

	if _, _, err := Render(Kind("bogus"), user, event); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestDispatchDeliversOnce(t *testing.T) {
	mailer := &recordingMailer{}
	d := NewDispatcher(mailer, zap.NewNop(), time.Second)
	user, event := fixtures()

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, user, event, KindRegistration)
	cancel()
	d.Wait()

	if len(mailer.sent) != 1 {
		t.Fatalf("expected exactly one attempt, got %d", len(mailer.sent))
	}
	if mailer.sent[0].to != "ada@example.com" {
		t.Fatalf("unexpected recipient %q", mailer.sent[0].to)
	}
}

func TestDeliverSwallowsFailure(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down")}
	d := NewDispatcher(mailer, zap.NewNop(), time.Second)
	user, event := fixtures()

	if d.Deliver(context.Background(), user, event, KindCancellation) {
		t.Fatal("expected failed delivery to report false")
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected a single attempt without retry, got %d", len(mailer.sent))
	}
}
