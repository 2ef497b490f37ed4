package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
)

// Kind selects which notification is sent.
type Kind string

const (
	KindRegistration Kind = "registration"
	KindCancellation Kind = "cancellation"
)

var templates = map[Kind]struct {
	subject string
	body    *template.Template
}{
	KindRegistration: {
		subject: "Registration Confirmed: %s",
		body: template.Must(template.New("registration").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Registration Confirmed!</h2>
  <p>Hello {{.User.Name}},</p>
  <p>Your registration for <strong>{{.Event.Name}}</strong> has been confirmed.</p>
  <div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <h3>Event Details:</h3>
    <p><strong>Date:</strong> {{.Date}}</p>
    <p><strong>Time:</strong> {{.Time}}</p>
    <p><strong>Location:</strong> {{.Event.Location}}</p>
    {{- if .Event.Description}}
    <p><strong>Description:</strong> {{.Event.Description}}</p>
    {{- end}}
  </div>
  <p>We look forward to seeing you there!</p>
</div>`)),
	},
	KindCancellation: {
		subject: "Registration Cancelled: %s",
		body: template.Must(template.New("cancellation").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Registration Cancelled</h2>
  <p>Hello {{.User.Name}},</p>
  <p>Your registration for <strong>{{.Event.Name}}</strong> has been cancelled.</p>
  <div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <h3>Event Details:</h3>
    <p><strong>Date:</strong> {{.Date}}</p>
    <p><strong>Time:</strong> {{.Time}}</p>
    <p><strong>Location:</strong> {{.Event.Location}}</p>
  </div>
  <p>We hope to see you at future events!</p>
</div>`)),
	},
}

type templateData struct {
	User  *model.User
	Event *model.Event
	Date  string
	Time  string
}

// Render returns the subject and HTML body for kind.
func Render(kind Kind, user *model.User, event *model.Event) (subject, body string, err error) {
	t, ok := templates[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown notification kind %q", kind)
	}
	date := event.Date.UTC()
	var buf bytes.Buffer
	err = t.body.Execute(&buf, templateData{
		User:  user,
		Event: event,
		Date:  date.Format("Monday, January 2, 2006"),
		Time:  date.Format("15:04 MST"),
	})
	if err != nil {
		return "", "", fmt.Errorf("render %s: %w", kind, err)
	}
	return fmt.Sprintf(t.subject, event.Name), buf.String(), nil
}
