package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/eventsphere/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsphere/internal/auth"
	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
)

// EventService is the event catalogue as the handlers use it.
type EventService interface {
	CreateEvent(ctx context.Context, organiserID string, req model.CreateEventRequest) (*model.Event, error)
	ListEvents(ctx context.Context, page, limit int) (*model.EventPage, error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	UpdateEvent(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// RegistrationService is the seat ledger as the handlers use it.
type RegistrationService interface {
	Register(ctx context.Context, eventID, userID string) (*model.Registration, error)
	Cancel(ctx context.Context, eventID, userID string) error
	ListAttendees(ctx context.Context, eventID string, page, limit int) (*model.AttendeePage, error)
}

// EventHandler serves /events.
type EventHandler struct {
	events        EventService
	registrations RegistrationService
	log           *zap.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events EventService, registrations RegistrationService, log *zap.Logger) *EventHandler {
	return &EventHandler{events: events, registrations: registrations, log: log}
}

// CreateEvent handles POST /events
// The caller becomes the organiser.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	event, err := h.events.CreateEvent(r.Context(), id.UserID, req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, event)
}

// ListEvents handles GET /events?page&limit
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	res, err := h.events.ListEvents(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writePage(w, res.Events, res.Pagination)
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, event)
}

// UpdateEvent handles PUT /events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	event, err := h.events.UpdateEvent(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.events.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Event deleted successfully")
}

// Register handles POST /events/{id}/register
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	reg, err := h.registrations.Register(r.Context(), chi.URLParam(r, "id"), id.UserID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, reg)
}

// Cancel handles DELETE /events/{id}/register
func (h *EventHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	if err := h.registrations.Cancel(r.Context(), chi.URLParam(r, "id"), id.UserID); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Registration cancelled successfully")
}

// ListAttendees handles GET /events/{id}/attendees?page&limit
func (h *EventHandler) ListAttendees(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	res, err := h.registrations.ListAttendees(r.Context(), chi.URLParam(r, "id"), page, limit)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writePage(w, res.Attendees, res.Pagination)
}

// RequireOwner lets only the event's organiser through. It must run after
// auth.Authenticator.Require.
func (h *EventHandler) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusUnauthorized, "access denied, no token provided")
			return
		}
		event, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, h.log, err)
			return
		}
		if event.OrganiserID != id.UserID {
			writeServiceError(w, r, h.log, apperr.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
