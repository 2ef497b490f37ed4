package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
	"github.com/Shivanand-hulikatti/eventsphere/internal/service"
)

// AnalyticsService serves the reports.
type AnalyticsService interface {
	PopularEvents(ctx context.Context) ([]model.PopularEvent, error)
	ActiveUsers(ctx context.Context) ([]model.ActiveUser, error)
	EventStats(ctx context.Context, eventID string) (*service.EventStats, error)
}

// AdminEvents lists events with their ledger counts.
type AdminEvents interface {
	ListEventsWithCounts(ctx context.Context) ([]model.EventWithCounts, error)
}

// AnalyticsHandler serves /analytics and the event side of /admin.
type AnalyticsHandler struct {
	analytics AnalyticsService
	events    AdminEvents
	log       *zap.Logger
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(analytics AnalyticsService, events AdminEvents, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, events: events, log: log}
}

// PopularEvents handles GET /analytics/events/popular
func (h *AnalyticsHandler) PopularEvents(w http.ResponseWriter, r *http.Request) {
	out, err := h.analytics.PopularEvents(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// ActiveUsers handles GET /analytics/users/active
func (h *AnalyticsHandler) ActiveUsers(w http.ResponseWriter, r *http.Request) {
	out, err := h.analytics.ActiveUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// EventStats handles GET /analytics/events/{id}/stats
func (h *AnalyticsHandler) EventStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.analytics.EventStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// AdminEvents handles GET /admin/events
func (h *AnalyticsHandler) AdminEvents(w http.ResponseWriter, r *http.Request) {
	out, err := h.events.ListEventsWithCounts(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, out)
}
