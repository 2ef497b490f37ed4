package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/eventsphere/internal/auth"
)

// Routes is everything NewRouter mounts.
type Routes struct {
	Auth        *auth.Authenticator
	Events      *EventHandler
	Users       *UserHandler
	Analytics   *AnalyticsHandler
	CORSOrigins []string
	Log         *zap.Logger
}

// NewRouter builds the API router.
func NewRouter(rt Routes) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(rt.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(SecurityHeaders)
	if len(rt.CORSOrigins) > 0 {
		r.Use(CORS(rt.CORSOrigins))
	}

	r.Get("/health", HealthCheck)

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", rt.Users.Signup)
		r.Post("/login", rt.Users.Login)
		r.Post("/logout", rt.Users.Logout)
		r.Group(func(r chi.Router) {
			r.Use(rt.Auth.Require)
			r.Get("/me", rt.Users.Me)
			r.Delete("/{id}", rt.Users.Delete)
		})
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", rt.Events.ListEvents)
		r.Get("/{id}", rt.Events.GetEvent)
		r.Group(func(r chi.Router) {
			r.Use(rt.Auth.Require)
			r.Post("/", rt.Events.CreateEvent)
			r.Post("/{id}/register", rt.Events.Register)
			r.Delete("/{id}/register", rt.Events.Cancel)
			r.Get("/{id}/attendees", rt.Events.ListAttendees)
			r.With(rt.Events.RequireOwner).Put("/{id}", rt.Events.UpdateEvent)
			r.With(rt.Events.RequireOwner).Delete("/{id}", rt.Events.DeleteEvent)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(rt.Auth.Require, rt.Auth.RequireAdmin)
		r.Get("/users", rt.Users.ListUsers)
		r.Get("/events", rt.Analytics.AdminEvents)
		r.Delete("/users/{id}", rt.Users.AdminDelete)
	})

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/events/popular", rt.Analytics.PopularEvents)
		r.Get("/users/active", rt.Analytics.ActiveUsers)
		r.Get("/events/{id}/stats", rt.Analytics.EventStats)
	})

	return r
}
