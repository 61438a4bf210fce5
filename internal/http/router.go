// Package http wires the calendar API routes.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"notecal/internal/handlers"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Store         handlers.EventSource
	Categories    handlers.CategorySource
	Notifications handlers.NotificationSource
	Ingestor      handlers.Readiness
	VaultRoot     string
	Location      *time.Location
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	eventsHandler := handlers.NewEventsHandler(deps.Store, deps.Location)
	categoriesHandler := handlers.NewCategoriesHandler(deps.Categories)
	notificationsHandler := handlers.NewNotificationsHandler(deps.Notifications)
	healthHandler := handlers.NewHealthHandler(deps.Ingestor)
	noteHandler := handlers.NewNoteHandler(deps.VaultRoot)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/events", eventsHandler)
		r.Method(http.MethodGet, "/categories", categoriesHandler)
		r.Method(http.MethodGet, "/notifications", notificationsHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Get("/notes/*", noteHandler.ServeHTTP)
	})

	return r
}
