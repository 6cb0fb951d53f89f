package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jwebster45206/route-tycoon/pkg/state"
)

// Deps are the services the API is built from.
type Deps struct {
	Games       GameService
	Advisor     Advisor
	Events      EventSource
	Health      Pinger
	Model       string
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewRouter wires every endpoint. Events may be nil, in which case the
// streaming endpoints are not mounted.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(d.Logger))
	r.Use(corsMiddleware(d.CORSOrigins))

	catalog := d.Games.Catalog()
	if catalog == nil {
		catalog = state.DefaultCatalog()
	}

	games := NewGamesHandler(d.Games, d.Logger)
	suggestions := NewSuggestionsHandler(d.Games, d.Advisor, d.Logger)

	r.Method(http.MethodGet, "/health", NewHealthHandler(d.Health, d.Model, d.Logger))

	r.Route("/v1", func(r chi.Router) {
		r.Method(http.MethodGet, "/catalog", NewCatalogHandler(catalog, d.Logger))

		r.Post("/games", games.Create)
		r.Route("/games/{id}", func(r chi.Router) {
			r.Get("/", games.Get)
			r.Delete("/", games.Delete)
			r.Post("/routes", games.BuildRoute)
			r.Post("/routes/{routeID}/upgrade", games.UpgradeRoute)
			r.Post("/zones/{zone}/unlock", games.UnlockZone)
			r.Post("/suggestions", suggestions.Create)
			r.Get("/suggestions", suggestions.Get)
			if d.Events != nil {
				r.Method(http.MethodGet, "/events", NewEventsHandler(d.Games, d.Events, d.Logger))
				r.Method(http.MethodGet, "/ws", NewWebSocketHandler(d.Games, d.Events, d.Logger))
			}
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, d.Logger, http.StatusNotFound, "not_found", "Endpoint not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, d.Logger, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed.")
	})
	return r
}
