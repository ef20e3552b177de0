package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/couch-lobby/internal/hub"
	"github.com/DoyleJ11/couch-lobby/internal/store"
	"github.com/DoyleJ11/couch-lobby/internal/ws"
)

// SetupRoutes builds the router. runs may be nil, which leaves /runs unmounted.
func SetupRoutes(h *hub.Hub, runs store.Reader, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public routes
	r.Route("/lobbies", func(r chi.Router) {
		r.Post("/", CreateLobby(h, log))
		r.Get("/", ListLobbies(h))
		r.Get("/{code}", GetLobby(h))
		r.Delete("/{code}", DeleteLobby(h))
		r.Post("/{code}/restart", RestartLobby(h))
	})
	if runs != nil {
		r.Get("/runs/{run}", GetRun(runs, log))
	}
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))
	return r
}
