package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// GetRouter initialises a new http router and applies all routes
func GetRouter(tools *Tools) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	return applyRoutes(r, &handler{tools: tools})
}

func applyRoutes(r chi.Router, h *handler) chi.Router {
	r.Get("/", h.getStatus)
	r.Route("/menu", func(r chi.Router) {
		r.Get("/", h.getMenu)
		r.Post("/match", h.command((*Tools).MatchClientNames))
		r.Post("/prepare", h.command((*Tools).PrepareNotes))
		r.Post("/send", h.command((*Tools).SendNotes))
		r.Post("/reset", h.command((*Tools).ResetWorkflow))
	})

	return r
}
