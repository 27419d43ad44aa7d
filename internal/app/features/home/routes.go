package home

import "github.com/go-chi/chi/v5"

// Routes mounts the public pages at the site root.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeRoot)
	r.Get("/banks", h.ServeBanks)
	r.Get("/rules", h.ServeRules)
	return r
}
