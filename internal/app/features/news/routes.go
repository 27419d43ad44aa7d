package news

import "github.com/go-chi/chi/v5"

// Routes is mounted at /api/news.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeNews)
	return r
}
