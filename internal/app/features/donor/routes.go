// internal/app/features/donor/routes.go
package donor

import (
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleDonor))
	r.Get("/", h.ServeDashboard)
	r.Post("/appointments", h.HandleBook)
	return r
}
