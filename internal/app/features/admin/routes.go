// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))

	r.Get("/", h.ServeDashboard)
	r.Get("/inventory.xlsx", h.ServeInventoryExport)

	r.Post("/requests/{recipientID}/{requestID}/approve", h.HandleApproveRequest)
	r.Post("/requests/{recipientID}/{requestID}/reject", h.HandleRejectRequest)
	r.Post("/donations/{donorID}/{donationID}/confirm", h.HandleConfirmDonation)
	r.Post("/donations/{donorID}/{donationID}/reject", h.HandleRejectDonation)

	r.Post("/banks", h.HandleAddBank)
	r.Put("/rules", h.HandleSaveRules)
	return r
}
