// internal/app/features/admin/banks.go
package admin

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	"github.com/dalemusser/bloodlink/internal/app/system/reconcile"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/bloodlink/internal/domain/models"
)

type bankResponse struct {
	Bank models.BloodBank `json:"bank"`
}

// HandleAddBank handles POST /admin/banks.
func (h *Handler) HandleAddBank(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var in reconcile.BankInput
	if err := uierrors.DecodeJSON(r, &in); err != nil {
		uierrors.BadRequest(w, "Invalid request body.")
		return
	}

	// Geocoding runs inside AddBank.
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	bank, err := h.Workflow.AddBank(ctx, sess, in)
	if err != nil {
		h.ErrLog.Render(w, r, "add bank", err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, bankResponse{Bank: bank})
}
