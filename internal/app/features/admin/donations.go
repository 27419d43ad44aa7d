// internal/app/features/admin/donations.go
package admin

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
)

// HandleConfirmDonation handles POST /admin/donations/{donorID}/{donationID}/confirm.
func (h *Handler) HandleConfirmDonation(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	donorID, ok := objectIDParam(w, r, "donorID", "donor")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	conf, err := h.Workflow.ConfirmDonation(ctx, sess, donorID, refParam(r, "donationID"))
	if err != nil {
		h.ErrLog.Render(w, r, "confirm donation", err)
		return
	}
	uierrors.JSON(w, http.StatusOK, conf)
}

// HandleRejectDonation handles POST /admin/donations/{donorID}/{donationID}/reject.
func (h *Handler) HandleRejectDonation(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	donorID, ok := objectIDParam(w, r, "donorID", "donor")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Workflow.RejectDonation(ctx, sess, donorID, refParam(r, "donationID")); err != nil {
		h.ErrLog.Render(w, r, "reject donation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
