// internal/app/features/admin/requests.go
package admin

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type approveInput struct {
	BankID string `json:"bank_id"`
}

// HandleApproveRequest handles
// POST /admin/requests/{recipientID}/{requestID}/approve with {"bank_id": "..."}.
func (h *Handler) HandleApproveRequest(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	recipientID, ok := objectIDParam(w, r, "recipientID", "recipient")
	if !ok {
		return
	}

	var in approveInput
	if err := uierrors.DecodeJSON(r, &in); err != nil {
		uierrors.BadRequest(w, "Invalid request body.")
		return
	}
	bankID, err := primitive.ObjectIDFromHex(in.BankID)
	if err != nil {
		uierrors.BadRequest(w, "Please select a blood bank to fulfil this request.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	approval, err := h.Workflow.ApproveRequest(ctx, sess, recipientID, refParam(r, "requestID"), bankID)
	if err != nil {
		h.ErrLog.Render(w, r, "approve request", err)
		return
	}
	uierrors.JSON(w, http.StatusOK, approval)
}

// HandleRejectRequest handles POST /admin/requests/{recipientID}/{requestID}/reject.
func (h *Handler) HandleRejectRequest(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	recipientID, ok := objectIDParam(w, r, "recipientID", "recipient")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Workflow.RejectRequest(ctx, sess, recipientID, refParam(r, "requestID")); err != nil {
		h.ErrLog.Render(w, r, "reject request", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
