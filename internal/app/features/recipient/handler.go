// internal/app/features/recipient/handler.go
package recipient

import (
	"context"
	"net/http"
	"sort"
	"time"

	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	bankstore "github.com/dalemusser/bloodlink/internal/app/store/banks"
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/reconcile"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Workflow *reconcile.Workflow
	Banks    *bankstore.Store
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
	Now      func() time.Time
}

func NewHandler(db *mongo.Database, wf *reconcile.Workflow, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Workflow: wf,
		Banks:    bankstore.New(db),
		ErrLog:   errLog,
		Log:      logger,
		Now:      time.Now,
	}
}

// availability is one bank's stock of the recipient's blood type.
type availability struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Address     string             `json:"address"`
	Coordinates models.Coordinates `json:"coordinates"`
	Units       int                `json:"units"`
	Critical    bool               `json:"critical"`
}

type dashboardData struct {
	Name      string                 `json:"name"`
	BloodType string                 `json:"blood_type"`
	Current   []models.RequestRecord `json:"current_requests"`
	History   []models.RequestRecord `json:"request_history"`
	Banks     []availability         `json:"available_banks"`
}

// ServeDashboard handles GET /recipient.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	sess, err := reconcile.SessionFrom(u)
	if err != nil {
		h.ErrLog.Render(w, r, "recipient session", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	acct, err := h.Workflow.Account(ctx, sess.AccountID)
	if err != nil {
		h.ErrLog.Render(w, r, "load recipient", err)
		return
	}
	banks, err := h.Banks.List(ctx)
	if err != nil {
		h.ErrLog.Render(w, r, "list banks", err)
		return
	}

	out := dashboardData{
		Name:      acct.FullName,
		BloodType: acct.BloodType,
		Current:   newestFirst(acct.CurrentRequests, func(rr models.RequestRecord) string { return rr.RequestDate }),
		History:   newestFirst(acct.RequestHistory, models.RequestRecord.EffectiveDate),
		Banks:     make([]availability, 0, len(banks)),
	}
	for _, b := range banks {
		n := b.Units(acct.BloodType)
		out.Banks = append(out.Banks, availability{
			ID:          b.ID.Hex(),
			Name:        b.Name,
			Address:     b.Address,
			Coordinates: b.Coordinates,
			Units:       n,
			Critical:    n < models.CriticalStockThreshold,
		})
	}

	uierrors.JSON(w, http.StatusOK, out)
}

func newestFirst(in []models.RequestRecord, date func(models.RequestRecord) string) []models.RequestRecord {
	out := make([]models.RequestRecord, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := models.ParseDate(date(out[i]))
		b, bok := models.ParseDate(date(out[j]))
		if aok != bok {
			return aok
		}
		return a.After(b)
	})
	return out
}

type submitResponse struct {
	Request models.RequestRecord `json:"request"`
}

// HandleSubmit handles POST /recipient/requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	sess, err := reconcile.SessionFrom(u)
	if err != nil {
		h.ErrLog.Render(w, r, "recipient session", err)
		return
	}

	var in reconcile.RequestInput
	if err := uierrors.DecodeJSON(r, &in); err != nil {
		uierrors.BadRequest(w, "Invalid request body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rec, err := h.Workflow.SubmitRequest(ctx, sess, in, h.Now())
	if err != nil {
		h.ErrLog.Render(w, r, "submit request", err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, submitResponse{Request: rec})
}
