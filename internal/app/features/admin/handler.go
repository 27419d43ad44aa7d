// internal/app/features/admin/handler.go
package admin

import (
	"context"
	"net/http"
	"net/url"
	"time"

	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	bankstore "github.com/dalemusser/bloodlink/internal/app/store/banks"
	settingsstore "github.com/dalemusser/bloodlink/internal/app/store/settings"
	"github.com/dalemusser/bloodlink/internal/app/system/aggregate"
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/reconcile"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin console: dashboard, approval queues, bank
// management, donation rules and the inventory export.
type Handler struct {
	Workflow *reconcile.Workflow
	Banks    *bankstore.Store
	Settings *settingsstore.Store
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
	Now      func() time.Time
}

func NewHandler(db *mongo.Database, wf *reconcile.Workflow, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Workflow: wf,
		Banks:    bankstore.New(db),
		Settings: settingsstore.New(db),
		ErrLog:   errLog,
		Log:      logger,
		Now:      time.Now,
	}
}

// session resolves the acting admin. It writes the error response and
// returns false when the request carries no usable user.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (reconcile.Session, bool) {
	u, _ := auth.CurrentUser(r)
	sess, err := reconcile.SessionFrom(u)
	if err != nil {
		h.ErrLog.Render(w, r, "admin session", err)
		return reconcile.Session{}, false
	}
	return sess, true
}

// objectIDParam parses a chi URL parameter as an ObjectID.
func objectIDParam(w http.ResponseWriter, r *http.Request, name, label string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		uierrors.BadRequest(w, "Invalid "+label+" id.")
		return primitive.NilObjectID, false
	}
	return oid, true
}

// refParam returns a record ref from the URL. Legacy refs contain ':' and
// '+', which clients may percent-encode.
func refParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// ServeDashboard handles GET /admin. The inventory table can be narrowed
// with ?bank=<id> and ?blood_type=<type>.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	snap, err := h.Workflow.Snapshot(ctx)
	if err != nil {
		h.ErrLog.Render(w, r, "load admin snapshot", err)
		return
	}

	dash := aggregate.AdminDashboard(snap, h.Now(), query.Get(r, "bank"), query.Get(r, "blood_type"))
	uierrors.JSON(w, http.StatusOK, dash)
}
