package home

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	"github.com/dalemusser/bloodlink/internal/app/system/aggregate"
	"github.com/dalemusser/bloodlink/internal/app/system/geocode"
	"github.com/dalemusser/bloodlink/internal/app/system/reconcile"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the public pages: landing stats, the bank map and the
// donation rules.
type Handler struct {
	Workflow *reconcile.Workflow
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(wf *reconcile.Workflow, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Workflow: wf,
		ErrLog:   errLog,
		Log:      logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type landingData struct {
	Hero        aggregate.Hero         `json:"hero"`
	UrgentNeeds []aggregate.UrgentNeed `json:"urgent_needs"`
}

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	snap, err := h.Workflow.Snapshot(ctx)
	if err != nil {
		h.ErrLog.Render(w, r, "load landing snapshot", err)
		return
	}

	needs := aggregate.UrgentNeeds(snap.Accounts)
	if needs == nil {
		needs = []aggregate.UrgentNeed{}
	}
	uierrors.JSON(w, http.StatusOK, landingData{
		Hero:        aggregate.HeroStats(snap.Accounts, snap.Banks),
		UrgentNeeds: needs,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /banks – map data                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

type bankMarker struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Address        string             `json:"address"`
	Phone          string             `json:"phone,omitempty"`
	OperatingHours string             `json:"operating_hours,omitempty"`
	Coordinates    models.Coordinates `json:"coordinates"`
	Inventory      map[string]int     `json:"inventory"`
}

type mapData struct {
	Center models.Coordinates `json:"center"`
	Banks  []bankMarker       `json:"banks"`
}

// ServeBanks lists every bank with coordinates. The map centers on the
// first bank, or the default coordinate when there are none.
func (h *Handler) ServeBanks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	snap, err := h.Workflow.Snapshot(ctx)
	if err != nil {
		h.ErrLog.Render(w, r, "load banks", err)
		return
	}

	out := mapData{Center: geocode.DefaultCoordinates, Banks: []bankMarker{}}
	for i, b := range snap.Banks {
		if i == 0 {
			out.Center = b.Coordinates
		}
		inv := make(map[string]int, len(models.BloodTypes))
		for _, bt := range models.BloodTypes {
			inv[bt] = b.Units(bt)
		}
		out.Banks = append(out.Banks, bankMarker{
			ID:             b.ID.Hex(),
			Name:           b.Name,
			Address:        b.Address,
			Phone:          b.Phone,
			OperatingHours: b.OperatingHours,
			Coordinates:    b.Coordinates,
			Inventory:      inv,
		})
	}
	uierrors.JSON(w, http.StatusOK, out)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /rules                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRules(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rules, err := h.Workflow.Rules(ctx)
	if err != nil {
		h.ErrLog.Render(w, r, "load donation rules", err)
		return
	}
	uierrors.JSON(w, http.StatusOK, rules)
}
