// internal/app/features/donor/handler.go
package donor

import (
	"context"
	"net/http"
	"sort"
	"time"

	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	bankstore "github.com/dalemusser/bloodlink/internal/app/store/banks"
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/eligibility"
	"github.com/dalemusser/bloodlink/internal/app/system/reconcile"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// recentLimit is how many appointments the dashboard highlights.
const recentLimit = 3

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

/*─────────────────────────────────────────────────────────────────────────────*
| GET /donor                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

type profile struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	BloodType      string `json:"blood_type"`
	Age            int    `json:"age,omitempty"`
	Weight         int    `json:"weight,omitempty"`
	TotalDonations int    `json:"total_donations"`
	LastDonation   string `json:"last_donation"` // "Never" when unset
}

type appointment struct {
	models.DonationRecord
	CalendarURL string `json:"calendar_url,omitempty"`
}

type bankOption struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	OperatingHours string `json:"operating_hours,omitempty"`
}

type dashboardData struct {
	Profile     profile                 `json:"profile"`
	Eligibility eligibility.Result      `json:"eligibility"`
	Rules       models.DonationRules    `json:"rules"`
	Recent      []appointment           `json:"recent_appointments"`
	History     []models.DonationRecord `json:"history"`
	Banks       []bankOption            `json:"banks"`
}

// ServeDashboard returns the signed-in donor's profile, eligibility and
// appointments. Scheduled appointments carry an add-to-calendar link.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	sess, err := reconcile.SessionFrom(u)
	if err != nil {
		h.ErrLog.Render(w, r, "donor session", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	acct, err := h.Workflow.Account(ctx, sess.AccountID)
	if err != nil {
		h.ErrLog.Render(w, r, "load donor", err)
		return
	}
	rules, err := h.Workflow.Rules(ctx)
	if err != nil {
		h.ErrLog.Render(w, r, "load donation rules", err)
		return
	}
	banks, err := h.Banks.List(ctx)
	if err != nil {
		h.ErrLog.Render(w, r, "list banks", err)
		return
	}

	history := newestFirst(acct.DonationHistory)
	last := acct.LastDonation
	if last == "" {
		last = "Never"
	}

	out := dashboardData{
		Profile: profile{
			Name:           acct.FullName,
			Email:          acct.Email,
			BloodType:      acct.BloodType,
			Age:            acct.Age,
			Weight:         acct.Weight,
			TotalDonations: acct.TotalDonations,
			LastDonation:   last,
		},
		Eligibility: eligibility.ForAccount(*acct, rules, h.Now()),
		Rules:       rules,
		Recent:      []appointment{},
		History:     history,
		Banks:       make([]bankOption, 0, len(banks)),
	}
	for i, d := range history {
		if i == recentLimit {
			break
		}
		out.Recent = append(out.Recent, withCalendar(d, banks))
	}
	for _, b := range banks {
		out.Banks = append(out.Banks, bankOption{
			ID:             b.ID.Hex(),
			Name:           b.Name,
			Address:        b.Address,
			OperatingHours: b.OperatingHours,
		})
	}

	uierrors.JSON(w, http.StatusOK, out)
}

// newestFirst copies history sorted by date, newest first. Undated entries
// sink to the end.
func newestFirst(in []models.DonationRecord) []models.DonationRecord {
	out := make([]models.DonationRecord, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := models.ParseDate(out[i].Date)
		b, bok := models.ParseDate(out[j].Date)
		if aok != bok {
			return aok
		}
		return a.After(b)
	})
	return out
}

// withCalendar attaches a calendar link to scheduled appointments. The
// location is the bank's street address when the bank can still be found,
// else the recorded location.
func withCalendar(d models.DonationRecord, banks []models.BloodBank) appointment {
	a := appointment{DonationRecord: d}
	if d.Status != models.DonationScheduled {
		return a
	}
	where := d.Location
	for _, b := range banks {
		if (d.BankID != "" && b.ID.Hex() == d.BankID) || (d.BankID == "" && b.Name == d.Location) {
			where = b.Address
			break
		}
	}
	a.CalendarURL = CalendarLink("Blood Donation at "+d.Location, d.Date, where)
	return a
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /donor/appointments                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

type bookInput struct {
	BankID string `json:"bank_id"`
}

type bookResponse struct {
	Appointment appointment `json:"appointment"`
}

func (h *Handler) HandleBook(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	sess, err := reconcile.SessionFrom(u)
	if err != nil {
		h.ErrLog.Render(w, r, "donor session", err)
		return
	}

	var in bookInput
	if err := uierrors.DecodeJSON(r, &in); err != nil {
		uierrors.BadRequest(w, "Invalid request body.")
		return
	}
	bankID, err := primitive.ObjectIDFromHex(in.BankID)
	if err != nil {
		uierrors.BadRequest(w, "Please choose a blood bank.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rec, err := h.Workflow.BookDonation(ctx, sess, bankID, h.Now())
	if err != nil {
		h.ErrLog.Render(w, r, "book donation", err)
		return
	}

	appt := appointment{DonationRecord: rec}
	if bank, err := h.Banks.GetByID(ctx, bankID); err == nil {
		appt = withCalendar(rec, []models.BloodBank{*bank})
	} else {
		appt.CalendarURL = CalendarLink("Blood Donation at "+rec.Location, rec.Date, rec.Location)
	}
	uierrors.JSON(w, http.StatusCreated, bookResponse{Appointment: appt})
}
