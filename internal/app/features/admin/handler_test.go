package admin_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/dalemusser/bloodlink/internal/app/features/admin"
	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/geocode"
	"github.com/dalemusser/bloodlink/internal/app/system/reconcile"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/dalemusser/bloodlink/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type env struct {
	router http.Handler
	fx     *testutil.Fixtures
	admin  testutil.TestUser
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	require.NoError(t, err)

	wf := reconcile.New(db, reconcile.Options{Logger: logger})
	h := admin.NewHandler(db, wf, uierrors.NewErrorLogger(logger), logger)
	h.Now = func() time.Time { return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Mount("/admin", admin.Routes(h, sm))

	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := fx.CreateAdmin(ctx, "Ada Admin", "ada@admin.test")

	return &env{router: r, fx: fx, admin: testutil.UserFor(a)}
}

func (e *env) do(req *http.Request, user testutil.TestUser) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, testutil.WithUser(req, user))
	return rec
}

func TestDashboard(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	bank := e.fx.CreateBank(ctx, "North", map[string]int{"A+": 4, "O-": 30})
	e.fx.CreateBank(ctx, "South", map[string]int{"A+": 12})
	e.fx.CreateRecipientWithRequests(ctx, "Rita", models.RequestRecord{BloodType: "A+", Units: 2, Urgency: "high"})
	e.fx.CreateDonorWithHistory(ctx, "Dan", "O-", 0, "", []models.DonationRecord{
		{ID: "x1", Date: "2026-06-20", Location: "North", BankID: bank.ID.Hex(), Status: models.DonationScheduled},
	})

	rec := e.do(httptest.NewRequest("GET", "/admin?bank="+bank.ID.Hex()+"&blood_type=A%2B", nil), e.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Overview struct {
			TotalRequests   int `json:"total_requests"`
			PendingRequests int `json:"pending_requests"`
		} `json:"overview"`
		Pending   []map[string]any `json:"pending_requests"`
		Scheduled []map[string]any `json:"scheduled_appointments"`
		Inventory []struct {
			BankName string           `json:"bank_name"`
			Cells    []map[string]any `json:"cells"`
		} `json:"inventory"`
	}
	require.NoError(t, testutil.DecodeJSON(rec, &got))
	assert.Equal(t, 1, got.Overview.TotalRequests)
	assert.Equal(t, 1, got.Overview.PendingRequests)
	assert.Len(t, got.Pending, 1)
	assert.Len(t, got.Scheduled, 1)
	require.Len(t, got.Inventory, 1)
	assert.Equal(t, "North", got.Inventory[0].BankName)
	assert.Len(t, got.Inventory[0].Cells, 1)
}

func TestDashboard_RequiresAdmin(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	d := e.fx.CreateDonor(ctx, "Dee", "dee@donor.test", "O+")
	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Accept", "application/json")
	rec := e.do(req, testutil.UserFor(d))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApproveAndRejectRequest(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	bank := e.fx.CreateBank(ctx, "North", map[string]int{"B+": 10})
	rcp := e.fx.CreateRecipientWithRequests(ctx, "Rita",
		models.RequestRecord{ID: "req-1", BloodType: "B+", Units: 4, Urgency: "critical"},
		models.RequestRecord{ID: "req-2", BloodType: "B+", Units: 20, Urgency: "low"})

	path := "/admin/requests/" + rcp.ID.Hex() + "/req-1/approve"
	rec := e.do(testutil.NewJSONRequest("POST", path, map[string]string{"bank_id": bank.ID.Hex()}), e.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 6, e.fx.LoadBank(ctx, bank.ID).Units("B+"))

	// Second approval of the same request.
	rec = e.do(testutil.NewJSONRequest("POST", path, map[string]string{"bank_id": bank.ID.Hex()}), e.admin)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 6, e.fx.LoadBank(ctx, bank.ID).Units("B+"))

	rec = e.do(testutil.NewJSONRequest("POST", "/admin/requests/"+rcp.ID.Hex()+"/no-such/approve",
		map[string]string{"bank_id": bank.ID.Hex()}), e.admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Not enough stock.
	path2 := "/admin/requests/" + rcp.ID.Hex() + "/req-2/approve"
	rec = e.do(testutil.NewJSONRequest("POST", path2, map[string]string{"bank_id": bank.ID.Hex()}), e.admin)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 6, e.fx.LoadBank(ctx, bank.ID).Units("B+"))

	rec = e.do(httptest.NewRequest("POST", "/admin/requests/"+rcp.ID.Hex()+"/req-2/reject", nil), e.admin)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	after := e.fx.LoadAccount(ctx, rcp.ID)
	assert.Empty(t, after.CurrentRequests)
	statuses := map[string]string{}
	for _, r := range after.RequestHistory {
		statuses[r.ID] = r.Status
	}
	assert.Equal(t, models.RequestApproved, statuses["req-1"])
	assert.Equal(t, models.RequestRejected, statuses["req-2"])
}

func TestApproveRequest_BadInput(t *testing.T) {
	e := newEnv(t)

	rec := e.do(testutil.NewJSONRequest("POST", "/admin/requests/not-an-id/r/approve", map[string]string{"bank_id": "x"}), e.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(testutil.NewJSONRequest("POST", "/admin/requests/64b64b64b64b64b64b64b64b/r/approve", map[string]string{"bank_id": "x"}), e.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmAndRejectDonation(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	bank := e.fx.CreateBank(ctx, "North", map[string]int{"A-": 2})
	d := e.fx.CreateDonorWithHistory(ctx, "Dan", "A-", 2, "2026-01-01", []models.DonationRecord{
		{ID: "don-1", Date: "2026-06-15", Location: "North", BankID: bank.ID.Hex(), Status: models.DonationScheduled},
		{Date: "2026-06-16", Location: "North", Status: models.DonationScheduled},
	})

	rec := e.do(httptest.NewRequest("POST", "/admin/donations/"+d.ID.Hex()+"/don-1/confirm", nil), e.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	legacy := url.PathEscape("legacy:2026-06-16")
	rec = e.do(httptest.NewRequest("POST", "/admin/donations/"+d.ID.Hex()+"/"+legacy+"/reject", nil), e.admin)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	after := e.fx.LoadAccount(ctx, d.ID)
	assert.Equal(t, 3, after.TotalDonations)
	assert.Equal(t, "2026-06-15", after.LastDonation)
	assert.Equal(t, models.DonationCompleted, after.DonationHistory[0].Status)
	assert.Equal(t, models.DonationRejected, after.DonationHistory[1].Status)
	assert.Equal(t, 3, e.fx.LoadBank(ctx, bank.ID).Units("A-"))
}

func TestAddBank(t *testing.T) {
	e := newEnv(t)

	rec := e.do(testutil.NewJSONRequest("POST", "/admin/banks", map[string]any{
		"name":      "Harbor Clinic",
		"address":   "9 Dock Road",
		"inventory": map[string]string{"O+": "15", "AB-": "abc"},
	}), e.admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got struct {
		Bank models.BloodBank `json:"bank"`
	}
	require.NoError(t, testutil.DecodeJSON(rec, &got))
	assert.Equal(t, 15, got.Bank.Units("O+"))
	assert.Equal(t, 0, got.Bank.Units("AB-"))
	// No geocoder configured.
	assert.Equal(t, geocode.DefaultCoordinates, got.Bank.Coordinates)

	rec = e.do(testutil.NewJSONRequest("POST", "/admin/banks", map[string]any{"name": ""}), e.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveRules(t *testing.T) {
	e := newEnv(t)

	rec := e.do(testutil.NewJSONRequest("PUT", "/admin/rules", map[string]any{
		"minimum_age":         17,
		"maximum_age":         70,
		"minimum_weight":      45,
		"donation_interval":   84,
		"health_requirements": []string{" Feeling well ", "", "<b>No fever</b>"},
	}), e.admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got models.DonationRules
	require.NoError(t, testutil.DecodeJSON(rec, &got))
	assert.Equal(t, 84, got.DonationInterval)
	assert.Equal(t, []string{"Feeling well", "No fever"}, got.HealthRequirements)
	assert.Equal(t, "Ada Admin", got.UpdatedByName)

	rec = e.do(testutil.NewJSONRequest("PUT", "/admin/rules", map[string]any{
		"minimum_age": 30, "maximum_age": 20, "minimum_weight": 50, "donation_interval": 0,
	}), e.admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var bad struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, testutil.DecodeJSON(rec, &bad))
	assert.Contains(t, bad.Fields, "maximum_age")
	assert.Contains(t, bad.Fields, "donation_interval")
}

func TestInventoryExport(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fx.CreateBank(ctx, "North", map[string]int{"A+": 4})

	rec := e.do(httptest.NewRequest("GET", "/admin/inventory.xlsx", nil), e.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "inventory-2026-06-15.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Inventory")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "North", rows[1][0])
}
