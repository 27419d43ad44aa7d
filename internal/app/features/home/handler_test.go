package home_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	"github.com/dalemusser/bloodlink/internal/app/features/home"
	"github.com/dalemusser/bloodlink/internal/app/system/reconcile"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/dalemusser/bloodlink/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*home.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	wf := reconcile.New(db, reconcile.Options{Logger: logger})
	return home.NewHandler(wf, uierrors.NewErrorLogger(logger), logger), db
}

func TestServeRoot(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	fx.CreateDonorWithHistory(ctx, "Dan Donor", "O+", 3, "", nil)
	fx.CreateRecipientWithRequests(ctx, "Rita Recipient",
		models.RequestRecord{BloodType: "O-", Units: 2, Urgency: "critical"},
		models.RequestRecord{BloodType: "A+", Units: 1, Urgency: "low"})
	fx.CreateBank(ctx, "City Central", nil)

	rec := httptest.NewRecorder()
	h.ServeRoot(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var got struct {
		Hero struct {
			DonationsMade int `json:"donations_made"`
			LivesSaved    int `json:"lives_saved"`
			BloodBanks    int `json:"blood_banks"`
		} `json:"hero"`
		UrgentNeeds []struct {
			BloodType        string `json:"blood_type"`
			TotalUnitsNeeded int    `json:"total_units_needed"`
			Priority         string `json:"priority"`
		} `json:"urgent_needs"`
	}
	if err := testutil.DecodeJSON(rec, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Hero.DonationsMade != 3 || got.Hero.LivesSaved != 0 || got.Hero.BloodBanks != 1 {
		t.Errorf("hero: %+v", got.Hero)
	}
	if len(got.UrgentNeeds) != 1 || got.UrgentNeeds[0].BloodType != "O-" ||
		got.UrgentNeeds[0].TotalUnitsNeeded != 2 || got.UrgentNeeds[0].Priority != "critical" {
		t.Errorf("urgent needs: %+v", got.UrgentNeeds)
	}
}

func TestServeRoot_EmptyStore(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeRoot(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var got map[string]any
	if err := testutil.DecodeJSON(rec, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if needs, ok := got["urgent_needs"].([]any); !ok || len(needs) != 0 {
		t.Errorf("urgent_needs should be an empty list, got %#v", got["urgent_needs"])
	}
}

func TestServeBanks_DefaultCenter(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeBanks(rec, httptest.NewRequest("GET", "/banks", nil))

	var got struct {
		Center models.Coordinates `json:"center"`
		Banks  []any              `json:"banks"`
	}
	if err := testutil.DecodeJSON(rec, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Center != (models.Coordinates{Lat: 12.9165, Lng: 79.1325}) || len(got.Banks) != 0 {
		t.Errorf("unexpected map data: %+v", got)
	}
}

func TestServeBanks(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	testutil.NewFixtures(t, db).CreateBank(ctx, "City Central", map[string]int{"AB-": 7})

	rec := httptest.NewRecorder()
	h.ServeBanks(rec, httptest.NewRequest("GET", "/banks", nil))

	var got struct {
		Banks []struct {
			Name      string         `json:"name"`
			Inventory map[string]int `json:"inventory"`
		} `json:"banks"`
	}
	if err := testutil.DecodeJSON(rec, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Banks) != 1 || got.Banks[0].Name != "City Central" || got.Banks[0].Inventory["AB-"] != 7 {
		t.Errorf("unexpected banks: %+v", got.Banks)
	}
}

func TestServeRules_Defaults(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeRules(rec, httptest.NewRequest("GET", "/rules", nil))

	var got models.DonationRules
	if err := testutil.DecodeJSON(rec, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.MinimumAge != 18 || got.MaximumAge != 65 || got.MinimumWeight != 50 ||
		got.DonationInterval != 56 || len(got.HealthRequirements) != 4 {
		t.Errorf("unexpected rules: %+v", got)
	}
}
