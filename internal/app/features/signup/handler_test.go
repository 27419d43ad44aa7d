package signup_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	"github.com/dalemusser/bloodlink/internal/app/features/signup"
	accountstore "github.com/dalemusser/bloodlink/internal/app/store/accounts"
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/indexes"
	"github.com/dalemusser/bloodlink/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*signup.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only-0123", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return signup.NewHandler(db, sm, uierrors.NewErrorLogger(logger), logger), db
}

func TestHandleSignup_Donor(t *testing.T) {
	h, db := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleSignup(rec, testutil.NewJSONRequest("POST", "/signup", map[string]any{
		"full_name":  "Dan Donor",
		"email":      " Dan@Donor.Test ",
		"password":   "s3cret!",
		"role":       "donor",
		"blood_type": "o+",
		"age":        30,
		"weight":     72,
	}))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	acct, err := accountstore.New(db).GetByEmail(ctx, "dan@donor.test")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if acct.BloodType != "O+" || acct.TotalDonations != 0 || acct.LastDonation != "" || len(acct.DonationHistory) != 0 {
		t.Errorf("unexpected donor: %+v", acct)
	}
	if !auth.CheckPassword(acct.PasswordHash, "s3cret!") {
		t.Error("password hash does not verify")
	}
}

func TestHandleSignup_Validation(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"admin role", map[string]any{"full_name": "A", "email": "a@b.co", "password": "secret1", "role": "admin", "blood_type": "A+"}, "role"},
		{"bad email", map[string]any{"full_name": "A", "email": "nope", "password": "secret1", "role": "donor", "blood_type": "A+"}, "email"},
		{"short password", map[string]any{"full_name": "A", "email": "a@b.co", "password": "123", "role": "donor", "blood_type": "A+"}, "password"},
		{"bad blood type", map[string]any{"full_name": "A", "email": "a@b.co", "password": "secret1", "role": "recipient", "blood_type": "Q"}, "blood_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleSignup(rec, testutil.NewJSONRequest("POST", "/signup", tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d", rec.Code)
			}
			var got struct {
				Fields map[string]string `json:"fields"`
			}
			_ = testutil.DecodeJSON(rec, &got)
			if got.Fields[tt.field] == "" {
				t.Errorf("expected %q failure, got %+v", tt.field, got.Fields)
			}
		})
	}
}

func TestHandleSignup_DuplicateEmail(t *testing.T) {
	h, _ := newTestHandler(t)
	body := map[string]any{"full_name": "Rita", "email": "rita@recipient.test", "password": "secret1", "role": "recipient", "blood_type": "B-"}

	rec := httptest.NewRecorder()
	h.HandleSignup(rec, testutil.NewJSONRequest("POST", "/signup", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first signup: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleSignup(rec, testutil.NewJSONRequest("POST", "/signup", body))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup: got %d, want %d", rec.Code, http.StatusConflict)
	}
}
