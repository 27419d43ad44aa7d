package errors_test

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	"github.com/dalemusser/bloodlink/internal/app/system/reconcile"
	"go.uber.org/zap"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"account", reconcile.ErrAccountNotFound, http.StatusNotFound},
		{"bank wrapped", fmt.Errorf("load: %w", reconcile.ErrBankNotFound), http.StatusNotFound},
		{"request", reconcile.ErrRequestNotFound, http.StatusNotFound},
		{"donation", reconcile.ErrDonationNotFound, http.StatusNotFound},
		{"processed", reconcile.ErrAlreadyProcessed, http.StatusConflict},
		{"inventory", &reconcile.InsufficientInventoryError{BankName: "X", BloodType: "A+", Available: 1, Requested: 2}, http.StatusConflict},
		{"validation", &reconcile.ValidationError{Fields: map[string]string{"units": "bad"}}, http.StatusBadRequest},
		{"eligibility", &reconcile.NotEligibleError{}, http.StatusUnprocessableEntity},
		{"forbidden", reconcile.ErrForbidden, http.StatusForbidden},
		{"remote", stderrors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := uierrors.Status(tt.err); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRender_ValidationFields(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/recipient/requests", nil)

	el.Render(rec, req, "submit", &reconcile.ValidationError{Fields: map[string]string{"units": "units must be greater than zero"}})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
	var got struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Fields["units"] == "" || got.Error == "" {
		t.Errorf("unexpected body: %+v", got)
	}
}

func TestFields(t *testing.T) {
	rec := httptest.NewRecorder()
	uierrors.Fields(rec, "Please correct the highlighted fields.", map[string]string{"email": "Email is required."})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}
	var got struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Error != "Please correct the highlighted fields." || got.Fields["email"] != "Email is required." {
		t.Errorf("unexpected body: %+v", got)
	}
}

func TestRender_HidesServerErrors(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)

	el.Render(rec, req, "load", stderrors.New("mongo: server selection timeout at 10.0.0.3"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", rec.Code)
	}
	var got map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got["error"] != "Something went wrong. Please try again." {
		t.Errorf("server detail leaked: %q", got["error"])
	}
}
