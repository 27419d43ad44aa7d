package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/bloodlink/internal/app/features/logout"
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*logout.Handler, *auth.SessionManager) {
	t.Helper()
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return logout.NewHandler(sessionMgr, logger), sessionMgr
}

func TestHandleLogout_NoContent(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.HandleLogout(rec, httptest.NewRequest("POST", "/logout", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
}

func TestHandleLogout_WithExistingSession(t *testing.T) {
	handler, sm := newTestHandler(t)

	req1 := httptest.NewRequest("POST", "/login", nil)
	rec1 := httptest.NewRecorder()
	if err := sm.SignIn(rec1, req1, &auth.SessionUser{ID: "abc", Name: "A", Email: "a@b.co", Role: "donor"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	req2 := httptest.NewRequest("POST", "/logout", nil)
	for _, c := range rec1.Result().Cookies() {
		req2.AddCookie(c)
	}
	rec2 := httptest.NewRecorder()
	handler.HandleLogout(rec2, req2)

	found := false
	for _, c := range rec2.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
			if c.MaxAge >= 0 {
				t.Errorf("cookie MaxAge after logout: got %d, want negative", c.MaxAge)
			}
		}
	}
	if !found {
		t.Error("expected session cookie to be set for deletion")
	}
}

func TestRoutes_RequireSignedIn(t *testing.T) {
	handler, sm := newTestHandler(t)
	r := logout.Routes(handler, sm)

	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}
