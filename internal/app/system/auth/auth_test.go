package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestRequireSignedIn_NoUser_HTML_RedirectsToLogin(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(http.HandlerFunc(okHandler))

	req := httptest.NewRequest("GET", "/donor?tab=history", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?return=") {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}

func TestRequireSignedIn_NoUser_API_Returns401JSON(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(http.HandlerFunc(okHandler))

	req := httptest.NewRequest("GET", "/donor", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "unauthorized" {
		t.Errorf("error = %q, want %q", body["error"], "unauthorized")
	}
}

func TestRequireRole(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireRole("admin")(http.HandlerFunc(okHandler))

	tests := []struct {
		name   string
		role   string // empty means signed out
		accept string
		want   int
	}{
		{"signed out api", "", "application/json", http.StatusUnauthorized},
		{"signed out html", "", "text/html", http.StatusSeeOther},
		{"donor api", "donor", "application/json", http.StatusForbidden},
		{"recipient html", "recipient", "text/html", http.StatusSeeOther},
		{"admin", "admin", "application/json", http.StatusOK},
		{"admin uppercase", "ADMIN", "application/json", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/admin/banks", nil)
			req.Header.Set("Accept", tt.accept)
			if tt.role != "" {
				req = withTestUser(req, tt.role)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestRequireRole_MultipleRoles(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireRole("donor", "recipient")(http.HandlerFunc(okHandler))

	for role, want := range map[string]int{
		"donor":     http.StatusOK,
		"recipient": http.StatusOK,
		"admin":     http.StatusForbidden,
	} {
		req := withTestUser(httptest.NewRequest("GET", "/", nil), role)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("role %q: expected status %d, got %d", role, want, rec.Code)
		}
	}
}

func TestSignIn_ThenLoadSessionUser(t *testing.T) {
	sm := newTestSessionManager(t)
	want := &auth.SessionUser{ID: "507f1f77bcf86cd799439011", Name: "Dana Donor", Email: "dana@example.com", Role: "donor"}

	// Sign in and capture the cookie.
	signIn := httptest.NewRecorder()
	if err := sm.SignIn(signIn, httptest.NewRequest("POST", "/login", nil), want); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := signIn.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	var got *auth.SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/donor", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected user in context")
	}
	if *got != *want {
		t.Errorf("user = %+v, want %+v", *got, *want)
	}
}

type fetcherFunc func(ctx context.Context, id string) *auth.SessionUser

func (f fetcherFunc) FetchUser(ctx context.Context, id string) *auth.SessionUser { return f(ctx, id) }

func TestLoadSessionUser_FetcherRefreshesAndDrops(t *testing.T) {
	sm := newTestSessionManager(t)

	signIn := httptest.NewRecorder()
	_ = sm.SignIn(signIn, httptest.NewRequest("POST", "/login", nil), &auth.SessionUser{ID: "abc", Role: "donor"})
	cookies := signIn.Result().Cookies()

	run := func() (*auth.SessionUser, bool) {
		var u *auth.SessionUser
		var ok bool
		h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok = auth.CurrentUser(r)
		}))
		req := httptest.NewRequest("GET", "/", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)
		return u, ok
	}

	// Role was promoted since sign-in.
	sm.SetUserFetcher(fetcherFunc(func(_ context.Context, id string) *auth.SessionUser {
		return &auth.SessionUser{ID: id, Role: "admin"}
	}))
	if u, ok := run(); !ok || u.Role != "admin" {
		t.Errorf("expected refreshed admin user, got %+v (ok=%v)", u, ok)
	}

	// Account deleted since sign-in.
	sm.SetUserFetcher(fetcherFunc(func(context.Context, string) *auth.SessionUser { return nil }))
	if _, ok := run(); ok {
		t.Error("expected no user when fetcher returns nil")
	}
}

func TestSignOut_ExpiresCookie(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	if err := sm.SignOut(rec, httptest.NewRequest("POST", "/logout", nil)); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected an expired cookie, got %+v", cookies)
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	user, ok := auth.CurrentUser(httptest.NewRequest("GET", "/", nil))
	if ok || user != nil {
		t.Errorf("expected no user, got %+v (ok=%v)", user, ok)
	}
}

func TestHashPassword(t *testing.T) {
	if _, err := auth.HashPassword("123"); err != auth.ErrPasswordTooShort {
		t.Errorf("expected ErrPasswordTooShort, got %v", err)
	}

	hash, err := auth.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !auth.CheckPassword(hash, "correct horse") {
		t.Error("expected password to match")
	}
	if auth.CheckPassword(hash, "wrong horse") {
		t.Error("expected wrong password to fail")
	}
	if auth.CheckPassword("", "anything") {
		t.Error("expected empty hash to fail")
	}
}

// withTestUser injects a SessionUser into the request context for testing.
func withTestUser(r *http.Request, role string) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:    "507f1f77bcf86cd799439011",
		Name:  "Test User",
		Email: "test@example.com",
		Role:  role,
	})
}
