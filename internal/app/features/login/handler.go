// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	accountstore "github.com/dalemusser/bloodlink/internal/app/store/accounts"
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/normalize"
	"github.com/dalemusser/bloodlink/internal/app/system/ratelimit"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts   *accountstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Guard      *ratelimit.LoginGuard // nil disables throttling
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	guard *ratelimit.LoginGuard,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Accounts:   accountstore.New(db),
		Log:        logger,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Guard:      guard,
	}
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // the portal the user is signing in to; optional
}

type loginResponse struct {
	User *auth.SessionUser `json:"user"`
}

const badCredentials = "Invalid email or password."

// HandleLoginPost handles POST /login.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := uierrors.DecodeJSON(r, &in); err != nil {
		uierrors.BadRequest(w, "Invalid request body.")
		return
	}

	email := normalize.Email(in.Email)
	role := normalize.Role(in.Role)
	if email == "" || in.Password == "" {
		uierrors.BadRequest(w, "Please enter your email and password.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ip := ratelimit.ClientIP(r)
	if h.Guard != nil && !h.Guard.Allow(ctx, ip, email) {
		h.Log.Warn("login throttled", zap.String("ip", ip), zap.String("email", email))
		uierrors.Write(w, http.StatusTooManyRequests, "Too many sign-in attempts. Please wait a few minutes and try again.")
		return
	}

	acct, err := h.Accounts.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		uierrors.Write(w, http.StatusUnauthorized, badCredentials)
		return
	case err != nil:
		h.ErrLog.Render(w, r, "DB find account", err)
		return
	}

	if !auth.CheckPassword(acct.PasswordHash, in.Password) {
		h.Log.Info("login failed: wrong password", zap.String("user_id", acct.ID.Hex()))
		uierrors.Write(w, http.StatusUnauthorized, badCredentials)
		return
	}

	if role != "" && role != acct.Role {
		uierrors.Write(w, http.StatusForbidden,
			fmt.Sprintf("You are trying to log in as %s, but this account is registered as %s.", role, acct.Role))
		return
	}

	su := &auth.SessionUser{
		ID:    acct.ID.Hex(),
		Name:  acct.FullName,
		Email: acct.Email,
		Role:  acct.Role,
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.ErrLog.Render(w, r, "save session", err)
		return
	}
	if h.Guard != nil {
		h.Guard.Succeeded(ctx, email)
	}

	h.Log.Info("user signed in",
		zap.String("user_id", su.ID),
		zap.String("role", su.Role),
		zap.String("ip", ip))
	uierrors.JSON(w, http.StatusOK, loginResponse{User: su})
}
