package signup

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	accountstore "github.com/dalemusser/bloodlink/internal/app/store/accounts"
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/htmlsanitize"
	"github.com/dalemusser/bloodlink/internal/app/system/normalize"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts   *accountstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts:   accountstore.New(db),
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Log:        logger,
	}
}

// signupInput is the POST /signup body. Age and weight apply to donors.
type signupInput struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	BloodType string `json:"blood_type"`
	Age       int    `json:"age"`
	Weight    int    `json:"weight"`
}

func (in *signupInput) validate() map[string]string {
	in.FullName = normalize.Name(htmlsanitize.PlainText(in.FullName))
	in.Email = normalize.Email(in.Email)
	in.Role = normalize.Role(in.Role)
	in.BloodType = normalize.BloodType(in.BloodType)
	in.Phone = htmlsanitize.PlainText(in.Phone)
	in.Address = htmlsanitize.PlainText(in.Address)

	bad := map[string]string{}
	if in.FullName == "" {
		bad["full_name"] = "Full name is required."
	}
	if in.Email == "" || !validate.SimpleEmailValid(in.Email) {
		bad["email"] = "A valid email address is required."
	}
	if len(in.Password) < auth.MinPasswordLength {
		bad["password"] = auth.ErrPasswordTooShort.Error()
	}
	if in.Role != models.RoleDonor && in.Role != models.RoleRecipient {
		bad["role"] = "Role must be donor or recipient."
	}
	if !models.ValidBloodType(in.BloodType) {
		bad["blood_type"] = "Blood type must be one of A+, A-, B+, B-, AB+, AB-, O+, O-."
	}
	if in.Role == models.RoleDonor && (in.Age < 0 || in.Weight < 0) {
		bad["age"] = "Age and weight cannot be negative."
	}
	return bad
}

type signupResponse struct {
	User *auth.SessionUser `json:"user"`
}

// HandleSignup creates a donor or recipient account and signs it in.
// Admin accounts cannot be created here.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var in signupInput
	if err := uierrors.DecodeJSON(r, &in); err != nil {
		uierrors.BadRequest(w, "Invalid request body.")
		return
	}
	if bad := in.validate(); len(bad) > 0 {
		uierrors.Fields(w, "Please correct the highlighted fields.", bad)
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.Render(w, r, "hash password", err)
		return
	}

	acct := models.Account{
		Role:         in.Role,
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Address:      in.Address,
		BloodType:    in.BloodType,
	}
	if in.Role == models.RoleDonor {
		acct.Age = in.Age
		acct.Weight = in.Weight
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Accounts.Create(ctx, acct)
	if err != nil {
		if errors.Is(err, accountstore.ErrDuplicateEmail) {
			uierrors.Write(w, http.StatusConflict, "An account with this email already exists.")
			return
		}
		h.ErrLog.Render(w, r, "create account", err)
		return
	}

	su := &auth.SessionUser{
		ID:    created.ID.Hex(),
		Name:  created.FullName,
		Email: created.Email,
		Role:  created.Role,
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.ErrLog.Render(w, r, "save session", err)
		return
	}

	h.Log.Info("account created",
		zap.String("user_id", su.ID),
		zap.String("role", su.Role))
	uierrors.JSON(w, http.StatusCreated, signupResponse{User: su})
}
