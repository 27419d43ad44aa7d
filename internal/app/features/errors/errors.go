// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/reconcile"
	"go.uber.org/zap"
)

// body is the JSON error envelope.
type body struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Write renders {"error": msg} with status.
func Write(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, body{Error: msg})
}

// Fields renders a 400 with msg and per-field messages.
func Fields(w http.ResponseWriter, msg string, fields map[string]string) {
	JSON(w, http.StatusBadRequest, body{Error: msg, Fields: fields})
}

// Status maps a workflow error to an HTTP status.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case reconcile.IsNotFound(err):
		return http.StatusNotFound
	case stderrors.Is(err, reconcile.ErrAlreadyProcessed),
		stderrors.Is(err, reconcile.ErrInsufficientInventory):
		return http.StatusConflict
	case stderrors.Is(err, reconcile.ErrValidation):
		return http.StatusBadRequest
	case stderrors.Is(err, reconcile.ErrNotEligible):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, reconcile.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Message is the client-facing text for err. Server errors are not echoed.
func Message(err error) string {
	switch {
	case stderrors.Is(err, reconcile.ErrAlreadyProcessed):
		return "This record has already been processed."
	case stderrors.Is(err, reconcile.ErrRequestNotFound):
		return "Request not found or already processed."
	case stderrors.Is(err, reconcile.ErrDonationNotFound):
		return "Appointment not found or already processed."
	case stderrors.Is(err, reconcile.ErrNotEligible):
		return "You are not currently eligible to donate. " + err.Error()
	case Status(err) == http.StatusInternalServerError:
		return "Something went wrong. Please try again."
	default:
		return err.Error()
	}
}

// ErrorLogger logs server-side failures and renders JSON errors.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger wraps logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// Log records err against the request. userMsg is the summary shown in logs.
func (e *ErrorLogger) Log(r *http.Request, userMsg string, err error) {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	if u, ok := auth.CurrentUser(r); ok {
		fields = append(fields, zap.String("user_id", u.ID), zap.String("role", u.Role))
	}
	e.log.Error(userMsg, fields...)
}

// Render classifies err and writes the response. 5xx causes are logged;
// client errors are not.
func (e *ErrorLogger) Render(w http.ResponseWriter, r *http.Request, what string, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		e.Log(r, what, err)
	}

	out := body{Error: Message(err)}
	var ve *reconcile.ValidationError
	if stderrors.As(err, &ve) {
		out.Fields = ve.Fields
	}
	JSON(w, status, out)
}

// BadRequest writes a 400 with msg.
func BadRequest(w http.ResponseWriter, msg string) {
	Write(w, http.StatusBadRequest, msg)
}

// DecodeJSON reads a JSON request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Handler serves the landing targets used by auth redirects.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden handles GET /forbidden.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusForbidden, "You don't have permission to view this page.")
}

// Unauthorized handles GET /unauthorized.
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusUnauthorized, "Please sign in to continue.")
}
