package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/carhunt/carhunt/internal/auth"
	"github.com/carhunt/carhunt/internal/metrics"
	"github.com/carhunt/carhunt/internal/repository"
)

// AuthHandler handles credential verification and the identity probe.
type AuthHandler struct {
	store   UserStore
	tokens  TokenIssuer
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(store UserStore, tokens TokenIssuer, recorder metrics.Recorder, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		store:   store,
		tokens:  tokens,
		metrics: recorder,
		logger:  logger,
	}
}

// loginRequest is the POST /api/auth body.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var loginMessages = map[string]string{
	"Email":    "Please include a valid email.",
	"Password": "Password is required.",
}

// Me handles GET /api/auth.
// Returns the full current user record for the authenticated identity.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		writeMsg(w, http.StatusUnauthorized, "Authorization Denied!")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeMsg(w, http.StatusBadRequest, "Profile not found")
			return
		}
		h.logError(r, "failed to load authenticated user", err)
		writeServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Login handles POST /api/auth.
// Verifies credentials and issues a token. Unknown email and wrong password
// produce the same response so accounts cannot be enumerated.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationErrors(w, []fieldError{{Msg: "Invalid request body"}})
		return
	}

	if errs := validateStruct(req, loginMessages); errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			h.metrics.IncLogin("failed")
			writeValidationErrors(w, []fieldError{{Msg: "Invalid Credentials"}})
			return
		}
		h.logError(r, "failed to look up user", err)
		writeServerError(w)
		return
	}

	match, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		h.logError(r, "failed to verify password", err)
		writeServerError(w)
		return
	}
	if !match {
		h.metrics.IncLogin("failed")
		writeValidationErrors(w, []fieldError{{Msg: "Invalid Credentials"}})
		return
	}

	// Signing failure is fatal for the request, never swallowed.
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logError(r, "failed to sign token", err)
		writeServerError(w)
		return
	}

	h.metrics.IncLogin("success")
	h.logger.Info("user_logged_in",
		slog.String("user_id", user.ID),
	)

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *AuthHandler) logError(r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		slog.String("error", err.Error()),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
	)
}
