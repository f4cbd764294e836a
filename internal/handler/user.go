package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carhunt/carhunt/internal/auth"
	"github.com/carhunt/carhunt/internal/metrics"
	"github.com/carhunt/carhunt/internal/model"
	"github.com/carhunt/carhunt/internal/repository"
)

// UserStore is the subset of the repository used by user and auth handlers.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// TokenIssuer signs bearer tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// UserHandler handles user registration and lookup endpoints.
type UserHandler struct {
	store   UserStore
	tokens  TokenIssuer
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(store UserStore, tokens TokenIssuer, recorder metrics.Recorder, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		store:   store,
		tokens:  tokens,
		metrics: recorder,
		logger:  logger,
	}
}

// registerRequest is the POST /api/users body.
type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

var registerMessages = map[string]string{
	"Email":    "Not a valid email",
	"Password": "Enter a password with 6 or more characters",
}

// tokenResponse carries a freshly issued bearer token.
type tokenResponse struct {
	Token string `json:"token"`
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.logError(r, "failed to list users", err)
		writeServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// Get handles GET /api/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		// An empty result is checked explicitly: no rows means no profile.
		if errors.Is(err, repository.ErrUserNotFound) {
			writeMsg(w, http.StatusBadRequest, "Profile not found")
			return
		}
		h.logError(r, "failed to get user", err)
		writeServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Register handles POST /api/users.
// Validates the payload, rejects duplicate emails, hashes the password with
// a per-user random salt, inserts the row and returns a signed token.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationErrors(w, []fieldError{{Msg: "Invalid request body"}})
		return
	}

	if errs := validateStruct(req, registerMessages); errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	ctx := r.Context()

	// True uniqueness rejection: the lookup's row set decides, backed by the
	// unique constraint for the concurrent-registration race.
	_, err := h.store.GetUserByEmail(ctx, req.Email)
	if err == nil {
		writeValidationErrors(w, []fieldError{{Msg: "User already exists"}})
		return
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		h.logError(r, "failed to check existing user", err)
		writeServerError(w)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logError(r, "failed to hash password", err)
		writeServerError(w)
		return
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			writeValidationErrors(w, []fieldError{{Msg: "User already exists"}})
			return
		}
		h.logError(r, "failed to create user", err)
		writeServerError(w)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logError(r, "failed to sign token", err)
		writeServerError(w)
		return
	}

	h.metrics.IncUserRegistered()
	h.logger.Info("user_registered",
		slog.String("user_id", user.ID),
	)

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *UserHandler) logError(r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		slog.String("error", err.Error()),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
	)
}
