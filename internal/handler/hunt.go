package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/carhunt/carhunt/internal/auth"
	"github.com/carhunt/carhunt/internal/metrics"
	"github.com/carhunt/carhunt/internal/model"
	"github.com/carhunt/carhunt/internal/repository"
)

// HuntStore is the subset of the repository used by hunt handlers.
type HuntStore interface {
	CreateHunt(ctx context.Context, hunt *model.Hunt, imageURLs []string) error
	GetHuntByID(ctx context.Context, id string) (*model.Hunt, error)
	ListHunts(ctx context.Context) ([]*model.Hunt, error)
	ListHuntsByOwner(ctx context.Context, userID string) ([]*model.Hunt, error)
	UpdateHunt(ctx context.Context, huntID, userID string, in repository.UpdateHuntInput) (*model.Hunt, error)
	DeleteHunt(ctx context.Context, huntID, userID string) error
}

// ImageStore persists uploaded image files.
type ImageStore interface {
	SaveAll(files []*multipart.FileHeader) []string
}

// HuntHandler handles hunt CRUD endpoints.
type HuntHandler struct {
	store         HuntStore
	files         ImageStore
	metrics       metrics.Recorder
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHuntHandler creates a new HuntHandler.
func NewHuntHandler(store HuntStore, files ImageStore, recorder metrics.Recorder, logger *slog.Logger, maxUploadSize int64) *HuntHandler {
	return &HuntHandler{
		store:         store,
		files:         files,
		metrics:       recorder,
		logger:        logger,
		maxUploadSize: maxUploadSize,
	}
}

// huntRequest carries the required hunt fields from a multipart body.
type huntRequest struct {
	CarModel string `validate:"required"`
	CarType  string `validate:"required"`
	Location string `validate:"required"`
}

var huntMessages = map[string]string{
	"CarModel": "Car model is required",
	"CarType":  "Car type is required",
	"Location": "Location is required",
}

// List handles GET /api/hunts.
func (h *HuntHandler) List(w http.ResponseWriter, r *http.Request) {
	hunts, err := h.store.ListHunts(r.Context())
	if err != nil {
		h.logError(r, "failed to list hunts", err)
		writeServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, hunts)
}

// ListOwn handles GET /api/hunts/user.
func (h *HuntHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		writeMsg(w, http.StatusUnauthorized, "Authorization Denied!")
		return
	}

	hunts, err := h.store.ListHuntsByOwner(r.Context(), identity.UserID)
	if err != nil {
		h.logError(r, "failed to list own hunts", err)
		writeServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, hunts)
}

// Create handles POST /api/hunts.
// Stores every uploaded file (per-file save failures are logged and skipped,
// never fatal) and inserts the hunt with its image rows.
func (h *HuntHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		writeMsg(w, http.StatusUnauthorized, "Authorization Denied!")
		return
	}

	req, files, ok := h.parseHuntForm(w, r)
	if !ok {
		return
	}

	stored := h.saveUploads(files)

	now := time.Now().UTC()
	hunt := &model.Hunt{
		ID:        ulid.Make().String(),
		UserID:    identity.UserID,
		CarModel:  req.CarModel,
		CarType:   req.CarType,
		Location:  req.Location,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.store.CreateHunt(r.Context(), hunt, stored); err != nil {
		h.logError(r, "failed to create hunt", err)
		writeServerError(w)
		return
	}

	h.metrics.IncHuntCreated()
	h.logger.Info("hunt_created",
		slog.String("hunt_id", hunt.ID),
		slog.String("user_id", hunt.UserID),
		slog.Int("images", len(stored)),
	)

	writeJSON(w, http.StatusOK, hunt)
}

// Update handles PUT /api/hunts/{id}.
// Ownership is verified before any column changes; when new files were
// uploaded the previous image set is fully replaced, not merged.
func (h *HuntHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		writeMsg(w, http.StatusUnauthorized, "Authorization Denied!")
		return
	}

	huntID := chi.URLParam(r, "id")

	req, files, ok := h.parseHuntForm(w, r)
	if !ok {
		return
	}

	input := repository.UpdateHuntInput{
		CarModel: req.CarModel,
		CarType:  req.CarType,
		Location: req.Location,
	}

	if len(files) > 0 {
		input.ReplaceImages = true
		input.Images = h.saveUploads(files)
	}

	hunt, err := h.store.UpdateHunt(r.Context(), huntID, identity.UserID, input)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrHuntNotFound):
			writeMsg(w, http.StatusBadRequest, "Post not found")
		case errors.Is(err, repository.ErrNotOwner):
			writeMsg(w, http.StatusBadRequest, "User does not have permissions on this post!")
		default:
			h.logError(r, "failed to update hunt", err)
			writeServerError(w)
		}
		return
	}

	h.metrics.IncHuntUpdated()
	h.logger.Info("hunt_updated",
		slog.String("hunt_id", hunt.ID),
		slog.String("user_id", hunt.UserID),
		slog.Bool("images_replaced", input.ReplaceImages),
	)

	writeJSON(w, http.StatusOK, hunt)
}

// Delete handles DELETE /api/hunts/{id}.
// The repository verifies ownership before anything is removed, so a
// non-owner's request leaves the hunt and its images untouched.
func (h *HuntHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		writeMsg(w, http.StatusUnauthorized, "Authorization Denied!")
		return
	}

	huntID := chi.URLParam(r, "id")

	if err := h.store.DeleteHunt(r.Context(), huntID, identity.UserID); err != nil {
		switch {
		case errors.Is(err, repository.ErrHuntNotFound):
			writeMsg(w, http.StatusBadRequest, "Post deletion failed!")
		case errors.Is(err, repository.ErrNotOwner):
			writeMsg(w, http.StatusBadRequest, "User does not have permissions on this post!")
		default:
			h.logError(r, "failed to delete hunt", err)
			writeServerError(w)
		}
		return
	}

	h.metrics.IncHuntDeleted()
	h.logger.Info("hunt_deleted",
		slog.String("hunt_id", huntID),
		slog.String("user_id", identity.UserID),
	)

	writeMsg(w, http.StatusOK, "Post removed")
}

// parseHuntForm parses the multipart (or urlencoded) body, validates the
// required fields and returns any uploaded file headers.
func (h *HuntHandler) parseHuntForm(w http.ResponseWriter, r *http.Request) (huntRequest, []*multipart.FileHeader, bool) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeValidationErrors(w, []fieldError{{Msg: "Invalid request body"}})
		return huntRequest{}, nil, false
	}

	req := huntRequest{
		CarModel: r.FormValue("car_model"),
		CarType:  r.FormValue("car_type"),
		Location: r.FormValue("location"),
	}

	if errs := validateStruct(req, huntMessages); errs != nil {
		writeValidationErrors(w, errs)
		return huntRequest{}, nil, false
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["images"]
	}

	return req, files, true
}

// saveUploads persists the uploaded files and records per-file outcomes.
func (h *HuntHandler) saveUploads(files []*multipart.FileHeader) []string {
	stored := h.files.SaveAll(files)

	for i := 0; i < len(stored); i++ {
		h.metrics.IncUploadStored()
	}
	for i := 0; i < len(files)-len(stored); i++ {
		h.metrics.IncUploadFailed()
	}

	return stored
}

func (h *HuntHandler) logError(r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		slog.String("error", err.Error()),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
	)
}
