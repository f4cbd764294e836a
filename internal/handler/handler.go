// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for request bodies.
var validate = validator.New()

// Handler wraps basic endpoints that need no dependencies.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Hello is the root info endpoint.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"message": "API Running",
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeMsg(w, http.StatusNotFound, "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeMsg(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// msgResponse is the {"msg": ...} shape used for auth, ownership, not-found
// and server errors.
type msgResponse struct {
	Msg string `json:"msg"`
}

// fieldError is a single validation failure.
type fieldError struct {
	Msg string `json:"msg"`
}

// errorsResponse is the {"errors":[{"msg":...}]} shape used for validation
// failures.
type errorsResponse struct {
	Errors []fieldError `json:"errors"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeMsg writes a {"msg": ...} response.
func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, msgResponse{Msg: msg})
}

// writeServerError writes the generic 500 response. Fault detail is logged
// by the caller, never returned to the client.
func writeServerError(w http.ResponseWriter) {
	writeMsg(w, http.StatusInternalServerError, "Server error")
}

// writeValidationErrors writes a 400 response listing validation failures.
func writeValidationErrors(w http.ResponseWriter, errs []fieldError) {
	writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: errs})
}

// validateStruct validates a request struct and maps each failing field to
// its human-readable message. Returns nil when the struct is valid.
func validateStruct(v any, messages map[string]string) []fieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fieldError{{Msg: "Invalid request body"}}
	}

	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		if msg, ok := messages[fe.Field()]; ok {
			out = append(out, fieldError{Msg: msg})
		} else {
			out = append(out, fieldError{Msg: fe.Field() + " is invalid"})
		}
	}
	return out
}
