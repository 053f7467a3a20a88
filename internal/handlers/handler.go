package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/lyftr-ai/webhook-service/internal/models"
	"github.com/lyftr-ai/webhook-service/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store            store.MessageStore
	logger           zerolog.Logger
	secretConfigured bool
}

// NewHandler creates a new Handler with the given store.
func NewHandler(s store.MessageStore, logger zerolog.Logger, secretConfigured bool) *Handler {
	return &Handler{store: s, logger: logger, secretConfigured: secretConfigured}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// ValidationErrorResponse carries field-level detail for 422 responses.
// Schema errors are the one class where detail is intentionally
// informative, so the caller can fix the payload.
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Fields []models.FieldError `json:"fields"`
}

// ValidationError sends a 422 with per-field messages.
func (h *Handler) ValidationError(w http.ResponseWriter, fields []models.FieldError) {
	h.JSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
		Error:  "validation failed",
		Fields: fields,
	})
}
