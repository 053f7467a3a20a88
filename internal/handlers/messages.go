package handlers

import (
	"net/http"
	"strconv"

	"github.com/lyftr-ai/webhook-service/internal/models"
	"github.com/lyftr-ai/webhook-service/internal/store"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// MessageListResponse represents the messages list response.
type MessageListResponse struct {
	Data   []models.Message `json:"data"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// ListMessages handles GET /messages with filters and pagination.
// Ordering: ts ASC, message_id ASC.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultLimit
	if s := q.Get("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l < 1 {
			h.ValidationError(w, []models.FieldError{{Field: "limit", Message: "must be a positive integer"}})
			return
		}
		limit = l
	}
	// Above-maximum limits are clamped, not rejected
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := 0
	if s := q.Get("offset"); s != "" {
		o, err := strconv.Atoi(s)
		if err != nil || o < 0 {
			h.ValidationError(w, []models.FieldError{{Field: "offset", Message: "must be a non-negative integer"}})
			return
		}
		offset = o
	}

	since := q.Get("since")
	if since != "" && !models.ValidTimestamp(since) {
		h.ValidationError(w, []models.FieldError{{Field: "since", Message: "must be an ISO-8601 UTC timestamp (YYYY-MM-DDTHH:MM:SSZ)"}})
		return
	}

	filter := store.ListFilter{
		From:   q.Get("from"),
		Since:  since,
		Query:  q.Get("q"),
		Limit:  limit,
		Offset: offset,
	}

	messages, total, err := h.store.ListMessages(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("message listing failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.JSON(w, http.StatusOK, MessageListResponse{
		Data:   messages,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}
