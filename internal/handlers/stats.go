package handlers

import (
	"net/http"

	"github.com/lyftr-ai/webhook-service/internal/store"
)

// topSendersLimit caps the ranked sender list in the stats response.
const topSendersLimit = 10

// StatsResponse represents the response from the stats endpoint.
type StatsResponse struct {
	TotalMessages     int64               `json:"total_messages"`
	SendersCount      int64               `json:"senders_count"`
	MessagesPerSender []store.SenderCount `json:"messages_per_sender"`
	FirstMessageTS    *string             `json:"first_message_ts"`
	LastMessageTS     *string             `json:"last_message_ts"`
}

// Stats returns aggregate counts computed directly against current store
// state on every call.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.store.CountMessages(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("stats: count failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	senders, err := h.store.CountDistinctSenders(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("stats: sender count failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	topSenders, err := h.store.TopSenders(ctx, topSendersLimit)
	if err != nil {
		h.logger.Error().Err(err).Msg("stats: top senders failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	first, last, err := h.store.TimeBounds(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("stats: time bounds failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		TotalMessages:     total,
		SendersCount:      senders,
		MessagesPerSender: topSenders,
		FirstMessageTS:    first,
		LastMessageTS:     last,
	})
}
