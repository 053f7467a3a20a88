package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/lyftr-ai/webhook-service/internal/api/middleware"
	"github.com/lyftr-ai/webhook-service/internal/metrics"
	"github.com/lyftr-ai/webhook-service/internal/models"
	"github.com/lyftr-ai/webhook-service/internal/store"
)

// webhookAck is the uniform acknowledgement for created and duplicate
// deliveries. Senders retry on ambiguous failures and must not be able to
// tell a first delivery from a retry.
var webhookAck = map[string]string{"status": "ok"}

// ReceiveWebhook ingests a signed message delivery. The signature
// middleware has already verified the raw body by the time this runs.
func (h *Handler) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	var payload models.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		metrics.WebhookRequestsTotal.WithLabelValues("validation_error").Inc()
		h.ValidationError(w, []models.FieldError{{Field: "body", Message: "must be a JSON object"}})
		return
	}

	if fieldErrs := payload.Validate(); len(fieldErrs) > 0 {
		metrics.WebhookRequestsTotal.WithLabelValues("validation_error").Inc()
		h.ValidationError(w, fieldErrs)
		return
	}

	msg := payload.Record(time.Now())

	err := h.store.InsertMessage(r.Context(), msg)
	switch {
	case errors.Is(err, store.ErrDuplicateMessage):
		// Idempotency: the uniqueness constraint fired, the original row
		// is untouched, and the caller gets the same ack as a first write.
		metrics.WebhookRequestsTotal.WithLabelValues("duplicate").Inc()
		h.logger.Warn().
			Str("message_id", payload.MessageID).
			Bool("dup", true).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("duplicate webhook received")
		h.JSON(w, http.StatusOK, webhookAck)

	case err != nil:
		metrics.WebhookRequestsTotal.WithLabelValues("error").Inc()
		h.logger.Error().
			Err(err).
			Str("message_id", payload.MessageID).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("webhook insert failed")
		h.Error(w, http.StatusInternalServerError, "failed to store message")

	default:
		metrics.WebhookRequestsTotal.WithLabelValues("created").Inc()
		h.logger.Info().
			Str("message_id", payload.MessageID).
			Bool("dup", false).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("webhook ingested")
		h.JSON(w, http.StatusOK, webhookAck)
	}
}
