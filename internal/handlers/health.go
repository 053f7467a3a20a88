package handlers

import (
	"context"
	"net/http"
	"time"
)

// Liveness always returns 200 while the process is running.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 only when the secret is configured and the store
// answers a ping.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if !h.secretConfigured {
		h.JSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "secret missing"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.JSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "store unreachable"})
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
