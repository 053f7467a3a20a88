package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/lyftr-ai/webhook-service/internal/metrics"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Signature"

// VerifySignature authenticates webhook deliveries before any JSON decoding.
// The HMAC is computed over the exact bytes on the wire; the same buffer is
// handed to the handler untouched. Missing, malformed, and mismatched
// signatures all produce the identical 401 so a caller cannot learn which
// check failed. Never log the secret or any signature material.
func VerifySignature(secret string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reject := func(reason string) {
				metrics.WebhookRequestsTotal.WithLabelValues("invalid_signature").Inc()
				logger.Warn().
					Str("type", "security").
					Str("event", "invalid_signature").
					Str("reason", reason).
					Str("request_id", GetRequestID(r.Context())).
					Msg("webhook signature rejected")
				jsonError(w, http.StatusUnauthorized, "invalid signature")
			}

			header := r.Header.Get(SignatureHeader)
			if header == "" {
				reject("missing header")
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				reject("unreadable body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body)) // Reset for handler

			provided, err := hex.DecodeString(header)
			if err != nil || len(provided) != sha256.Size {
				reject("malformed header")
				return
			}

			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write(body)
			expected := mac.Sum(nil)

			// hmac.Equal is constant-time; a short-circuiting compare
			// would leak the position of the first differing byte.
			if !hmac.Equal(expected, provided) {
				reject("mismatch")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
