// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeBadRequest writes a 400 response with an error message
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeQuotaExceeded writes a 429 Too Many Requests response
func writeQuotaExceeded(w http.ResponseWriter, messageID string) {
	writeJSON(w, http.StatusTooManyRequests, map[string]string{
		"message_id": messageID,
		"error":      "Rate limit exceeded",
	})
}

// writeBusy writes a 503 response for a full job queue
func writeBusy(w http.ResponseWriter, messageID string) {
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"message_id": messageID,
		"error":      "Service busy, try again later",
	})
}

// writeProcessing writes the 425 enqueue acknowledgement
func writeProcessing(w http.ResponseWriter, body map[string]any) {
	body["status"] = "processing"
	writeJSON(w, http.StatusTooEarly, body)
}

// writeBlocked writes the 401 catch-all for unknown endpoints
func writeBlocked(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"message": "This endpoint is not available.",
	})
}
