// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aitalkmaster/aitalkmaster/internal/pipeline"
	"github.com/aitalkmaster/aitalkmaster/internal/queue"
)

// handleGeneratePost enqueues a stateless single-shot generation.
func (s *Server) handleGeneratePost(w http.ResponseWriter, r *http.Request) {
	var req pipeline.GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	model, ok := s.validateChatModel(w, r, req.MessageID, req.Model)
	if !ok {
		return
	}
	req.Model = model
	clientIP, ok := s.resolveClientIP(w, r)
	if !ok {
		return
	}
	if s.quotaExceeded(clientIP) {
		writeQuotaExceeded(w, req.MessageID)
		return
	}

	err := s.deps.Messages.Enqueue(queue.Job{
		Kind:     queue.KindGenerate,
		ID:       req.MessageID,
		ClientIP: clientIP,
		Run: func(ctx context.Context) {
			_ = s.deps.Pipeline.ProcessGenerate(ctx, req, clientIP)
		},
	})
	if errors.Is(err, queue.ErrQueueFull) {
		writeBusy(w, req.MessageID)
		return
	}
	writeProcessing(w, map[string]any{"message_id": req.MessageID})
}

// handleGenerateGetResponse fetches a cached single-shot reply.
func (s *Server) handleGenerateGetResponse(w http.ResponseWriter, r *http.Request) {
	messageID := r.URL.Query().Get("message_id")

	gen, ok := s.deps.Generations.Get(messageID)
	if !ok {
		writeJSON(w, http.StatusTooEarly, map[string]string{
			"message": fmt.Sprintf("requested response for %s not in list", messageID),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message_id": messageID,
		"response":   gen.ResponseText,
	})
}
