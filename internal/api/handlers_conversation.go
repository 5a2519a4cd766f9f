// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/aitalkmaster/aitalkmaster/internal/pipeline"
	"github.com/aitalkmaster/aitalkmaster/internal/queue"
	"github.com/aitalkmaster/aitalkmaster/internal/session"
)

type conversationStartRequest struct {
	Model              string         `json:"model"`
	SystemInstructions string         `json:"system_instructions"`
	Options            map[string]any `json:"options"`
	Username           string         `json:"username"`
}

// handleConversationStart creates a history-bearing conversation with the
// model and options fixed for its lifetime.
func (s *Server) handleConversationStart(w http.ResponseWriter, r *http.Request) {
	var req conversationStartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	model, ok := s.validateChatModel(w, r, "", req.Model)
	if !ok {
		return
	}
	clientIP, ok := s.resolveClientIP(w, r)
	if !ok {
		return
	}
	if s.quotaExceeded(clientIP) {
		writeQuotaExceeded(w, "")
		return
	}

	key := uuid.NewString()
	s.deps.Conversations.Put(session.NewConversation(key, model, req.SystemInstructions, req.Options))
	writeJSON(w, http.StatusOK, map[string]string{"conversation_key": key})
}

// handleConversationPost enqueues a conversation turn.
func (s *Server) handleConversationPost(w http.ResponseWriter, r *http.Request) {
	var req pipeline.ConversationPostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if _, ok := s.deps.Conversations.Get(req.ConversationKey); !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"message": fmt.Sprintf("no conversation found with key: %s", req.ConversationKey),
		})
		return
	}
	clientIP, ok := s.resolveClientIP(w, r)
	if !ok {
		return
	}
	if s.quotaExceeded(clientIP) {
		writeQuotaExceeded(w, req.MessageID)
		return
	}

	err := s.deps.Messages.Enqueue(queue.Job{
		Kind:     queue.KindConversation,
		ID:       req.MessageID,
		ClientIP: clientIP,
		Run: func(ctx context.Context) {
			_ = s.deps.Pipeline.ProcessConversationPost(ctx, req, clientIP)
		},
	})
	if errors.Is(err, queue.ErrQueueFull) {
		writeBusy(w, req.MessageID)
		return
	}
	writeProcessing(w, map[string]any{
		"message_id":       req.MessageID,
		"conversation_key": req.ConversationKey,
	})
}

// handleConversationGetResponse polls a conversation reply by message id.
func (s *Server) handleConversationGetResponse(w http.ResponseWriter, r *http.Request) {
	conversationKey := r.URL.Query().Get("conversation_key")
	messageID := r.URL.Query().Get("message_id")

	conv, ok := s.deps.Conversations.Get(conversationKey)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"message": fmt.Sprintf("no conversation found with key: %s", conversationKey),
		})
		return
	}
	resp, ok := conv.ResponseByID(messageID)
	if !ok {
		writeJSON(w, http.StatusTooEarly, map[string]string{
			"message":          "Waiting for message response",
			"conversation_key": conversationKey,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"response":         resp.Content,
		"message_id":       messageID,
		"conversation_key": conversationKey,
	})
}
