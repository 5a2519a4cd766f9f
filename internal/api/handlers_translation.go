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

// handleTranslate validates and enqueues a translate-and-speak request.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req pipeline.TranslationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.SessionKey == "" || containsWhitespace(req.SessionKey) {
		writeBadRequest(w, fmt.Sprintf("Invalid session key %q, it contains spaces", req.SessionKey))
		return
	}

	model, ok := s.validateChatModel(w, r, req.MessageID, req.Model)
	if !ok {
		return
	}
	req.Model = model
	voice, audioModel, ok := s.validateAudio(w, req.MessageID, req.AudioVoice, req.AudioModel)
	if !ok {
		return
	}
	req.AudioVoice, req.AudioModel = voice, audioModel

	clientIP, ok := s.resolveClientIP(w, r)
	if !ok {
		return
	}
	if s.quotaExceeded(clientIP) {
		writeQuotaExceeded(w, req.MessageID)
		return
	}

	if ts, ok := s.deps.Store.Translation(req.SessionKey); ok && ts.ContainsMessageID(req.MessageID) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"message_id": req.MessageID,
			"error":      fmt.Sprintf("Invalid message ID, already exists in translation session with key %s", req.SessionKey),
		})
		return
	}

	err := s.deps.Messages.Enqueue(queue.Job{
		Kind:     queue.KindTranslation,
		ID:       req.MessageID,
		ClientIP: clientIP,
		Run: func(ctx context.Context) {
			_ = s.deps.Pipeline.ProcessTranslation(ctx, req, clientIP)
		},
	})
	if errors.Is(err, queue.ErrQueueFull) {
		writeBusy(w, req.MessageID)
		return
	}

	body := map[string]any{
		"message_id": req.MessageID,
		"info":       "Translation request queued for background processing",
	}
	if s.deps.TranslationStreamURLPrefix != "" {
		body["stream_url"] = s.deps.TranslationStreamURLPrefix + req.SessionKey
	}
	writeProcessing(w, body)
}

// handleGetTranslation polls a translation result.
func (s *Server) handleGetTranslation(w http.ResponseWriter, r *http.Request) {
	sessionKey := r.URL.Query().Get("session_key")
	messageID := r.URL.Query().Get("message_id")

	if containsWhitespace(sessionKey) {
		writeBadRequest(w, fmt.Sprintf("Invalid session key %q, it contains spaces", sessionKey))
		return
	}
	ts, ok := s.deps.Store.Translation(sessionKey)
	if !ok {
		writeBadRequest(w, fmt.Sprintf("There was no translation session with the session_key: %s", sessionKey))
		return
	}
	result, ok := ts.Get(messageID)
	if !ok {
		writeProcessing(w, map[string]any{
			"message_id": messageID,
			"info":       fmt.Sprintf("Translation for message_id: %s is not ready yet", messageID),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message_id":       messageID,
		"original_message": result.OriginalMessage,
		"translated_text":  result.TranslatedText,
		"source_language":  result.SourceLanguage,
		"target_language":  result.TargetLanguage,
	})
}
