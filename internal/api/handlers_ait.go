// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aitalkmaster/aitalkmaster/internal/pipeline"
	"github.com/aitalkmaster/aitalkmaster/internal/queue"
)

// handleAitPost validates a dialog message, enqueues it and acknowledges
// with 425; the client polls getMessageResponse for the reply.
func (s *Server) handleAitPost(w http.ResponseWriter, r *http.Request) {
	var req pipeline.AitPostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.JoinKey == "" || containsWhitespace(req.JoinKey) {
		writeBadRequest(w, fmt.Sprintf("Invalid join key %q", req.JoinKey))
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

	// Reject duplicates synchronously; the worker would only discover the
	// collision after the client already got its 425.
	if sess, ok := s.deps.Store.Get(req.JoinKey); ok && sess.ContainsMessageID(req.MessageID) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"message_id": req.MessageID,
			"error":      fmt.Sprintf("Invalid message ID, already exists in session with key %s", req.JoinKey),
		})
		return
	}

	err := s.deps.Messages.Enqueue(queue.Job{
		Kind:     queue.KindAit,
		ID:       req.MessageID,
		ClientIP: clientIP,
		Run: func(ctx context.Context) {
			_ = s.deps.Pipeline.ProcessAitPost(ctx, req, clientIP)
		},
	})
	if errors.Is(err, queue.ErrQueueFull) {
		writeBusy(w, req.MessageID)
		return
	}
	writeProcessing(w, map[string]any{"message_id": req.MessageID})
}

// handleAitGetResponse polls a response by message id.
func (s *Server) handleAitGetResponse(w http.ResponseWriter, r *http.Request) {
	joinKey := r.URL.Query().Get("join_key")
	messageID := r.URL.Query().Get("message_id")

	sess, ok := s.deps.Store.Get(joinKey)
	if !ok {
		writeBadRequest(w, fmt.Sprintf("There was no session with the join_key: %s", joinKey))
		return
	}
	resp, ok := sess.ResponseByID(messageID)
	if !ok {
		writeProcessing(w, map[string]any{"message_id": messageID})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message_id": messageID,
		"response":   resp.Text,
	})
}

type joinKeyRequest struct {
	JoinKey string `json:"join_key"`
}

// handleAitStart makes sure the session and its broadcaster mount exist so
// listeners can tune in before the first message.
func (s *Server) handleAitStart(w http.ResponseWriter, r *http.Request) {
	var req joinKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.JoinKey == "" || containsWhitespace(req.JoinKey) {
		writeBadRequest(w, fmt.Sprintf("Invalid join key %q", req.JoinKey))
		return
	}

	s.deps.Store.GetOrCreate(req.JoinKey)

	body := map[string]any{"join_key": req.JoinKey}
	if s.deps.StreamURLPrefix != "" {
		body["stream_url"] = s.deps.StreamURLPrefix + req.JoinKey
	}
	writeJSON(w, http.StatusOK, body)
}

// handleAitReset archives the session's audio and drops it from the
// registry. Resetting an unknown key is not an error.
func (s *Server) handleAitReset(w http.ResponseWriter, r *http.Request) {
	var req joinKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	s.deps.Store.Reset(req.JoinKey)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("%s has been reset", req.JoinKey),
	})
}

// handleGenerateAudio synthesizes arbitrary text into the session's stream.
// The job runs on the audio pool but the handler waits for it, because the
// caller needs the generated filename.
func (s *Server) handleGenerateAudio(w http.ResponseWriter, r *http.Request) {
	var req pipeline.GenerateAudioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if !s.deps.Registry.Snapshot().AudioConfigured {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"message_id": req.MessageID,
			"error":      "no audio client configured",
		})
		return
	}
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

	type outcome struct {
		filename string
		err      error
	}
	done := make(chan outcome, 1)
	err := s.deps.Audio.Enqueue(queue.Job{
		Kind:     queue.KindAudio,
		ID:       req.MessageID,
		ClientIP: clientIP,
		Run: func(ctx context.Context) {
			filename, err := s.deps.Pipeline.ProcessGenerateAudio(ctx, req, clientIP)
			done <- outcome{filename: filename, err: err}
		},
	})
	if errors.Is(err, queue.ErrQueueFull) {
		writeBusy(w, req.MessageID)
		return
	}

	select {
	case <-r.Context().Done():
		return
	case out := <-done:
		if out.err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"message_id": req.MessageID,
				"error":      "audio generation failed",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"message_id": req.MessageID,
			"filename":   out.filename,
			"status":     "success",
		})
	}
}

// handleStreamAudio serves the direct MP3 stream (no external broadcaster).
func (s *Server) handleStreamAudio(w http.ResponseWriter, r *http.Request) {
	if s.deps.Streamer == nil {
		writeBadRequest(w, "direct streaming is not enabled")
		return
	}
	joinKey := chi.URLParam(r, "join_key")
	if joinKey == "" || containsWhitespace(joinKey) {
		writeBadRequest(w, fmt.Sprintf("Invalid join key %q", joinKey))
		return
	}
	clientIP, ok := s.resolveClientIP(w, r)
	if !ok {
		return
	}
	s.deps.Streamer.Stream(r.Context(), w, joinKey, clientIP)
}
