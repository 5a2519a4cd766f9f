// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
)

// handleChatModels lists the configured chat model allow-list.
func (s *Server) handleChatModels(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Registry.Snapshot()
	body := map[string]any{
		"chat_models": snap.ChatModels,
		"count":       len(snap.ChatModels),
	}
	if len(snap.ChatModels) == 0 {
		body["message"] = "No valid models configured"
	}
	writeJSON(w, http.StatusOK, body)
}

// handleAudioModels lists the configured voices and audio models.
func (s *Server) handleAudioModels(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Registry.Snapshot()
	if !snap.AudioConfigured {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "No audio client configured",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"default_voice": snap.DefaultAudioVoice,
		"default_model": snap.DefaultAudioModel,
		"valid_voices":  snap.AudioVoices,
		"audio_models":  snap.AudioModels,
		"voice_count":   len(snap.AudioVoices),
		"model_count":   len(snap.AudioModels),
	})
}

// handleStatus is the liveness probe, with a few registry counters thrown in.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "online",
		"active_sessions":   s.deps.Store.Len(),
		"finished_sessions": s.deps.Store.FinishedCount(),
		"queued_messages":   s.deps.Messages.Depth(),
		"queued_audio":      s.deps.Audio.Depth(),
	})
}
