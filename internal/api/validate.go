// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// containsWhitespace rejects keys that would break broadcaster command
// bodies and on-disk directory names.
func containsWhitespace(key string) bool {
	return strings.ContainsAny(key, " \t\n")
}

// resolveChatModel substitutes the default for an empty model and checks the
// allow-list. An empty allow-list falls back to the provider's live catalog.
func (s *Server) resolveChatModel(ctx context.Context, model string) (string, []string, bool) {
	snap := s.deps.Registry.Snapshot()
	if model == "" {
		model = snap.DefaultChatModel
	}
	allowed := snap.ChatModels
	if len(allowed) == 0 {
		live, err := s.deps.Chat.Models(ctx)
		if err != nil {
			return model, nil, false
		}
		allowed = live
	}
	for _, m := range allowed {
		if m == model {
			return model, allowed, true
		}
	}
	return model, allowed, false
}

// resolveAudioVoice substitutes the default voice and checks the allow-list.
func (s *Server) resolveAudioVoice(voice string) (string, []string, bool) {
	snap := s.deps.Registry.Snapshot()
	if voice == "" {
		voice = snap.DefaultAudioVoice
	}
	for _, v := range snap.AudioVoices {
		if v == voice {
			return voice, snap.AudioVoices, true
		}
	}
	return voice, snap.AudioVoices, false
}

// resolveAudioModel substitutes the default model and checks the allow-list.
func (s *Server) resolveAudioModel(model string) (string, []string, bool) {
	snap := s.deps.Registry.Snapshot()
	if model == "" {
		model = snap.DefaultAudioModel
	}
	for _, m := range snap.AudioModels {
		if m == model {
			return model, snap.AudioModels, true
		}
	}
	return model, snap.AudioModels, false
}

// validateChatModel writes the 400 response itself on failure and returns
// the resolved model otherwise.
func (s *Server) validateChatModel(w http.ResponseWriter, r *http.Request, messageID, model string) (string, bool) {
	resolved, allowed, ok := s.resolveChatModel(r.Context(), model)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message_id":       messageID,
			"error":            fmt.Sprintf("Invalid chat model: %s", resolved),
			"available_models": allowed,
		})
		return "", false
	}
	return resolved, true
}

// validateAudio resolves voice and model together; a no-audio deployment
// passes both through unchanged.
func (s *Server) validateAudio(w http.ResponseWriter, messageID, voice, model string) (string, string, bool) {
	if !s.deps.Registry.Snapshot().AudioConfigured {
		return voice, model, true
	}
	resolvedVoice, voices, ok := s.resolveAudioVoice(voice)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message_id":     messageID,
			"error":          fmt.Sprintf("Invalid audio voice: %s", resolvedVoice),
			"allowed_voices": voices,
		})
		return "", "", false
	}
	resolvedModel, models, ok := s.resolveAudioModel(model)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message_id":             messageID,
			"error":                  fmt.Sprintf("Invalid audio model: %s", resolvedModel),
			"available_audio_models": models,
		})
		return "", "", false
	}
	return resolvedVoice, resolvedModel, true
}
