// SPDX-License-Identifier: MIT

package config

import (
	"sync"
)

// Allowlists is an immutable snapshot of the model/voice allow-lists and
// their defaults. Handlers read a snapshot once per request so a concurrent
// reload cannot produce a half-updated view.
type Allowlists struct {
	ChatModels        []string
	DefaultChatModel  string
	AudioModels       []string
	DefaultAudioModel string
	AudioVoices       []string
	DefaultAudioVoice string
	AudioConfigured   bool
}

// Registry holds the live allow-lists and supports atomic replacement when
// the config file changes on disk.
type Registry struct {
	mu  sync.RWMutex
	cur Allowlists
}

// NewRegistry builds a registry from the loaded configuration.
func NewRegistry(cfg *AppConfig) *Registry {
	r := &Registry{}
	r.Update(cfg)
	return r
}

// Update replaces the registry contents from cfg.
func (r *Registry) Update(cfg *AppConfig) {
	next := Allowlists{
		ChatModels:       append([]string(nil), cfg.ChatClient.AllowedModels...),
		DefaultChatModel: cfg.ChatClient.DefaultModel,
	}
	if ac := cfg.AudioClient; ac != nil {
		next.AudioConfigured = true
		next.AudioModels = append([]string(nil), ac.AllowedModels...)
		next.DefaultAudioModel = ac.DefaultModel
		next.AudioVoices = append([]string(nil), ac.AllowedVoices...)
		next.DefaultAudioVoice = ac.DefaultVoice
	}
	r.mu.Lock()
	r.cur = next
	r.mu.Unlock()
}

// Snapshot returns the current allow-lists.
func (r *Registry) Snapshot() Allowlists {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cur
}

// ChatModelAllowed reports whether model is on the chat allow-list.
func (a Allowlists) ChatModelAllowed(model string) bool {
	return contains(a.ChatModels, model)
}

// AudioModelAllowed reports whether model is on the audio allow-list.
func (a Allowlists) AudioModelAllowed(model string) bool {
	return contains(a.AudioModels, model)
}

// AudioVoiceAllowed reports whether voice is on the voice allow-list.
func (a Allowlists) AudioVoiceAllowed(voice string) bool {
	return contains(a.AudioVoices, voice)
}
