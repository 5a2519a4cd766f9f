// SPDX-License-Identifier: MIT

// Package api provides the HTTP surface of the aitalkmaster service.
// Handlers are thin: they validate, consult the rate limiter and enqueue;
// all provider work happens on queue workers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/aitalkmaster/aitalkmaster/internal/broadcast"
	"github.com/aitalkmaster/aitalkmaster/internal/config"
	"github.com/aitalkmaster/aitalkmaster/internal/pipeline"
	"github.com/aitalkmaster/aitalkmaster/internal/provider"
	"github.com/aitalkmaster/aitalkmaster/internal/queue"
	"github.com/aitalkmaster/aitalkmaster/internal/ratelimit"
	"github.com/aitalkmaster/aitalkmaster/internal/session"
)

// Deps carries the collaborators of the HTTP server. Limiter and Streamer
// may be nil (rate limiting disabled, external broadcaster mode).
type Deps struct {
	Registry      *config.Registry
	Chat          provider.Chat
	Pipeline      *pipeline.Pipeline
	Store         *session.Store
	Conversations *session.ConversationRing
	Generations   *session.GenerationCache
	Limiter       *ratelimit.Limiter
	Messages      *queue.Pool
	Audio         *queue.Pool
	Streamer      *broadcast.Streamer

	// StreamURLPrefix and TranslationStreamURLPrefix, when set, are
	// prepended to the join/session key to build the stream_url returned
	// to clients.
	StreamURLPrefix            string
	TranslationStreamURLPrefix string

	// UseForwardedFor trusts X-Forwarded-For when resolving the client IP
	// for rate limiting.
	UseForwardedFor bool
}

// Server is the aitalkmaster HTTP API.
type Server struct {
	deps Deps
}

// New creates the API server.
func New(deps Deps) *Server {
	return &Server{deps: deps}
}

// resolveClientIP extracts the accounting address. A missing forwarded
// header when one is required points at a broken proxy setup, so the
// client gets a 500 rather than being billed to the proxy's address.
func (s *Server) resolveClientIP(w http.ResponseWriter, r *http.Request) (string, bool) {
	ip, err := ratelimit.ClientIP(r, s.deps.UseForwardedFor)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return "", false
	}
	return ip, true
}

// quotaExceeded applies the rate-limit gate. Read endpoints never call it.
func (s *Server) quotaExceeded(clientIP string) bool {
	return s.deps.Limiter != nil && s.deps.Limiter.Exceeded(clientIP)
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
