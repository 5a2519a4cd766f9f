// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes builds the router. Everything outside the enumerated surface is
// answered with 401 so scanners learn nothing about the deployment.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(metricsMiddleware)
	r.Use(loggingMiddleware)

	r.Route("/ait", func(r chi.Router) {
		r.Post("/postMessage", s.handleAitPost)
		r.Get("/getMessageResponse", s.handleAitGetResponse)
		r.Post("/startConversation", s.handleAitStart)
		r.Post("/resetJoinkey", s.handleAitReset)
		r.Post("/generateAudio", s.handleGenerateAudio)
		r.Get("/stream-audio/{join_key}", s.handleStreamAudio)
	})

	r.Route("/conversation", func(r chi.Router) {
		r.Post("/start", s.handleConversationStart)
		r.Post("/postMessage", s.handleConversationPost)
		r.Get("/getMessageResponse", s.handleConversationGetResponse)
	})

	r.Post("/generate/postMessage", s.handleGeneratePost)
	r.Get("/generate/getMessageResponse", s.handleGenerateGetResponse)

	r.Post("/translation/translate", s.handleTranslate)
	r.Get("/translation/getTranslation", s.handleGetTranslation)

	r.Get("/chat_models", s.handleChatModels)
	r.Get("/audio_models", s.handleAudioModels)
	r.Get("/statusAitalkmaster", s.handleStatus)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.NotFound(writeBlocked)
	r.MethodNotAllowed(writeBlocked)
	return r
}
