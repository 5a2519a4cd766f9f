// SPDX-License-Identifier: MIT

// Package app assembles the aitalkmaster service from its components and
// owns the process lifecycle: startup validation, serving, graceful drain.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aitalkmaster/aitalkmaster/internal/api"
	"github.com/aitalkmaster/aitalkmaster/internal/audiofs"
	"github.com/aitalkmaster/aitalkmaster/internal/broadcast"
	"github.com/aitalkmaster/aitalkmaster/internal/config"
	"github.com/aitalkmaster/aitalkmaster/internal/log"
	"github.com/aitalkmaster/aitalkmaster/internal/pipeline"
	"github.com/aitalkmaster/aitalkmaster/internal/provider"
	"github.com/aitalkmaster/aitalkmaster/internal/queue"
	"github.com/aitalkmaster/aitalkmaster/internal/ratelimit"
	"github.com/aitalkmaster/aitalkmaster/internal/reaper"
	"github.com/aitalkmaster/aitalkmaster/internal/session"
)

const shutdownTimeout = 15 * time.Second

// App is the fully wired service.
type App struct {
	cfg        config.AppConfig
	configPath string

	chat     provider.Chat
	tts      provider.Speech
	store    *session.Store
	registry *config.Registry
	messages *queue.Pool
	audio    *queue.Pool
	reaper   *reaper.Reaper
	delivery broadcast.Delivery
	handler  http.Handler
}

// New builds the service from a validated configuration. The broadcaster
// section decides the delivery mode: configured means external mixer,
// absent means direct HTTP streaming. Provider clients are lazy; the first
// use builds them, which for this process is the startup catalog check.
func New(cfg config.AppConfig, configPath string) (*App, error) {
	chat := provider.NewLazyChat(cfg.ChatClient)
	var tts provider.Speech
	if cfg.AudioClient != nil {
		tts = provider.NewLazySpeech(*cfg.AudioClient)
	}

	layout := audiofs.NewLayout(cfg.Paths.AudioDir)

	var delivery broadcast.Delivery = broadcast.Noop{}
	if cfg.Broadcaster != nil {
		delivery = broadcast.NewControl(*cfg.Broadcaster)
	}

	store := session.NewStore(session.Hooks{
		OnStart: func(joinKey string) {
			delivery.SessionStarted(context.Background(), joinKey)
		},
		OnReset: func(joinKey string) {
			if err := layout.Archive(joinKey); err != nil {
				logger := log.WithComponent("app")
				logger.Warn().Err(err).
					Str(log.FieldEvent, "app.archive_failed").
					Str(log.FieldJoinKey, joinKey).
					Msg("could not archive session audio")
			}
		},
	})

	var limiter *ratelimit.Limiter
	if cfg.Server.Usage.UseRateLimit {
		limiter = ratelimit.New(cfg.Server.Usage.RateLimitPerDay)
	}

	conversations := session.NewConversationRing(session.DefaultConversationCap)
	generations := session.NewGenerationCache(session.DefaultGenerationCap)

	pipe := pipeline.New(chat, tts, store, conversations, generations,
		limiter, layout, delivery, cfg.Server.Usage.AudioCostPerSecond)

	messages := queue.NewPool("messages", cfg.Server.NumWorkers, cfg.Server.QueueSize)
	audio := queue.NewPool("audio", cfg.Server.NumAudioWorkers, cfg.Server.QueueSize)

	var streamer *broadcast.Streamer
	if cfg.Broadcaster == nil {
		streamer = broadcast.NewStreamer(store, cfg.Paths.FallbackAudioDir)
	}

	var stats reaper.StreamStats
	var streamPrefix, translationPrefix string
	if cfg.AdminStats != nil {
		stats = broadcast.NewStats(*cfg.AdminStats)
		streamPrefix = cfg.AdminStats.StreamEndpointPrefix
		if streamPrefix != "" {
			translationPrefix = streamPrefix + "translation_"
		}
	}

	registry := config.NewRegistry(&cfg)
	srv := api.New(api.Deps{
		Registry:                   registry,
		Chat:                       chat,
		Pipeline:                   pipe,
		Store:                      store,
		Conversations:              conversations,
		Generations:                generations,
		Limiter:                    limiter,
		Messages:                   messages,
		Audio:                      audio,
		Streamer:                   streamer,
		StreamURLPrefix:            streamPrefix,
		TranslationStreamURLPrefix: translationPrefix,
		UseForwardedFor:            cfg.Server.Usage.RateLimitXForwardedFor,
	})

	return &App{
		cfg:        cfg,
		configPath: configPath,
		chat:       chat,
		tts:        tts,
		store:      store,
		registry:   registry,
		messages:   messages,
		audio:      audio,
		reaper:     reaper.New(store, layout, delivery, stats, cfg.Aitalkmaster.JoinKeyKeepAliveList),
		delivery:   delivery,
		handler:    srv.Routes(),
	}, nil
}

// validateCatalog intersects the configured models and voices with the
// providers' live catalogs. Any mismatch is a fatal configuration error;
// the process must not serve requests it would reject or misroute.
func (a *App) validateCatalog(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	live, err := a.chat.Models(ctx)
	if err != nil {
		return fmt.Errorf("fetch model catalog: %w", err)
	}
	if err := requireAll(live, a.cfg.ChatClient.DefaultModel, a.cfg.ChatClient.AllowedModels, "chat model"); err != nil {
		return err
	}

	if a.tts != nil {
		ac := a.cfg.AudioClient
		audioModels, err := a.tts.Models(ctx)
		if err != nil {
			return fmt.Errorf("fetch audio model catalog: %w", err)
		}
		if err := requireAll(audioModels, ac.DefaultModel, ac.AllowedModels, "audio model"); err != nil {
			return err
		}
		voices, err := a.tts.Voices(ctx)
		if err != nil {
			return fmt.Errorf("fetch voice catalog: %w", err)
		}
		if err := requireAll(voices, ac.DefaultVoice, ac.AllowedVoices, "voice"); err != nil {
			return err
		}
	}

	logger := log.WithComponent("app")
	logger.Info().
		Str(log.FieldEvent, "app.catalog_validated").
		Int("catalog_size", len(live)).
		Msg("provider catalogs validated")
	return nil
}

// requireAll checks that the default and every allowed entry appear in the
// provider's catalog.
func requireAll(catalog []string, def string, allowed []string, what string) error {
	have := make(map[string]struct{}, len(catalog))
	for _, c := range catalog {
		have[c] = struct{}{}
	}
	if _, ok := have[def]; !ok {
		return fmt.Errorf("default %s %q is not served by the provider", what, def)
	}
	for _, m := range allowed {
		if _, ok := have[m]; !ok {
			return fmt.Errorf("allowed %s %q is not served by the provider", what, m)
		}
	}
	return nil
}

// Run starts the HTTP server, the worker pools, the reaper and the config
// watcher, then blocks until ctx is cancelled and everything has drained.
func (a *App) Run(ctx context.Context) error {
	if err := a.validateCatalog(ctx); err != nil {
		return err
	}

	a.messages.Start()
	a.audio.Start()

	addr := net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port))
	httpServer := &http.Server{
		Addr:    addr,
		Handler: a.handler,
		// No WriteTimeout: the direct MP3 stream writes for the lifetime
		// of the listener connection.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger := log.WithComponent("app")
	logger.Info().
		Str(log.FieldEvent, "app.started").
		Str("addr", addr).
		Int("workers", a.cfg.Server.NumWorkers).
		Int("audio_workers", a.cfg.Server.NumAudioWorkers).
		Msg("aitalkmaster listening")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		a.reaper.Run(ctx)
		return nil
	})

	g.Go(func() error {
		err := config.Watch(ctx, a.configPath, a.registry)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	err := g.Wait()

	a.drain()
	return err
}

// drain stops the worker pools, then retires every live session so audio is
// archived and broadcaster mounts are stopped before the process exits.
func (a *App) drain() {
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.messages.Stop(drainCtx)
	a.audio.Stop(drainCtx)

	for _, joinKey := range a.store.Keys() {
		a.delivery.SessionStopped(drainCtx, joinKey)
		a.store.Reset(joinKey)
	}
	logger := log.WithComponent("app")
	logger.Info().
		Str(log.FieldEvent, "app.stopped").
		Msg("aitalkmaster stopped")
}
