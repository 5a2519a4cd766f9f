// SPDX-License-Identifier: MIT

// Package provider wraps the hosted and self-hosted AI back-ends behind two
// small interfaces: Chat for text generation and Speech for text-to-speech.
// The hosted mode talks to the OpenAI API; the self-hosted mode talks to an
// Ollama server for chat and a Kokoro server (OpenAI-compatible) for audio.
package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/aitalkmaster/aitalkmaster/internal/config"
	"github.com/aitalkmaster/aitalkmaster/internal/session"
)

// KokoroKey is the placeholder API key a Kokoro server expects.
const KokoroKey = "kokoro"

// Reply is a completed text generation. Tokens carries the back-end's usage
// figure (total tokens hosted, eval count self-hosted) for rate charging.
type Reply struct {
	Text   string
	Tokens int
}

// Chat produces text from a dialog or a single prompt.
type Chat interface {
	// Dialog runs a multi-turn chat completion. The system instructions are
	// prepended to the dialog snapshot.
	Dialog(ctx context.Context, model, system string, dialog []session.DialogMessage, options map[string]any) (Reply, error)
	// Generate runs a single-shot completion without conversation state.
	Generate(ctx context.Context, model, system, prompt string, options map[string]any) (Reply, error)
	// Models lists the model names the back-end currently serves.
	Models(ctx context.Context) ([]string, error)
}

// SpeechRequest describes one TTS rendering.
type SpeechRequest struct {
	Model        string
	Voice        string
	Input        string
	Instructions string
}

// Speech renders text to MP3 audio and exposes the back-end's catalogs for
// startup validation.
type Speech interface {
	Speak(ctx context.Context, req SpeechRequest) ([]byte, error)
	// Voices lists the voice names the back-end accepts.
	Voices(ctx context.Context) ([]string, error)
	// Models lists the model names the back-end currently serves.
	Models(ctx context.Context) ([]string, error)
}

// NewChat builds the Chat client matching the configured mode.
func NewChat(cfg config.ChatClientConfig) (Chat, error) {
	switch cfg.Mode {
	case config.ModeHosted:
		key, err := ReadKey(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("chat key: %w", err)
		}
		return NewOpenAIChat(key, cfg.BaseURL), nil
	case config.ModeSelfHosted:
		return NewOllamaChat(cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown chat client mode %q", cfg.Mode)
	}
}

// NewSpeech builds the Speech client matching the configured mode.
func NewSpeech(cfg config.AudioClientConfig) (Speech, error) {
	switch cfg.Mode {
	case config.ModeHosted:
		key, err := ReadKey(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("audio key: %w", err)
		}
		return NewTTS(key, ""), nil
	case config.ModeSelfHosted:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("audio client: base_url required in self-hosted mode")
		}
		return NewTTS(KokoroKey, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown audio client mode %q", cfg.Mode)
	}
}

// NewLazyChat defers chat client construction, including the API key read,
// to the first call. The built client is cached for the process lifetime.
func NewLazyChat(cfg config.ChatClientConfig) Chat {
	return &lazyChat{cfg: cfg}
}

type lazyChat struct {
	cfg config.ChatClientConfig

	once sync.Once
	chat Chat
	err  error
}

func (l *lazyChat) force() (Chat, error) {
	l.once.Do(func() {
		l.chat, l.err = NewChat(l.cfg)
	})
	return l.chat, l.err
}

func (l *lazyChat) Dialog(ctx context.Context, model, system string, dialog []session.DialogMessage, options map[string]any) (Reply, error) {
	c, err := l.force()
	if err != nil {
		return Reply{}, err
	}
	return c.Dialog(ctx, model, system, dialog, options)
}

func (l *lazyChat) Generate(ctx context.Context, model, system, prompt string, options map[string]any) (Reply, error) {
	c, err := l.force()
	if err != nil {
		return Reply{}, err
	}
	return c.Generate(ctx, model, system, prompt, options)
}

func (l *lazyChat) Models(ctx context.Context) ([]string, error) {
	c, err := l.force()
	if err != nil {
		return nil, err
	}
	return c.Models(ctx)
}

// NewLazySpeech defers speech client construction to the first call, like
// NewLazyChat.
func NewLazySpeech(cfg config.AudioClientConfig) Speech {
	return &lazySpeech{cfg: cfg}
}

type lazySpeech struct {
	cfg config.AudioClientConfig

	once   sync.Once
	speech Speech
	err    error
}

func (l *lazySpeech) force() (Speech, error) {
	l.once.Do(func() {
		l.speech, l.err = NewSpeech(l.cfg)
	})
	return l.speech, l.err
}

func (l *lazySpeech) Speak(ctx context.Context, req SpeechRequest) ([]byte, error) {
	s, err := l.force()
	if err != nil {
		return nil, err
	}
	return s.Speak(ctx, req)
}

func (l *lazySpeech) Voices(ctx context.Context) ([]string, error) {
	s, err := l.force()
	if err != nil {
		return nil, err
	}
	return s.Voices(ctx)
}

func (l *lazySpeech) Models(ctx context.Context) ([]string, error) {
	s, err := l.force()
	if err != nil {
		return nil, err
	}
	return s.Models(ctx)
}
