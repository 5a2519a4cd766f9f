// SPDX-License-Identifier: MIT

// Package pipeline turns queued requests into session mutations, provider
// calls and audio files. Processors run on queue workers; they mutate
// session state under the session's own lock and perform provider I/O on a
// dialog snapshot taken outside it.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aitalkmaster/aitalkmaster/internal/audio"
	"github.com/aitalkmaster/aitalkmaster/internal/audiofs"
	"github.com/aitalkmaster/aitalkmaster/internal/broadcast"
	"github.com/aitalkmaster/aitalkmaster/internal/log"
	"github.com/aitalkmaster/aitalkmaster/internal/provider"
	"github.com/aitalkmaster/aitalkmaster/internal/ratelimit"
	"github.com/aitalkmaster/aitalkmaster/internal/session"
	"github.com/aitalkmaster/aitalkmaster/internal/translate"
)

// Pipeline holds the collaborators every processor needs. tts and limiter
// may be nil: no audio client means text-only responses, no limiter means
// unmetered usage.
type Pipeline struct {
	chat          provider.Chat
	tts           provider.Speech
	store         *session.Store
	conversations *session.ConversationRing
	generations   *session.GenerationCache
	limiter       *ratelimit.Limiter
	layout        *audiofs.Layout
	delivery      broadcast.Delivery
	audioCost     float64
}

// New wires a pipeline.
func New(
	chat provider.Chat,
	tts provider.Speech,
	store *session.Store,
	conversations *session.ConversationRing,
	generations *session.GenerationCache,
	limiter *ratelimit.Limiter,
	layout *audiofs.Layout,
	delivery broadcast.Delivery,
	audioCostPerSecond float64,
) *Pipeline {
	return &Pipeline{
		chat:          chat,
		tts:           tts,
		store:         store,
		conversations: conversations,
		generations:   generations,
		limiter:       limiter,
		layout:        layout,
		delivery:      delivery,
		audioCost:     audioCostPerSecond,
	}
}

func (p *Pipeline) charge(clientIP string, weight float64) {
	if p.limiter != nil && clientIP != "" {
		p.limiter.Increment(clientIP, weight)
	}
}

// StripCharacterPrefix removes a leading "<character>:" echo some models
// prepend despite instructions. Matching is case-insensitive.
func StripCharacterPrefix(text, character string) string {
	if character == "" {
		return text
	}
	lower := strings.ToLower(text)
	prefix := strings.ToLower(character) + ":"
	if !strings.HasPrefix(lower, prefix) {
		return text
	}
	return strings.TrimPrefix(text[len(prefix):], " ")
}

// AitPostRequest is the payload of a dialog session message.
type AitPostRequest struct {
	JoinKey            string         `json:"join_key"`
	MessageID          string         `json:"message_id"`
	Message            string         `json:"message"`
	Username           string         `json:"username"`
	CharacterName      string         `json:"charactername"`
	SystemInstructions string         `json:"system_instructions"`
	Model              string         `json:"model"`
	Options            map[string]any `json:"options"`
	AudioVoice         string         `json:"audio_voice"`
	AudioModel         string         `json:"audio_model"`
	AudioDescription   string         `json:"audio_description"`
}

// ProcessAitPost handles one dialog session message: store the user line,
// generate the character's reply, render its audio and hand the file to
// delivery. The sequence number is allocated only after the chat call
// succeeds so failed jobs do not burn numbers.
func (p *Pipeline) ProcessAitPost(ctx context.Context, req AitPostRequest, clientIP string) error {
	sess := p.store.GetOrCreate(req.JoinKey)
	if err := sess.AddUserMessage(req.Message, req.Username, req.MessageID); err != nil {
		return err
	}

	reply, err := p.chat.Dialog(ctx, req.Model, req.SystemInstructions, sess.Dialog(), req.Options)
	if err != nil {
		return fmt.Errorf("chat for %s/%s: %w", req.JoinKey, req.MessageID, err)
	}
	text := StripCharacterPrefix(reply.Text, req.CharacterName)
	p.charge(clientIP, float64(reply.Tokens))

	if p.tts == nil {
		sess.AddResponse(text, req.CharacterName, req.MessageID, "")
		return nil
	}

	filename := audiofs.BuildFilename(
		p.layout.ActiveDir(req.JoinKey), sess.NextSequence(),
		req.CharacterName, req.MessageID, req.AudioVoice)
	sess.AddResponse(text, req.CharacterName, req.MessageID, filename)

	err = p.synthesize(ctx, filename, text, req.AudioVoice, req.AudioModel, req.AudioDescription, audio.Tags{
		Title:  req.JoinKey,
		Artist: "AIT " + req.CharacterName,
		Album:  req.JoinKey,
	}, clientIP)
	if err != nil {
		return fmt.Errorf("audio for %s/%s: %w", req.JoinKey, req.MessageID, err)
	}
	sess.SetAudioReady(req.MessageID, time.Now())
	p.delivery.FileReady(ctx, req.JoinKey, filename)

	logger := log.WithComponent("pipeline")
	logger.Info().
		Str(log.FieldEvent, "pipeline.ait_done").
		Str(log.FieldJoinKey, req.JoinKey).
		Str(log.FieldMessageID, req.MessageID).
		Str(log.FieldPath, filename).
		Msg("dialog message processed")
	return nil
}

// synthesize renders text to a tagged 192 kbit/s MP3 on disk and charges
// the decoded duration to the rate limiter.
func (p *Pipeline) synthesize(ctx context.Context, filename, text, voice, model, instructions string, tags audio.Tags, clientIP string) error {
	raw, err := p.tts.Speak(ctx, provider.SpeechRequest{
		Model:        model,
		Voice:        voice,
		Input:        text,
		Instructions: instructions,
	})
	if err != nil {
		return fmt.Errorf("tts: %w", err)
	}
	encoded, duration, err := audio.Reencode(raw)
	if err != nil {
		return fmt.Errorf("reencode: %w", err)
	}
	if err := audiofs.WriteFile(filename, encoded); err != nil {
		return err
	}
	if err := audio.WriteTags(filename, tags); err != nil {
		return fmt.Errorf("tag: %w", err)
	}
	p.charge(clientIP, duration*p.audioCost)
	return nil
}

// GenerateAudioRequest is the payload of a direct TTS request against a
// session's stream.
type GenerateAudioRequest struct {
	JoinKey          string `json:"join_key"`
	MessageID        string `json:"message_id"`
	Message          string `json:"message"`
	Username         string `json:"username"`
	AudioVoice       string `json:"audio_voice"`
	AudioModel       string `json:"audio_model"`
	AudioDescription string `json:"audio_description"`
}

// ProcessGenerateAudio synthesizes arbitrary text into the session's stream
// without touching the dialog. Returns the generated filename.
func (p *Pipeline) ProcessGenerateAudio(ctx context.Context, req GenerateAudioRequest, clientIP string) (string, error) {
	if p.tts == nil {
		return "", fmt.Errorf("no audio client configured")
	}
	sess := p.store.GetOrCreate(req.JoinKey)

	filename := audiofs.BuildFilename(
		p.layout.ActiveDir(req.JoinKey), sess.NextSequence(),
		req.Username, req.MessageID, req.AudioVoice)

	err := p.synthesize(ctx, filename, req.Message, req.AudioVoice, req.AudioModel, req.AudioDescription, audio.Tags{
		Title:  req.JoinKey,
		Artist: req.Username,
		Album:  req.JoinKey,
	}, clientIP)
	if err != nil {
		return "", fmt.Errorf("audio for %s/%s: %w", req.JoinKey, req.MessageID, err)
	}
	p.delivery.FileReady(ctx, req.JoinKey, filename)
	return filename, nil
}

// ConversationPostRequest is the payload of a conversation turn.
type ConversationPostRequest struct {
	ConversationKey string `json:"conversation_key"`
	MessageID       string `json:"message_id"`
	Message         string `json:"message"`
}

// ProcessConversationPost appends a turn to a conversation and generates
// the reply with the model and options fixed at conversation start.
func (p *Pipeline) ProcessConversationPost(ctx context.Context, req ConversationPostRequest, clientIP string) error {
	conv, ok := p.conversations.Get(req.ConversationKey)
	if !ok {
		return fmt.Errorf("unknown conversation %s", req.ConversationKey)
	}
	conv.AddPrompt(req.Message, req.MessageID)

	reply, err := p.chat.Dialog(ctx, conv.Model, conv.SystemInstructions, conv.Dialog(), conv.Options)
	if err != nil {
		return fmt.Errorf("chat for conversation %s: %w", req.ConversationKey, err)
	}
	p.charge(clientIP, float64(reply.Tokens))
	conv.AddResponse(reply.Text, req.MessageID)
	return nil
}

// GenerateRequest is the payload of a stateless single-shot generation.
type GenerateRequest struct {
	MessageID          string         `json:"message_id"`
	Message            string         `json:"message"`
	SystemInstructions string         `json:"system_instructions"`
	Model              string         `json:"model"`
	Options            map[string]any `json:"options"`
}

// ProcessGenerate runs a single-shot completion and caches the result under
// its message id for polling.
func (p *Pipeline) ProcessGenerate(ctx context.Context, req GenerateRequest, clientIP string) error {
	reply, err := p.chat.Generate(ctx, req.Model, req.SystemInstructions, req.Message, req.Options)
	if err != nil {
		return fmt.Errorf("generate %s: %w", req.MessageID, err)
	}
	p.charge(clientIP, float64(reply.Tokens))
	p.generations.Put(session.Generation{
		MessageID:          req.MessageID,
		Input:              req.Message,
		SystemInstructions: req.SystemInstructions,
		Model:              req.Model,
		Options:            req.Options,
		ResponseText:       reply.Text,
	})
	return nil
}

// TranslationRequest is the payload of a translate-and-speak request.
type TranslationRequest struct {
	SessionKey     string `json:"session_key"`
	MessageID      string `json:"message_id"`
	Message        string `json:"message"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	Model          string `json:"model"`
	AudioVoice     string `json:"audio_voice"`
	AudioModel     string `json:"audio_model"`
}

// ProcessTranslation translates a message, stores the result in its
// translation session and renders the translated text onto the session's
// translation stream.
func (p *Pipeline) ProcessTranslation(ctx context.Context, req TranslationRequest, clientIP string) error {
	ts := p.store.GetOrCreateTranslation(req.SessionKey, func(key string) {
		p.delivery.TranslationStarted(ctx, key)
	})
	if ts.ContainsMessageID(req.MessageID) {
		return fmt.Errorf("duplicate translation message id %s in session %s", req.MessageID, req.SessionKey)
	}

	prompt := translate.TranslationInstructions(req.SourceLanguage, req.TargetLanguage)
	reply, err := p.chat.Generate(ctx, req.Model, prompt, req.Message, nil)
	if err != nil {
		return fmt.Errorf("translation %s/%s: %w", req.SessionKey, req.MessageID, err)
	}
	translated := strings.TrimSpace(reply.Text)
	p.charge(clientIP, float64(reply.Tokens))

	if err := ts.Add(session.TranslationResult{
		MessageID:       req.MessageID,
		OriginalMessage: req.Message,
		TranslatedText:  translated,
		SourceLanguage:  req.SourceLanguage,
		TargetLanguage:  req.TargetLanguage,
	}); err != nil {
		return err
	}

	if p.tts == nil {
		return nil
	}
	filename := audiofs.BuildFilename(
		p.layout.TranslationActiveDir(req.SessionKey), ts.NextSequence(),
		"translation", req.MessageID, req.AudioVoice)
	err = p.synthesize(ctx, filename, translated, req.AudioVoice, req.AudioModel,
		translate.AudioInstructions(req.TargetLanguage), audio.Tags{
			Title:  req.SessionKey,
			Artist: "Translation",
			Album:  req.SessionKey,
		}, clientIP)
	if err != nil {
		return fmt.Errorf("translation audio %s/%s: %w", req.SessionKey, req.MessageID, err)
	}
	p.delivery.TranslationFileReady(ctx, req.SessionKey, filename)
	return nil
}
