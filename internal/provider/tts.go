// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"fmt"
	"io"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// TTS implements Speech against any OpenAI-compatible speech endpoint. The
// hosted mode uses the real API; the self-hosted mode points the same client
// at a Kokoro server with its placeholder key.
type TTS struct {
	client oai.Client
	hosted bool
}

// NewTTS builds a speech client. baseURL is optional and overrides the
// default API endpoint.
func NewTTS(apiKey, baseURL string) *TTS {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &TTS{client: oai.NewClient(opts...), hosted: baseURL == ""}
}

// hostedVoices is the voice set of the hosted speech API, which has no
// listing endpoint.
var hostedVoices = []string{
	"alloy", "ash", "ballad", "coral", "echo", "fable",
	"onyx", "nova", "sage", "shimmer", "verse",
}

// Speak implements Speech, returning raw MP3 bytes.
func (t *TTS) Speak(ctx context.Context, req SpeechRequest) ([]byte, error) {
	params := oai.AudioSpeechNewParams{
		Model:          oai.SpeechModel(req.Model),
		Voice:          oai.AudioSpeechNewParamsVoice(req.Voice),
		Input:          req.Input,
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormatMP3,
		Speed:          oai.Float(1.0),
	}
	if req.Instructions != "" {
		params.Instructions = oai.String(req.Instructions)
	}

	resp, err := t.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("speech: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("speech read body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("speech: empty audio response")
	}
	return data, nil
}

// Voices implements Speech. Self-hosted servers list their installed voices;
// the hosted API's set is fixed.
func (t *TTS) Voices(ctx context.Context) ([]string, error) {
	if t.hosted {
		return append([]string(nil), hostedVoices...), nil
	}
	var out struct {
		Voices []string `json:"voices"`
	}
	if err := t.client.Get(ctx, "audio/voices", nil, &out); err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	return out.Voices, nil
}

// Models implements Speech by listing the endpoint's model catalog.
func (t *TTS) Models(ctx context.Context) ([]string, error) {
	var names []string
	iter := t.client.Models.ListAutoPaging(ctx)
	for iter.Next() {
		names = append(names, iter.Current().ID)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list audio models: %w", err)
	}
	return names, nil
}
