// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitalkmaster/aitalkmaster/internal/config"
	"github.com/aitalkmaster/aitalkmaster/internal/session"
)

func TestReadKey(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "key.txt")
	require.NoError(t, os.WriteFile(path, []byte("  sk-test-123\n"), 0o600))
	key, err := ReadKey(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test-123", key)

	_, err = ReadKey(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))
	_, err = ReadKey(empty)
	require.Error(t, err)
}

func TestOpenAIChatDialogParsesStructuredResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "c1", "object": "chat.completion",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"text_response\":\"Bob: hi there\"}"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer ts.Close()

	c := NewOpenAIChat("sk-test", ts.URL+"/")
	reply, err := c.Dialog(context.Background(), "gpt-4o", "be nice", []session.DialogMessage{
		{Role: session.RoleUser, Content: "Alice: hello"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bob: hi there", reply.Text)
	assert.Equal(t, 15, reply.Tokens)
}

func TestOpenAIChatModels(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[
			{"id":"gpt-4o","object":"model","created":1,"owned_by":"openai"},
			{"id":"gpt-4o-mini","object":"model","created":1,"owned_by":"openai"}]}`))
	}))
	defer ts.Close()

	c := NewOpenAIChat("sk-test", ts.URL+"/")
	models, err := c.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, models)
}

func TestTTSSpeak(t *testing.T) {
	audio := []byte("ID3fake-mp3-bytes")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audio/speech", r.URL.Path)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(audio)
	}))
	defer ts.Close()

	tts := NewTTS(KokoroKey, ts.URL+"/")
	data, err := tts.Speak(context.Background(), SpeechRequest{
		Model: "tts-1", Voice: "alloy", Input: "hello world",
	})
	require.NoError(t, err)
	assert.Equal(t, audio, data)
}

func TestOllamaChatDialog(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		// One object per line: the client reads the response as NDJSON.
		_, _ = w.Write([]byte(`{"model":"llama3","created_at":"2024-01-01T00:00:00Z","message":{"role":"assistant","content":"Bob: hello"},"done":true,"eval_count":7}` + "\n"))
	}))
	defer ts.Close()

	c, err := NewOllamaChat(ts.URL)
	require.NoError(t, err)
	reply, err := c.Dialog(context.Background(), "llama3", "be nice", []session.DialogMessage{
		{Role: session.RoleUser, Content: "Alice: hi"},
	}, map[string]any{"temperature": 0.7})
	require.NoError(t, err)
	assert.Equal(t, "Bob: hello", reply.Text)
	assert.Equal(t, 7, reply.Tokens)
}

func TestOllamaChatGenerate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3","created_at":"2024-01-01T00:00:00Z","response":"hola","done":true,"eval_count":3}` + "\n"))
	}))
	defer ts.Close()

	c, err := NewOllamaChat(ts.URL)
	require.NoError(t, err)
	reply, err := c.Generate(context.Background(), "llama3", "translate", "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "hola", reply.Text)
	assert.Equal(t, 3, reply.Tokens)
}

func TestOllamaChatModels(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3:8b"},{"name":"mistral:7b"}]}`))
	}))
	defer ts.Close()

	c, err := NewOllamaChat(ts.URL)
	require.NoError(t, err)
	models, err := c.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3:8b", "mistral:7b"}, models)
}

func TestTTSVoicesSelfHosted(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audio/voices", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"voices":["af_bella","af_sky"]}`))
	}))
	defer ts.Close()

	tts := NewTTS(KokoroKey, ts.URL+"/")
	voices, err := tts.Voices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"af_bella", "af_sky"}, voices)
}

func TestTTSVoicesHosted(t *testing.T) {
	tts := NewTTS("sk-test", "")
	voices, err := tts.Voices(context.Background())
	require.NoError(t, err)
	assert.Contains(t, voices, "alloy")
	assert.Contains(t, voices, "shimmer")
}

func TestTTSModels(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[
			{"id":"kokoro","object":"model","created":1,"owned_by":"kokoro"}]}`))
	}))
	defer ts.Close()

	tts := NewTTS(KokoroKey, ts.URL+"/")
	models, err := tts.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"kokoro"}, models)
}

func TestLazyChatDefersKeyRead(t *testing.T) {
	c := NewLazyChat(config.ChatClientConfig{
		Mode:    config.ModeHosted,
		KeyFile: filepath.Join(t.TempDir(), "missing-key.txt"),
	})

	// Construction happens on first use, so the missing key file surfaces
	// there, and the cached failure repeats on later calls.
	_, err := c.Models(context.Background())
	require.ErrorContains(t, err, "chat key")
	_, err = c.Generate(context.Background(), "m", "", "p", nil)
	require.ErrorContains(t, err, "chat key")
}

func TestLazySpeechDefersKeyRead(t *testing.T) {
	s := NewLazySpeech(config.AudioClientConfig{
		Mode:    config.ModeHosted,
		KeyFile: filepath.Join(t.TempDir(), "missing-key.txt"),
	})

	_, err := s.Voices(context.Background())
	require.ErrorContains(t, err, "audio key")
}

func TestNewChatUnknownMode(t *testing.T) {
	_, err := NewChat(config.ChatClientConfig{Mode: "weird"})
	require.Error(t, err)
}

func TestNewSpeechSelfHostedRequiresBaseURL(t *testing.T) {
	_, err := NewSpeech(config.AudioClientConfig{Mode: config.ModeSelfHosted})
	require.Error(t, err)
}
