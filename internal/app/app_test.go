// SPDX-License-Identifier: MIT

package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aitalkmaster/aitalkmaster/internal/config"
)

// fakeOllama answers the model listing of a self-hosted chat back-end.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3"}]}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

// fakeKokoro answers the model and voice catalogs of a self-hosted speech
// back-end.
func fakeKokoro(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/models":
			_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"kokoro","object":"model","created":1,"owned_by":"kokoro"}]}`))
		case "/audio/voices":
			_, _ = w.Write([]byte(`{"voices":["af_bella","af_sky"]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testConfig(t *testing.T, chatURL, audioURL string) config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	return config.AppConfig{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			NumWorkers:      1,
			NumAudioWorkers: 1,
			QueueSize:       4,
		},
		ChatClient: config.ChatClientConfig{
			Mode:          config.ModeSelfHosted,
			BaseURL:       chatURL,
			DefaultModel:  "llama3",
			AllowedModels: []string{"llama3"},
		},
		AudioClient: &config.AudioClientConfig{
			Mode:          config.ModeSelfHosted,
			BaseURL:       audioURL + "/",
			DefaultVoice:  "af_bella",
			DefaultModel:  "kokoro",
			AllowedVoices: []string{"af_bella"},
			AllowedModels: []string{"kokoro"},
		},
		Paths: config.PathsConfig{
			AudioDir:         dir,
			FallbackAudioDir: filepath.Join(dir, "fallback"),
		},
	}
}

func TestValidateCatalogAcceptsServedModelsAndVoices(t *testing.T) {
	cfg := testConfig(t, fakeOllama(t).URL, fakeKokoro(t).URL)
	a, err := New(cfg, "config.yaml")
	require.NoError(t, err)
	require.NoError(t, a.validateCatalog(context.Background()))
}

func TestValidateCatalogRejectsUnknownAllowedModel(t *testing.T) {
	cfg := testConfig(t, fakeOllama(t).URL, fakeKokoro(t).URL)
	cfg.ChatClient.AllowedModels = []string{"llama3", "ghost-model"}

	a, err := New(cfg, "config.yaml")
	require.NoError(t, err)
	err = a.validateCatalog(context.Background())
	require.ErrorContains(t, err, "ghost-model")
}

func TestValidateCatalogRejectsUnknownDefaultModel(t *testing.T) {
	cfg := testConfig(t, fakeOllama(t).URL, fakeKokoro(t).URL)
	cfg.ChatClient.DefaultModel = "missing"

	a, err := New(cfg, "config.yaml")
	require.NoError(t, err)
	err = a.validateCatalog(context.Background())
	require.ErrorContains(t, err, "missing")
}

func TestValidateCatalogRejectsUnknownVoice(t *testing.T) {
	cfg := testConfig(t, fakeOllama(t).URL, fakeKokoro(t).URL)
	cfg.AudioClient.AllowedVoices = []string{"af_bella", "nobody"}

	a, err := New(cfg, "config.yaml")
	require.NoError(t, err)
	err = a.validateCatalog(context.Background())
	require.ErrorContains(t, err, `voice "nobody"`)
}

func TestValidateCatalogRejectsUnknownAudioModel(t *testing.T) {
	cfg := testConfig(t, fakeOllama(t).URL, fakeKokoro(t).URL)
	cfg.AudioClient.DefaultModel = "tts-9000"
	cfg.AudioClient.AllowedModels = []string{"tts-9000"}

	a, err := New(cfg, "config.yaml")
	require.NoError(t, err)
	err = a.validateCatalog(context.Background())
	require.ErrorContains(t, err, "tts-9000")
}
