// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  host: 127.0.0.1
  port: 7999
  num_workers: 4
  num_audio_workers: 2
  usage:
    use_rate_limit: true
    rate_limit_xForwardedFor: false
    rate_limit_per_day: 1000
    audio_cost_per_second: 100
chat_client:
  mode: self-hosted
  base_url: http://localhost:11434
  default_model: llama3
  allowed_models: [llama3, mistral]
audio_client:
  mode: hosted
  key_file: openai_key.txt
  default_voice: alloy
  default_model: tts-1
  allowed_voices: [alloy, nova]
  allowed_models: [tts-1, tts-1-hd]
broadcaster_control:
  host: localhost
  http_port: 8080
admin_stats:
  host: localhost
  port: 8000
  admin_user: admin
  admin_password: hackme
  stream_endpoint_prefix: http://stream.example/stream/
aitalkmaster:
  join_key_keep_alive_list: [lobby]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := NewLoader(writeConfig(t, sampleConfig)).Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 7999, cfg.Server.Port)
	assert.True(t, cfg.Server.Usage.UseRateLimit)
	assert.Equal(t, float64(1000), cfg.Server.Usage.RateLimitPerDay)
	assert.Equal(t, ModeSelfHosted, cfg.ChatClient.Mode)
	require.NotNil(t, cfg.AudioClient)
	assert.Equal(t, "alloy", cfg.AudioClient.DefaultVoice)
	require.NotNil(t, cfg.Broadcaster)
	assert.Equal(t, 8080, cfg.Broadcaster.HTTPPort)
	require.NotNil(t, cfg.AdminStats)
	assert.Equal(t, "hackme", cfg.AdminStats.AdminPassword)
	assert.Equal(t, []string{"lobby"}, cfg.Aitalkmaster.JoinKeyKeepAliveList)
	assert.True(t, cfg.AudioConfigured())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yml")).Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := NewLoader(writeConfig(t, sampleConfig+"\nbogus_section:\n  x: 1\n")).Load()
	require.Error(t, err)
}

func TestValidateDefaultModelMustBeAllowed(t *testing.T) {
	cfg, err := NewLoader(writeConfig(t, sampleConfig)).Load()
	require.NoError(t, err)

	cfg.ChatClient.DefaultModel = "not-allowed"
	require.Error(t, cfg.Validate())
}

func TestValidateKeepAliveWhitespace(t *testing.T) {
	cfg, err := NewLoader(writeConfig(t, sampleConfig)).Load()
	require.NoError(t, err)

	cfg.Aitalkmaster.JoinKeyKeepAliveList = []string{"has space"}
	require.Error(t, cfg.Validate())
}

func TestRegistrySnapshot(t *testing.T) {
	cfg, err := NewLoader(writeConfig(t, sampleConfig)).Load()
	require.NoError(t, err)

	reg := NewRegistry(&cfg)
	snap := reg.Snapshot()
	assert.True(t, snap.ChatModelAllowed("llama3"))
	assert.False(t, snap.ChatModelAllowed("gpt-4o"))
	assert.True(t, snap.AudioVoiceAllowed("nova"))
	assert.Equal(t, "tts-1", snap.DefaultAudioModel)

	cfg.ChatClient.AllowedModels = []string{"gpt-4o"}
	cfg.ChatClient.DefaultModel = "gpt-4o"
	reg.Update(&cfg)
	assert.True(t, reg.Snapshot().ChatModelAllowed("gpt-4o"))
	// Old snapshot is unaffected.
	assert.True(t, snap.ChatModelAllowed("llama3"))
}
