// SPDX-License-Identifier: MIT

// Package config loads and validates the aitalkmaster YAML configuration.
package config

import (
	"fmt"
	"strings"
)

// Client modes for chat and audio back-ends.
const (
	ModeHosted     = "hosted"
	ModeSelfHosted = "self-hosted"
)

// UsageConfig controls the per-IP weighted rate limiter.
type UsageConfig struct {
	UseRateLimit           bool    `yaml:"use_rate_limit"`
	RateLimitXForwardedFor bool    `yaml:"rate_limit_xForwardedFor"`
	RateLimitPerDay        float64 `yaml:"rate_limit_per_day"`
	AudioCostPerSecond     float64 `yaml:"audio_cost_per_second"`
}

// ServerConfig holds the HTTP server and worker pool settings.
type ServerConfig struct {
	Host            string      `yaml:"host"`
	Port            int         `yaml:"port"`
	LogFile         string      `yaml:"log_file"`
	NumWorkers      int         `yaml:"num_workers"`
	NumAudioWorkers int         `yaml:"num_audio_workers"`
	QueueSize       int         `yaml:"queue_size"`
	Usage           UsageConfig `yaml:"usage"`
}

// ChatClientConfig selects and parameterises the chat (LLM) back-end.
type ChatClientConfig struct {
	Mode          string   `yaml:"mode"` // hosted | self-hosted
	KeyFile       string   `yaml:"key_file"`
	BaseURL       string   `yaml:"base_url"`
	DefaultModel  string   `yaml:"default_model"`
	AllowedModels []string `yaml:"allowed_models"`
}

// AudioClientConfig selects and parameterises the TTS back-end. The whole
// section is optional; without it the service runs text-only.
type AudioClientConfig struct {
	Mode          string   `yaml:"mode"`
	KeyFile       string   `yaml:"key_file"`
	BaseURL       string   `yaml:"base_url"`
	DefaultVoice  string   `yaml:"default_voice"`
	DefaultModel  string   `yaml:"default_model"`
	AllowedVoices []string `yaml:"allowed_voices"`
	AllowedModels []string `yaml:"allowed_models"`
}

// BroadcasterConfig points at the external mixer's plain-text control channel.
type BroadcasterConfig struct {
	Host     string `yaml:"host"`
	HTTPPort int    `yaml:"http_port"`
}

// AdminStatsConfig points at the icecast-style admin statistics endpoint.
type AdminStatsConfig struct {
	Host                 string `yaml:"host"`
	Port                 int    `yaml:"port"`
	AdminUser            string `yaml:"admin_user"`
	AdminPassword        string `yaml:"admin_password"`
	StreamEndpointPrefix string `yaml:"stream_endpoint_prefix"`
}

// AitalkmasterConfig holds session lifecycle settings.
type AitalkmasterConfig struct {
	JoinKeyKeepAliveList []string `yaml:"join_key_keep_alive_list"`
}

// PathsConfig holds the on-disk audio layout roots.
type PathsConfig struct {
	AudioDir         string `yaml:"audio_dir"`
	FallbackAudioDir string `yaml:"fallback_audio_dir"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	Server       ServerConfig       `yaml:"server"`
	ChatClient   ChatClientConfig   `yaml:"chat_client"`
	AudioClient  *AudioClientConfig `yaml:"audio_client"`
	Broadcaster  *BroadcasterConfig `yaml:"broadcaster_control"`
	AdminStats   *AdminStatsConfig  `yaml:"admin_stats"`
	Aitalkmaster AitalkmasterConfig `yaml:"aitalkmaster"`
	Paths        PathsConfig        `yaml:"paths"`
}

// AudioConfigured reports whether a TTS back-end is available.
func (c *AppConfig) AudioConfigured() bool {
	return c.AudioClient != nil
}

func validMode(mode string) bool {
	return mode == ModeHosted || mode == ModeSelfHosted
}

// Validate checks cross-field constraints. Failures here are fatal at startup.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.NumWorkers < 1 {
		return fmt.Errorf("server.num_workers must be >= 1, got %d", c.Server.NumWorkers)
	}
	if c.Server.NumAudioWorkers < 1 {
		return fmt.Errorf("server.num_audio_workers must be >= 1, got %d", c.Server.NumAudioWorkers)
	}
	if c.Server.Usage.UseRateLimit && c.Server.Usage.RateLimitPerDay <= 0 {
		return fmt.Errorf("server.usage.rate_limit_per_day must be > 0 when rate limiting is enabled")
	}
	if !validMode(c.ChatClient.Mode) {
		return fmt.Errorf("chat_client.mode must be %q or %q, got %q", ModeHosted, ModeSelfHosted, c.ChatClient.Mode)
	}
	if c.ChatClient.DefaultModel == "" {
		return fmt.Errorf("chat_client.default_model must not be empty")
	}
	if !contains(c.ChatClient.AllowedModels, c.ChatClient.DefaultModel) {
		return fmt.Errorf("chat_client.default_model %q is not in allowed_models", c.ChatClient.DefaultModel)
	}
	if c.ChatClient.Mode == ModeSelfHosted && c.ChatClient.BaseURL == "" {
		return fmt.Errorf("chat_client.base_url required in self-hosted mode")
	}
	if ac := c.AudioClient; ac != nil {
		if !validMode(ac.Mode) {
			return fmt.Errorf("audio_client.mode must be %q or %q, got %q", ModeHosted, ModeSelfHosted, ac.Mode)
		}
		if !contains(ac.AllowedModels, ac.DefaultModel) {
			return fmt.Errorf("audio_client.default_model %q is not in allowed_models", ac.DefaultModel)
		}
		if !contains(ac.AllowedVoices, ac.DefaultVoice) {
			return fmt.Errorf("audio_client.default_voice %q is not in allowed_voices", ac.DefaultVoice)
		}
		if ac.Mode == ModeSelfHosted && ac.BaseURL == "" {
			return fmt.Errorf("audio_client.base_url required in self-hosted mode")
		}
	}
	for _, key := range c.Aitalkmaster.JoinKeyKeepAliveList {
		if strings.ContainsAny(key, " \t\n") {
			return fmt.Errorf("aitalkmaster.join_key_keep_alive_list entry %q contains whitespace", key)
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
