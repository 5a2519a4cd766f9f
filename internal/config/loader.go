// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading: defaults, then file, then validation.
type Loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load reads the YAML file at the loader's path, applies defaults and
// validates the result. A missing file is an error: the service cannot run
// without at least a chat back-end.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	raw, err := os.ReadFile(l.configPath)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", l.configPath, err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration baseline.
func Defaults() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            7999,
			NumWorkers:      4,
			NumAudioWorkers: 2,
			QueueSize:       256,
			Usage: UsageConfig{
				UseRateLimit:       false,
				RateLimitPerDay:    100000,
				AudioCostPerSecond: 100,
			},
		},
		ChatClient: ChatClientConfig{
			Mode:    ModeSelfHosted,
			BaseURL: "http://localhost:11434",
		},
		Paths: PathsConfig{
			AudioDir:         "generated-audio",
			FallbackAudioDir: "fallback-audio",
		},
	}
}

// applyDefaults fills zero values the YAML decode may have cleared and the
// defaults of optional sub-sections.
func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 7999
	}
	if cfg.Server.NumWorkers == 0 {
		cfg.Server.NumWorkers = 4
	}
	if cfg.Server.NumAudioWorkers == 0 {
		cfg.Server.NumAudioWorkers = 2
	}
	if cfg.Server.QueueSize == 0 {
		cfg.Server.QueueSize = 256
	}
	if cfg.Server.Usage.RateLimitPerDay == 0 {
		cfg.Server.Usage.RateLimitPerDay = 100000
	}
	if cfg.Server.Usage.AudioCostPerSecond == 0 {
		cfg.Server.Usage.AudioCostPerSecond = 100
	}
	if cfg.Paths.AudioDir == "" {
		cfg.Paths.AudioDir = "generated-audio"
	}
	if cfg.Paths.FallbackAudioDir == "" {
		cfg.Paths.FallbackAudioDir = "fallback-audio"
	}
	if ac := cfg.AudioClient; ac != nil {
		if ac.DefaultVoice == "" {
			ac.DefaultVoice = "alloy"
		}
		if ac.DefaultModel == "" {
			ac.DefaultModel = "tts-1"
		}
		if len(ac.AllowedVoices) == 0 {
			ac.AllowedVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}
		}
		if len(ac.AllowedModels) == 0 {
			ac.AllowedModels = []string{"tts-1", "tts-1-hd", "gpt-4o-mini-tts", "kokoro"}
		}
	}
	if as := cfg.AdminStats; as != nil {
		if as.Port == 0 {
			as.Port = 8000
		}
		if as.AdminUser == "" {
			as.AdminUser = "admin"
		}
	}
	if bc := cfg.Broadcaster; bc != nil && bc.HTTPPort == 0 {
		bc.HTTPPort = 8080
	}
}
