// SPDX-License-Identifier: MIT

package broadcast

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aitalkmaster/aitalkmaster/internal/config"
	"github.com/aitalkmaster/aitalkmaster/internal/log"
)

const controlTimeout = 5 * time.Second

var controlCommands = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aitalkmaster_broadcast_commands_total",
	Help: "Commands sent to the stream mixer, by endpoint and outcome.",
}, []string{"endpoint", "outcome"})

// Control implements Delivery against the stream mixer's plain-text HTTP
// command endpoint. A failed command is logged and swallowed: the text side
// of a session must keep working while the mixer is down.
type Control struct {
	baseURL string
	hc      *http.Client
}

// NewControl builds a mixer client from the broadcaster config.
func NewControl(cfg config.BroadcasterConfig) *Control {
	return &Control{
		baseURL: fmt.Sprintf("http://%s:%d", cfg.Host, cfg.HTTPPort),
		hc:      &http.Client{Timeout: controlTimeout},
	}
}

func (c *Control) send(ctx context.Context, endpoint, data string) {
	logger := log.WithComponent("broadcast")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(data))
	if err != nil {
		controlCommands.WithLabelValues(endpoint, "error").Inc()
		logger.Error().Err(err).Str(log.FieldEvent, "broadcast.command_failed").Str("endpoint", endpoint).Msg("build mixer request")
		return
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.hc.Do(req)
	if err != nil {
		controlCommands.WithLabelValues(endpoint, "error").Inc()
		logger.Warn().Err(err).
			Str(log.FieldEvent, "broadcast.command_failed").
			Str("endpoint", endpoint).
			Msg("mixer unreachable")
		return
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		controlCommands.WithLabelValues(endpoint, "rejected").Inc()
		logger.Warn().
			Str(log.FieldEvent, "broadcast.command_rejected").
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("response", strings.TrimSpace(string(body))).
			Msg("mixer rejected command")
		return
	}
	controlCommands.WithLabelValues(endpoint, "ok").Inc()
	logger.Debug().
		Str(log.FieldEvent, "broadcast.command_ok").
		Str("endpoint", endpoint).
		Str("response", strings.TrimSpace(string(body))).
		Msg("mixer command sent")
}

// SessionStarted implements Delivery.
func (c *Control) SessionStarted(ctx context.Context, joinKey string) {
	c.send(ctx, "/start_aitalkmaster_stream", joinKey)
}

// SessionStopped implements Delivery.
func (c *Control) SessionStopped(ctx context.Context, joinKey string) {
	c.send(ctx, "/stop_aitalkmaster_stream", joinKey)
}

// FileReady implements Delivery.
func (c *Control) FileReady(ctx context.Context, joinKey, path string) {
	c.send(ctx, "/queue_aitalkmaster_audio", joinKey+"::"+path)
}

// TranslationStarted implements Delivery.
func (c *Control) TranslationStarted(ctx context.Context, sessionKey string) {
	c.send(ctx, "/start_translation_stream", "translation::"+sessionKey)
}

// TranslationStopped implements Delivery.
func (c *Control) TranslationStopped(ctx context.Context, sessionKey string) {
	c.send(ctx, "/stop_translation_stream", "translation::"+sessionKey)
}

// TranslationFileReady implements Delivery.
func (c *Control) TranslationFileReady(ctx context.Context, sessionKey, path string) {
	c.send(ctx, "/queue_translation_audio", "translation::"+sessionKey+"::"+path)
}
