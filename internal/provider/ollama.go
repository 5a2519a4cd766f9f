// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/aitalkmaster/aitalkmaster/internal/log"
	"github.com/aitalkmaster/aitalkmaster/internal/session"
)

// OllamaChat implements Chat against a self-hosted Ollama server.
type OllamaChat struct {
	client *api.Client
}

// NewOllamaChat builds a self-hosted chat client for the given base URL.
func NewOllamaChat(baseURL string) (*OllamaChat, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama base url: %w", err)
	}
	return &OllamaChat{client: api.NewClient(u, http.DefaultClient)}, nil
}

// Dialog implements Chat. Responses are collected unstreamed; the caller
// needs the full text before audio rendering anyway.
func (c *OllamaChat) Dialog(ctx context.Context, model, system string, dialog []session.DialogMessage, options map[string]any) (Reply, error) {
	messages := make([]api.Message, 0, len(dialog)+1)
	if system != "" {
		messages = append(messages, api.Message{Role: session.RoleSystem, Content: system})
	}
	for _, m := range dialog {
		messages = append(messages, api.Message{Role: m.Role, Content: m.Content})
	}

	stream := false
	var reply Reply
	err := c.client.Chat(ctx, &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}, func(resp api.ChatResponse) error {
		reply.Text = resp.Message.Content
		reply.Tokens = resp.EvalCount
		return nil
	})
	if err != nil {
		return Reply{}, fmt.Errorf("ollama chat: %w", err)
	}
	llmLog := log.LLM()
	llmLog.Debug().
		Str(log.FieldEvent, "llm.dialog").
		Str(log.FieldModel, model).
		Int("dialog_len", len(dialog)).
		Int("tokens", reply.Tokens).
		Msg(reply.Text)
	return reply, nil
}

// Generate implements Chat via the completion endpoint.
func (c *OllamaChat) Generate(ctx context.Context, model, system, prompt string, options map[string]any) (Reply, error) {
	stream := false
	var reply Reply
	err := c.client.Generate(ctx, &api.GenerateRequest{
		Model:   model,
		Prompt:  prompt,
		System:  system,
		Stream:  &stream,
		Options: options,
	}, func(resp api.GenerateResponse) error {
		reply.Text = resp.Response
		reply.Tokens = resp.EvalCount
		return nil
	})
	if err != nil {
		return Reply{}, fmt.Errorf("ollama generate: %w", err)
	}
	return reply, nil
}

// Models implements Chat by listing the locally pulled models.
func (c *OllamaChat) Models(ctx context.Context) ([]string, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ollama list models: %w", err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
