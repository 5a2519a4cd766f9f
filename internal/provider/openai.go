// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"encoding/json"
	"fmt"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/aitalkmaster/aitalkmaster/internal/log"
	"github.com/aitalkmaster/aitalkmaster/internal/session"
)

// chatResponseSchema constrains hosted completions to a single text field so
// the model cannot wander off into markdown or role-play stage directions.
var chatResponseSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"text_response": map[string]any{"type": "string"},
	},
	"required":             []string{"text_response"},
	"additionalProperties": false,
}

type chatResponse struct {
	TextResponse string `json:"text_response"`
}

// OpenAIChat implements Chat against the OpenAI API.
type OpenAIChat struct {
	client oai.Client
}

// NewOpenAIChat builds a hosted chat client. baseURL is optional and
// overrides the default API endpoint.
func NewOpenAIChat(apiKey, baseURL string) *OpenAIChat {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIChat{client: oai.NewClient(opts...)}
}

// Dialog implements Chat. Generation options are not forwarded in hosted
// mode; the structured response format pins the output shape instead.
func (c *OpenAIChat) Dialog(ctx context.Context, model, system string, dialog []session.DialogMessage, _ map[string]any) (Reply, error) {
	messages := make([]oai.ChatCompletionMessageParamUnion, 0, len(dialog)+1)
	if system != "" {
		messages = append(messages, oai.SystemMessage(system))
	}
	for _, m := range dialog {
		switch m.Role {
		case session.RoleAssistant:
			messages = append(messages, oai.AssistantMessage(m.Content))
		default:
			messages = append(messages, oai.UserMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: messages,
		ResponseFormat: oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "chat_response",
					Schema: chatResponseSchema,
					Strict: oai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return Reply{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, fmt.Errorf("chat completion: empty choices")
	}

	content := resp.Choices[0].Message.Content
	var parsed chatResponse
	if err := json.Unmarshal([]byte(content), &parsed); err == nil && parsed.TextResponse != "" {
		content = parsed.TextResponse
	}
	llmLog := log.LLM()
	llmLog.Debug().
		Str(log.FieldEvent, "llm.dialog").
		Str(log.FieldModel, model).
		Int("dialog_len", len(dialog)).
		Int("tokens", int(resp.Usage.TotalTokens)).
		Msg(content)
	return Reply{Text: content, Tokens: int(resp.Usage.TotalTokens)}, nil
}

// Generate implements Chat as a one-turn completion.
func (c *OpenAIChat) Generate(ctx context.Context, model, system, prompt string, _ map[string]any) (Reply, error) {
	var messages []oai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, oai.SystemMessage(system))
	}
	messages = append(messages, oai.UserMessage(prompt))

	resp, err := c.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: messages,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("generate completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, fmt.Errorf("generate completion: empty choices")
	}
	return Reply{
		Text:   resp.Choices[0].Message.Content,
		Tokens: int(resp.Usage.TotalTokens),
	}, nil
}

// Models implements Chat by listing the models the API account can use.
func (c *OpenAIChat) Models(ctx context.Context) ([]string, error) {
	var names []string
	iter := c.client.Models.ListAutoPaging(ctx)
	for iter.Next() {
		names = append(names, iter.Current().ID)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return names, nil
}
