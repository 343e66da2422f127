// Package openai implements llmoracle.ChatModel using the OpenAI chat
// completions API, grounded on the teacher framework's sashabaranov/go-openai
// client usage in llms/openai/openai.go, simplified to the single-turn
// prompt-plus-history shape llmoracle needs.
package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/waypoint-ai/convomcts/llmoracle"
)

// Model implements llmoracle.ChatModel against the OpenAI API.
type Model struct {
	client *openai.Client
	model  string
}

// New creates a Model. baseURL may be empty to use the default OpenAI
// endpoint (Azure OpenAI and other OpenAI-compatible deployments pass their
// own baseURL here).
func New(apiKey, model, baseURL string) (*Model, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	if model == "" {
		return nil, errors.New("openai: model is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Model{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Generate implements llmoracle.ChatModel.
func (m *Model) Generate(ctx context.Context, prompt string, history llmoracle.Messages, maxTokens int, jsonMode bool) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: prompt})
	for _, h := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: h.Role, Content: h.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:     m.model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ llmoracle.ChatModel = (*Model)(nil)
