// Package anthropic implements llmoracle.ChatModel using the Anthropic
// Messages API, grounded on the teacher framework's anthropic-sdk-go usage
// in llm/providers/anthropic/anthropic.go, simplified to the single-turn
// prompt-plus-history shape llmoracle needs.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	anthropicSDK "github.com/anthropics/anthropic-sdk-go"
	anthropicOption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/waypoint-ai/convomcts/llmoracle"
)

const defaultMaxTokens = 4096

// Model implements llmoracle.ChatModel against the Anthropic Messages API.
type Model struct {
	client anthropicSDK.Client
	model  string
}

// New creates a Model.
func New(apiKey, model string) (*Model, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	if model == "" {
		return nil, errors.New("anthropic: model is required")
	}
	client := anthropicSDK.NewClient(anthropicOption.WithAPIKey(apiKey))
	return &Model{client: client, model: model}, nil
}

// Generate implements llmoracle.ChatModel.
func (m *Model) Generate(ctx context.Context, prompt string, history llmoracle.Messages, maxTokens int, jsonMode bool) (string, error) {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	messages := make([]anthropicSDK.MessageParam, 0, len(history))
	for _, h := range history {
		block := anthropicSDK.NewTextBlock(h.Content)
		if h.Role == "assistant" {
			messages = append(messages, anthropicSDK.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropicSDK.NewUserMessage(block))
		}
	}
	if len(messages) == 0 {
		messages = append(messages, anthropicSDK.NewUserMessage(anthropicSDK.NewTextBlock("Begin.")))
	}

	params := anthropicSDK.MessageNewParams{
		Model:     anthropicSDK.Model(m.model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
		System:    []anthropicSDK.TextBlockParam{{Text: prompt}},
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: generate failed: %w", err)
	}

	var out string
	for _, block := range resp.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out, nil
}

var _ llmoracle.ChatModel = (*Model)(nil)
