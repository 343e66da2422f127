// Package ollama implements llmoracle.ChatModel using the official
// github.com/ollama/ollama api client, wired in as an enrichment from the
// example pack: the teacher framework's own ollama provider goes through an
// internal OpenAI-compatible shim rather than this SDK directly.
package ollama

import (
	"context"
	"errors"
	"fmt"

	ollamaapi "github.com/ollama/ollama/api"

	"github.com/waypoint-ai/convomcts/llmoracle"
)

// Model implements llmoracle.ChatModel against a local or remote Ollama
// server.
type Model struct {
	client *ollamaapi.Client
	model  string
}

// New creates a Model talking to the Ollama server described by the
// OLLAMA_HOST environment variable (defaulting to http://127.0.0.1:11434).
func New(model string) (*Model, error) {
	if model == "" {
		return nil, errors.New("ollama: model is required")
	}
	client, err := ollamaapi.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("ollama: failed to build client: %w", err)
	}
	return &Model{client: client, model: model}, nil
}

// Generate implements llmoracle.ChatModel.
func (m *Model) Generate(ctx context.Context, prompt string, history llmoracle.Messages, maxTokens int, jsonMode bool) (string, error) {
	messages := make([]ollamaapi.Message, 0, len(history)+1)
	messages = append(messages, ollamaapi.Message{Role: "system", Content: prompt})
	for _, h := range history {
		messages = append(messages, ollamaapi.Message{Role: h.Role, Content: h.Content})
	}

	stream := false
	req := &ollamaapi.ChatRequest{
		Model:    m.model,
		Messages: messages,
		Stream:   &stream,
	}
	if maxTokens > 0 {
		req.Options = map[string]any{"num_predict": maxTokens}
	}
	if jsonMode {
		req.Format = []byte(`"json"`)
	}

	var out string
	err := m.client.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
		out += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama: chat failed: %w", err)
	}
	return out, nil
}

var _ llmoracle.ChatModel = (*Model)(nil)
