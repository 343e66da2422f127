// Package llmoracle implements the oracle.ResponseGen, oracle.Simulator,
// oracle.Scorer, and oracle.Explainer contracts against a real LLM backend,
// grounded on the teacher framework's llm.ChatModel abstraction (llm/llm.go)
// simplified to the single-turn, text-in/text-out shape the conversation
// search actually needs, and on the original implementation's prompt
// templates (original_source/app/services/conversation_analysis/*.py).
package llmoracle

import "context"

// ChatModel is the minimal LLM completion contract every provider in
// llmoracle/providers implements. Unlike the teacher's llm.ChatModel, there
// is no streaming or tool-binding surface: every oracle call here is a
// single blocking completion.
type ChatModel interface {
	// Generate sends a single system-style prompt plus the conversation
	// history and returns the model's raw text completion. jsonMode hints
	// the provider to request a JSON-formatted response where supported.
	Generate(ctx context.Context, prompt string, history Messages, maxTokens int, jsonMode bool) (string, error)
}

// Messages is the minimal role/content pair list passed to a ChatModel,
// decoupled from convo.History so provider packages don't need to import
// the conversation package directly.
type Messages []Message

// Message is one role/content turn.
type Message struct {
	Role    string
	Content string
}
