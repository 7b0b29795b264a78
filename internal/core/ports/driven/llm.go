package driven

import "context"

// LLMService is a chat model. Generators build on it; without one the
// services fall back to extractive summaries and answers.
//
// Adapters: ollama, openai and anthropic.
type LLMService interface {
	// Chat returns the assistant reply to messages.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	ModelName() string

	// Ping checks the provider is reachable without generating text.
	Ping(ctx context.Context) error

	Close() error
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn. Role is RoleSystem, RoleUser or RoleAssistant.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes one Chat call. Zero values leave the provider default.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}
