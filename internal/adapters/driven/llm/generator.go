// Package llm adapts an LLMService to the Generator port.
//
// Provider clients live in the ollama, openai and anthropic sub-packages.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// Context markers around the passages in the user message.
const (
	ContextStart = "=== CONTEXT START ==="
	ContextEnd   = "=== CONTEXT END ==="
)

// defaultTemperature keeps answers close to the passages.
const defaultTemperature = 0.1

// Ensure Generator implements the interface.
var _ driven.Generator = (*Generator)(nil)

// Generator produces text by sending passages and instructions to an LLM.
type Generator struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	opts    driven.ChatOptions
}

// NewGenerator wraps an LLM service. prompts may be nil, in which case no
// system prompt is sent.
func NewGenerator(llm driven.LLMService, prompts driven.PromptStore) *Generator {
	return &Generator{
		llm:     llm,
		prompts: prompts,
		opts:    driven.ChatOptions{Temperature: defaultTemperature},
	}
}

// Name identifies the generator for logging.
func (g *Generator) Name() string {
	return "llm:" + g.llm.ModelName()
}

// Generate sends instructions followed by the delimited passages.
// Any failure or an empty reply is reported as domain.ErrGeneration.
func (g *Generator) Generate(ctx context.Context, passages, instructions string) (string, error) {
	var messages []driven.ChatMessage
	if system := g.systemPrompt(); system != "" {
		messages = append(messages, driven.ChatMessage{Role: driven.RoleSystem, Content: system})
	}
	messages = append(messages, driven.ChatMessage{
		Role:    driven.RoleUser,
		Content: UserMessage(passages, instructions),
	})

	out, err := g.llm.Chat(ctx, messages, g.opts)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrGeneration, g.Name(), err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: %s: empty response", domain.ErrGeneration, g.Name())
	}
	return out, nil
}

func (g *Generator) systemPrompt() string {
	if g.prompts == nil {
		return ""
	}
	prompt, err := g.prompts.Load(driven.PromptSystem)
	if err != nil {
		return ""
	}
	return prompt
}

// UserMessage renders instructions and passages into one message.
func UserMessage(passages, instructions string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(instructions))
	b.WriteString("\n\n")
	b.WriteString(ContextStart)
	b.WriteString("\n")
	b.WriteString(passages)
	b.WriteString("\n")
	b.WriteString(ContextEnd)
	return b.String()
}
