// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"fmt"
	"time"

	hashedembed "github.com/custodia-labs/intellidocs/internal/adapters/driven/embedding/hashed"
	ollamaembed "github.com/custodia-labs/intellidocs/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/intellidocs/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/intellidocs/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/intellidocs/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/intellidocs/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService // nil when answers are extractive.
	Warnings         []string          // Non-fatal issues that caused fallback.
	FellBack         bool              // True if the configured LLM could not be created.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init builds the embedding and LLM services from application settings.
// An embedding provider that cannot be built is fatal. A broken LLM
// configuration only degrades to extractive answers and is reported in
// Warnings. No network calls are made.
func Init(settings *domain.AppSettings) (*InitResult, error) {
	result := &InitResult{}

	emb := settings.Embedding
	if emb.Provider == "" {
		emb.Provider = domain.AIProviderHashed
	}
	svc, err := createEmbedding(&emb, settings.Pipeline.EmbedTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding: %w. Run 'intellidocs settings wizard' to fix",
			domain.ErrProvider, err)
	}
	result.EmbeddingService = svc

	if settings.LLM.Provider == "" {
		return result, nil
	}
	llm, err := createLLM(&settings.LLM, settings.Pipeline.GenerateTimeout)
	if err != nil {
		result.FellBack = true
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("LLM %s unavailable (%v), answers and summaries will be extractive", settings.LLM.Provider, err))
		return result, nil
	}
	result.LLMService = llm

	return result, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: embedding settings are required", domain.ErrValidation)
	}
	return createEmbedding(settings, 0)
}

// CreateLLMService creates the appropriate LLM service based on settings.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: llm settings are required", domain.ErrValidation)
	}
	return createLLM(settings, 0)
}

func createEmbedding(settings *domain.EmbeddingSettings, timeout time.Duration) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case domain.AIProviderHashed:
		return hashedembed.NewEmbeddingService(settings.Dimensions), nil

	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings, timeout), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings, timeout)

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use hashed, ollama or openai",
			domain.ErrValidation)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %q", domain.ErrValidation, settings.Provider)
	}
}

func createLLM(settings *domain.LLMSettings, timeout time.Duration) (driven.LLMService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaLLM(settings, timeout), nil

	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings, timeout)

	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings, timeout)

	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %q", domain.ErrValidation, settings.Provider)
	}
}

// embeddingDimensions prefers the configured size, then the known model size.
func embeddingDimensions(settings *domain.EmbeddingSettings, fallback int) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	if d := domain.EmbeddingDimensions()[settings.Model]; d > 0 {
		return d
	}
	return fallback
}

func createOllamaEmbedding(settings *domain.EmbeddingSettings, timeout time.Duration) driven.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Timeout:    timeout,
		Dimensions: embeddingDimensions(settings, ollamaembed.DefaultDimensions),
	})
}

func createOpenAIEmbedding(settings *domain.EmbeddingSettings, timeout time.Duration) (driven.EmbeddingService, error) {
	svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Timeout:    timeout,
		Dimensions: embeddingDimensions(settings, 0),
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func createOllamaLLM(settings *domain.LLMSettings, timeout time.Duration) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.Config{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Timeout: timeout,
	})
}

func createOpenAILLM(settings *domain.LLMSettings, timeout time.Duration) (driven.LLMService, error) {
	svc, err := openaillm.NewLLMService(openaillm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func createAnthropicLLM(settings *domain.LLMSettings, timeout time.Duration) (driven.LLMService, error) {
	svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}
