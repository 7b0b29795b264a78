package driven

import "github.com/custodia-labs/intellidocs/internal/core/domain"

// ProviderProber checks provider settings against the live service before
// they are saved. Unconfigured settings pass.
type ProviderProber interface {
	ValidateEmbedding(settings *domain.EmbeddingSettings) error
	ValidateLLM(settings *domain.LLMSettings) error
}
