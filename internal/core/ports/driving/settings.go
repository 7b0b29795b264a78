package driving

import "github.com/custodia-labs/intellidocs/internal/core/domain"

// SettingsService resolves, edits and checks the application settings.
type SettingsService interface {
	// Get resolves settings from the config store, environment and defaults.
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error
	GetDefaults() domain.AppSettings

	// SetEmbeddingProvider switches providers. Existing vectors must be
	// re-indexed when the model or dimensions change.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider switches the generator. An empty provider selects
	// extractive answers and summaries.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate reports every inconsistent setting at once.
	Validate() error

	// ValidateEmbeddingConfig and ValidateLLMConfig reach the configured
	// provider. They succeed when no prober is configured.
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
}
