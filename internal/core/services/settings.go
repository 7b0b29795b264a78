package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyStorageBackend  = "storage.backend"
	keyStorageDataDir  = "storage.data_dir"
	keyVectorBackend   = "vector.backend"
	keyVectorDSN       = "vector.database_url"
	keyVectorOversamp  = "vector.oversample"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedBatch      = "embedding.batch_size"
	keyEmbedRPS        = "embedding.requests_per_second"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyChunkSize       = "chunker.chunk_size"
	keyChunkOverlap    = "chunker.overlap"
	keyWorkers         = "pipeline.workers"
	keyQueueSize       = "pipeline.queue_size"
	keyParseTimeout    = "pipeline.parse_timeout"
	keyEmbedTimeout    = "pipeline.embed_timeout"
	keyGenerateTimeout = "pipeline.generate_timeout"
	keyStaleAfter      = "pipeline.stale_after"
	keyTopK            = "qa.top_k"
	keyMaxContext      = "qa.max_context_chars"
	keyHistoryMax      = "history.max_items"
	keyTargetWords     = "summary.target_words"
	keyMinWords        = "summary.min_words"
	keyMaxWords        = "summary.max_words"
	keySchedulerOn     = "scheduler.enabled"
)

// llmProviderNone disables generation.
const llmProviderNone = "none"

// defaultOllamaURL is used when a local provider has no base URL.
const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	prober      driven.ProviderProber
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, prober driven.ProviderProber) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		prober:      prober,
	}
}

// Get retrieves current application settings. Missing or invalid values
// fall back to defaults. An empty API key falls back to the provider-wide
// key ("openai.api_key", "anthropic.api_key").
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	storage := s.getBackend(keyStorageBackend, d.Storage.Backend)
	settings := &domain.AppSettings{
		Storage: domain.StorageSettings{
			Backend:       storage,
			VectorBackend: s.getBackend(keyVectorBackend, storage),
			DataDir:       s.configStore.GetString(keyStorageDataDir),
			DatabaseURL:   s.configStore.GetString(keyVectorDSN),
			Oversample:    s.getInt(keyVectorOversamp, d.Storage.Oversample),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			BatchSize:         s.getInt(keyEmbedBatch, d.Embedding.BatchSize),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, d.Embedding.RequestsPerSecond),
		},
		LLM: domain.LLMSettings{
			Provider: s.getLLMProvider(),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Chunker: domain.ChunkerSettings{
			ChunkSize: s.getInt(keyChunkSize, d.Chunker.ChunkSize),
			Overlap:   s.getNonNegative(keyChunkOverlap, d.Chunker.Overlap),
		},
		Pipeline: domain.PipelineSettings{
			Workers:         s.getInt(keyWorkers, d.Pipeline.Workers),
			QueueSize:       s.getInt(keyQueueSize, d.Pipeline.QueueSize),
			ParseTimeout:    s.getDuration(keyParseTimeout, d.Pipeline.ParseTimeout),
			EmbedTimeout:    s.getDuration(keyEmbedTimeout, d.Pipeline.EmbedTimeout),
			GenerateTimeout: s.getDuration(keyGenerateTimeout, d.Pipeline.GenerateTimeout),
			StaleAfter:      s.getDuration(keyStaleAfter, d.Pipeline.StaleAfter),
		},
		QA: domain.QASettings{
			TopK:            s.getInt(keyTopK, d.QA.TopK),
			MaxContextChars: s.getInt(keyMaxContext, d.QA.MaxContextChars),
			HistoryMax:      s.getInt(keyHistoryMax, d.QA.HistoryMax),
		},
		Summary: domain.SummarySettings{
			TargetWords: s.getInt(keyTargetWords, d.Summary.TargetWords),
			MinWords:    s.getInt(keyMinWords, d.Summary.MinWords),
			MaxWords:    s.getInt(keyMaxWords, d.Summary.MaxWords),
		},
	}

	settings.Embedding.Model = s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[settings.Embedding.Provider])
	dims := d.Embedding.Dimensions
	if known, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		dims = known
	}
	settings.Embedding.Dimensions = s.getInt(keyEmbedDims, dims)
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.providerKey(settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" {
		settings.LLM.Model = s.getString(keyLLMModel, domain.DefaultLLMModels()[settings.LLM.Provider])
		if settings.LLM.APIKey == "" {
			settings.LLM.APIKey = s.providerKey(settings.LLM.Provider)
		}
	}

	return settings, nil
}

// Save persists application settings. Empty API keys are not written.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	llmProvider := settings.LLM.Provider.String()
	if llmProvider == "" {
		llmProvider = llmProviderNone
	}

	values := map[string]any{
		keyStorageBackend:  settings.Storage.Backend.String(),
		keyVectorBackend:   settings.Storage.VectorBackend.String(),
		keyStorageDataDir:  settings.Storage.DataDir,
		keyVectorDSN:       settings.Storage.DatabaseURL,
		keyVectorOversamp:  settings.Storage.Oversample,
		keyEmbedProvider:   settings.Embedding.Provider.String(),
		keyEmbedModel:      settings.Embedding.Model,
		keyEmbedBaseURL:    settings.Embedding.BaseURL,
		keyEmbedDims:       settings.Embedding.Dimensions,
		keyEmbedBatch:      settings.Embedding.BatchSize,
		keyEmbedRPS:        settings.Embedding.RequestsPerSecond,
		keyLLMProvider:     llmProvider,
		keyLLMModel:        settings.LLM.Model,
		keyLLMBaseURL:      settings.LLM.BaseURL,
		keyChunkSize:       settings.Chunker.ChunkSize,
		keyChunkOverlap:    settings.Chunker.Overlap,
		keyWorkers:         settings.Pipeline.Workers,
		keyQueueSize:       settings.Pipeline.QueueSize,
		keyParseTimeout:    settings.Pipeline.ParseTimeout.String(),
		keyEmbedTimeout:    settings.Pipeline.EmbedTimeout.String(),
		keyGenerateTimeout: settings.Pipeline.GenerateTimeout.String(),
		keyStaleAfter:      settings.Pipeline.StaleAfter.String(),
		keyTopK:            settings.QA.TopK,
		keyMaxContext:      settings.QA.MaxContextChars,
		keyHistoryMax:      settings.QA.HistoryMax,
		keyTargetWords:     settings.Summary.TargetWords,
		keyMinWords:        settings.Summary.MinWords,
		keyMaxWords:        settings.Summary.MaxWords,
	}
	if settings.Embedding.APIKey != "" {
		values[keyEmbedAPIKey] = settings.Embedding.APIKey
	}
	if settings.LLM.APIKey != "" {
		values[keyLLMAPIKey] = settings.LLM.APIKey
	}

	if err := s.configStore.Update(values); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrValidation, provider)
	}

	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrValidation, provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" && s.providerKey(provider) == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrValidation, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	switch {
	case provider == domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	default:
		// Cloud and built-in providers don't need a custom base URL
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider. An empty provider disables
// generation.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if provider == "" {
		settings.LLM = domain.LLMSettings{}
		return s.Save(settings)
	}

	if !provider.IsValid() || provider == domain.AIProviderHashed {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrValidation, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && s.providerKey(provider) == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrValidation, provider)
	}

	settings.LLM.Provider = provider

	if model != "" {
		settings.LLM.Model = model
	} else {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that the configured backends and providers are consistent.
// Every problem is reported.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrValidation}, args...)...))
	}

	switch settings.Storage.Backend {
	case domain.StoreMemory, domain.StoreSQLite:
	default:
		add("storage backend %q must be memory or sqlite", settings.Storage.Backend)
	}
	if settings.Storage.VectorBackend == domain.StorePgvector && settings.Storage.DatabaseURL == "" {
		add("vector backend pgvector requires %s", keyVectorDSN)
	}
	if !settings.Embedding.IsConfigured() {
		add("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		add("LLM provider %q is not configured", settings.LLM.Provider)
	}
	if settings.Chunker.Overlap >= settings.Chunker.ChunkSize {
		add("chunker overlap %d must be smaller than chunk size %d",
			settings.Chunker.Overlap, settings.Chunker.ChunkSize)
	}
	if settings.Summary.MinWords > settings.Summary.MaxWords {
		add("summary min_words %d exceeds max_words %d", settings.Summary.MinWords, settings.Summary.MaxWords)
	}

	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.prober == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.prober.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.prober == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if settings.LLM.Provider == "" {
		return nil
	}
	return s.prober.ValidateLLM(&settings.LLM)
}

// GetSchedulerConfig returns the scheduler configuration.
// Returns default configuration if nothing is configured.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	defaults := domain.DefaultSchedulerConfig()

	// Master switch
	if _, exists := s.configStore.Get(keySchedulerOn); exists {
		defaults.Enabled = s.configStore.GetBool(keySchedulerOn)
	}

	// Map from task ID to config key (underscore version for TOML)
	taskKeys := map[string]string{
		domain.TaskIDStalenessSweep: "staleness_sweep",
		domain.TaskIDHistoryPrune:   "history_prune",
	}

	for taskID, configKey := range taskKeys {
		prefix := "scheduler." + configKey + "."
		taskCfg := defaults.TaskConfigs[taskID]

		if _, exists := s.configStore.Get(prefix + "enabled"); exists {
			taskCfg.Enabled = s.configStore.GetBool(prefix + "enabled")
		}
		taskCfg.Interval = s.getDuration(prefix+"interval", taskCfg.Interval)

		defaults.TaskConfigs[taskID] = taskCfg
	}

	return defaults
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getNonNegative(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	if val := s.configStore.GetInt(key); val >= 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	if val := s.configStore.GetFloat(key); val > 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if d := s.configStore.GetDuration(key); d > 0 {
		return d
	}
	return defaultVal
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getLLMProvider() domain.AIProvider {
	val := s.configStore.GetString(keyLLMProvider)
	if val == "" || val == llmProviderNone {
		return ""
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() || provider == domain.AIProviderHashed {
		return ""
	}
	return provider
}

func (s *SettingsService) getBackend(key string, defaultVal domain.StoreBackend) domain.StoreBackend {
	val := domain.StoreBackend(s.configStore.GetString(key))
	if !val.IsValid() {
		return defaultVal
	}
	return val
}

// providerKey returns the provider-wide API key, such as "openai.api_key".
func (s *SettingsService) providerKey(provider domain.AIProvider) string {
	if !provider.RequiresAPIKey() {
		return ""
	}
	return s.configStore.GetString(provider.String() + ".api_key")
}
