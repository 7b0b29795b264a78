package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies a service that embeds or generates text.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHashed is the built-in deterministic bag-of-words embedder.
	AIProviderHashed AIProvider = "hashed"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHashed, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs without network access to a cloud API.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashed
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashed:
		return "Hashed (built-in, deterministic)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// StoreBackend selects a storage implementation.
type StoreBackend string

// Available storage backends.
const (
	// StoreMemory keeps everything in process memory.
	StoreMemory StoreBackend = "memory"

	// StoreSQLite persists to an embedded SQLite database.
	StoreSQLite StoreBackend = "sqlite"

	// StorePgvector persists vectors to Postgres with the pgvector extension.
	// Only valid for the vector store.
	StorePgvector StoreBackend = "pgvector"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreMemory, StoreSQLite, StorePgvector:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// StorageSettings holds document and vector store configuration.
type StorageSettings struct {
	// Backend stores documents and Q&A history (memory or sqlite).
	Backend StoreBackend

	// VectorBackend stores vectors (memory, sqlite or pgvector).
	VectorBackend StoreBackend

	// DataDir holds the SQLite database.
	DataDir string

	// DatabaseURL is the Postgres DSN for pgvector.
	DatabaseURL string

	// Oversample multiplies k when asking the approximate index for candidates.
	Oversample int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector size for the hashed provider.
	Dimensions int

	// BatchSize bounds each upstream request.
	BatchSize int

	// RequestsPerSecond limits upstream calls. Zero disables limiting.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds generator configuration. An empty provider disables
// generation and the extractive fallback is used instead.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderHashed {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkerSettings configures the chunker.
type ChunkerSettings struct {
	// ChunkSize is the maximum characters per chunk.
	ChunkSize int

	// Overlap is the characters shared by consecutive chunks.
	Overlap int
}

// PipelineSettings configures background ingestion.
type PipelineSettings struct {
	Workers         int
	QueueSize       int
	ParseTimeout    time.Duration
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration

	// StaleAfter is how long a document may sit in parsing/indexing with no
	// running task before it is reported failed.
	StaleAfter time.Duration
}

// QASettings configures question answering.
type QASettings struct {
	TopK            int
	MaxContextChars int
	HistoryMax      int
}

// SummarySettings configures summary generation and validation.
type SummarySettings struct {
	TargetWords int
	MinWords    int
	MaxWords    int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Storage   StorageSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunker   ChunkerSettings
	Pipeline  PipelineSettings
	QA        QASettings
	Summary   SummarySettings
}

// DefaultAppSettings returns settings that work offline: SQLite storage,
// hashed embeddings and no LLM.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Storage: StorageSettings{
			Backend:       StoreSQLite,
			VectorBackend: StoreSQLite,
			Oversample:    4,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderHashed,
			Model:      "hashed-bow",
			Dimensions: 384,
			BatchSize:  32,
		},
		Chunker: ChunkerSettings{
			ChunkSize: 800,
			Overlap:   120,
		},
		Pipeline: PipelineSettings{
			Workers:         4,
			QueueSize:       64,
			ParseTimeout:    60 * time.Second,
			EmbedTimeout:    30 * time.Second,
			GenerateTimeout: 120 * time.Second,
			StaleAfter:      10 * time.Minute,
		},
		QA: QASettings{
			TopK:            5,
			MaxContextChars: 6000,
			HistoryMax:      200,
		},
		Summary: SummarySettings{
			TargetWords: 350,
			MinWords:    40,
			MaxWords:    800,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashed,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashed: "hashed-bow",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"hashed-bow":             384,
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
