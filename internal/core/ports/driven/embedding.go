package driven

import "context"

// EmbeddingService turns text into fixed-size vectors. The same text must
// always map to the same vector, and every vector has Dimensions entries.
//
// Adapters: hashed (offline bag-of-words), ollama and openai.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order. Adapters may
	// split the batch into several upstream requests.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int
	ModelName() string

	// Ping checks the provider is reachable without embedding anything.
	Ping(ctx context.Context) error

	Close() error
}
