package driven

import (
	"context"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

// VectorStore persists chunk vectors and answers similarity queries.
// Implementations rank with domain.RankTopK so that switching backends
// never changes retrieval results.
type VectorStore interface {
	// Upsert inserts or replaces records keyed by chunk ID.
	Upsert(ctx context.Context, records []domain.VectorRecord) error

	// DeleteByDocument removes every vector for a document.
	// A document with no vectors is not an error.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Search returns at most k hits ranked by domain.SortHits.
	// k must be positive.
	Search(ctx context.Context, query []float32, k int, filter domain.VectorFilter) ([]domain.VectorHit, error)

	// CountByDocument returns the number of vectors stored for a document.
	CountByDocument(ctx context.Context, documentID string) (int, error)

	// Close releases resources.
	Close() error
}
