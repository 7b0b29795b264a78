package driving

import (
	"context"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

// QAService answers questions over ready documents.
type QAService interface {
	// Ask answers a question, optionally scoped to document IDs, and records it.
	Ask(ctx context.Context, question string, scope []string) (*domain.QARecord, error)

	// Search returns the top k chunks for a query without generating an answer.
	Search(ctx context.Context, query string, k int, scope []string) ([]domain.VectorHit, error)

	// History returns up to limit answered questions, newest first.
	History(ctx context.Context, limit int) ([]domain.QARecord, error)
}
