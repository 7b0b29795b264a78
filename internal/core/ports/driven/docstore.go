package driven

import (
	"context"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

// DocumentStore persists documents and their chunks.
// Backed by memory or SQLite.
type DocumentStore interface {
	// SaveDocument stores or updates a document, including its summary
	// versions and entities.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents ordered by creation time.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// ListIDsByStatus returns the ids of documents in status, ordered by
	// creation time, without loading their content.
	ListIDsByStatus(ctx context.Context, status domain.Status) ([]string, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// SaveChunks replaces the chunk set of a document.
	SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// GetChunks retrieves all chunks for a document ordered by sequence.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)
}

// QAHistoryStore persists answered questions.
type QAHistoryStore interface {
	// Append adds a record and drops the oldest beyond the store's cap.
	Append(ctx context.Context, record *domain.QARecord) error

	// List returns up to limit records, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]domain.QARecord, error)

	// Prune keeps the newest keep records.
	Prune(ctx context.Context, keep int) error
}
