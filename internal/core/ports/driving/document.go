package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

// DocumentService manages uploaded documents and their summaries.
type DocumentService interface {
	// Upload registers a document and schedules background ingestion.
	// Returns immediately with the document in pending.
	Upload(ctx context.Context, filename string, raw []byte) (*domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns all documents.
	List(ctx context.Context) ([]domain.Document, error)

	// Status returns the lifecycle view of a document.
	Status(ctx context.Context, documentID string) (*DocumentStatus, error)

	// Versions returns the full ordered summary history.
	Versions(ctx context.Context, documentID string) ([]domain.SummaryVersion, error)

	// SaveSummary appends a user-edited version. Retrying duplicates the version.
	SaveSummary(ctx context.Context, documentID, text string) (*domain.SummaryVersion, error)

	// RegenerateSummary asks the generator for a fresh draft from the stored
	// chunks. words > 0 overrides the configured target length.
	RegenerateSummary(ctx context.Context, documentID string, words int) (*domain.SummaryVersion, error)

	// ValidateSummary scores the current summary without changing it.
	ValidateSummary(ctx context.Context, documentID string) (*domain.Validation, error)

	// Rollback moves the current summary pointer to index.
	Rollback(ctx context.Context, documentID string, index int) error

	// Entities returns the stored entity set. Summary edits and rollbacks
	// do not change it.
	Entities(ctx context.Context, documentID string) (domain.Entities, error)

	// ReplaceEntities swaps the entity set.
	ReplaceEntities(ctx context.Context, documentID string, entities domain.Entities) error

	// Reindex re-chunks and re-embeds a ready document in the background.
	Reindex(ctx context.Context, documentID string) error

	// Delete removes a document with its chunks and vectors.
	Delete(ctx context.Context, documentID string) error

	// ExportSummary renders the current summary as Markdown.
	ExportSummary(ctx context.Context, documentID string) ([]byte, error)

	// ExportEntities renders the entity set as indented JSON.
	ExportEntities(ctx context.Context, documentID string) ([]byte, error)
}

// DocumentStatus is the polling view of a document.
type DocumentStatus struct {
	// ID is the unique document identifier.
	ID string `json:"id"`

	// Filename is the original upload name.
	Filename string `json:"filename"`

	// Status is the lifecycle state.
	Status domain.Status `json:"status"`

	// Summary is the current summary text.
	Summary string `json:"summary"`

	// VersionCount is the number of summary versions.
	VersionCount int `json:"version_count"`

	// CurrentVersion is the index of the current version, -1 when none.
	CurrentVersion int `json:"current_version"`

	// ChunkCount is the number of indexed chunks.
	ChunkCount int `json:"chunk_count"`

	// Error is the failure detail.
	Error string `json:"error,omitempty"`

	// UpdatedAt is when the status last changed.
	UpdatedAt time.Time `json:"updated_at"`
}
