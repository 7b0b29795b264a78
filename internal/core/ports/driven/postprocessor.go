package driven

import (
	"context"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

// PostProcessor is one stage that turns a parsed document into chunks.
// The first stage receives nil chunks and splits doc.Content; later stages
// may rewrite or filter the chunks they are given but must keep byte
// offsets pointing into doc.Content.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline runs the configured stages in order.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
