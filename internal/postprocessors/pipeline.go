// Package postprocessors turns normalised document content into chunks.
package postprocessors

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
	"github.com/custodia-labs/intellidocs/internal/logger"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs its stages in order. The first stage is handed nil chunks.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline creates a pipeline from stages.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Add appends a stage.
func (p *Pipeline) Add(stage driven.PostProcessor) {
	p.stages = append(p.stages, stage)
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Process chunks doc. The result is checked before it is returned: each
// chunk must belong to doc, be numbered 0..n-1 and carry the exact span of
// doc.Content it claims.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrValidation)
	}

	var chunks []domain.Chunk
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		started := time.Now()
		out, err := stage.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", stage.Name(), err)
		}
		logger.Debug("%s: %s produced %d chunks in %s", doc.ID, stage.Name(), len(out), time.Since(started).Round(time.Microsecond))
		chunks = out
	}

	if err := checkChunks(doc, chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

func checkChunks(doc *domain.Document, chunks []domain.Chunk) error {
	for i, c := range chunks {
		switch {
		case c.DocumentID != doc.ID:
			return fmt.Errorf("%w: chunk %d belongs to %q, not %q", domain.ErrValidation, i, c.DocumentID, doc.ID)
		case c.Sequence != i:
			return fmt.Errorf("%w: chunk %d has sequence %d", domain.ErrValidation, i, c.Sequence)
		case c.Start < 0 || c.End > len(doc.Content) || c.Start >= c.End:
			return fmt.Errorf("%w: chunk %d span [%d,%d) outside content", domain.ErrValidation, i, c.Start, c.End)
		case doc.Content[c.Start:c.End] != c.Text:
			return fmt.Errorf("%w: chunk %d text does not match its span", domain.ErrValidation, i)
		}
	}
	return nil
}
