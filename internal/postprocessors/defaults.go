package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/intellidocs/internal/adapters/driven/config"
	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
	"github.com/custodia-labs/intellidocs/internal/postprocessors/chunker"
)

// ChunkerName is the registry name of the built-in chunker.
const ChunkerName = "chunker"

// RegisterDefaults registers the built-in stages.
func RegisterDefaults(r *Registry) {
	r.Register(ChunkerName, buildChunker)
}

// ChunkerConfig converts chunker settings to builder config.
func ChunkerConfig(s domain.ChunkerSettings) map[string]any {
	return map[string]any{
		"chunk_size": s.ChunkSize,
		"overlap":    s.Overlap,
		"boundaries": true,
	}
}

// buildChunker reads chunk_size, overlap and boundaries. Absent keys keep
// the chunker defaults; present but invalid sizes are rejected.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if v, ok := cfg["chunk_size"]; ok {
		size := config.Int(v)
		if size <= 0 {
			return nil, fmt.Errorf("%w: chunk_size must be positive, got %v", domain.ErrValidation, v)
		}
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if v, ok := cfg["overlap"]; ok {
		overlap := config.Int(v)
		if overlap < 0 {
			return nil, fmt.Errorf("%w: overlap must not be negative, got %v", domain.ErrValidation, v)
		}
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	if v, ok := cfg["boundaries"]; ok {
		opts = append(opts, chunker.WithBoundaries(config.Bool(v)))
	}

	return chunker.New(opts...), nil
}
