// Package hashed provides a deterministic bag-of-words embedding service
// that needs no network access.
package hashed

import (
	"context"
	"crypto/md5" //nolint:gosec // bucket selection, not security
	"encoding/binary"
	"math"
	"strings"

	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultDimensions = 384
	ModelName         = "hashed-bow"
)

// EmbeddingService hashes lower-cased whitespace tokens into a fixed number
// of buckets and L2-normalises the counts.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hashed embedder. dimensions <= 0 selects
// DefaultDimensions.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed returns the vector for one text. Text with no tokens yields the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.vector(text), nil
}

// EmbedBatch returns one vector per text, in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = s.vector(text)
	}
	return out, nil
}

func (s *EmbeddingService) vector(text string) []float32 {
	counts := make([]float64, s.dimensions)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		sum := md5.Sum([]byte(token)) //nolint:gosec
		bucket := binary.BigEndian.Uint64(sum[8:]) % uint64(s.dimensions)
		counts[bucket]++
	}

	var norm float64
	for _, c := range counts {
		norm += c * c
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, s.dimensions)
	if norm == 0 {
		return vec
	}
	for i, c := range counts {
		vec[i] = float32(c / norm)
	}
	return vec
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns "hashed-bow".
func (s *EmbeddingService) ModelName() string {
	return ModelName
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
