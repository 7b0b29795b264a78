package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// Embedder defaults.
const (
	DefaultEmbedBatch   = 32
	DefaultEmbedTimeout = 30 * time.Second
)

// EmbedderConfig configures an Embedder.
type EmbedderConfig struct {
	// MaxBatch bounds each upstream EmbedBatch call.
	MaxBatch int

	// Timeout bounds each upstream EmbedBatch call.
	Timeout time.Duration

	// RequestsPerSecond limits sub-batch calls. Zero disables limiting.
	RequestsPerSecond float64
}

// Embedder turns batches of text into vectors through an EmbeddingService.
// It splits large inputs into sub-batches and checks every response.
type Embedder struct {
	provider driven.EmbeddingService
	maxBatch int
	timeout  time.Duration
	limiter  *rate.Limiter
}

// NewEmbedder creates an Embedder. Zero config values select defaults.
func NewEmbedder(provider driven.EmbeddingService, cfg EmbedderConfig) *Embedder {
	e := &Embedder{
		provider: provider,
		maxBatch: cfg.MaxBatch,
		timeout:  cfg.Timeout,
	}
	if e.maxBatch <= 0 {
		e.maxBatch = DefaultEmbedBatch
	}
	if e.timeout <= 0 {
		e.timeout = DefaultEmbedTimeout
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return e
}

// Dimensions returns the provider's vector size.
func (e *Embedder) Dimensions() int {
	return e.provider.Dimensions()
}

// ModelName returns the provider's model.
func (e *Embedder) ModelName() string {
	return e.provider.ModelName()
}

// Embed returns one vector per text in input order. Upstream failures,
// timeouts and malformed responses are reported as domain.ErrProvider.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: nothing to embed", domain.ErrValidation)
	}

	dim := e.provider.Dimensions()
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += e.maxBatch {
		end := min(start+e.maxBatch, len(texts))
		batch := texts[start:end]

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%w: rate limit wait: %w", domain.ErrProvider, err)
			}
		}

		vectors, err := e.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: expected %d vectors, got %d",
				domain.ErrProvider, len(batch), len(vectors))
		}
		for i, v := range vectors {
			if dim > 0 && len(v) != dim {
				return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d",
					domain.ErrProvider, start+i, len(v), dim)
			}
		}
		out = append(out, vectors...)
	}

	return out, nil
}

// embedBatch makes one upstream call under its own timeout.
func (e *Embedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vectors, err := e.provider.EmbedBatch(callCtx, batch)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s timed out: %w", domain.ErrProvider, e.provider.ModelName(), err)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrProvider, err)
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
