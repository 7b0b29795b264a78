package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

var _ driven.ProviderProber = (*Prober)(nil)

// DefaultProbeTimeout bounds a whole probe, connection and inference.
const DefaultProbeTimeout = 15 * time.Second

// probeText is embedded once to confirm the configured dimensions.
const probeText = "intellidocs dimension probe"

// Prober checks provider settings against the live provider. Embedding
// settings are also checked for the vector size, since a mismatch would
// only surface later when the first document is indexed.
type Prober struct {
	timeout time.Duration
}

// NewProber creates a Prober. timeout <= 0 selects DefaultProbeTimeout.
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Prober{timeout: timeout}
}

// ValidateEmbedding pings the provider and embeds one probe text.
// Unconfigured settings are accepted.
func (p *Prober) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := createEmbedding(settings, p.timeout)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrProvider, settings.Provider, err)
	}
	vec, err := svc.Embed(ctx, probeText)
	if err != nil {
		return fmt.Errorf("%w: %s probe embedding: %w", domain.ErrProvider, settings.Provider, err)
	}
	if len(vec) != svc.Dimensions() {
		return fmt.Errorf("%w: %s returned %d dimensions, configured %d",
			domain.ErrProvider, settings.Provider, len(vec), svc.Dimensions())
	}
	return nil
}

// ValidateLLM pings the provider. No completion is requested.
func (p *Prober) ValidateLLM(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := createLLM(settings, p.timeout)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrGeneration, settings.Provider, err)
	}
	return nil
}
