// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/intellidocs/internal/adapters/driven/httpjson"
	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 768
	DefaultMaxInputs  = 64

	// DefaultKeepAlive keeps the model loaded between ingestion batches.
	DefaultKeepAlive = "5m"
)

// Config for NewEmbeddingService. Every field has a default.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions defaults to the model's known size.
	Dimensions int

	// MaxInputs caps inputs per /api/embed call.
	MaxInputs int

	// KeepAlive is passed through as keep_alive, e.g. "10m" or "-1".
	KeepAlive string
}

// EmbeddingService implements driven.EmbeddingService with /api/embed.
type EmbeddingService struct {
	api        *httpjson.Client
	model      string
	dimensions int
	maxInputs  int
	keepAlive  string
}

type embedRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	Truncate  bool     `json:"truncate"`
	KeepAlive string   `json:"keep_alive,omitempty"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = domain.EmbeddingDimensions()[baseName(cfg.Model)]
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.MaxInputs <= 0 {
		cfg.MaxInputs = DefaultMaxInputs
	}
	if cfg.KeepAlive == "" {
		cfg.KeepAlive = DefaultKeepAlive
	}

	return &EmbeddingService{
		api: &httpjson.Client{
			HTTP:    &http.Client{Timeout: cfg.Timeout},
			Service: "ollama",
			BaseURL: cfg.BaseURL,
		},
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		maxInputs:  cfg.MaxInputs,
		keepAlive:  cfg.KeepAlive,
	}
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per text, in input order. Inputs longer
// than the model's context are truncated by the server.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	for start := 0; start < len(texts); start += s.maxInputs {
		part := texts[start:min(start+s.maxInputs, len(texts))]

		var resp embedResponse
		req := embedRequest{Model: s.model, Input: part, Truncate: true, KeepAlive: s.keepAlive}
		if err := s.api.Post(ctx, "/api/embed", req, &resp); err != nil {
			return nil, err
		}
		if len(resp.Embeddings) != len(part) {
			return nil, fmt.Errorf("ollama: got %d embeddings for %d inputs", len(resp.Embeddings), len(part))
		}
		out = append(out, resp.Embeddings...)
	}
	return out, nil
}

func (s *EmbeddingService) Dimensions() int { return s.dimensions }

func (s *EmbeddingService) ModelName() string { return s.model }

// Ping checks the server is up and the model has been pulled, without
// loading it.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	var tags tagsResponse
	if err := s.api.Get(ctx, "/api/tags", &tags); err != nil {
		return err
	}
	for _, m := range tags.Models {
		if m.Name == s.model || baseName(m.Name) == s.model {
			return nil
		}
	}
	return fmt.Errorf("ollama: model %q is not pulled (run: ollama pull %s)", s.model, s.model)
}

func (s *EmbeddingService) Close() error { return nil }

// baseName strips a ":latest" style tag.
func baseName(model string) string {
	name, _, _ := strings.Cut(model, ":")
	return name
}
