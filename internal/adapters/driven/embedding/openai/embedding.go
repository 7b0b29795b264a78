// Package openai embeds text through the OpenAI /embeddings API or any
// server that speaks it (Azure OpenAI, vLLM, LiteLLM).
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/intellidocs/internal/adapters/driven/httpjson"
	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
	"github.com/custodia-labs/intellidocs/internal/logger"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// MaxInputs is the most inputs the API takes in one request.
	MaxInputs = 2048

	fallbackDimensions = 1536
)

// Config for NewEmbeddingService. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions defaults to the model's native size. The text-embedding-3
	// models shorten their output to match; other models ignore it.
	Dimensions int

	// MaxInputs caps inputs per request. Larger batches are split.
	MaxInputs int
}

// EmbeddingService implements driven.EmbeddingService over HTTP.
type EmbeddingService struct {
	api        *httpjson.Client
	model      string
	dimensions int
	maxInputs  int
	shortens   bool
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
	} `json:"usage"`
}

func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxInputs <= 0 || cfg.MaxInputs > MaxInputs {
		cfg.MaxInputs = MaxInputs
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = fallbackDimensions
	}

	return &EmbeddingService{
		api: &httpjson.Client{
			HTTP:    &http.Client{Timeout: cfg.Timeout},
			Service: "openai",
			BaseURL: cfg.BaseURL,
			Headers: map[string]string{"Authorization": "Bearer " + cfg.APIKey},
		},
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		maxInputs:  cfg.MaxInputs,
		shortens:   strings.HasPrefix(cfg.Model, "text-embedding-3-"),
	}, nil
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per text, in input order. Batches larger
// than MaxInputs are sent as several requests.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.maxInputs {
		end := min(start+s.maxInputs, len(texts))
		part, err := s.request(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// request sends one /embeddings call. The API may answer out of order, so
// results are placed by their index field.
func (s *EmbeddingService) request(ctx context.Context, texts []string) ([][]float32, error) {
	req := embeddingRequest{Model: s.model, Input: texts}
	if s.shortens {
		req.Dimensions = s.dimensions
	}

	var resp embeddingResponse
	if err := s.api.Post(ctx, "/embeddings", req, &resp); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("openai: no embedding returned for input %d", i)
		}
	}
	logger.Debug("openai: embedded %d inputs (%d tokens)", len(texts), resp.Usage.PromptTokens)
	return vectors, nil
}

func (s *EmbeddingService) Dimensions() int { return s.dimensions }

func (s *EmbeddingService) ModelName() string { return s.model }

// Ping lists models, which checks the key without spending tokens.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/models", nil)
}

func (s *EmbeddingService) Close() error { return nil }
