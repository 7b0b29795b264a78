package ai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

// fakeOllama serves /api/tags and an /api/embed that returns dims-sized vectors.
func fakeOllama(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"nomic-embed-text:latest"},{"name":"llama3.2:latest"}]}`))
		case "/api/embed":
			var req struct {
				Input []string `json:"input"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			out := make([][]float32, len(req.Input))
			for i := range out {
				out[i] = make([]float32, dims)
				out[i][0] = 1
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": out})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewProber_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultProbeTimeout, NewProber(0).timeout)
	assert.Equal(t, time.Second, NewProber(time.Second).timeout)
}

func TestProber_Unconfigured(t *testing.T) {
	p := NewProber(time.Second)

	assert.NoError(t, p.ValidateEmbedding(nil))
	assert.NoError(t, p.ValidateEmbedding(&domain.EmbeddingSettings{}))
	assert.NoError(t, p.ValidateLLM(nil))
	assert.NoError(t, p.ValidateLLM(&domain.LLMSettings{}))
}

func TestProber_HashedNeedsNoNetwork(t *testing.T) {
	err := NewProber(time.Second).ValidateEmbedding(&domain.EmbeddingSettings{
		Provider:   domain.AIProviderHashed,
		Dimensions: 128,
	})
	assert.NoError(t, err)
}

func TestProber_EmbeddingDimensions(t *testing.T) {
	tests := []struct {
		name       string
		serverDims int
		wantErr    bool
	}{
		{"matching", 768, false},
		{"mismatched", 384, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeOllama(t, tt.serverDims)

			err := NewProber(2 * time.Second).ValidateEmbedding(&domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  srv.URL,
				Model:    "nomic-embed-text",
			})

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrProvider)
			assert.Contains(t, err.Error(), "returned 384 dimensions")
		})
	}
}

func TestProber_LLMReachable(t *testing.T) {
	srv := fakeOllama(t, 1)

	err := NewProber(2 * time.Second).ValidateLLM(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
		Model:    "llama3.2",
	})
	assert.NoError(t, err)
}

func TestProber_Unreachable(t *testing.T) {
	p := NewProber(2 * time.Second)

	err := p.ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  "http://127.0.0.1:1",
		Model:    "nomic-embed-text",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.Contains(t, err.Error(), "unreachable")

	err = p.ValidateLLM(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  "http://127.0.0.1:1",
		Model:    "llama3.2",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGeneration)
}

func TestProber_MissingKeyIsUnconfigured(t *testing.T) {
	err := NewProber(time.Second).ValidateLLM(&domain.LLMSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "gpt-4o-mini",
	})
	assert.NoError(t, err)
}
