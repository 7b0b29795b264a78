package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	*httptest.Server
	calls atomic.Int32
	last  atomic.Value
}

// newFakeServer serves /api/tags with models and an /api/embed whose
// vectors hold the input length in their first component.
func newFakeServer(t *testing.T, models ...string) *fakeServer {
	t.Helper()
	f := &fakeServer{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			var tags tagsResponse
			for _, m := range models {
				tags.Models = append(tags.Models, struct {
					Name string `json:"name"`
				}{m})
			}
			_ = json.NewEncoder(w).Encode(tags)
		case "/api/embed":
			f.calls.Add(1)
			var req embedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.last.Store(req)
			var out embedResponse
			for _, in := range req.Input {
				out.Embeddings = append(out.Embeddings, []float32{float32(len(in)), 0, 0, 0})
			}
			_ = json.NewEncoder(w).Encode(out)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, DefaultDimensions, s.Dimensions())
	assert.Equal(t, DefaultBaseURL, s.api.BaseURL)
	assert.Equal(t, DefaultMaxInputs, s.maxInputs)
	assert.NoError(t, s.Close())
}

func TestNewEmbeddingService_KnownModelDimensions(t *testing.T) {
	assert.Equal(t, 1024, NewEmbeddingService(Config{Model: "mxbai-embed-large"}).Dimensions())
	assert.Equal(t, 384, NewEmbeddingService(Config{Model: "all-minilm:latest"}).Dimensions())
	assert.Equal(t, 12, NewEmbeddingService(Config{Model: "all-minilm", Dimensions: 12}).Dimensions())
}

func TestEmbedBatch(t *testing.T) {
	f := newFakeServer(t)
	s := NewEmbeddingService(Config{BaseURL: f.URL, Model: "test-model", Dimensions: 4})

	vectors, err := s.EmbedBatch(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, float32(1), vectors[0][0])
	assert.Equal(t, float32(3), vectors[1][0])

	req := f.last.Load().(embedRequest)
	assert.Equal(t, "test-model", req.Model)
	assert.True(t, req.Truncate)
	assert.Equal(t, DefaultKeepAlive, req.KeepAlive)

	single, err := s.Embed(context.Background(), "bbb")
	require.NoError(t, err)
	assert.Equal(t, vectors[1], single)
}

func TestEmbedBatch_Splits(t *testing.T) {
	f := newFakeServer(t)
	s := NewEmbeddingService(Config{BaseURL: f.URL, MaxInputs: 2})

	vectors, err := s.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, float32(3), vectors[2][0])
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1,2]]}`))
	}))
	defer srv.Close()

	_, err := NewEmbeddingService(Config{BaseURL: srv.URL}).EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "got 1 embeddings for 2 inputs")
}

func TestEmbedBatch_ModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"nope\" not found, try pulling it first"}`))
	}))
	defer srv.Close()

	_, err := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "nope"}).Embed(context.Background(), "a")
	assert.ErrorContains(t, err, "try pulling it first")
}

func TestPing(t *testing.T) {
	f := newFakeServer(t, "nomic-embed-text:latest", "llama3.2:latest")

	assert.NoError(t, NewEmbeddingService(Config{BaseURL: f.URL}).Ping(context.Background()))
	assert.NoError(t, NewEmbeddingService(Config{BaseURL: f.URL, Model: "llama3.2:latest"}).Ping(context.Background()))

	err := NewEmbeddingService(Config{BaseURL: f.URL, Model: "mxbai-embed-large"}).Ping(context.Background())
	assert.ErrorContains(t, err, "ollama pull mxbai-embed-large")

	assert.Error(t, NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"}).Ping(context.Background()))
}
