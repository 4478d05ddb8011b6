package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geetaway-search-api/pkg/schema/config"
)

func TestCustomEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embed", r.URL.Path)

		var req customEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "RETRIEVAL_QUERY", req.TaskType)
		assert.Equal(t, "calm mind", req.Text)

		_ = json.NewEncoder(w).Encode(customEmbeddingResponse{Embedding: []float32{3, 4}})
	}))
	defer srv.Close()

	svc := NewEmbeddingsServiceWith(NewCustomEmbedder(&config.Config{EmbeddingServiceURL: srv.URL}))
	vec, err := svc.EmbedQuery(context.Background(), "calm mind")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)
}

func TestCustomEmbedder_EmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embed/batch", r.URL.Path)

		var req customBatchEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "RETRIEVAL_DOCUMENT", req.TaskType)

		out := make([][]float32, len(req.Texts))
		for i := range out {
			out[i] = []float32{1, 0}
		}
		_ = json.NewEncoder(w).Encode(customBatchEmbeddingResponse{Embeddings: out})
	}))
	defer srv.Close()

	svc := NewEmbeddingsServiceWith(NewCustomEmbedder(&config.Config{EmbeddingServiceURL: srv.URL}))
	vecs, err := svc.EmbedVerses(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vecs, 3)

	empty, err := svc.EmbedVerses(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCustomEmbedder_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewCustomEmbedder(&config.Config{EmbeddingServiceURL: srv.URL}).
		Embed(context.Background(), "x", TaskTypeQuery)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{0, 0, 2})
	assert.Equal(t, []float32{0, 0, 1}, v)

	zero := Normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestNewEmbeddingsService_UnknownProvider(t *testing.T) {
	_, err := NewEmbeddingsService(context.Background(), &config.Config{EmbeddingProvider: "word2vec"})
	assert.Error(t, err)

	_, err = NewEmbeddingsService(context.Background(), &config.Config{EmbeddingProvider: "openai"})
	assert.Error(t, err)
}
