package services

import (
	"context"
	"fmt"

	"github.com/geetaway-search-api/pkg/schema/config"
)

// EmbeddingsService handles text embedding operations using a pluggable backend
type EmbeddingsService struct {
	embedder Embedder
}

// NewEmbeddingsService creates the embeddings service for the configured provider
func NewEmbeddingsService(ctx context.Context, cfg *config.Config) (*EmbeddingsService, error) {
	var embedder Embedder
	switch cfg.EmbeddingProvider {
	case "vertex":
		vertexEmbedder, err := NewVertexEmbedder(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create Vertex AI embedder: %w", err)
		}
		embedder = vertexEmbedder
	case "openai":
		openaiEmbedder, err := NewOpenAIEmbedder(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI embedder: %w", err)
		}
		embedder = openaiEmbedder
	case "custom", "":
		embedder = NewCustomEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}

	return NewEmbeddingsServiceWith(embedder), nil
}

// NewEmbeddingsServiceWith wraps an existing embedder
func NewEmbeddingsServiceWith(embedder Embedder) *EmbeddingsService {
	return &EmbeddingsService{embedder: embedder}
}

// EmbedQuery embeds a query for retrieval
func (s *EmbeddingsService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return s.embedder.Embed(ctx, query, TaskTypeQuery)
}

// EmbedVerse embeds a verse as a document for retrieval
func (s *EmbeddingsService) EmbedVerse(ctx context.Context, text string) ([]float32, error) {
	return s.embedder.Embed(ctx, text, TaskTypeDocument)
}

// EmbedVerses embeds verses as documents for retrieval
func (s *EmbeddingsService) EmbedVerses(ctx context.Context, texts []string) ([][]float32, error) {
	return s.embedder.EmbedBatch(ctx, texts, TaskTypeDocument)
}

// Close releases the underlying client if it holds one
func (s *EmbeddingsService) Close() error {
	if c, ok := s.embedder.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
