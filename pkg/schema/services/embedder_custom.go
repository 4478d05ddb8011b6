package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/geetaway-search-api/pkg/schema/config"
)

// CustomEmbedder implements Embedder using a sentence-transformers HTTP sidecar
type CustomEmbedder struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewCustomEmbedder creates a new custom HTTP embedder
func NewCustomEmbedder(cfg *config.Config) *CustomEmbedder {
	return &CustomEmbedder{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type customEmbeddingRequest struct {
	Text      string `json:"text"`
	TaskType  string `json:"task_type"`
	Normalize bool   `json:"normalize"`
}

type customEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

type customBatchEmbeddingRequest struct {
	Texts     []string `json:"texts"`
	TaskType  string   `json:"task_type"`
	Normalize bool     `json:"normalize"`
}

type customBatchEmbeddingResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed generates an embedding for a single text
func (e *CustomEmbedder) Embed(ctx context.Context, text string, taskType TaskType) ([]float32, error) {
	var embResp customEmbeddingResponse
	err := e.post(ctx, "/embed", customEmbeddingRequest{
		Text:      text,
		TaskType:  string(taskType),
		Normalize: true,
	}, &embResp)
	if err != nil {
		return nil, err
	}
	if len(embResp.Embedding) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return Normalize(embResp.Embedding), nil
}

// EmbedBatch generates embeddings for multiple texts
func (e *CustomEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType TaskType) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var batchResp customBatchEmbeddingResponse
	err := e.post(ctx, "/embed/batch", customBatchEmbeddingRequest{
		Texts:     texts,
		TaskType:  string(taskType),
		Normalize: true,
	}, &batchResp)
	if err != nil {
		return nil, err
	}
	if len(batchResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(batchResp.Embeddings), len(texts))
	}

	for i := range batchResp.Embeddings {
		batchResp.Embeddings[i] = Normalize(batchResp.Embeddings[i])
	}
	return batchResp.Embeddings, nil
}

func (e *CustomEmbedder) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.EmbeddingServiceURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call embedding service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("embedding service error (%d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
