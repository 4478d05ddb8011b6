package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/geetaway-search-api/pkg/schema/config"
)

// Vertex text-embedding models accept at most this many instances per request
const vertexBatchLimit = 250

// VertexEmbedder implements Embedder with a Vertex AI text-embedding model
type VertexEmbedder struct {
	client     *aiplatform.PredictionClient
	endpoint   string
	parameters *structpb.Value
}

// NewVertexEmbedder creates a Vertex AI embedder. When EmbeddingDimensions is set
// the model is asked to truncate its output to match the corpus index.
func NewVertexEmbedder(ctx context.Context, cfg *config.Config) (*VertexEmbedder, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP_PROJECT_ID is required for Vertex AI embeddings")
	}

	params, err := predictParameters(cfg.EmbeddingDimensions)
	if err != nil {
		return nil, err
	}

	client, err := aiplatform.NewPredictionClient(ctx,
		option.WithEndpoint(fmt.Sprintf("%s-aiplatform.googleapis.com:443", cfg.GCPLocation)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	return &VertexEmbedder{
		client: client,
		endpoint: fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s",
			cfg.GCPProjectID, cfg.GCPLocation, cfg.VertexModel),
		parameters: params,
	}, nil
}

// Close closes the prediction client
func (e *VertexEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Embed generates an embedding for a single text
func (e *VertexEmbedder) Embed(ctx context.Context, text string, taskType TaskType) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, errors.New("no embeddings returned")
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts, splitting requests at the
// model's instance limit
func (e *VertexEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType TaskType) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for chunk := range slices.Chunk(texts, vertexBatchLimit) {
		req, err := e.predictRequest(chunk, taskType)
		if err != nil {
			return nil, err
		}
		resp, err := e.client.Predict(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("vertex AI prediction failed: %w", err)
		}
		if len(resp.Predictions) != len(chunk) {
			return nil, fmt.Errorf("vertex AI returned %d predictions for %d texts", len(resp.Predictions), len(chunk))
		}
		for i, p := range resp.Predictions {
			vec, err := parsePrediction(p)
			if err != nil {
				return nil, fmt.Errorf("prediction %d: %w", len(embeddings)+i, err)
			}
			embeddings = append(embeddings, vec)
		}
	}
	return embeddings, nil
}

func (e *VertexEmbedder) predictRequest(texts []string, taskType TaskType) (*aiplatformpb.PredictRequest, error) {
	instances := make([]*structpb.Value, len(texts))
	for i, text := range texts {
		instance, err := structpb.NewStruct(map[string]any{
			"content":   text,
			"task_type": string(taskType),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create instance: %w", err)
		}
		instances[i] = structpb.NewStructValue(instance)
	}
	return &aiplatformpb.PredictRequest{
		Endpoint:   e.endpoint,
		Instances:  instances,
		Parameters: e.parameters,
	}, nil
}

func predictParameters(dimensions int) (*structpb.Value, error) {
	if dimensions <= 0 {
		return nil, nil
	}
	params, err := structpb.NewStruct(map[string]any{"outputDimensionality": dimensions})
	if err != nil {
		return nil, fmt.Errorf("failed to create parameters: %w", err)
	}
	return structpb.NewStructValue(params), nil
}

// parsePrediction extracts {"embeddings": {"values": [...]}} as a unit vector
func parsePrediction(p *structpb.Value) ([]float32, error) {
	values := p.GetStructValue().GetFields()["embeddings"].GetStructValue().GetFields()["values"].GetListValue()
	if values == nil || len(values.GetValues()) == 0 {
		return nil, errors.New("missing embeddings.values")
	}

	vec := make([]float32, len(values.GetValues()))
	for i, v := range values.GetValues() {
		vec[i] = float32(v.GetNumberValue())
	}
	return Normalize(vec), nil
}
