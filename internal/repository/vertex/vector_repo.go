package vertex

import (
	"context"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	aiplatformpb "cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"

	"github.com/geetaway-search-api/internal/models"
	"github.com/geetaway-search-api/internal/repository"
	"github.com/geetaway-search-api/internal/repository/memory"
)

// Ensure the Vertex types implement the repository interfaces
var (
	_ repository.CorpusRepository = (*CorpusRepository)(nil)
	_ repository.SimilarityIndex  = (*VectorSearchIndex)(nil)
)

// Distance measures configured on the deployed index
const (
	DotProductDistance = "DOT_PRODUCT_DISTANCE"
	CosineDistance     = "COSINE_DISTANCE"
)

// Config holds Vertex AI Vector Search configuration
type Config struct {
	ProjectID            string // GCP project ID
	Location             string // e.g., "us-central1"
	IndexEndpointID      string // Deployed index endpoint ID
	DeployedIndexID      string // The deployed index ID within the endpoint
	PublicEndpointDomain string // Public endpoint domain for queries (e.g., "123.us-central1-456.vdb.vertexai.goog")
	DistanceMeasure      string // DOT_PRODUCT_DISTANCE (default) or COSINE_DISTANCE
	Dimensions           int    // Dimensionality the index was created with
	MetadataPath         string // metadata.json with verse text, themes and practicality flags
}

// CorpusRepository implements repository.CorpusRepository using Vertex AI Vector Search
// for the index and a metadata file for verse records
type CorpusRepository struct {
	config      Config
	matchClient *aiplatform.MatchClient
}

// NewCorpusRepository creates a new Vertex AI corpus repository
func NewCorpusRepository(ctx context.Context, config Config) (*CorpusRepository, error) {
	// For public endpoints, use the public domain; otherwise use regional endpoint
	var endpoint string
	if config.PublicEndpointDomain != "" {
		endpoint = fmt.Sprintf("%s:443", config.PublicEndpointDomain)
	} else {
		endpoint = fmt.Sprintf("%s-aiplatform.googleapis.com:443", config.Location)
	}

	matchClient, err := aiplatform.NewMatchClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("create match client: %w", err)
	}

	return &CorpusRepository{
		config:      config,
		matchClient: matchClient,
	}, nil
}

// Close closes the Vertex AI client
func (r *CorpusRepository) Close() error {
	if r.matchClient != nil {
		return r.matchClient.Close()
	}
	return nil
}

// Load reads verse records from the metadata file and binds them to the deployed index
func (r *CorpusRepository) Load(_ context.Context) ([]models.VerseRecord, repository.SimilarityIndex, error) {
	if r.config.Dimensions <= 0 {
		return nil, nil, models.NewConfigurationError("EMBEDDING_DIMENSIONS", "must be set for the vertex backend")
	}

	records, err := memory.ReadMetadata(r.config.MetadataPath)
	if err != nil {
		return nil, nil, err
	}

	positions := make(map[string]int, len(records))
	for i, rec := range records {
		positions[rec.ID()] = i
	}

	return records, &VectorSearchIndex{
		config:      r.config,
		matchClient: r.matchClient,
		positions:   positions,
	}, nil
}

// VectorSearchIndex implements repository.SimilarityIndex against a deployed index
type VectorSearchIndex struct {
	config      Config
	matchClient *aiplatform.MatchClient
	positions   map[string]int
}

// Dimensions returns the configured index dimensionality
func (x *VectorSearchIndex) Dimensions() int {
	return x.config.Dimensions
}

// Search performs vector similarity search using Vertex AI Vector Search
func (x *VectorSearchIndex) Search(ctx context.Context, embedding []float32, topK int) ([]repository.Hit, error) {
	// Build the index endpoint resource name
	indexEndpoint := fmt.Sprintf(
		"projects/%s/locations/%s/indexEndpoints/%s",
		x.config.ProjectID,
		x.config.Location,
		x.config.IndexEndpointID,
	)

	// Build the FindNeighbors request
	req := &aiplatformpb.FindNeighborsRequest{
		IndexEndpoint:   indexEndpoint,
		DeployedIndexId: x.config.DeployedIndexID,
		Queries: []*aiplatformpb.FindNeighborsRequest_Query{
			{
				Datapoint: &aiplatformpb.IndexDatapoint{
					FeatureVector: embedding,
				},
				NeighborCount: int32(topK),
			},
		},
	}

	// Execute the search
	resp, err := x.matchClient.FindNeighbors(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("find neighbors: %w", err)
	}

	if len(resp.NearestNeighbors) == 0 {
		return []repository.Hit{}, nil
	}
	return toHits(resp.NearestNeighbors[0].Neighbors, x.positions, x.config.DistanceMeasure), nil
}

// toHits converts neighbors to hits, keeping Vertex's relevance order. Unknown
// datapoint IDs map to an out-of-range index.
func toHits(neighbors []*aiplatformpb.FindNeighborsResponse_Neighbor, positions map[string]int, measure string) []repository.Hit {
	hits := make([]repository.Hit, 0, len(neighbors))
	for _, n := range neighbors {
		id := n.GetDatapoint().GetDatapointId()
		pos, ok := positions[id]
		if !ok {
			pos = -1
		}
		hits = append(hits, repository.Hit{
			RecordIndex: pos,
			Score:       similarity(n.GetDistance(), measure),
		})
	}
	return hits
}

// similarity converts a Vertex distance to a similarity score
func similarity(distance float64, measure string) float64 {
	if measure == CosineDistance {
		// For cosine distance: similarity = 1 - distance
		return 1 - distance
	}
	// Dot product "distance" is the inner product itself
	return distance
}
