// setup
//
// This script provisions the Vertex AI Vector Search index and endpoint used by
// the vertex corpus backend.
//
// Prerequisites:
// 1. Build the corpus: go run ./scripts/build-index
// 2. Optionally upload it for a batch import:
//    gsutil cp data/embeddings.jsonl gs://YOUR_BUCKET/embeddings/
//
// Environment variables:
//   VERTEX_PROJECT_ID        - GCP project (falls back to GCP_PROJECT_ID)
//   VERTEX_LOCATION          - Region (default: us-central1)
//   VERTEX_DISTANCE_MEASURE  - DOT_PRODUCT_DISTANCE (default) or COSINE_DISTANCE
//   EMBEDDING_DIMENSIONS     - Vector size (default: 384)
//   GCS_BUCKET_URI           - Optional initial contents (gs://bucket/embeddings)
//   INDEX_DISPLAY_NAME       - Display name (default: geetaway-verses)
//
// Usage:
//   go run ./scripts/setup -create-index
//   go run ./scripts/setup -create-endpoint
//   go run ./scripts/setup -deploy -index-id=XXX -endpoint-id=YYY
//
// The deploy step prints the VERTEX_INDEX_ENDPOINT_ID and VERTEX_DEPLOYED_INDEX_ID
// values for .env. Stream the embeddings afterwards with ./scripts/upsert.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"strings"
	"time"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	aiplatformpb "cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/geetaway-search-api/internal/logger"
	"github.com/geetaway-search-api/pkg/schema/config"
)

type setup struct {
	endpoint        string
	parent          string
	displayName     string
	dimensions      int
	distanceMeasure string
	logger          *zap.Logger
}

func main() {
	createIndex := flag.Bool("create-index", false, "Create a new index")
	createEndpoint := flag.Bool("create-endpoint", false, "Create a new endpoint")
	deployIndex := flag.Bool("deploy", false, "Deploy index to endpoint")
	indexID := flag.String("index-id", "", "Index ID (for deploy)")
	endpointID := flag.String("endpoint-id", "", "Endpoint ID (for deploy)")
	flag.Parse()

	_ = godotenv.Load()

	zl, err := logger.New(logger.Config{Env: os.Getenv("ENV"), Level: os.Getenv("LOG_LEVEL"), Service: "setup"})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	projectID := firstNonEmpty(os.Getenv("VERTEX_PROJECT_ID"), os.Getenv("GCP_PROJECT_ID"))
	if projectID == "" {
		zl.Fatal("VERTEX_PROJECT_ID or GCP_PROJECT_ID environment variable is required")
	}
	location := firstNonEmpty(os.Getenv("VERTEX_LOCATION"), "us-central1")

	s := &setup{
		endpoint:        fmt.Sprintf("%s-aiplatform.googleapis.com:443", location),
		parent:          fmt.Sprintf("projects/%s/locations/%s", projectID, location),
		displayName:     firstNonEmpty(os.Getenv("INDEX_DISPLAY_NAME"), "geetaway-verses"),
		dimensions:      config.GetConfig().EmbeddingDimensions,
		distanceMeasure: firstNonEmpty(os.Getenv("VERTEX_DISTANCE_MEASURE"), "DOT_PRODUCT_DISTANCE"),
		logger:          zl,
	}

	ctx := context.Background()
	switch {
	case *createIndex:
		err = s.createIndex(ctx, os.Getenv("GCS_BUCKET_URI"))
	case *createEndpoint:
		err = s.createEndpoint(ctx)
	case *deployIndex:
		if *indexID == "" || *endpointID == "" {
			zl.Fatal("-index-id and -endpoint-id are required for deployment")
		}
		err = s.deploy(ctx, *indexID, *endpointID)
	default:
		fmt.Println("Vertex AI Vector Search Setup")
		fmt.Println()
		fmt.Println("  1. Create index:    go run ./scripts/setup -create-index")
		fmt.Println("  2. Create endpoint: go run ./scripts/setup -create-endpoint")
		fmt.Println("  3. Deploy:          go run ./scripts/setup -deploy -index-id=XXX -endpoint-id=YYY")
		fmt.Println()
		fmt.Printf("  Parent:     %s\n", s.parent)
		fmt.Printf("  Name:       %s\n", s.displayName)
		fmt.Printf("  Dimensions: %d\n", s.dimensions)
		fmt.Printf("  Distance:   %s\n", s.distanceMeasure)
	}
	if err != nil {
		zl.Fatal("setup failed", zap.Error(err))
	}
}

func (s *setup) createIndex(ctx context.Context, contentsURI string) error {
	client, err := aiplatform.NewIndexClient(ctx, option.WithEndpoint(s.endpoint))
	if err != nil {
		return fmt.Errorf("create index client: %w", err)
	}
	defer client.Close()

	metadata, err := indexMetadata(s.dimensions, s.distanceMeasure, contentsURI)
	if err != nil {
		return err
	}

	op, err := client.CreateIndex(ctx, &aiplatformpb.CreateIndexRequest{
		Parent: s.parent,
		Index: &aiplatformpb.Index{
			DisplayName:       s.displayName,
			Description:       "Bhagavad Gita verse embeddings for guidance search",
			Metadata:          metadata,
			IndexUpdateMethod: aiplatformpb.Index_STREAM_UPDATE,
		},
	})
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.logger.Info("index creation started; this may take 30-60 minutes",
		zap.String("operation", op.Name()),
		zap.Int("dimensions", s.dimensions),
	)

	index, err := op.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for index: %w", err)
	}
	s.logger.Info("index created", zap.String("name", index.Name), zap.String("index_id", path.Base(index.Name)))
	return nil
}

// indexMetadata builds the nested tree-AH config the index API expects
func indexMetadata(dimensions int, distanceMeasure, contentsURI string) (*structpb.Value, error) {
	fields := map[string]any{
		"config": map[string]any{
			"dimensions":                dimensions,
			"approximateNeighborsCount": 50,
			"distanceMeasureType":       distanceMeasure,
			"featureNormType":           "UNIT_L2_NORM",
			"algorithmConfig": map[string]any{
				"treeAhConfig": map[string]any{
					"leafNodeEmbeddingCount":   500,
					"leafNodesToSearchPercent": 10,
				},
			},
		},
	}
	if contentsURI != "" {
		fields["contentsDeltaUri"] = contentsURI
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build index metadata: %w", err)
	}
	return structpb.NewStructValue(st), nil
}

func (s *setup) createEndpoint(ctx context.Context) error {
	client, err := aiplatform.NewIndexEndpointClient(ctx, option.WithEndpoint(s.endpoint))
	if err != nil {
		return fmt.Errorf("create endpoint client: %w", err)
	}
	defer client.Close()

	op, err := client.CreateIndexEndpoint(ctx, &aiplatformpb.CreateIndexEndpointRequest{
		Parent: s.parent,
		IndexEndpoint: &aiplatformpb.IndexEndpoint{
			DisplayName:           s.displayName + "-endpoint",
			Description:           "Public endpoint for verse search",
			PublicEndpointEnabled: true,
		},
	})
	if err != nil {
		return fmt.Errorf("create endpoint: %w", err)
	}
	s.logger.Info("endpoint creation started", zap.String("operation", op.Name()))

	ep, err := op.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for endpoint: %w", err)
	}
	s.logger.Info("endpoint created",
		zap.String("endpoint_id", path.Base(ep.Name)),
		zap.String("public_domain", ep.PublicEndpointDomainName),
	)
	return nil
}

func (s *setup) deploy(ctx context.Context, indexID, endpointID string) error {
	client, err := aiplatform.NewIndexEndpointClient(ctx, option.WithEndpoint(s.endpoint))
	if err != nil {
		return fmt.Errorf("create endpoint client: %w", err)
	}
	defer client.Close()

	// Deployed index IDs must start with a letter and hold only letters, digits and underscores
	deployedIndexID := fmt.Sprintf("deployed_%s_%d", strings.ReplaceAll(s.displayName, "-", "_"), time.Now().Unix())

	op, err := client.DeployIndex(ctx, &aiplatformpb.DeployIndexRequest{
		IndexEndpoint: fmt.Sprintf("%s/indexEndpoints/%s", s.parent, endpointID),
		DeployedIndex: &aiplatformpb.DeployedIndex{
			Id:    deployedIndexID,
			Index: fmt.Sprintf("%s/indexes/%s", s.parent, indexID),
			AutomaticResources: &aiplatformpb.AutomaticResources{
				MinReplicaCount: 1,
				MaxReplicaCount: 2,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deploy index: %w", err)
	}
	s.logger.Info("deployment started; this may take 20-30 minutes", zap.String("operation", op.Name()))

	if _, err := op.Wait(ctx); err != nil {
		return fmt.Errorf("wait for deployment: %w", err)
	}
	s.logger.Info("index deployed; add to .env",
		zap.String("VERTEX_INDEX_ENDPOINT_ID", endpointID),
		zap.String("VERTEX_DEPLOYED_INDEX_ID", deployedIndexID),
	)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
