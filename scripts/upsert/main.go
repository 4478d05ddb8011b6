// upsert
//
// This script streams the verse embeddings written by build-index to Vertex AI
// Vector Search using the UpsertDatapoints API.
//
// Prerequisites:
// 1. Build the corpus with ./scripts/build-index
// 2. Create and deploy a streaming-update index with the same dimensionality
//
// Environment variables:
//   VERTEX_PROJECT_ID   - GCP project (falls back to GCP_PROJECT_ID)
//   VERTEX_LOCATION     - Region (default: us-central1)
//   VERTEX_INDEX_ID     - The index ID to update
//
// Usage:
//   go run ./scripts/upsert -embeddings data/embeddings.jsonl

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	aiplatformpb "cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/geetaway-search-api/internal/logger"
	"github.com/geetaway-search-api/internal/repository/memory"
)

const (
	batchSize = 100 // Number of datapoints per upsert request
)

func main() {
	embeddingsPath := flag.String("embeddings", "data/embeddings.jsonl", "Embeddings JSONL written by build-index")
	flag.Parse()

	_ = godotenv.Load()

	zl, err := logger.New(logger.Config{Env: os.Getenv("ENV"), Level: os.Getenv("LOG_LEVEL"), Service: "upsert"})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	projectID := os.Getenv("VERTEX_PROJECT_ID")
	if projectID == "" {
		projectID = os.Getenv("GCP_PROJECT_ID")
	}
	if projectID == "" {
		zl.Fatal("VERTEX_PROJECT_ID or GCP_PROJECT_ID environment variable is required")
	}

	location := os.Getenv("VERTEX_LOCATION")
	if location == "" {
		location = "us-central1"
	}

	indexID := os.Getenv("VERTEX_INDEX_ID")
	if indexID == "" {
		zl.Fatal("VERTEX_INDEX_ID environment variable is required")
	}

	ctx := context.Background()

	endpoint := fmt.Sprintf("%s-aiplatform.googleapis.com:443", location)
	client, err := aiplatform.NewIndexClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		zl.Fatal("failed to create index client", zap.Error(err))
	}
	defer client.Close()

	indexName := fmt.Sprintf("projects/%s/locations/%s/indexes/%s", projectID, location, indexID)
	zl.Info("upserting embeddings", zap.String("index", indexName), zap.String("source", *embeddingsPath))

	f, err := os.Open(filepath.Clean(*embeddingsPath))
	if err != nil {
		zl.Fatal("failed to open embeddings file", zap.Error(err))
	}
	defer f.Close()

	var batch []*aiplatformpb.IndexDatapoint
	totalCount := 0
	batchCount := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := upsertBatch(ctx, client, indexName, batch); err != nil {
			return err
		}
		batchCount++
		zl.Info("upserted batch", zap.Int("batch", batchCount), zap.Int("total", totalCount))
		batch = batch[:0]
		return nil
	}

	err = memory.ScanDataPoints(f, func(dp memory.DataPoint) error {
		batch = append(batch, toIndexDatapoint(dp))
		totalCount++
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		zl.Fatal("failed to upsert embeddings", zap.Int("upserted", totalCount-len(batch)), zap.Error(err))
	}

	zl.Info("upsert complete", zap.Int("datapoints", totalCount), zap.Int("batches", batchCount))
}

func toIndexDatapoint(dp memory.DataPoint) *aiplatformpb.IndexDatapoint {
	restricts := make([]*aiplatformpb.IndexDatapoint_Restriction, len(dp.Restricts))
	for i, r := range dp.Restricts {
		restricts[i] = &aiplatformpb.IndexDatapoint_Restriction{
			Namespace: r.Namespace,
			AllowList: r.Allow,
		}
	}
	return &aiplatformpb.IndexDatapoint{
		DatapointId:   dp.ID,
		FeatureVector: dp.Embedding,
		Restricts:     restricts,
	}
}

func upsertBatch(ctx context.Context, client *aiplatform.IndexClient, indexName string, datapoints []*aiplatformpb.IndexDatapoint) error {
	req := &aiplatformpb.UpsertDatapointsRequest{
		Index:      indexName,
		Datapoints: datapoints,
	}

	_, err := client.UpsertDatapoints(ctx, req)
	return err
}
