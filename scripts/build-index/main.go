// build-index
//
// This script builds the verse corpus from the cleaned dataset. Each verse is
// tagged with themes, classified as practical or not, and embedded as a
// retrieval document using the configured embedding provider.
//
// Usage:
//   go run ./scripts/build-index -dataset data/bhagavad_gita_clean_final.json
//
// Outputs:
//   data/metadata.json     - verse records, ordered by chapter then verse
//   data/embeddings.jsonl  - one data point per verse, restricted by chapter;
//                            the format Vertex AI Vector Search imports
//
// With -postgres the verses are also upserted into the pgvector table
// (POSTGRES_URI must be set).

package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/geetaway-search-api/internal/indexer"
	"github.com/geetaway-search-api/internal/logger"
	"github.com/geetaway-search-api/internal/repository/memory"
	"github.com/geetaway-search-api/internal/repository/postgres"
	"github.com/geetaway-search-api/pkg/schema/config"
	"github.com/geetaway-search-api/pkg/schema/db"
	"github.com/geetaway-search-api/pkg/schema/services"
)

func main() {
	datasetPath := flag.String("dataset", "data/bhagavad_gita_clean_final.json", "Source dataset (JSON array)")
	metadataPath := flag.String("metadata", "data/metadata.json", "Output metadata.json path")
	embeddingsPath := flag.String("embeddings", "data/embeddings.jsonl", "Output embeddings JSONL path")
	batchSize := flag.Int("batch", 32, "Verses per embedding request")
	concurrency := flag.Int("concurrency", 4, "Embedding requests in flight")
	toPostgres := flag.Bool("postgres", false, "Also upsert verses into PostgreSQL")
	flag.Parse()

	_ = godotenv.Load()

	zl, err := logger.New(logger.Config{Env: os.Getenv("ENV"), Level: os.Getenv("LOG_LEVEL"), Service: "build-index"})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()
	cfg := config.GetConfig()

	f, err := os.Open(filepath.Clean(*datasetPath))
	if err != nil {
		zl.Fatal("failed to open dataset", zap.Error(err))
	}
	verses, err := indexer.ReadDataset(f)
	f.Close()
	if err != nil {
		zl.Fatal("failed to read dataset", zap.Error(err))
	}
	zl.Info("dataset loaded", zap.Int("verses", len(verses)))

	embeddingsSvc, err := services.NewEmbeddingsService(ctx, cfg)
	if err != nil {
		zl.Fatal("failed to initialize embeddings service", zap.Error(err))
	}
	defer embeddingsSvc.Close()

	builder := indexer.NewBuilder(indexer.DefaultClassifier(), embeddingsSvc, indexer.Options{
		BatchSize:   *batchSize,
		Concurrency: *concurrency,
	}, zl)

	entries, err := builder.Build(ctx, verses)
	if err != nil {
		zl.Fatal("failed to build corpus", zap.Error(err))
	}

	practical := 0
	for _, e := range entries {
		if e.Record.IsPractical {
			practical++
		}
	}
	zl.Info("verses embedded", zap.Int("verses", len(entries)), zap.Int("practical", practical))

	if err := os.MkdirAll(filepath.Dir(*metadataPath), 0o755); err != nil {
		zl.Fatal("failed to create output directory", zap.Error(err))
	}
	if err := memory.WriteMetadata(*metadataPath, indexer.Records(entries)); err != nil {
		zl.Fatal("failed to write metadata", zap.Error(err))
	}

	if err := writeEmbeddings(*embeddingsPath, entries); err != nil {
		zl.Fatal("failed to write embeddings", zap.Error(err))
	}
	zl.Info("corpus written", zap.String("metadata", *metadataPath), zap.String("embeddings", *embeddingsPath))

	if *toPostgres {
		if err := upsertPostgres(ctx, cfg, entries, zl); err != nil {
			zl.Fatal("failed to upsert verses into PostgreSQL", zap.Error(err))
		}
	}
}

func writeEmbeddings(path string, entries []indexer.Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range entries {
		dp := memory.DataPoint{
			ID:        e.Record.ID(),
			Embedding: e.Embedding,
			Restricts: []memory.Restrict{
				{
					Namespace: "chapter",
					Allow:     []string{strconv.Itoa(e.Record.Chapter)},
				},
			},
		}
		if err := memory.WriteDataPoint(w, dp); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

func upsertPostgres(ctx context.Context, cfg *config.Config, entries []indexer.Entry, zl *zap.Logger) error {
	pgDB, err := db.OpenPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer pgDB.Close()

	if len(entries) > 0 {
		if err := db.EnsureSchema(ctx, pgDB, len(entries[0].Embedding)); err != nil {
			return err
		}
	}

	for i, e := range entries {
		if err := postgres.UpsertVerse(ctx, pgDB, e.Record, e.Embedding); err != nil {
			return err
		}
		if (i+1)%100 == 0 {
			zl.Info("upserted verses", zap.Int("count", i+1))
		}
	}
	zl.Info("PostgreSQL corpus updated", zap.Int("verses", len(entries)))
	return nil
}
