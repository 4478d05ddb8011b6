package memory

import (
	"context"
	"fmt"

	"github.com/geetaway-search-api/internal/models"
	"github.com/geetaway-search-api/internal/repository"
)

// CorpusRepository implements repository.CorpusRepository from files produced by
// scripts/build-index
type CorpusRepository struct {
	metadataPath   string
	embeddingsPath string
}

// NewCorpusRepository creates a file-backed corpus repository
func NewCorpusRepository(metadataPath, embeddingsPath string) repository.CorpusRepository {
	return &CorpusRepository{
		metadataPath:   metadataPath,
		embeddingsPath: embeddingsPath,
	}
}

// Load reads metadata and embeddings and builds an in-memory index
func (r *CorpusRepository) Load(ctx context.Context) ([]models.VerseRecord, repository.SimilarityIndex, error) {
	records, err := ReadMetadata(r.metadataPath)
	if err != nil {
		return nil, nil, err
	}

	byID, err := ReadEmbeddings(r.embeddingsPath)
	if err != nil {
		return nil, nil, err
	}

	vectors := make([][]float32, len(records))
	for i, rec := range records {
		vec, ok := byID[rec.ID()]
		if !ok {
			return nil, nil, fmt.Errorf("no embedding for verse %s: %w", rec.ID(), models.ErrResourceUnavailable)
		}
		vectors[i] = vec
	}

	idx, err := NewIndex(ctx, records, vectors)
	if err != nil {
		return nil, nil, fmt.Errorf("build index: %v: %w", err, models.ErrResourceUnavailable)
	}
	return records, idx, nil
}
