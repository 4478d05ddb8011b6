package repository

import (
	"context"

	"github.com/geetaway-search-api/internal/models"
)

// Hit is a raw nearest-neighbor match: a position in the corpus record sequence and
// its inner-product similarity to the query vector.
type Hit struct {
	RecordIndex int
	Score       float64
}

// SimilarityIndex defines nearest-neighbor search over unit-normalized verse embeddings
type SimilarityIndex interface {
	// Search returns up to k hits ordered by similarity descending. A RecordIndex may
	// fall outside the record sequence; callers drop such hits.
	Search(ctx context.Context, vector []float32, k int) ([]Hit, error)

	// Dimensions returns the embedding dimensionality the index was built with
	Dimensions() int
}

// CorpusRepository loads the read-only verse corpus and its prebuilt index.
// Records are returned ordered by chapter, then verse.
type CorpusRepository interface {
	Load(ctx context.Context) ([]models.VerseRecord, SimilarityIndex, error)
}
