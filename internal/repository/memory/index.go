package memory

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	chromem "github.com/philippgille/chromem-go"

	"github.com/geetaway-search-api/internal/models"
	"github.com/geetaway-search-api/internal/repository"
)

const collectionName = "verses"

// Ensure Index implements repository.SimilarityIndex
var _ repository.SimilarityIndex = (*Index)(nil)

// errQueryText is returned if chromem is ever asked to embed text itself; the
// retriever always passes precomputed query vectors.
var errQueryText = errors.New("verse index only accepts precomputed embeddings")

// Index is an exact inner-product index held in process memory
type Index struct {
	collection *chromem.Collection
	positions  map[string]int
	dims       int
}

// NewIndex builds an index over records and their embeddings, given in the same order
func NewIndex(ctx context.Context, records []models.VerseRecord, vectors [][]float32) (*Index, error) {
	if len(records) != len(vectors) {
		return nil, fmt.Errorf("got %d vectors for %d records", len(vectors), len(records))
	}

	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, func(context.Context, string) ([]float32, error) {
		return nil, errQueryText
	})
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	idx := &Index{
		collection: col,
		positions:  make(map[string]int, len(records)),
	}
	if len(records) == 0 {
		return idx, nil
	}

	idx.dims = len(vectors[0])
	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		if len(vectors[i]) != idx.dims {
			return nil, fmt.Errorf("verse %s has %d dimensions, expected %d", r.ID(), len(vectors[i]), idx.dims)
		}
		docs[i] = chromem.Document{
			ID:        r.ID(),
			Content:   r.TranslatedText,
			Embedding: vectors[i],
		}
		idx.positions[r.ID()] = i
	}

	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("add documents: %w", err)
	}
	return idx, nil
}

// Search performs exact cosine search. chromem rejects nResults larger than the
// collection, so k is clamped to the corpus size.
func (x *Index) Search(ctx context.Context, vector []float32, k int) ([]repository.Hit, error) {
	n := min(k, x.collection.Count())
	if n <= 0 {
		return []repository.Hit{}, nil
	}

	results, err := x.collection.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]repository.Hit, 0, len(results))
	for _, r := range results {
		pos, ok := x.positions[r.ID]
		if !ok {
			pos = -1
		}
		hits = append(hits, repository.Hit{RecordIndex: pos, Score: float64(r.Similarity)})
	}
	return hits, nil
}

// Dimensions returns the embedding dimensionality, or 0 for an empty index
func (x *Index) Dimensions() int {
	return x.dims
}
