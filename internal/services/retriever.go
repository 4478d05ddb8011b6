package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/geetaway-search-api/internal/corpus"
	"github.com/geetaway-search-api/internal/logger"
	"github.com/geetaway-search-api/internal/models"
)

// ErrInvalidEmbedding is returned when the query embedding has zero length or
// non-finite components; similarity against it is undefined.
var ErrInvalidEmbedding = errors.New("invalid query embedding")

// Retriever embeds enriched queries and runs nearest-neighbor search on the store
type Retriever struct{}

// NewRetriever creates a retriever
func NewRetriever() *Retriever {
	return &Retriever{}
}

// Retrieve returns up to k unadjusted candidates ordered by similarity descending,
// ties in corpus order. Hits outside the record range, repeated hits and hits
// with non-finite scores are dropped.
func (r *Retriever) Retrieve(ctx context.Context, store *corpus.Store, enrichedQuery string, k int) ([]models.Candidate, error) {
	if store.Len() == 0 || k <= 0 {
		return []models.Candidate{}, nil
	}

	vector, err := store.Embedder().EmbedQuery(ctx, enrichedQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if err := checkVector(vector); err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	index := store.Index()
	if dims := index.Dimensions(); dims > 0 && len(vector) != dims {
		return nil, models.NewConfigurationError("embedding",
			"query embedding has %d dimensions, corpus index has %d", len(vector), dims)
	}

	hits, err := index.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(hits))
	seen := make(map[int]struct{}, len(hits))
	for _, h := range hits {
		if math.IsNaN(h.Score) || math.IsInf(h.Score, 0) {
			continue
		}
		rec, ok := store.Record(h.RecordIndex)
		if !ok {
			continue
		}
		if _, dup := seen[h.RecordIndex]; dup {
			continue
		}
		seen[h.RecordIndex] = struct{}{}
		candidates = append(candidates, models.Candidate{
			Record:        rec,
			Index:         h.RecordIndex,
			RawScore:      h.Score,
			AdjustedScore: h.Score,
		})
	}

	slices.SortStableFunc(candidates, func(a, b models.Candidate) int {
		if c := cmp.Compare(b.RawScore, a.RawScore); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	logger.FromContext(ctx).Debug("retrieved candidates",
		zap.Int("hits", len(hits)),
		zap.Int("candidates", len(candidates)),
	)
	return candidates, nil
}

func checkVector(v []float32) error {
	var sum float64
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: component %d is %v", ErrInvalidEmbedding, i, x)
		}
		sum += f * f
	}
	if sum == 0 {
		return fmt.Errorf("%w: zero vector", ErrInvalidEmbedding)
	}
	return nil
}
