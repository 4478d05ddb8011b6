package services

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/geetaway-search-api/internal/corpus"
	"github.com/geetaway-search-api/internal/generator"
	"github.com/geetaway-search-api/internal/models"
	"github.com/geetaway-search-api/internal/policy"
	"github.com/geetaway-search-api/internal/repository"
)

var testPolicy = policy.MustDefault()

// fakeIndex returns preset hits regardless of the query vector
type fakeIndex struct {
	hits []repository.Hit
	dims int
	err  error
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, k int) ([]repository.Hit, error) {
	if f.err != nil {
		return nil, f.err
	}
	hits := f.hits
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *fakeIndex) Dimensions() int { return f.dims }

// fakeEmbedder returns vector when set, else the first basis vector of dims
type fakeEmbedder struct {
	dims    int
	vector  []float32
	queries []string
	err     error
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, q string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.queries = append(f.queries, q)
	if f.vector != nil {
		return f.vector, nil
	}
	v := make([]float32, f.dims)
	if f.dims > 0 {
		v[0] = 1
	}
	return v, nil
}

type staticProvider struct {
	store *corpus.Store
	err   error
}

func (p staticProvider) Store(context.Context) (*corpus.Store, error) {
	return p.store, p.err
}

type fakeGenerator struct {
	calls atomic.Int32
	last  generator.Request
	text  string
	err   error
}

func (f *fakeGenerator) Generate(_ context.Context, req generator.Request) (string, error) {
	f.calls.Add(1)
	f.last = req
	return f.text, f.err
}

func (f *fakeGenerator) Model() string { return "fake-model" }

var errBoom = errors.New("boom")

func verse(chapter, v int, text string, practical bool) models.VerseRecord {
	return models.VerseRecord{
		VerseRef:       models.VerseRef{Chapter: chapter, Verse: v},
		SourceText:     "sanskrit",
		TranslatedText: text,
		Themes:         []string{},
		IsPractical:    practical,
	}
}

// newStore builds a store whose index returns the given scores, one per record,
// in record order.
func newStore(records []models.VerseRecord, scores []float64) *corpus.Store {
	hits := make([]repository.Hit, len(scores))
	for i, s := range scores {
		hits[i] = repository.Hit{RecordIndex: i, Score: s}
	}
	return corpus.NewStore(records, &fakeIndex{hits: hits, dims: 4}, &fakeEmbedder{dims: 4})
}

func candidate(chapter, v int, text string, practical bool, raw float64) models.Candidate {
	return models.Candidate{
		Record:        verse(chapter, v, text, practical),
		RawScore:      raw,
		AdjustedScore: raw,
	}
}
