package services

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geetaway-search-api/internal/corpus"
	"github.com/geetaway-search-api/internal/models"
	"github.com/geetaway-search-api/internal/repository"
)

func TestRetriever_Retrieve(t *testing.T) {
	records := []models.VerseRecord{
		verse(2, 14, "The contacts of the senses are temporary", true),
		verse(2, 47, "You have a right to perform your duty", true),
		verse(6, 5, "One must elevate oneself by the mind", true),
	}
	index := &fakeIndex{dims: 4, hits: []repository.Hit{
		{RecordIndex: 2, Score: 0.41},
		{RecordIndex: 7, Score: 0.90}, // out of range
		{RecordIndex: 1, Score: 0.62},
		{RecordIndex: 1, Score: 0.62}, // repeated
		{RecordIndex: 0, Score: 0.41},
	}}
	emb := &fakeEmbedder{dims: 4}
	store := corpus.NewStore(records, index, emb)

	got, err := NewRetriever().Retrieve(context.Background(), store, "enriched", 12)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "2.47", got[0].Ref().ID())
	// Equal scores fall back to corpus order
	assert.Equal(t, "2.14", got[1].Ref().ID())
	assert.Equal(t, "6.5", got[2].Ref().ID())

	for _, c := range got {
		assert.Equal(t, c.RawScore, c.AdjustedScore)
		assert.Equal(t, models.WarningNone, c.Warning)
		assert.Equal(t, models.ContextFlags{}, c.Flags)
	}
	assert.Equal(t, []string{"enriched"}, emb.queries)
}

func TestRetriever_DimensionMismatch(t *testing.T) {
	store := corpus.NewStore(
		[]models.VerseRecord{verse(1, 1, "text", true)},
		&fakeIndex{dims: 3},
		&fakeEmbedder{dims: 4},
	)

	_, err := NewRetriever().Retrieve(context.Background(), store, "q", 12)
	assert.ErrorIs(t, err, models.ErrConfiguration)

	var cfgErr *models.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRetriever_EmptyCorpus(t *testing.T) {
	emb := &fakeEmbedder{dims: 4}
	store := corpus.NewStore(nil, &fakeIndex{}, emb)

	got, err := NewRetriever().Retrieve(context.Background(), store, "q", 12)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, emb.queries)
}

func TestRetriever_Failures(t *testing.T) {
	records := []models.VerseRecord{verse(1, 1, "text", true)}

	_, err := NewRetriever().Retrieve(context.Background(),
		corpus.NewStore(records, &fakeIndex{dims: 4}, &fakeEmbedder{err: errBoom}), "q", 12)
	assert.ErrorIs(t, err, errBoom)

	_, err = NewRetriever().Retrieve(context.Background(),
		corpus.NewStore(records, &fakeIndex{dims: 4, err: errBoom}, &fakeEmbedder{dims: 4}), "q", 12)
	assert.ErrorIs(t, err, errBoom)
}

func TestRetriever_RejectsDegenerateQueryVector(t *testing.T) {
	records := []models.VerseRecord{verse(1, 1, "text", true)}
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		name   string
		vector []float32
	}{
		{"zero", []float32{0, 0, 0, 0}},
		{"empty", []float32{}},
		{"nan", []float32{1, nan, 0, 0}},
		{"inf", []float32{inf, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := corpus.NewStore(records, &fakeIndex{dims: 4}, &fakeEmbedder{vector: tt.vector})
			_, err := NewRetriever().Retrieve(context.Background(), store, "q", 12)
			assert.ErrorIs(t, err, ErrInvalidEmbedding)
		})
	}
}

func TestRetriever_DropsNonFiniteHits(t *testing.T) {
	records := []models.VerseRecord{
		verse(1, 1, "a", true),
		verse(1, 2, "b", true),
		verse(1, 3, "c", true),
	}
	index := &fakeIndex{dims: 4, hits: []repository.Hit{
		{RecordIndex: 0, Score: math.NaN()},
		{RecordIndex: 1, Score: 0.5},
		{RecordIndex: 2, Score: math.Inf(1)},
	}}
	store := corpus.NewStore(records, index, &fakeEmbedder{dims: 4})

	got, err := NewRetriever().Retrieve(context.Background(), store, "q", 12)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1.2", got[0].Ref().ID())
}
