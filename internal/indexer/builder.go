package indexer

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geetaway-search-api/internal/models"
)

// DocumentEmbedder embeds enriched verse texts as retrieval documents
type DocumentEmbedder interface {
	EmbedVerses(ctx context.Context, texts []string) ([][]float32, error)
}

// Entry is a classified verse with its document embedding
type Entry struct {
	Record    models.VerseRecord
	Text      string
	Embedding []float32
}

// Options controls batching of embedding calls
type Options struct {
	BatchSize   int
	Concurrency int
}

// Builder turns source verses into corpus entries
type Builder struct {
	classifier *Classifier
	embedder   DocumentEmbedder
	opts       Options
	logger     *zap.Logger
}

// NewBuilder creates a builder; zero options fall back to 32 verses per batch
// and four batches in flight
func NewBuilder(classifier *Classifier, embedder DocumentEmbedder, opts Options, logger *zap.Logger) *Builder {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{classifier: classifier, embedder: embedder, opts: opts, logger: logger}
}

// Classify tags each verse and computes its enriched text without embedding
func (b *Builder) Classify(verses []SourceVerse) []Entry {
	entries := make([]Entry, len(verses))
	for i, v := range verses {
		themes := b.classifier.Themes(v.English)
		practical := b.classifier.IsPractical(v.English)
		entries[i] = Entry{
			Record: models.VerseRecord{
				VerseRef:       models.VerseRef{Chapter: v.Chapter, Verse: v.Verse},
				SourceText:     v.Sanskrit,
				TranslatedText: v.English,
				Themes:         themes,
				IsPractical:    practical,
			},
			Text: EnrichedText(v.English, themes, practical),
		}
	}
	slices.SortStableFunc(entries, func(a, c Entry) int {
		switch {
		case a.Record.Less(c.Record.VerseRef):
			return -1
		case c.Record.Less(a.Record.VerseRef):
			return 1
		}
		return 0
	})
	return entries
}

// Build classifies and embeds the verses. Entries come back ordered by
// chapter, then verse.
func (b *Builder) Build(ctx context.Context, verses []SourceVerse) ([]Entry, error) {
	entries := b.Classify(verses)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)

	for start := 0; start < len(entries); start += b.opts.BatchSize {
		end := min(start+b.opts.BatchSize, len(entries))
		batch := entries[start:end]
		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, e := range batch {
				texts[i] = e.Text
			}
			vectors, err := b.embedder.EmbedVerses(ctx, texts)
			if err != nil {
				return fmt.Errorf("embed verses %s..%s: %w", batch[0].Record.ID(), batch[len(batch)-1].Record.ID(), err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embed verses %s..%s: got %d vectors for %d texts",
					batch[0].Record.ID(), batch[len(batch)-1].Record.ID(), len(vectors), len(batch))
			}
			for i := range batch {
				batch[i].Embedding = vectors[i]
			}
			b.logger.Debug("embedded batch",
				zap.String("first", batch[0].Record.ID()),
				zap.Int("size", len(batch)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(entries) > 0 {
		dims := len(entries[0].Embedding)
		for _, e := range entries {
			if len(e.Embedding) != dims {
				return nil, fmt.Errorf("verse %s has %d dimensions, expected %d", e.Record.ID(), len(e.Embedding), dims)
			}
		}
	}
	return entries, nil
}

// Records returns the verse records of the entries in order
func Records(entries []Entry) []models.VerseRecord {
	records := make([]models.VerseRecord, len(entries))
	for i, e := range entries {
		records[i] = e.Record
	}
	return records
}
