package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/geetaway-search-api/internal/models"
	"github.com/geetaway-search-api/internal/repository"
)

// Ensure the PostgreSQL types implement the repository interfaces
var (
	_ repository.CorpusRepository = (*CorpusRepository)(nil)
	_ repository.SimilarityIndex  = (*VectorIndex)(nil)
)

// CorpusRepository implements repository.CorpusRepository for PostgreSQL with pgvector
type CorpusRepository struct {
	db *sqlx.DB
}

// NewCorpusRepository creates a new PostgreSQL corpus repository
func NewCorpusRepository(db *sqlx.DB) *CorpusRepository {
	return &CorpusRepository{db: db}
}

type verseRow struct {
	Chapter     int            `db:"chapter"`
	Verse       int            `db:"verse"`
	Sanskrit    string         `db:"sanskrit"`
	English     string         `db:"english"`
	Themes      pq.StringArray `db:"themes"`
	IsPractical bool           `db:"is_practical"`
}

// Load reads every verse in corpus order and returns a pgvector-backed index
func (r *CorpusRepository) Load(ctx context.Context) ([]models.VerseRecord, repository.SimilarityIndex, error) {
	var rows []verseRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT chapter, verse, sanskrit, english, themes, is_practical
		FROM verses
		ORDER BY chapter, verse
	`); err != nil {
		return nil, nil, fmt.Errorf("load verses: %v: %w", err, models.ErrResourceUnavailable)
	}

	records := make([]models.VerseRecord, len(rows))
	positions := make(map[models.VerseRef]int, len(rows))
	for i, row := range rows {
		ref := models.VerseRef{Chapter: row.Chapter, Verse: row.Verse}
		themes := []string(row.Themes)
		if themes == nil {
			themes = []string{}
		}
		records[i] = models.VerseRecord{
			VerseRef:       ref,
			SourceText:     row.Sanskrit,
			TranslatedText: row.English,
			Themes:         themes,
			IsPractical:    row.IsPractical,
		}
		positions[ref] = i
	}

	var dims int
	if len(rows) > 0 {
		if err := r.db.GetContext(ctx, &dims, `SELECT vector_dims(embedding) FROM verses LIMIT 1`); err != nil {
			return nil, nil, fmt.Errorf("read embedding dimensions: %v: %w", err, models.ErrResourceUnavailable)
		}
	}

	return records, &VectorIndex{db: r.db, positions: positions, dims: dims}, nil
}

// VectorIndex implements repository.SimilarityIndex with pgvector cosine distance
type VectorIndex struct {
	db        *sqlx.DB
	positions map[models.VerseRef]int
	dims      int
}

// Search performs vector similarity search on verses using pgvector
func (x *VectorIndex) Search(ctx context.Context, embedding []float32, topK int) ([]repository.Hit, error) {
	vec := pgvector.NewVector(embedding)

	rows, err := x.db.QueryxContext(ctx, `
		SELECT chapter, verse, 1 - (embedding <=> $1::vector) AS score
		FROM verses
		ORDER BY embedding <=> $1::vector, chapter, verse
		LIMIT $2
	`, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search verses: %w", err)
	}
	defer rows.Close()

	hits := []repository.Hit{}
	for rows.Next() {
		var ref models.VerseRef
		var score float64
		if err := rows.Scan(&ref.Chapter, &ref.Verse, &score); err != nil {
			return nil, fmt.Errorf("scan verse result: %w", err)
		}
		pos, ok := x.positions[ref]
		if !ok {
			pos = -1
		}
		hits = append(hits, repository.Hit{RecordIndex: pos, Score: score})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verse results: %w", err)
	}
	return hits, nil
}

// Dimensions returns the dimensionality of the stored embeddings
func (x *VectorIndex) Dimensions() int {
	return x.dims
}

// UpsertVerse writes a verse and its embedding. Used by the offline index builder only.
func UpsertVerse(ctx context.Context, db *sqlx.DB, rec models.VerseRecord, embedding []float32) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO verses (chapter, verse, sanskrit, english, themes, is_practical, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (chapter, verse) DO UPDATE SET
			sanskrit = EXCLUDED.sanskrit,
			english = EXCLUDED.english,
			themes = EXCLUDED.themes,
			is_practical = EXCLUDED.is_practical,
			embedding = EXCLUDED.embedding
	`, rec.Chapter, rec.Verse, rec.SourceText, rec.TranslatedText,
		pq.Array(rec.Themes), rec.IsPractical, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("upsert verse %s: %w", rec.ID(), err)
	}
	return nil
}
