// Package corpus owns the process-wide, read-only verse corpus: records, their
// similarity index and the embedding function the index was built with.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/geetaway-search-api/internal/metrics"
	"github.com/geetaway-search-api/internal/models"
	"github.com/geetaway-search-api/internal/repository"
)

// Embedder embeds query text into the index's vector space
type Embedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// Store is an immutable handle on a loaded corpus. It is safe for concurrent use.
type Store struct {
	records  []models.VerseRecord
	index    repository.SimilarityIndex
	embedder Embedder
	chapters int
	loadedAt time.Time
}

// NewStore wraps loaded records and index
func NewStore(records []models.VerseRecord, index repository.SimilarityIndex, embedder Embedder) *Store {
	chapters := make(map[int]struct{})
	for _, r := range records {
		chapters[r.Chapter] = struct{}{}
	}
	return &Store{
		records:  records,
		index:    index,
		embedder: embedder,
		chapters: len(chapters),
		loadedAt: time.Now(),
	}
}

// Len returns the number of verses
func (s *Store) Len() int { return len(s.records) }

// Chapters returns the number of distinct chapters
func (s *Store) Chapters() int { return s.chapters }

// Record returns the verse at corpus position i
func (s *Store) Record(i int) (models.VerseRecord, bool) {
	if i < 0 || i >= len(s.records) {
		return models.VerseRecord{}, false
	}
	return s.records[i], true
}

// Index returns the similarity index
func (s *Store) Index() repository.SimilarityIndex { return s.index }

// Embedder returns the query embedding function
func (s *Store) Embedder() Embedder { return s.embedder }

// LoadedAt returns when the store finished loading
func (s *Store) LoadedAt() time.Time { return s.loadedAt }

// Provider loads the Store at most once at a time. Concurrent callers arriving
// during a load wait for it and share its result; a failed load is retried by the
// next caller so a repaired backend is picked up without a restart.
type Provider struct {
	repo     repository.CorpusRepository
	embedder Embedder
	logger   *zap.Logger

	group   singleflight.Group
	store   atomic.Pointer[Store]
	mu      sync.Mutex
	lastErr error
}

// NewProvider creates a lazy store provider
func NewProvider(repo repository.CorpusRepository, embedder Embedder, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{repo: repo, embedder: embedder, logger: logger}
}

// Store returns the loaded store, loading it on first use. Load failures are
// reported as models.ErrResourceUnavailable unless they are configuration errors.
func (p *Provider) Store(ctx context.Context) (*Store, error) {
	if s := p.store.Load(); s != nil {
		return s, nil
	}

	ch := p.group.DoChan("load", func() (any, error) {
		if s := p.store.Load(); s != nil {
			return s, nil
		}
		// Detach from the first caller's cancellation; other callers share this load.
		s, err := p.load(context.WithoutCancel(ctx))
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		if err != nil {
			return nil, err
		}
		p.store.Store(s)
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Store), nil
	}
}

// Loaded reports whether the store is ready without triggering a load
func (p *Provider) Loaded() bool {
	return p.store.Load() != nil
}

// LastError returns the error of the most recent load attempt, if any
func (p *Provider) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Provider) load(ctx context.Context) (*Store, error) {
	start := time.Now()
	p.logger.Info("loading verse corpus")

	records, index, err := p.repo.Load(ctx)
	if err != nil {
		p.logger.Error("corpus load failed", zap.Error(err))
		if errors.Is(err, models.ErrConfiguration) || errors.Is(err, models.ErrResourceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("load corpus: %v: %w", err, models.ErrResourceUnavailable)
	}

	s := NewStore(records, index, p.embedder)
	metrics.CorpusVerses.Set(float64(s.Len()))
	p.logger.Info("verse corpus loaded",
		zap.Int("verses", s.Len()),
		zap.Int("chapters", s.Chapters()),
		zap.Int("dimensions", index.Dimensions()),
		zap.Duration("took", time.Since(start)),
	)
	return s, nil
}
