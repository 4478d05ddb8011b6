package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/geetaway-search-api/internal/corpus"
	"github.com/geetaway-search-api/internal/logger"
	"github.com/geetaway-search-api/internal/metrics"
	"github.com/geetaway-search-api/internal/models"
	"github.com/geetaway-search-api/internal/policy"
)

// StoreProvider yields the loaded corpus store
type StoreProvider interface {
	Store(ctx context.Context) (*corpus.Store, error)
}

// SearchOptions are the per-request knobs of a search
type SearchOptions struct {
	// MaxResults bounds the result; zero selects the policy default
	MaxResults      int
	FilterPractical bool
}

// SearchOutcome is a completed retrieval: the ranked result plus what the
// question was classified and enriched as
type SearchOutcome struct {
	Query         string
	EnhancedQuery string
	Categories    models.ProblemCategories
	Result        models.RankedResult
}

// SearchService runs the retrieval path: contextualize, retrieve, adjust, select
type SearchService struct {
	store          StoreProvider
	policy         *policy.Policy
	contextualizer *Contextualizer
	retriever      *Retriever
	adjuster       *Adjuster
}

// NewSearchService creates the retrieval pipeline
func NewSearchService(store StoreProvider, p *policy.Policy) *SearchService {
	return &SearchService{
		store:          store,
		policy:         p,
		contextualizer: NewContextualizer(p),
		retriever:      NewRetriever(),
		adjuster:       NewAdjuster(p),
	}
}

// Search runs the pipeline for a question. An empty result is not an error;
// callers check Result.Empty(). Store and configuration failures are returned
// wrapped around models.ErrResourceUnavailable / models.ErrConfiguration.
func (s *SearchService) Search(ctx context.Context, query string, opts SearchOptions) (*SearchOutcome, error) {
	log := logger.FromContext(ctx)

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.policy.Retrieval.MaxResults
	}
	fetchK := max(s.policy.Retrieval.FetchK, maxResults)

	start := time.Now()
	cats := s.contextualizer.Classify(query)
	enhanced := s.contextualizer.enhance(query, cats)
	observeStage("contextualize", start)

	store, err := s.store.Store(ctx)
	if err != nil {
		metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		if errors.Is(err, models.ErrConfiguration) || errors.Is(err, models.ErrResourceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("corpus store: %v: %w", err, models.ErrResourceUnavailable)
	}

	start = time.Now()
	candidates, err := s.retriever.Retrieve(ctx, store, enhanced, fetchK)
	observeStage("retrieve", start)
	if err != nil {
		metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	start = time.Now()
	adjusted := s.adjuster.Adjust(candidates, query)
	observeStage("adjust", start)
	for _, c := range adjusted {
		if c.Warning != models.WarningNone {
			metrics.ContextWarningsTotal.WithLabelValues(string(c.Warning)).Inc()
		}
	}

	start = time.Now()
	result := Select(adjusted, opts.FilterPractical, maxResults)
	observeStage("select", start)

	outcome := "ok"
	if result.Empty() {
		outcome = "no_results"
	}
	metrics.SearchQueriesTotal.WithLabelValues(outcome).Inc()

	log.Debug("search completed",
		zap.String("enhanced_query", enhanced),
		zap.Int("retrieved", len(candidates)),
		zap.Int("selected", result.Len()),
		zap.Bool("filter_practical", opts.FilterPractical),
	)

	return &SearchOutcome{
		Query:         query,
		EnhancedQuery: enhanced,
		Categories:    cats,
		Result:        result,
	}, nil
}

func observeStage(stage string, start time.Time) {
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
