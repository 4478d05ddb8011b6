package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/geetaway-search-api/internal/generator"
	"github.com/geetaway-search-api/internal/logger"
	"github.com/geetaway-search-api/internal/metrics"
	"github.com/geetaway-search-api/internal/models"
	"github.com/geetaway-search-api/internal/policy"
)

const noResultsMessage = `No verses matched your question. Try rephrasing it in your own words, for example "I'm struggling to balance work and family responsibilities".`

const lowConfidenceMessage = `No highly relevant verses were found for your question.

Try being more specific:
- Instead of "I need help", try "I feel anxious about an upcoming job interview"
- Instead of "Life is hard", try "I'm struggling to balance work and family responsibilities"

Example questions:
- "How do I handle conflict with a difficult colleague?"
- "I'm afraid of making the wrong career decision"
- "I feel stuck and unmotivated in my daily routine"`

var fallbackMessages = map[models.GuidanceFailure]string{
	models.GuidanceFailureCredentials: "Guidance is unavailable: the guidance service credentials are missing or invalid. The verses above were selected for your question.",
	models.GuidanceFailureRateLimited: "Guidance is temporarily unavailable because the guidance service is receiving too many requests. Please try again in a minute. The verses above were selected for your question.",
	models.GuidanceFailureUnavailable: "Guidance is temporarily unavailable because the guidance service could not be reached. The verses above were selected for your question.",
	models.GuidanceFailureUnknown:     "Guidance could not be generated right now. The verses above were selected for your question.",
}

// FallbackMessage returns the user-facing text for a guidance failure cause
func FallbackMessage(cause models.GuidanceFailure) string {
	if msg, ok := fallbackMessages[cause]; ok {
		return msg
	}
	return fallbackMessages[models.GuidanceFailureUnknown]
}

// GuidanceService reranks a result for suitability and dispatches the top
// suggestions to the guidance generator. It never returns an error: failures
// become templated responses with a status.
type GuidanceService struct {
	reranker  *Reranker
	generator generator.Generator
	timeout   time.Duration
}

// NewGuidanceService creates the guidance boundary. A nil generator disables
// generation; every eligible request then gets the unavailable fallback.
func NewGuidanceService(p *policy.Policy, gen generator.Generator, timeout time.Duration) *GuidanceService {
	return &GuidanceService{
		reranker:  NewReranker(p),
		generator: gen,
		timeout:   timeout,
	}
}

// Guide produces guidance for a problem from its ranked result
func (s *GuidanceService) Guide(ctx context.Context, problem string, result models.RankedResult) *models.GuidanceResponse {
	log := logger.FromContext(ctx)

	if result.Empty() {
		return s.respond(models.GuidanceNoResults, noResultsMessage, nil)
	}

	suggestions, err := s.reranker.Rerank(result, problem)
	if err != nil {
		log.Debug("guidance skipped", zap.Int("candidates", result.Len()), zap.Error(err))
		return s.respond(models.GuidanceLowConfidence, lowConfidenceMessage, nil)
	}
	selected := selectedVerse(suggestions[0])

	if s.generator == nil {
		return s.respond(models.GuidanceFallback, FallbackMessage(models.GuidanceFailureUnavailable), selected)
	}

	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.generator.Generate(genCtx, generator.Request{Problem: problem, Suggestions: suggestions})
	metrics.GuidanceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		cause := models.GuidanceFailureUnknown
		var gErr *models.GuidanceServiceError
		if errors.As(err, &gErr) {
			cause = gErr.Cause
		} else if errors.Is(err, context.DeadlineExceeded) {
			cause = models.GuidanceFailureUnavailable
		}
		log.Warn("guidance generation failed",
			zap.String("cause", string(cause)),
			zap.String("model", s.generator.Model()),
			zap.Error(err),
		)
		resp := s.respond(models.GuidanceFallback, FallbackMessage(cause), selected)
		resp.ModelUsed = s.generator.Model()
		return resp
	}

	resp := s.respond(models.GuidanceDispatched, text, selected)
	resp.ModelUsed = s.generator.Model()
	return resp
}

func (s *GuidanceService) respond(status models.GuidanceStatus, text string, selected *models.SelectedVerse) *models.GuidanceResponse {
	metrics.GuidanceTotal.WithLabelValues(string(status)).Inc()
	return &models.GuidanceResponse{
		GuidanceText:  text,
		Status:        status,
		SelectedVerse: selected,
		GeneratedAt:   time.Now().UTC(),
	}
}

func selectedVerse(s models.Suggestion) *models.SelectedVerse {
	return &models.SelectedVerse{
		Chapter: s.Record.Chapter,
		Verse:   s.Record.Verse,
		English: s.Record.TranslatedText,
	}
}
