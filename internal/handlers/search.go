package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/geetaway-search-api/internal/logger"
	"github.com/geetaway-search-api/internal/models"
	"github.com/geetaway-search-api/internal/services"
)

// Request bounds
const (
	minQuestionLen = 5
	maxQuestionLen = 500
	defaultTopK    = 5
	maxTopK        = 10
)

const audioBaseURL = "https://gitasupersite.iitk.ac.in/sites/default/files/audio"

// SearchHandler handles search endpoints
type SearchHandler struct {
	search   *services.SearchService
	guidance *services.GuidanceService
	stats    *Stats
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(search *services.SearchService, guidance *services.GuidanceService, stats *Stats) *SearchHandler {
	return &SearchHandler{
		search:   search,
		guidance: guidance,
		stats:    stats,
	}
}

// Search handles POST /search - verse retrieval with optional guidance
func (h *SearchHandler) Search(c echo.Context) error {
	start := time.Now()
	ctx := c.Request().Context()

	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	question, topK, err := validateSearchRequest(&req)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	includeGuidance := req.IncludeGuidance == nil || *req.IncludeGuidance
	filterPractical := req.FilterPractical == nil || *req.FilterPractical

	h.stats.RecordQuery()
	ctx = logger.WithFields(ctx, zap.Int("top_k", topK), zap.Bool("filter_practical", filterPractical))

	out, err := h.search.Search(ctx, question, services.SearchOptions{
		MaxResults:      topK,
		FilterPractical: filterPractical,
	})
	if err != nil {
		return searchError(c, err)
	}
	if out.Result.Empty() {
		return echo.NewHTTPError(http.StatusNotFound, "No verses found. Try rephrasing your question.").SetInternal(models.ErrNoResults)
	}

	verses := make([]models.VerseResponse, out.Result.Len())
	for i, cand := range out.Result.Candidates {
		verses[i] = verseResponse(cand)
	}

	var guidance *models.GuidanceResponse
	if includeGuidance {
		guidance = h.guidance.Guide(ctx, question, out.Result)
	}

	return c.JSON(http.StatusOK, models.SearchResponse{
		Query:            question,
		EnhancedQuery:    out.EnhancedQuery,
		Verses:           verses,
		Guidance:         guidance,
		TotalVerses:      len(verses),
		ProcessingTimeMS: math.Round(float64(time.Since(start).Microseconds())/10) / 100,
		Timestamp:        time.Now().UTC(),
	})
}

// RegisterRoutes registers search routes
func (h *SearchHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/search", h.Search)
}

func validateSearchRequest(req *models.SearchRequest) (string, int, error) {
	question := strings.TrimSpace(req.Question)
	if n := utf8.RuneCountInString(question); n < minQuestionLen || n > maxQuestionLen {
		return "", 0, fmt.Errorf("question must be between %d and %d characters", minQuestionLen, maxQuestionLen)
	}

	topK := req.TopK
	if topK == 0 {
		topK = defaultTopK
	}
	if topK < 1 || topK > maxTopK {
		return "", 0, fmt.Errorf("top_k must be between 1 and %d", maxTopK)
	}
	return question, topK, nil
}

func searchError(c echo.Context, err error) error {
	log := logger.FromContext(c.Request().Context())
	switch {
	case errors.Is(err, models.ErrConfiguration):
		log.Error("search misconfigured", zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Search is misconfigured").SetInternal(err)
	case errors.Is(err, models.ErrResourceUnavailable):
		log.Error("corpus unavailable", zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Verse corpus is unavailable").SetInternal(err)
	default:
		log.Error("search failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Search failed").SetInternal(err)
	}
}

func verseResponse(c models.Candidate) models.VerseResponse {
	rec := c.Record
	themes := rec.Themes
	if themes == nil {
		themes = []string{}
	}
	adjusted := c.AdjustedScore

	var warning *string
	if c.Warning != models.WarningNone {
		w := string(c.Warning)
		warning = &w
	}

	return models.VerseResponse{
		ID:                rec.ID(),
		Chapter:           rec.Chapter,
		Verse:             rec.Verse,
		Sanskrit:          rec.SourceText,
		English:           rec.TranslatedText,
		Score:             c.RawScore,
		Themes:            themes,
		IsPractical:       rec.IsPractical,
		AudioURL:          AudioURL(rec.VerseRef),
		ContextWarning:    warning,
		RelevanceAdjusted: &adjusted,
	}
}

// AudioURL returns the recitation audio for a verse. The audio server expects
// chapter and verse without zero padding.
func AudioURL(ref models.VerseRef) string {
	return fmt.Sprintf("%s/CHAP%d/%d-%d.MP3", audioBaseURL, ref.Chapter, ref.Chapter, ref.Verse)
}
