package handlers

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/geetaway-search-api/internal/corpus"
	"github.com/geetaway-search-api/internal/models"
)

// CorpusStatus reports on the lazily loaded corpus
type CorpusStatus interface {
	Store(ctx context.Context) (*corpus.Store, error)
	Loaded() bool
	LastError() error
}

// Stats counts processed queries since start
type Stats struct {
	started time.Time
	queries atomic.Int64
}

// NewStats starts the uptime clock
func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

// RecordQuery counts one search request
func (s *Stats) RecordQuery() { s.queries.Add(1) }

// QueriesProcessed returns the number of search requests served
func (s *Stats) QueriesProcessed() int64 { return s.queries.Load() }

// Uptime returns the time since start
func (s *Stats) Uptime() time.Duration { return time.Since(s.started) }

// HealthHandler handles health check and stats endpoints
type HealthHandler struct {
	corpus  CorpusStatus
	stats   *Stats
	appName string
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(c CorpusStatus, stats *Stats, appName, version string) *HealthHandler {
	return &HealthHandler{corpus: c, stats: stats, appName: appName, version: version}
}

// HealthResponse is the response for the health check
type HealthResponse struct {
	Status       string    `json:"status"`
	Version      string    `json:"version"`
	AppName      string    `json:"app_name"`
	CorpusLoaded bool       `json:"corpus_loaded"`
	LoadedAt     *time.Time `json:"corpus_loaded_at,omitempty"`
	TotalVerses  int        `json:"total_verses"`
	Error        string     `json:"error,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
}

// Health handles GET /health. It reports readiness without triggering a load.
func (h *HealthHandler) Health(c echo.Context) error {
	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		AppName:   h.appName,
		Timestamp: time.Now().UTC(),
	}

	if !h.corpus.Loaded() {
		if err := h.corpus.LastError(); err != nil {
			resp.Status = "unavailable"
			resp.Error = "corpus failed to load"
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
		resp.Status = "starting"
		return c.JSON(http.StatusOK, resp)
	}

	store, err := h.corpus.Store(c.Request().Context())
	if err != nil {
		resp.Status = "unavailable"
		resp.Error = "corpus failed to load"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	loadedAt := store.LoadedAt().UTC()
	resp.CorpusLoaded = true
	resp.LoadedAt = &loadedAt
	resp.TotalVerses = store.Len()
	return c.JSON(http.StatusOK, resp)
}

// Stats handles GET /stats
func (h *HealthHandler) Stats(c echo.Context) error {
	store, err := h.corpus.Store(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Corpus is not available")
	}
	return c.JSON(http.StatusOK, models.StatsResponse{
		TotalVerses:      store.Len(),
		TotalChapters:    store.Chapters(),
		QueriesProcessed: h.stats.QueriesProcessed(),
		UptimeSeconds:    h.stats.Uptime().Seconds(),
	})
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/stats", h.Stats)
}
