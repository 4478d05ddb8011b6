package models

import "time"

// VerseResponse represents a retrieved verse as returned by the API
type VerseResponse struct {
	ID                string   `json:"id"`
	Chapter           int      `json:"chapter"`
	Verse             int      `json:"verse"`
	Sanskrit          string   `json:"sanskrit"`
	English           string   `json:"english"`
	Score             float64  `json:"score"`
	Themes            []string `json:"themes"`
	IsPractical       bool     `json:"is_practical"`
	AudioURL          string   `json:"audio_url"`
	ContextWarning    *string  `json:"context_warning"`
	RelevanceAdjusted *float64 `json:"relevance_adjusted,omitempty"`
}

// SearchRequest is the request for verse search with optional guidance
type SearchRequest struct {
	Question        string `json:"question" validate:"required,min=5,max=500"`
	TopK            int    `json:"top_k" validate:"min=1,max=10"`
	IncludeGuidance *bool  `json:"include_guidance"`
	FilterPractical *bool  `json:"filter_practical"`
}

// GuidanceStatus describes how the guidance stage terminated
type GuidanceStatus string

const (
	GuidanceDispatched    GuidanceStatus = "dispatched"
	GuidanceLowConfidence GuidanceStatus = "low_confidence"
	GuidanceNoResults     GuidanceStatus = "no_results"
	GuidanceFallback      GuidanceStatus = "fallback"
)

// SelectedVerse is the verse the guidance was primarily grounded on
type SelectedVerse struct {
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
	English string `json:"english"`
}

// GuidanceResponse is the generated (or templated) guidance for a question
type GuidanceResponse struct {
	GuidanceText  string         `json:"guidance_text"`
	Status        GuidanceStatus `json:"status"`
	SelectedVerse *SelectedVerse `json:"selected_verse,omitempty"`
	GeneratedAt   time.Time      `json:"generated_at"`
	ModelUsed     string         `json:"model_used,omitempty"`
}

// SearchResponse is the response for verse search
type SearchResponse struct {
	Query            string            `json:"query"`
	EnhancedQuery    string            `json:"enhanced_query"`
	Verses           []VerseResponse   `json:"verses"`
	Guidance         *GuidanceResponse `json:"guidance"`
	TotalVerses      int               `json:"total_verses"`
	ProcessingTimeMS float64           `json:"processing_time_ms"`
	Timestamp        time.Time         `json:"timestamp"`
}

// StatsResponse reports corpus and traffic statistics
type StatsResponse struct {
	TotalVerses      int     `json:"total_verses"`
	TotalChapters    int     `json:"total_chapters"`
	QueriesProcessed int64   `json:"queries_processed"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}
