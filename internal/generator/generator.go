// Package generator turns reranked verse suggestions into guidance text using an
// external chat-completion model.
package generator

import (
	"context"

	"github.com/geetaway-search-api/internal/models"
)

// Sampling settings shared by all providers
const (
	Temperature      = 0.68
	TopP             = 0.92
	MaxTokens        = 500
	FrequencyPenalty = 0.1
	PresencePenalty  = 0.1
)

// Request is the input of a guidance generation
type Request struct {
	Problem     string
	Suggestions []models.Suggestion
}

// Generator produces guidance text. Failures are returned as
// *models.GuidanceServiceError with a structural cause.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}
