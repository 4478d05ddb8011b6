package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/geetaway-search-api/internal/models"
)

// DefaultVertexModel is the Gemini model used when none is configured
const DefaultVertexModel = "gemini-2.0-flash"

// VertexGenerator generates guidance with Gemini on Vertex AI
type VertexGenerator struct {
	client *genai.Client
	model  string
}

// NewVertexGenerator creates a Gemini generator for a project and location
func NewVertexGenerator(ctx context.Context, projectID, location, model string) (*VertexGenerator, error) {
	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = DefaultVertexModel
	}
	return &VertexGenerator{client: client, model: model}, nil
}

// Close closes the genai client
func (g *VertexGenerator) Close() error {
	return g.client.Close()
}

// Model returns the Gemini model name
func (g *VertexGenerator) Model() string {
	return g.model
}

// Generate runs the prompt against the configured model
func (g *VertexGenerator) Generate(ctx context.Context, req Request) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(Temperature)
	model.SetTopP(TopP)
	model.SetMaxOutputTokens(MaxTokens)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(SystemPrompt)}}

	resp, err := model.GenerateContent(ctx, genai.Text(BuildPrompt(req)))
	if err != nil {
		return "", models.NewGuidanceServiceError(classifyGRPCError(err), err)
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", models.NewGuidanceServiceError(models.GuidanceFailureUnknown, errors.New("empty response"))
	}
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var text string
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	return text
}

func classifyGRPCError(err error) models.GuidanceFailure {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.GuidanceFailureUnavailable
	}
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return models.GuidanceFailureCredentials
	case codes.ResourceExhausted:
		return models.GuidanceFailureRateLimited
	case codes.Unavailable, codes.DeadlineExceeded, codes.Internal:
		return models.GuidanceFailureUnavailable
	default:
		return models.GuidanceFailureUnknown
	}
}
