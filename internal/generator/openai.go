package generator

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/geetaway-search-api/internal/models"
)

// Defaults for OpenAI-compatible chat endpoints
const (
	DefaultOpenAIBaseURL = "https://api.groq.com/openai/v1"
	DefaultOpenAIModel   = "llama-3.3-70b-versatile"
)

// OpenAIGenerator generates guidance with an OpenAI-compatible chat completion API
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator. Empty baseURL and model select the defaults.
func NewOpenAIGenerator(apiKey, baseURL, model string) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	cfg.BaseURL = baseURL
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Model returns the chat model name
func (g *OpenAIGenerator) Model() string {
	return g.model
}

// Generate sends the system and user prompts and returns the first choice
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req)},
		},
		MaxTokens:        MaxTokens,
		Temperature:      Temperature,
		TopP:             TopP,
		FrequencyPenalty: FrequencyPenalty,
		PresencePenalty:  PresencePenalty,
	})
	if err != nil {
		return "", models.NewGuidanceServiceError(classifyOpenAIError(err), err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if content == "" {
		return "", models.NewGuidanceServiceError(models.GuidanceFailureUnknown, errors.New("empty completion"))
	}
	return content, nil
}

func classifyOpenAIError(err error) models.GuidanceFailure {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyHTTPStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyHTTPStatus(reqErr.HTTPStatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.GuidanceFailureUnavailable
	}
	return models.GuidanceFailureUnknown
}

func classifyHTTPStatus(code int) models.GuidanceFailure {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return models.GuidanceFailureCredentials
	case code == http.StatusTooManyRequests:
		return models.GuidanceFailureRateLimited
	case code >= http.StatusInternalServerError:
		return models.GuidanceFailureUnavailable
	default:
		return models.GuidanceFailureUnknown
	}
}
