package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/geetaway-search-api/internal/models"
)

func chatServer(t *testing.T, code int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultOpenAIModel, req["model"])
		assert.InDelta(t, 0.68, req["temperature"], 1e-6)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	srv := chatServer(t, http.StatusOK,
		`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" Selected Verse: Chapter 2, Verse 47 "},"finish_reason":"stop"}]}`)

	g := NewOpenAIGenerator("test-key", srv.URL, "")
	text, err := g.Generate(context.Background(), Request{Problem: "help"})
	require.NoError(t, err)
	assert.Equal(t, "Selected Verse: Chapter 2, Verse 47", text)
	assert.Equal(t, DefaultOpenAIModel, g.Model())
}

func TestOpenAIGenerator_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name  string
		code  int
		cause models.GuidanceFailure
	}{
		{"unauthorized", http.StatusUnauthorized, models.GuidanceFailureCredentials},
		{"rate limited", http.StatusTooManyRequests, models.GuidanceFailureRateLimited},
		{"unavailable", http.StatusServiceUnavailable, models.GuidanceFailureUnavailable},
		{"bad request", http.StatusBadRequest, models.GuidanceFailureUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.code, `{"error":{"message":"nope","type":"error"}}`)

			_, err := NewOpenAIGenerator("test-key", srv.URL, "").Generate(context.Background(), Request{Problem: "help"})
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrGuidanceService)

			var gErr *models.GuidanceServiceError
			require.ErrorAs(t, err, &gErr)
			assert.Equal(t, tt.cause, gErr.Cause)
		})
	}
}

func TestOpenAIGenerator_EmptyCompletion(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"choices":[]}`)

	_, err := NewOpenAIGenerator("test-key", srv.URL, "").Generate(context.Background(), Request{Problem: "help"})
	assert.ErrorIs(t, err, models.ErrGuidanceService)
}

func TestClassifyGRPCError(t *testing.T) {
	assert.Equal(t, models.GuidanceFailureCredentials, classifyGRPCError(status.Error(codes.PermissionDenied, "denied")))
	assert.Equal(t, models.GuidanceFailureRateLimited, classifyGRPCError(status.Error(codes.ResourceExhausted, "quota")))
	assert.Equal(t, models.GuidanceFailureUnavailable, classifyGRPCError(status.Error(codes.Unavailable, "down")))
	assert.Equal(t, models.GuidanceFailureUnavailable, classifyGRPCError(context.DeadlineExceeded))
	assert.Equal(t, models.GuidanceFailureUnknown, classifyGRPCError(errors.New("boom")))
}
